package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangasrc/internal/cache"

	"github.com/spf13/cobra"
)

var flagAssets bool

func init() {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local metadata and asset cache",
	}

	clearCmd := &cobra.Command{
		Use:   "clear <namespace>",
		Short: "Drop one cache namespace (covers, details, chapters, catalog)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheClear,
	}
	clearCmd.Flags().BoolVar(&flagAssets, "assets", false, "also drop the matching asset files")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every cache namespace and all asset files",
		RunE:  runCacheReset,
	}

	cacheCmd.AddCommand(clearCmd, resetCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	ns := cache.Namespace(args[0])
	known := false
	for _, n := range cache.Namespaces() {
		if n == ns {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown namespace %q", args[0])
	}

	if err := app.store.ClearNamespace(ns); err != nil {
		return err
	}
	if flagAssets {
		if err := app.files.ClearKind(string(ns)); err != nil {
			return err
		}
	}

	fmt.Printf("Cleared %s.\n", ns)
	return nil
}

func runCacheReset(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.Reset(); err != nil {
		return err
	}
	for _, ns := range cache.Namespaces() {
		if err := app.files.ClearKind(string(ns)); err != nil {
			return err
		}
	}
	if err := app.files.ClearKind("pages"); err != nil {
		return err
	}

	fmt.Println("Cache reset.")
	return nil
}
