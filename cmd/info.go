package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	infoCmd := &cobra.Command{
		Use:   "info <manga-id>",
		Short: "Show series details from a source",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	addSourceFlag(infoCmd)
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveSource(app)
	if err != nil {
		return err
	}

	detail, err := app.registry.Details(cmd.Context(), id, args[0])
	if err != nil {
		return err
	}
	if detail == nil {
		fmt.Println("No details available.")
		return nil
	}

	fmt.Printf("%s\n", detail.Title)
	if detail.Author != "" {
		fmt.Printf("Author:  %s\n", detail.Author)
	}
	if detail.Artist != "" {
		fmt.Printf("Artist:  %s\n", detail.Artist)
	}
	if detail.Status != "" {
		fmt.Printf("Status:  %s\n", detail.Status)
	}
	if len(detail.Genres) > 0 {
		fmt.Printf("Genres:  %s\n", strings.Join(detail.Genres, ", "))
	}
	if detail.CoverURL != "" {
		fmt.Printf("Cover:   %s\n", detail.CoverURL)
	}
	if detail.Description != "" {
		fmt.Printf("\n%s\n", detail.Description)
	}

	return nil
}
