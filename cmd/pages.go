package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	pagesCmd := &cobra.Command{
		Use:   "pages <chapter-id>",
		Short: "List a chapter's page image URLs",
		Args:  cobra.ExactArgs(1),
		RunE:  runPages,
	}

	addSourceFlag(pagesCmd)
	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveSource(app)
	if err != nil {
		return err
	}

	pages, err := app.registry.Pages(cmd.Context(), id, args[0])
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		fmt.Println("No pages found.")
		return nil
	}

	for _, p := range pages {
		fmt.Printf("%3d  %s\n", p.Index+1, p.URL)
	}

	return nil
}
