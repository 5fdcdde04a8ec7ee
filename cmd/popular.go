package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	popularCmd := &cobra.Command{
		Use:   "popular",
		Short: "List a source's popular/trending series",
		RunE:  runPopular,
	}

	addSourceFlag(popularCmd)
	rootCmd.AddCommand(popularCmd)
}

func runPopular(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveSource(app)
	if err != nil {
		return err
	}

	listings, err := app.registry.Popular(cmd.Context(), id)
	if err != nil {
		return err
	}

	printListings(id, listings)
	return nil
}
