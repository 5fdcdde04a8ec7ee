package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/mangasrc/internal/source"

	"github.com/spf13/cobra"
)

var flagFilters []string

func init() {
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a source for series matching a title",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	addSourceFlag(searchCmd)
	searchCmd.Flags().StringArrayVar(&flagFilters, "filter", nil, "search refinement as key=value (repeatable)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveSource(app)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	listings, err := app.registry.Search(cmd.Context(), id, query, parseFilters(flagFilters))
	if err != nil {
		return err
	}

	printListings(id, listings)
	return nil
}

func parseFilters(raw []string) source.Filters {
	if len(raw) == 0 {
		return nil
	}

	f := source.Filters{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			f[k] = v
		}
	}
	return f
}

func printListings(sourceID string, listings []source.Listing) {
	if len(listings) == 0 {
		fmt.Printf("No results on %s.\n", sourceID)
		return
	}

	fmt.Printf("%d results on %s:\n\n", len(listings), sourceID)
	for i, l := range listings {
		fmt.Printf("%3d) %s\n     id: %s\n", i+1, l.Title, l.ID)
		if l.ChapterCount > 0 {
			fmt.Printf("     chapters: %d\n", l.ChapterCount)
		}
	}
}
