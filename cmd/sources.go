package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/source/catalog"

	"github.com/spf13/cobra"
)

var (
	flagSourceLang string
	flagRefresh    bool
	flagShowNSFW   bool
)

func init() {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List registered sources",
		RunE:  runSources,
	}

	sourcesCmd.Flags().StringVar(&flagSourceLang, "lang-filter", "", "only sources serving this language")
	sourcesCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "refetch the source catalog indexes, bypassing the cache")
	sourcesCmd.Flags().BoolVar(&flagShowNSFW, "nsfw", false, "include NSFW sources")

	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	if flagRefresh && len(app.cfg.CatalogURLs) > 0 {
		if err := app.store.ClearNamespace(cache.NSCatalog); err != nil {
			return err
		}
		descs, err := catalog.Fetch(cmd.Context(), app.client, app.store, app.cfg.CatalogURLs)
		if err != nil {
			return err
		}
		added := catalog.Populate(app.registry, app.client, app.store, descs)
		fmt.Printf("Catalog refreshed: %d new sources.\n\n", added)
	}

	var list []source.Source
	if flagSourceLang != "" {
		list = app.registry.ListByLanguage(flagSourceLang)
	} else {
		list = app.registry.All()
	}

	if len(list) == 0 {
		fmt.Println("No sources registered.")
		return nil
	}

	for _, s := range list {
		if s.NSFW && !flagShowNSFW {
			continue
		}
		line := fmt.Sprintf("%-20s %-24s %-6s %s", s.ID, s.Name, s.Language, s.Kind)
		if s.NSFW {
			line += "  (nsfw)"
		}
		fmt.Println(line)

		for _, d := range app.registry.ActiveDomains(s.ID) {
			fmt.Printf("%20s   %s\n", "", d)
		}
	}

	return nil
}
