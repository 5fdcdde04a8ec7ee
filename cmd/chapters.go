package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangasrc/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagChapter string
	flagRange   string
	flagList    string
)

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagChapter, "chapter", "", "single chapter by number (e.g. 28.5) or index")
	cmd.Flags().StringVar(&flagRange, "range", "", "chapter index range (e.g. 5-12)")
	cmd.Flags().StringVar(&flagList, "list", "", "specific chapter indices (e.g. 1,3,5)")
}

func init() {
	chaptersCmd := &cobra.Command{
		Use:   "chapters <manga-id>",
		Short: "List a series' chapters, optionally narrowed by selection flags",
		Args:  cobra.ExactArgs(1),
		RunE:  runChapters,
	}

	addSourceFlag(chaptersCmd)
	addSelectionFlags(chaptersCmd)
	rootCmd.AddCommand(chaptersCmd)
}

// selectChapters applies the CLI selection flags, falling back to config
// defaults.
func (a *app) selectChapters(all []source.Chapter) []source.Chapter {
	rng := flagRange
	if rng == "" {
		rng = a.cfg.DefaultRange
	}
	list := flagList
	if list == "" {
		list = a.cfg.DefaultList
	}

	return source.FilterChapters(all, flagChapter, rng, list)
}

func runChapters(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveSource(app)
	if err != nil {
		return err
	}

	all, err := app.registry.Chapters(cmd.Context(), id, args[0])
	if err != nil {
		return err
	}

	selected := app.selectChapters(all)
	if len(selected) == 0 {
		fmt.Printf("No chapters matched (%d total on %s).\n", len(all), id)
		return nil
	}

	fmt.Printf("%d of %d chapters:\n\n", len(selected), len(all))
	for _, ch := range selected {
		line := fmt.Sprintf("%7.4g  %s", ch.Number, ch.Name)
		if !ch.Date.IsZero() {
			line += "  (" + ch.Date.Format("2006-01-02") + ")"
		}
		if ch.Group != "" {
			line += "  [" + ch.Group + "]"
		}
		fmt.Println(line)
	}

	return nil
}
