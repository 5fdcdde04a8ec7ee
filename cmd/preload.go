package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brogergvhs/mangasrc/internal/preload"
	"github.com/brogergvhs/mangasrc/internal/ui"
	"github.com/brogergvhs/mangasrc/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagWorkers int
	flagDryRun  bool
)

func init() {
	preloadCmd := &cobra.Command{
		Use:   "preload <manga-id>",
		Short: "Fetch chapter page images into the local cache ahead of reading",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreload,
	}

	addSourceFlag(preloadCmd)
	addSelectionFlags(preloadCmd)
	preloadCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel page fetches per chapter")
	preloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be preloaded, don't fetch")

	rootCmd.AddCommand(preloadCmd)
}

func runPreload(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no chapters selected (%d available)", len(all))
	}

	if flagDryRun {
		fmt.Printf("Dry-run: %d chapters selected.\n\n", len(selected))
		for _, ch := range selected {
			fmt.Printf("%7.4g  %s\n", ch.Number, ch.Name)
		}
		return nil
	}

	workers := flagWorkers
	if workers == 0 {
		workers = app.cfg.Workers
	}

	util.SetupInterruptHandler(app.cfg.CacheDir)

	pool := preload.New(app.client, app.files, workers)
	pm := ui.NewProgressManager()
	stats := &ui.Stats{}
	start := time.Now()

	for _, ch := range selected {
		pages, err := app.registry.Pages(cmd.Context(), id, ch.ID)
		if err != nil {
			slog.Error("chapter pages unavailable", "chapter", ch.Name, "err", err)
			stats.TotalFailed.Add(1)
			continue
		}
		if len(pages) == 0 {
			slog.Warn("chapter has no pages", "chapter", ch.Name)
			continue
		}

		handle := pm.Register(fmt.Sprintf("Ch.%.4g", ch.Number))
		handle.Update(0, len(pages), 0)

		referer := ""
		if strings.HasPrefix(ch.ID, "http") {
			referer = ch.ID
		}

		results := pool.Run(cmd.Context(), "pages", referer, pages, handle)
		handle.MarkDone()

		failed := preload.Failed(results)
		for _, f := range failed {
			slog.Error("page failed", "chapter", ch.Name, "page", f.Page.Index, "err", f.Err)
		}

		var bytes int64
		for _, r := range results {
			bytes += r.Bytes
		}

		stats.TotalChapters.Add(1)
		stats.TotalPages.Add(int64(len(results) - len(failed)))
		stats.TotalBytes.Add(bytes)
		stats.TotalFailed.Add(int64(len(failed)))

		if cmd.Context().Err() != nil {
			break
		}
	}

	pm.Close()

	fmt.Println()
	fmt.Println("Preload Summary:")
	fmt.Printf("Chapters: %d\n", stats.TotalChapters.Load())
	fmt.Printf("Pages:    %d\n", stats.TotalPages.Load())
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	if failed := stats.TotalFailed.Load(); failed > 0 {
		fmt.Printf("Failed:   %d\n", failed)
	}
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))

	return nil
}
