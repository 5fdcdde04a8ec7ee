package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/config"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/source/catalog"
	"github.com/brogergvhs/mangasrc/internal/source/dex"
	"github.com/brogergvhs/mangasrc/internal/source/markup"
	"github.com/brogergvhs/mangasrc/internal/transport"
	"github.com/brogergvhs/mangasrc/internal/ui"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool

	flagCacheDir   string
	flagLanguage   string
	flagUserAgent  string
	flagCookie     string
	flagCookieFile string
	flagTimeout    int
	flagRateLimit  int

	flagSource string
)

var rootCmd = &cobra.Command{
	Use:   "mangasrc",
	Short: "Browse, inspect and preload manga content from scraped and API sources",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	pf.StringVar(&flagCacheDir, "cache-dir", "", "cache directory (metadata and assets)")
	pf.StringVar(&flagLanguage, "lang", "", "preferred content language, e.g. en")
	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	pf.StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	pf.IntVar(&flagTimeout, "timeout", 0, "per-request timeout in seconds")
	pf.IntVar(&flagRateLimit, "rate-limit", 0, "max requests per host per window")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// app bundles the wired subsystems every data command needs.
type app struct {
	cfg      *config.Config
	client   *transport.Client
	store    *cache.Cache
	files    *cache.FileStore
	registry *source.Registry
}

func newApp(ctx context.Context) (*app, error) {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		CacheDir:     flagCacheDir,
		Language:     flagLanguage,
		RateLimit:    flagRateLimit,
		TimeoutSec:   flagTimeout,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		UserAgent:    flagUserAgent,
	})
	if err != nil {
		return nil, err
	}

	ui.SetupLogging(cfg.Debug)
	slog.Debug("config loaded", "path", usedPath)

	cookie, err := cfg.ResolveCookie()
	if err != nil {
		return nil, err
	}

	client := transport.NewClient(transport.ClientOptions{
		UserAgent: cfg.UserAgent,
		Cookie:    cookie,
		Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		Gate:      transport.NewHostGate(cfg.RateLimit, time.Duration(cfg.RateWindowSec)*time.Second),
	})

	store, err := cache.Open(cache.Options{
		Dir:      filepath.Join(cfg.CacheDir, "meta"),
		Capacity: cfg.MemoryCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	files, err := cache.NewFileStore(filepath.Join(cfg.CacheDir, "assets"))
	if err != nil {
		store.Close()
		return nil, err
	}

	reg := source.NewRegistry()

	if err := reg.Register(source.Source{
		ID:       "mangadex",
		Name:     "MangaDex",
		Language: cfg.Language,
		Kind:     source.KindStructuredAPI,
	}, dex.New(client, store, dex.Options{Language: cfg.Language})); err != nil {
		store.Close()
		return nil, err
	}

	for _, s := range cfg.Sources {
		id := s.ID
		if id == "" {
			id = catalog.Slug(s.Name)
		}
		src := source.Source{
			ID:       id,
			Name:     s.Name,
			Language: cfg.Language,
			Domains:  append([]string{s.URL}, s.Mirrors...),
			Kind:     source.KindMarkup,
			NSFW:     s.NSFW,
		}
		if err := reg.Register(src, markup.New(client, store, markup.Site{})); err != nil {
			slog.Warn("skipping configured source", "id", id, "err", err)
		}
	}

	if len(cfg.CatalogURLs) > 0 {
		descs, err := catalog.Fetch(ctx, client, store, cfg.CatalogURLs)
		if err != nil {
			slog.Warn("source catalog unavailable", "err", err)
		} else {
			added := catalog.Populate(reg, client, store, descs)
			slog.Debug("catalog sources registered", "count", added)
		}
	}

	return &app{cfg: cfg, client: client, store: store, files: files, registry: reg}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing cache", "err", err)
	}
}

// resolveSource returns the --source id, prompting for a pick when the flag
// is absent and stdin is a terminal-driven session.
func resolveSource(a *app) (string, error) {
	if flagSource != "" {
		if _, err := a.registry.Get(flagSource); err != nil {
			return "", err
		}
		return flagSource, nil
	}

	all := a.registry.All()
	if len(all) == 0 {
		return "", fmt.Errorf("no sources registered")
	}
	if len(all) == 1 {
		return all[0].ID, nil
	}

	items := make([]string, len(all))
	for i, s := range all {
		items[i] = fmt.Sprintf("%s — %s [%s]", s.ID, s.Name, s.Kind)
	}

	prompt := promptui.Select{
		Label: "Pick a source",
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("source selection aborted: %w", err)
	}

	return all[idx].ID, nil
}

func addSourceFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSource, "source", "", "source id (interactive pick when omitted)")
}
