// Package markup implements the capability contract for sources that only
// exist as scrapeable HTML sites. One Backend works across a source's
// mirror domains; the registry binds it to a domain per attempt via
// WithDomain.
package markup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/extract"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/transport"
)

// Site tunes path templates for a markup source. Zero values use the paths
// most aggregator themes answer.
type Site struct {
	// SearchPath is a format string receiving the escaped query.
	SearchPath string
	// PopularPath lists the popular/trending page.
	PopularPath string
}

func (s Site) withDefaults() Site {
	if s.SearchPath == "" {
		s.SearchPath = "/?s=%s"
	}
	if s.PopularPath == "" {
		s.PopularPath = "/popular/"
	}
	return s
}

type Backend struct {
	site   Site
	base   string
	client *transport.Client
	store  *cache.Cache
}

func New(client *transport.Client, store *cache.Cache, site Site) *Backend {
	return &Backend{
		site:   site.withDefaults(),
		client: client,
		store:  store,
	}
}

// WithDomain binds a copy of the backend to one mirror domain.
func (b *Backend) WithDomain(base string) source.Backend {
	bound := *b
	bound.base = strings.TrimRight(base, "/")
	return &bound
}

func (b *Backend) fetch(ctx context.Context, pageURL string) (string, error) {
	res, err := b.client.Get(ctx, pageURL, transport.Options{CheckChallenge: true})
	if err != nil {
		return "", err
	}
	return string(res.Bytes()), nil
}

func (b *Backend) Search(ctx context.Context, query string, _ source.Filters) ([]source.Listing, error) {
	pageURL := b.base + fmt.Sprintf(b.site.SearchPath, url.QueryEscape(query))

	body, err := b.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	recs, strategy := extract.Listings(body, b.base)
	slog.Debug("extracted listings", "url", pageURL, "strategy", strategy, "count", len(recs))
	return recs, nil
}

func (b *Backend) Popular(ctx context.Context) ([]source.Listing, error) {
	pageURL := b.base + b.site.PopularPath

	body, err := b.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	recs, strategy := extract.Listings(body, b.base)
	slog.Debug("extracted popular listings", "url", pageURL, "strategy", strategy, "count", len(recs))
	return recs, nil
}

// Details fetches and extracts a series page. For markup sources the record
// id is the absolute series URL, so the cache key is its normalized form.
func (b *Backend) Details(ctx context.Context, id string) (*source.Detail, error) {
	key := cache.NormalizeKey(id)
	if raw, ok := b.store.Get(cache.NSDetails, key); ok {
		var rec source.Detail
		if json.Unmarshal(raw, &rec) == nil {
			return &rec, nil
		}
	}

	body, err := b.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	rec, strategy := extract.Detail(body, b.base, id)
	slog.Debug("extracted detail", "url", id, "strategy", strategy, "found", rec != nil)
	if rec == nil {
		return nil, nil
	}

	if raw, err := json.Marshal(rec); err == nil {
		_ = b.store.Set(cache.NSDetails, key, raw)
	}
	return rec, nil
}

func (b *Backend) Chapters(ctx context.Context, id string) ([]source.Chapter, error) {
	key := cache.NormalizeKey(id)
	if raw, ok := b.store.Get(cache.NSChapters, key); ok {
		var recs []source.Chapter
		if json.Unmarshal(raw, &recs) == nil {
			return recs, nil
		}
	}

	body, err := b.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	recs, strategy := extract.Chapters(body, b.base)
	slog.Debug("extracted chapters", "url", id, "strategy", strategy, "count", len(recs))
	if len(recs) == 0 {
		return nil, nil
	}

	if raw, err := json.Marshal(recs); err == nil {
		_ = b.store.Set(cache.NSChapters, key, raw)
	}
	return recs, nil
}

// Pages is never cached: gallery URLs rotate too fast to be worth keeping.
func (b *Backend) Pages(ctx context.Context, chapterID string) ([]source.Page, error) {
	body, err := b.fetch(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	recs, strategy := extract.Pages(body, b.base)
	slog.Debug("extracted pages", "url", chapterID, "strategy", strategy, "count", len(recs))
	return recs, nil
}
