// Package catalog discovers sources at runtime: one or more remote index
// documents list source descriptors, which get registered as markup-backed
// sources. The catalog is cached under its own namespace so restarts do not
// hammer the index hosts.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/source/markup"
	"github.com/brogergvhs/mangasrc/internal/transport"
)

// Descriptor is one source entry of an index document.
type Descriptor struct {
	Name    string   `json:"name"`
	BaseURL string   `json:"base_url"`
	Mirrors []string `json:"mirrors"`
	Lang    string   `json:"lang"`
	NSFW    bool     `json:"nsfw"`
}

// Fetch loads descriptors from the given index URLs, serving from cache
// when an index was fetched within its TTL. One broken index does not sink
// the others.
func Fetch(ctx context.Context, client *transport.Client, store *cache.Cache, indexURLs []string) ([]Descriptor, error) {
	var all []Descriptor
	var lastErr error

	for _, idx := range indexURLs {
		key := cache.NormalizeKey(idx)

		if raw, ok := store.Get(cache.NSCatalog, key); ok {
			var ds []Descriptor
			if json.Unmarshal(raw, &ds) == nil {
				all = append(all, ds...)
				continue
			}
		}

		ds, err := fetchIndex(ctx, client, idx)
		if err != nil {
			slog.Warn("catalog index failed", "url", idx, "error", err)
			lastErr = err
			continue
		}

		if raw, err := json.Marshal(ds); err == nil {
			_ = store.Set(cache.NSCatalog, key, raw)
		}
		all = append(all, ds...)
	}

	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func fetchIndex(ctx context.Context, client *transport.Client, idx string) ([]Descriptor, error) {
	res, err := client.Get(ctx, idx, transport.Options{})
	if err != nil {
		return nil, err
	}

	var ds []Descriptor
	if err := res.JSON(&ds); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", idx, source.ErrBadPayload, err)
	}
	return ds, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a stable source id from a descriptor name.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Populate registers every usable descriptor as a markup-backed source.
// Descriptors missing a name or base URL, and ids already present, are
// skipped rather than fatal.
func Populate(reg *source.Registry, client *transport.Client, store *cache.Cache, descs []Descriptor) int {
	added := 0

	for _, d := range descs {
		id := Slug(d.Name)
		if id == "" || d.BaseURL == "" {
			continue
		}

		src := source.Source{
			ID:       id,
			Name:     d.Name,
			Language: d.Lang,
			Domains:  append([]string{d.BaseURL}, d.Mirrors...),
			Kind:     source.KindMarkup,
			NSFW:     d.NSFW,
		}

		if err := reg.Register(src, markup.New(client, store, markup.Site{})); err != nil {
			slog.Debug("skipping catalog source", "id", id, "error", err)
			continue
		}
		added++
	}

	return added
}
