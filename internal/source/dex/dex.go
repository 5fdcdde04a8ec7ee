// Package dex implements the capability contract against a structured JSON
// API with a stable relationship-graph shape: entities carry typed
// relationships that resolve author, artist and cover sub-objects.
package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/transport"
)

const (
	defaultAPI    = "https://api.mangadex.org"
	defaultCovers = "https://uploads.mangadex.org/covers"
	pageLimit     = 30
)

type Backend struct {
	api      string
	covers   string
	language string
	client   *transport.Client
	store    *cache.Cache
}

type Options struct {
	// API overrides the API base URL (tests point this at a mock server).
	API string
	// Covers overrides the cover-asset base URL.
	Covers string
	// Language narrows chapter feeds, e.g. "en".
	Language string
}

func New(client *transport.Client, store *cache.Cache, opts Options) *Backend {
	if opts.API == "" {
		opts.API = defaultAPI
	}
	if opts.Covers == "" {
		opts.Covers = defaultCovers
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Backend{
		api:      strings.TrimRight(opts.API, "/"),
		covers:   strings.TrimRight(opts.Covers, "/"),
		language: opts.Language,
		client:   client,
		store:    store,
	}
}

// entity is the manga shape shared by list and single responses.
type entity struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string `json:"title"`
		Description map[string]string `json:"description"`
		Status      string            `json:"status"`
		Tags        []struct {
			Attributes struct {
				Name map[string]string `json:"name"`
			} `json:"attributes"`
		} `json:"tags"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

type relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name     string `json:"name"`
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

func preferredText(m map[string]string, lang string) string {
	if v := m[lang]; v != "" {
		return v
	}
	if v := m["en"]; v != "" {
		return v
	}
	for _, v := range m {
		return v
	}
	return ""
}

// relationshipNamed resolves the first relationship of the given type.
func relationshipNamed(rels []relationship, kind string) (relationship, bool) {
	for _, r := range rels {
		if r.Type == kind {
			return r, true
		}
	}
	return relationship{}, false
}

func (b *Backend) coverURL(e entity) string {
	rel, ok := relationshipNamed(e.Relationships, "cover_art")
	if !ok || rel.Attributes.FileName == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s.256.jpg", b.covers, e.ID, rel.Attributes.FileName)
}

func (b *Backend) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	full := b.api + endpoint
	if len(q) > 0 {
		full += "?" + q.Encode()
	}

	res, err := b.client.Get(ctx, full, transport.Options{})
	if err != nil {
		return err
	}
	if err := res.JSON(out); err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, source.ErrBadPayload, err)
	}
	return nil
}

func (b *Backend) listing(e entity) source.Listing {
	return source.Listing{
		ID:       e.ID,
		Title:    preferredText(e.Attributes.Title, b.language),
		CoverURL: b.coverURL(e),
	}
}

func includes(q url.Values, kinds ...string) url.Values {
	for _, k := range kinds {
		q.Add("includes[]", k)
	}
	return q
}

func (b *Backend) Search(ctx context.Context, query string, filters source.Filters) ([]source.Listing, error) {
	q := url.Values{}
	q.Set("title", query)
	q.Set("limit", strconv.Itoa(pageLimit))
	for k, v := range filters {
		q.Set(k, v)
	}
	includes(q, "cover_art")

	var body struct {
		Data []entity `json:"data"`
	}
	if err := b.getJSON(ctx, "/manga", q, &body); err != nil {
		return nil, err
	}

	out := make([]source.Listing, 0, len(body.Data))
	for _, e := range body.Data {
		out = append(out, b.listing(e))
	}
	return out, nil
}

func (b *Backend) Popular(ctx context.Context) ([]source.Listing, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("order[followedCount]", "desc")
	includes(q, "cover_art")

	var body struct {
		Data []entity `json:"data"`
	}
	if err := b.getJSON(ctx, "/manga", q, &body); err != nil {
		return nil, err
	}

	out := make([]source.Listing, 0, len(body.Data))
	for _, e := range body.Data {
		out = append(out, b.listing(e))
	}
	return out, nil
}

func (b *Backend) Details(ctx context.Context, id string) (*source.Detail, error) {
	if raw, ok := b.store.Get(cache.NSDetails, id); ok {
		var rec source.Detail
		if json.Unmarshal(raw, &rec) == nil {
			return &rec, nil
		}
	}

	var body struct {
		Data entity `json:"data"`
	}
	if err := b.getJSON(ctx, "/manga/"+id, includes(url.Values{}, "author", "artist", "cover_art"), &body); err != nil {
		return nil, err
	}
	if body.Data.ID == "" {
		return nil, nil
	}

	e := body.Data
	rec := &source.Detail{
		ID:          e.ID,
		Title:       preferredText(e.Attributes.Title, b.language),
		Description: preferredText(e.Attributes.Description, b.language),
		Status:      e.Attributes.Status,
		CoverURL:    b.coverURL(e),
	}
	if rel, ok := relationshipNamed(e.Relationships, "author"); ok {
		rec.Author = rel.Attributes.Name
	}
	if rel, ok := relationshipNamed(e.Relationships, "artist"); ok {
		rec.Artist = rel.Attributes.Name
	}
	for _, tag := range e.Attributes.Tags {
		if g := preferredText(tag.Attributes.Name, b.language); g != "" {
			rec.Genres = append(rec.Genres, g)
		}
	}

	if raw, err := json.Marshal(rec); err == nil {
		_ = b.store.Set(cache.NSDetails, id, raw)
	}
	return rec, nil
}

func (b *Backend) Chapters(ctx context.Context, id string) ([]source.Chapter, error) {
	if raw, ok := b.store.Get(cache.NSChapters, id); ok {
		var recs []source.Chapter
		if json.Unmarshal(raw, &recs) == nil {
			return recs, nil
		}
	}

	q := url.Values{}
	q.Set("limit", "100")
	q.Set("order[chapter]", "asc")
	q.Add("translatedLanguage[]", b.language)
	includes(q, "scanlation_group")

	var body struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				Title       string    `json:"title"`
				Chapter     string    `json:"chapter"`
				Volume      string    `json:"volume"`
				PublishAt   time.Time `json:"publishAt"`
				TranslatedL string    `json:"translatedLanguage"`
			} `json:"attributes"`
			Relationships []relationship `json:"relationships"`
		} `json:"data"`
	}
	if err := b.getJSON(ctx, "/manga/"+id+"/feed", q, &body); err != nil {
		return nil, err
	}

	out := make([]source.Chapter, 0, len(body.Data))
	for _, c := range body.Data {
		ch := source.Chapter{
			ID:     c.ID,
			Name:   c.Attributes.Title,
			Volume: c.Attributes.Volume,
			Date:   c.Attributes.PublishAt,
		}
		if n, err := strconv.ParseFloat(c.Attributes.Chapter, 64); err == nil {
			ch.Number = n
		}
		if ch.Name == "" && c.Attributes.Chapter != "" {
			ch.Name = "Chapter " + c.Attributes.Chapter
		}
		if rel, ok := relationshipNamed(c.Relationships, "scanlation_group"); ok {
			ch.Group = rel.Attributes.Name
		}
		out = append(out, ch)
	}

	if len(out) > 0 {
		if raw, err := json.Marshal(out); err == nil {
			_ = b.store.Set(cache.NSChapters, id, raw)
		}
	}
	return out, nil
}

// Pages resolves the image-host handshake for a chapter: the API hands out
// a host plus hashed file names, which combine into direct page URLs.
func (b *Backend) Pages(ctx context.Context, chapterID string) ([]source.Page, error) {
	var body struct {
		BaseURL string `json:"baseUrl"`
		Chapter struct {
			Hash string   `json:"hash"`
			Data []string `json:"data"`
		} `json:"chapter"`
	}
	if err := b.getJSON(ctx, "/at-home/server/"+chapterID, nil, &body); err != nil {
		return nil, err
	}
	if body.BaseURL == "" || body.Chapter.Hash == "" {
		return nil, fmt.Errorf("at-home response for %s: %w", chapterID, source.ErrBadPayload)
	}

	out := make([]source.Page, 0, len(body.Chapter.Data))
	for i, file := range body.Chapter.Data {
		out = append(out, source.Page{
			URL:   fmt.Sprintf("%s/data/%s/%s", strings.TrimRight(body.BaseURL, "/"), body.Chapter.Hash, file),
			Index: i,
		})
	}
	return out, nil
}
