package dex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/transport"
	"github.com/stretchr/testify/require"
)

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestBackend(t *testing.T, handler http.Handler) *Backend {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := cache.Open(cache.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := transport.NewClient(transport.ClientOptions{
		Gate:    transport.NewHostGate(1000, time.Second),
		Sleeper: instantSleeper{},
	})

	return New(client, store, Options{
		API:    srv.URL,
		Covers: "https://uploads.example/covers",
	})
}

const mangaEntity = `{
	"id": "m-1",
	"attributes": {
		"title": {"en": "Berserk"},
		"description": {"en": "Dark fantasy."},
		"status": "ongoing",
		"tags": [{"attributes": {"name": {"en": "Action"}}}]
	},
	"relationships": [
		{"id": "a-1", "type": "author", "attributes": {"name": "Kentaro Miura"}},
		{"id": "r-1", "type": "artist", "attributes": {"name": "Kentaro Miura"}},
		{"id": "c-1", "type": "cover_art", "attributes": {"fileName": "berserk.png"}}
	]
}`

func TestPopularMapsRelationships(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/manga", r.URL.Path)
		require.Equal(t, "desc", r.URL.Query().Get("order[followedCount]"))
		w.Write([]byte(`{"data": [` + mangaEntity + `]}`))
	}))

	recs, err := b.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "m-1", recs[0].ID)
	require.Equal(t, "Berserk", recs[0].Title)
	require.Equal(t, "https://uploads.example/covers/m-1/berserk.png.256.jpg", recs[0].CoverURL)
}

func TestDetailsResolvesAuthorArtistAndCover(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/manga/m-1", r.URL.Path)
		w.Write([]byte(`{"data": ` + mangaEntity + `}`))
	}))

	rec, err := b.Details(context.Background(), "m-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "Kentaro Miura", rec.Author)
	require.Equal(t, "Kentaro Miura", rec.Artist)
	require.Equal(t, "ongoing", rec.Status)
	require.Equal(t, []string{"Action"}, rec.Genres)
	require.Equal(t, "https://uploads.example/covers/m-1/berserk.png.256.jpg", rec.CoverURL)
}

func TestSearchSendsTitleAndFilters(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "berserk", q.Get("title"))
		require.Equal(t, "safe", q.Get("contentRating[]"))
		w.Write([]byte(`{"data": []}`))
	}))

	recs, err := b.Search(context.Background(), "berserk", map[string]string{"contentRating[]": "safe"})
	require.NoError(t, err)
	require.Empty(t, recs, "empty data is no results, not an error")
}

func TestChaptersMapsFeed(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/manga/m-1/feed", r.URL.Path)
		require.Equal(t, "en", r.URL.Query().Get("translatedLanguage[]"))
		w.Write([]byte(`{"data": [
			{"id": "ch-1", "attributes": {"title": "", "chapter": "1", "volume": "1", "publishAt": "2020-01-01T00:00:00Z"},
			 "relationships": [{"id": "g-1", "type": "scanlation_group", "attributes": {"name": "GroupX"}}]},
			{"id": "ch-2", "attributes": {"title": "The Brand", "chapter": "1.5", "volume": "", "publishAt": "2020-02-01T00:00:00Z"}, "relationships": []}
		]}`))
	}))

	recs, err := b.Chapters(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.Equal(t, "Chapter 1", recs[0].Name, "untitled chapters get a synthesized name")
	require.Equal(t, 1.0, recs[0].Number)
	require.Equal(t, "1", recs[0].Volume)
	require.Equal(t, "GroupX", recs[0].Group)

	require.Equal(t, "The Brand", recs[1].Name)
	require.Equal(t, 1.5, recs[1].Number)
}

func TestPagesBuildsImageHostURLs(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/at-home/server/ch-1", r.URL.Path)
		w.Write([]byte(`{"baseUrl": "https://host.example", "chapter": {"hash": "abc123", "data": ["1.png", "2.png"]}}`))
	}))

	recs, err := b.Pages(context.Background(), "ch-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "https://host.example/data/abc123/1.png", recs[0].URL)
	require.Equal(t, 1, recs[1].Index)
}

func TestBadPayloadIsParseError(t *testing.T) {
	b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))

	_, err := b.Popular(context.Background())
	require.ErrorIs(t, err, source.ErrBadPayload)
}
