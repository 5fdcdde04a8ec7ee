package preload

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/transport"
	"github.com/stretchr/testify/require"
)

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestPool(t *testing.T, workers int) (*Pool, *cache.FileStore) {
	t.Helper()

	files, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	client := transport.NewClient(transport.ClientOptions{
		Gate:    transport.NewHostGate(1000, time.Second),
		Sleeper: instantSleeper{},
	})

	return New(client, files, workers), files
}

func testPages(srvURL string, n int) []source.Page {
	pages := make([]source.Page, n)
	for i := range pages {
		pages[i] = source.Page{Index: i, URL: fmt.Sprintf("%s/pages/%03d.jpg", srvURL, i)}
	}
	return pages
}

type countingProgress struct {
	mu    sync.Mutex
	ticks int
	last  int
}

func (p *countingProgress) Update(done, total int, _ int64) {
	p.mu.Lock()
	p.ticks++
	p.last = done
	p.mu.Unlock()
}

func TestRunFetchesAllPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img-" + r.URL.Path))
	}))
	defer srv.Close()

	pool, files := newTestPool(t, 3)
	pages := testPages(srv.URL, 5)

	prog := &countingProgress{}
	results := pool.Run(context.Background(), "pages", srv.URL, pages, prog)

	require.Len(t, results, 5)
	for i, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, i, res.Page.Index)
		require.NotEmpty(t, res.Path)

		body, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		require.Equal(t, "img-"+fmt.Sprintf("/pages/%03d.jpg", i), string(body))

		_, ok := files.Find("pages", pages[i].URL)
		require.True(t, ok)
	}

	require.Equal(t, 5, prog.ticks)
	require.Equal(t, 5, prog.last)
}

func TestRunRecordsFailureAndContinues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pages/001.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	pool, _ := newTestPool(t, 2)
	pages := testPages(srv.URL, 4)

	results := pool.Run(context.Background(), "pages", "", pages, nil)

	failed := Failed(results)
	require.Len(t, failed, 1)
	require.Equal(t, 1, failed[0].Page.Index)

	var statusErr *transport.StatusError
	require.ErrorAs(t, failed[0].Err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Code)

	for _, res := range results {
		if res.Page.Index == 1 {
			continue
		}
		require.NoError(t, res.Err)
		require.NotEmpty(t, res.Path)
	}
}

func TestRunSkipsAlreadyStoredPages(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	pool, _ := newTestPool(t, 2)
	pages := testPages(srv.URL, 3)

	first := pool.Run(context.Background(), "pages", "", pages, nil)
	require.Empty(t, Failed(first))
	require.EqualValues(t, 3, hits.Load())

	second := pool.Run(context.Background(), "pages", "", pages, nil)
	require.Empty(t, Failed(second))
	require.EqualValues(t, 3, hits.Load(), "stored pages are not refetched")
	for i, res := range second {
		require.Equal(t, first[i].Path, res.Path)
		require.Zero(t, res.Bytes)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("ok"))
	}))
	defer srv.Close()
	defer close(release)

	pool, _ := newTestPool(t, 1)
	pages := testPages(srv.URL, 10)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan []Result, 1)
	go func() { done <- pool.Run(ctx, "pages", "", pages, nil) }()

	select {
	case results := <-done:
		require.Len(t, results, 10)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}
