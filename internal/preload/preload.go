// Package preload fetches page images ahead of reading into the file-backed
// cache. A small fixed pool pulls from a shared queue; one failed item is
// recorded and the pool moves on, never stalling its siblings.
package preload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/brogergvhs/mangasrc/internal/cache"
	"github.com/brogergvhs/mangasrc/internal/source"
	"github.com/brogergvhs/mangasrc/internal/transport"
)

const DefaultWorkers = 3

// Progress receives completion ticks. The mpb bar in cmd implements it;
// tests pass nil.
type Progress interface {
	Update(done, total int, bytes int64)
}

type Result struct {
	Page  source.Page
	Path  string
	Bytes int64
	Err   error
}

type Pool struct {
	client  *transport.Client
	files   *cache.FileStore
	workers int
}

func New(client *transport.Client, files *cache.FileStore, workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{client: client, files: files, workers: workers}
}

// Run fetches every page into the store under the given asset kind. Pages
// already present are counted as done without a refetch. Results come back
// in page order.
func (p *Pool) Run(ctx context.Context, kind, referer string, pages []source.Page, prog Progress) []Result {
	total := len(pages)
	results := make([]Result, total)

	workers := p.workers
	if workers > total && total > 0 {
		workers = total
	}

	var mu sync.Mutex
	done := 0
	var doneBytes int64

	tick := func(n int64) {
		mu.Lock()
		done++
		doneBytes += n
		if prog != nil {
			prog.Update(done, total, doneBytes)
		}
		mu.Unlock()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.fetchOne(ctx, kind, referer, pages[i])
				tick(results[i].Bytes)
			}
		}()
	}

	for i := range pages {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()
	return results
}

func (p *Pool) fetchOne(ctx context.Context, kind, referer string, page source.Page) Result {
	res := Result{Page: page}

	if existing, ok := p.files.Find(kind, page.URL); ok {
		res.Path = existing
		return res
	}

	req := transport.Request{URL: page.URL, Method: http.MethodGet}
	if referer != "" {
		req.Headers = map[string]string{"Referer": referer}
	}

	resp, err := p.client.Do(ctx, req, transport.Options{})
	if err != nil {
		res.Err = fmt.Errorf("page %d: %w", page.Index, err)
		return res
	}

	body := resp.Bytes()
	stored, err := p.files.Put(kind, page.URL, fileExt(page.URL), bytes.NewReader(body))
	if err != nil {
		res.Err = fmt.Errorf("page %d: %w", page.Index, err)
		return res
	}

	res.Path = stored
	res.Bytes = int64(len(body))
	return res
}

func fileExt(rawurl string) string {
	ext := path.Ext(rawurl)
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return ext
}

// Failed filters the results down to the ones that errored.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
