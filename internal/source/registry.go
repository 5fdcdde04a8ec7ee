package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry owns the id -> backend mapping and performs request-time
// dispatch, including mirror failover for markup sources. It is an
// explicitly constructed object; tests build a fresh one each.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	src     Source
	backend Backend

	// domains carries the sticky-promoted mirror order. Process-lifetime
	// only, never persisted.
	dmu     sync.Mutex
	domains []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) Register(src Source, backend Backend) error {
	if src.ID == "" {
		return errors.New("source id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[src.ID]; exists {
		return fmt.Errorf("source %q already registered", src.ID)
	}

	domains := make([]string, len(src.Domains))
	copy(domains, src.Domains)

	r.entries[src.ID] = &entry{src: src, backend: backend, domains: domains}
	return nil
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Get is the strict lookup.
func (r *Registry) Get(id string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Source{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return e.src, nil
}

// GetOrStub never fails: unknown ids come back as a disabled placeholder
// source backed by a stub.
func (r *Registry) GetOrStub(id string) Source {
	if src, err := r.Get(id); err == nil {
		return src
	}
	return Source{
		ID:   id,
		Name: id + " (unavailable)",
		Kind: KindStub,
	}
}

func (r *Registry) ListByLanguage(lang string) []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Source
	for _, e := range r.entries {
		if lang == "" || e.src.Language == lang {
			out = append(out, e.src)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) All() []Source {
	return r.ListByLanguage("")
}

// ActiveDomains reports the current mirror order for a source, sticky
// promotion included.
func (r *Registry) ActiveDomains(id string) []string {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return e.snapshotDomains()
}

func (e *entry) snapshotDomains() []string {
	e.dmu.Lock()
	defer e.dmu.Unlock()
	out := make([]string, len(e.domains))
	copy(out, e.domains)
	return out
}

func (e *entry) promote(domain string) {
	e.dmu.Lock()
	defer e.dmu.Unlock()
	for i, d := range e.domains {
		if d == domain {
			copy(e.domains[1:i+1], e.domains[:i])
			e.domains[0] = domain
			return
		}
	}
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return e, nil
}

// dispatch runs op against the source's backend. Markup sources iterate
// mirror domains strictly in order until one yields a usable result, which
// then gets promoted to the front for later calls. Unsupported capabilities
// fail immediately; retrying cannot change that outcome.
func dispatch[T any](ctx context.Context, r *Registry, id string, op func(Backend) (T, bool, error)) (T, error) {
	var zero T

	e, err := r.lookup(id)
	if err != nil {
		return zero, err
	}

	mb, mirrored := e.backend.(MirrorBackend)
	if e.src.Kind != KindMarkup || !mirrored {
		v, _, err := op(e.backend)
		return v, err
	}

	var lastErr error
	for i, domain := range e.snapshotDomains() {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, usable, err := op(mb.WithDomain(domain))
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				return zero, err
			}
			slog.Debug("mirror attempt failed", "source", id, "domain", domain, "error", err)
			lastErr = err
			continue
		}
		if usable {
			if i > 0 {
				e.promote(domain)
				slog.Debug("promoted mirror", "source", id, "domain", domain)
			}
			return v, nil
		}
	}

	if lastErr != nil {
		return zero, lastErr
	}
	// every mirror answered but none had content: that is "no results"
	return zero, nil
}

func (r *Registry) Search(ctx context.Context, id, query string, filters Filters) ([]Listing, error) {
	return dispatch(ctx, r, id, func(b Backend) ([]Listing, bool, error) {
		out, err := b.Search(ctx, query, filters)
		return out, len(out) > 0, err
	})
}

func (r *Registry) Popular(ctx context.Context, id string) ([]Listing, error) {
	return dispatch(ctx, r, id, func(b Backend) ([]Listing, bool, error) {
		out, err := b.Popular(ctx)
		return out, len(out) > 0, err
	})
}

func (r *Registry) Details(ctx context.Context, id, mangaID string) (*Detail, error) {
	return dispatch(ctx, r, id, func(b Backend) (*Detail, bool, error) {
		out, err := b.Details(ctx, mangaID)
		return out, out != nil, err
	})
}

func (r *Registry) Chapters(ctx context.Context, id, mangaID string) ([]Chapter, error) {
	return dispatch(ctx, r, id, func(b Backend) ([]Chapter, bool, error) {
		out, err := b.Chapters(ctx, mangaID)
		return out, len(out) > 0, err
	})
}

func (r *Registry) Pages(ctx context.Context, id, chapterID string) ([]Page, error) {
	return dispatch(ctx, r, id, func(b Backend) ([]Page, bool, error) {
		out, err := b.Pages(ctx, chapterID)
		return out, len(out) > 0, err
	})
}
