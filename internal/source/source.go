// Package source defines the record shapes shared by every backend, the
// capability contract backends implement, and the registry that dispatches
// logical requests to them.
package source

import (
	"context"
	"errors"
	"time"
)

// Kind selects the backend implementation for a source.
type Kind int

const (
	KindStructuredAPI Kind = iota
	KindMarkup
	KindStub
)

func (k Kind) String() string {
	switch k {
	case KindStructuredAPI:
		return "api"
	case KindMarkup:
		return "markup"
	default:
		return "stub"
	}
}

// Source describes one logical content source. Immutable after
// registration; the registry keeps its own mutable copy of Domains for
// sticky promotion.
type Source struct {
	ID       string
	Name     string
	Language string
	// Domains are interchangeable base URLs believed to serve the same
	// content, in registration preference order.
	Domains []string
	Kind    Kind
	NSFW    bool
}

// Listing is one entry of a search or popular listing. Upstream markup is
// inconsistent, so everything but ID is best effort.
type Listing struct {
	ID           string
	Title        string
	CoverURL     string
	ChapterCount int
}

type Detail struct {
	ID          string
	Title       string
	Description string
	Author      string
	Artist      string
	Status      string
	Genres      []string
	CoverURL    string
}

type Chapter struct {
	ID     string
	Name   string
	Number float64
	Volume string
	Date   time.Time
	Group  string
}

type Page struct {
	URL   string
	Index int
}

// Filters are free-form search refinements forwarded to the backend.
type Filters map[string]string

// Backend is the uniform capability set. A backend that lacks a capability
// returns ErrUnsupported from it instead of panicking.
type Backend interface {
	Search(ctx context.Context, query string, filters Filters) ([]Listing, error)
	Popular(ctx context.Context) ([]Listing, error)
	Details(ctx context.Context, id string) (*Detail, error)
	Chapters(ctx context.Context, id string) ([]Chapter, error)
	Pages(ctx context.Context, chapterID string) ([]Page, error)
}

// MirrorBackend is implemented by backends that can serve the same content
// from any of a source's mirror domains. The registry uses it to run
// failover.
type MirrorBackend interface {
	Backend
	WithDomain(base string) Backend
}

var (
	// ErrNotFound is returned by strict lookups for an unknown source id.
	ErrNotFound = errors.New("source not found")

	// ErrUnsupported is returned when a backend lacks the requested
	// capability. Retrying cannot change the outcome.
	ErrUnsupported = errors.New("capability not supported")

	// ErrBadPayload is returned when a structured response did not have
	// the expected shape.
	ErrBadPayload = errors.New("unexpected payload shape")
)
