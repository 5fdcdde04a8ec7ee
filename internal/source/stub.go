package source

import (
	"context"
	"fmt"
)

// StubBackend satisfies the capability contract without supporting anything.
// GetOrStub hands these out for unknown source ids so callers never deal
// with nil sources.
type StubBackend struct {
	ID string
}

func (s StubBackend) unsupported(op string) error {
	return fmt.Errorf("%s on %q: %w", op, s.ID, ErrUnsupported)
}

func (s StubBackend) Search(context.Context, string, Filters) ([]Listing, error) {
	return nil, s.unsupported("search")
}

func (s StubBackend) Popular(context.Context) ([]Listing, error) {
	return nil, s.unsupported("popular")
}

func (s StubBackend) Details(context.Context, string) (*Detail, error) {
	return nil, s.unsupported("details")
}

func (s StubBackend) Chapters(context.Context, string) ([]Chapter, error) {
	return nil, s.unsupported("chapters")
}

func (s StubBackend) Pages(context.Context, string) ([]Page, error) {
	return nil, s.unsupported("pages")
}
