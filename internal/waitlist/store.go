package waitlist

import "context"

// Document is one raw waitlist record keyed by its store id
type Document struct {
	ID     string
	Fields map[string]any
}

// Store reads waitlist documents newest first
type Store interface {
	Recent(ctx context.Context, limit int) ([]Document, error)
}

// Searcher is implemented by stores that can filter and page on the
// server. It returns the requested window and the total match count.
type Searcher interface {
	Search(ctx context.Context, term string, limit, offset int) ([]Document, int, error)
}
