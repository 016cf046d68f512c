// Package engine defines the contract shared by the fetch strategies: a Fetcher
// returns a Page, a Page exposes table rows, and rows expose their cells.
// Whether the rows come from static markup or a live rendered document is an
// implementation detail of each Fetcher.
package engine

import "context"

// Cell is one table cell
type Cell interface {
	// Text returns the cell text trimmed of surrounding whitespace.
	Text() string

	// Lines returns the cell text split at line breaks, each segment trimmed,
	// empty segments dropped.
	Lines() []string

	// Link returns the href of the first anchor inside the cell. It reports
	// false when the cell has no anchor or that anchor has no href.
	Link() (string, bool)
}

// Row is one table row
type Row interface {
	// Cells returns the row cells in document order. An error means the row
	// could not be read; callers skip the row and keep going.
	Cells() ([]Cell, error)
}

// Page is a fetched document that holds a data table.
type Page interface {
	// Rows returns the data rows of the first table in the page.
	Rows() ([]Row, error)

	// Close releases whatever backs the page (a browser session for
	// rendered pages). It is safe to call more than once.
	Close() error
}

// Fetcher is the interface that all fetch strategies must implement
type Fetcher interface {
	// Fetch retrieves the source page. It returns ErrTableNotFound when the
	// page carries no table at all.
	Fetch(ctx context.Context) (Page, error)

	// Name returns the name of the fetcher implementation
	Name() string

	// Label is the human readable method name recorded in output documents.
	Label() string
}

// Labeled is implemented by pages that know which strategy produced them.
// The hybrid fetcher uses it to report the variant that actually served the page.
type Labeled interface {
	Label() string
}

// LabelOf returns the label of the page if it has one, otherwise fallback.
func LabelOf(p Page, fallback string) string {
	if l, ok := p.(Labeled); ok && l.Label() != "" {
		return l.Label()
	}
	return fallback
}
