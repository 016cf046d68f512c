// internal/engine/hybrid/strategy.go
package hybrid

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/internal/engine/static"
	"github.com/rs/zerolog/log"
)

// Strategy represents the fetch strategy to use
type Strategy int

const (
	// StrategyStatic keeps the page returned by the static fetch
	StrategyStatic Strategy = iota

	// StrategyRendered re-fetches the page in a browser
	StrategyRendered
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "Static"
	case StrategyRendered:
		return "Rendered"
	default:
		return "Unknown"
	}
}

// DetermineStrategy decides whether a statically fetched document is usable.
// page is nil when the document had no table.
func DetermineStrategy(doc *goquery.Document, page *static.Page) Strategy {
	if page == nil {
		return StrategyRendered
	}
	rows, _ := page.Rows()
	if len(rows) == 0 && NeedsJavaScript(doc) {
		return StrategyRendered
	}
	return StrategyStatic
}

// Fetcher tries the static fetch first and falls back to the rendered one
// when the markup does not carry the data.
type Fetcher struct {
	static   *static.Fetcher
	rendered engine.Fetcher
}

// New creates a hybrid Fetcher
func New(s *static.Fetcher, rendered engine.Fetcher) *Fetcher {
	return &Fetcher{static: s, rendered: rendered}
}

// Name returns the name of this fetcher
func (h *Fetcher) Name() string {
	return "HybridFetcher"
}

// Label returns the method label used when the page does not report its own.
func (h *Fetcher) Label() string {
	return "auto (" + static.Label + ", fallback to rendered)"
}

// Fetch returns the static page when it holds data, otherwise the rendered one.
// Transport failures of the static fetch are returned as is.
func (h *Fetcher) Fetch(ctx context.Context) (engine.Page, error) {
	doc, err := h.static.FetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	page, err := static.PageFromDocument(doc)
	if err != nil && !errors.Is(err, engine.ErrTableNotFound) {
		return nil, err
	}

	strategy := DetermineStrategy(doc, page)
	log.Debug().
		Str("strategy", strategy.String()).
		Str("framework", DetectFramework(doc)).
		Msg("Hybrid strategy determined")

	if strategy == StrategyStatic {
		return page, nil
	}
	log.Info().Msg("Static markup carries no data, falling back to rendered fetch")
	return h.rendered.Fetch(ctx)
}
