// internal/engine/static/scraper.go
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/rs/zerolog/log"
)

// Label is recorded as the fetch method of pages served by this fetcher.
const Label = "static HTTP (net/http + goquery)"

// Fetcher implements engine.Fetcher for server-rendered pages.
// It issues a single GET and parses the markup with goquery. Content built by
// client-side scripts is not visible to it.
type Fetcher struct {
	client  *http.Client
	url     string
	timeout time.Duration
	headers map[string]string
}

// New creates a static Fetcher. headers are sent on every request.
func New(client *http.Client, url string, timeout time.Duration, headers map[string]string) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:  client,
		url:     url,
		timeout: timeout,
		headers: headers,
	}
}

// Name returns the name of this fetcher
func (s *Fetcher) Name() string {
	return "StaticFetcher"
}

// Label returns the method label for output documents
func (s *Fetcher) Label() string {
	return Label
}

// Fetch retrieves the page and returns its first table.
func (s *Fetcher) Fetch(ctx context.Context) (engine.Page, error) {
	doc, err := s.FetchDocument(ctx)
	if err != nil {
		return nil, err
	}
	return PageFromDocument(doc)
}

// FetchDocument retrieves and parses the page without looking for a table.
func (s *Fetcher) FetchDocument(ctx context.Context) (*goquery.Document, error) {
	start := time.Now()

	log.Debug().
		Str("url", s.url).
		Str("fetcher", s.Name()).
		Msg("Starting fetch")

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeTransport, "failed to create request", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, engine.NewStatusError(resp.StatusCode, s.url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse HTML",
			fmt.Errorf("%w: %w", engine.ErrParseError, err))
	}

	log.Debug().
		Str("url", s.url).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return doc, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return engine.NewEngineError(engine.ErrCodeTimeout, "request took too long",
			fmt.Errorf("%w: %w", engine.ErrTimeout, err))
	}
	return engine.NewEngineError(engine.ErrCodeTransport, "HTTP request failed",
		fmt.Errorf("%w: %w", engine.ErrNetworkError, err))
}
