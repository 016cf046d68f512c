// internal/engine/dynamic/scraper.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/rs/zerolog/log"
)

// Label is recorded as the fetch method of pages served by this fetcher.
const Label = "headless Chrome (chromedp)"

const (
	rowSelector = "table tbody tr"
	rowTimeout  = 10 * time.Second
)

// Options configures the rendered fetcher.
type Options struct {
	URL        string
	UserAgent  string
	Proxy      string
	ChromePath string
	Headless   bool

	// NavTimeout bounds navigation up to the load event.
	NavTimeout time.Duration
	// RenderWait bounds the wait for the first table row to appear in the DOM.
	RenderWait time.Duration
	// Settle is slept after the table appears so late rows can land.
	Settle time.Duration
}

// Fetcher implements engine.Fetcher using headless Chrome.
// It renders the page, waits for the table to be populated and then hands out
// the live DOM nodes; the browser stays up until the Page is closed.
type Fetcher struct {
	opts Options
}

// New creates a rendered Fetcher.
func New(opts Options) *Fetcher {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.RenderWait <= 0 {
		opts.RenderWait = 30 * time.Second
	}
	return &Fetcher{opts: opts}
}

// Name returns the name of this fetcher
func (d *Fetcher) Name() string {
	return "DynamicFetcher"
}

// Label returns the method label for output documents
func (d *Fetcher) Label() string {
	return Label
}

// Fetch starts a browser, renders the page and returns its first table.
// The caller must Close the returned page.
func (d *Fetcher) Fetch(ctx context.Context) (engine.Page, error) {
	start := time.Now()

	chromePath := FindChrome(d.opts.ChromePath)
	if chromePath == "" {
		return nil, engine.NewEngineError(engine.ErrCodeBrowser,
			"Chrome/Chromium executable not found; set SISMOS_CHROME_PATH", engine.ErrBrowserNotFound)
	}
	if e := log.Debug(); e.Enabled() {
		e.Str("path", chromePath).Str("version", GetChromeVersion(chromePath)).Msg("Using Chrome")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(chromePath, d.opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	page := &Page{ctx: browserCtx, cancel: func() {
		browserCancel()
		allocCancel()
	}}

	rows, err := d.render(browserCtx)
	if err != nil {
		page.Close()
		return nil, err
	}
	page.rows = rows

	log.Debug().
		Str("url", d.opts.URL).
		Int("rows", len(rows)).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Render completed")

	return page, nil
}

func (d *Fetcher) render(browserCtx context.Context) ([]*cdp.Node, error) {
	// The first Run must use the browser context itself; a derived timeout
	// context would tear the browser down when it expires.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowser, "failed to start browser",
			fmt.Errorf("%w: %w", engine.ErrBrowserNotFound, err))
	}
	log.Debug().Msg("Browser started")

	var status atomic.Int64
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.Store(resp.Response.Status)
		}
	})

	navCtx, navCancel := context.WithTimeout(browserCtx, d.opts.NavTimeout)
	defer navCancel()
	if err := chromedp.Run(navCtx, network.Enable(), chromedp.Navigate(d.opts.URL)); err != nil {
		return nil, classifyBrowserError(err, "navigation failed")
	}
	if code := int(status.Load()); code != 0 && (code < 200 || code > 299) {
		return nil, engine.NewStatusError(code, d.opts.URL)
	}

	waitCtx, waitCancel := context.WithTimeout(browserCtx, d.opts.RenderWait)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(rowSelector, chromedp.ByQuery))
	waitCancel()
	if err != nil {
		return nil, classifyBrowserError(err, "table rows did not appear")
	}
	log.Debug().Msg("Table loaded")

	// RenderWait only bounds the wait above; settling and the lookups get
	// their own deadline.
	lookupCtx, lookupCancel := context.WithTimeout(browserCtx, d.opts.Settle+rowTimeout)
	defer lookupCancel()

	var tables, rows []*cdp.Node
	err = chromedp.Run(lookupCtx,
		chromedp.Sleep(d.opts.Settle),
		chromedp.Nodes("table", &tables, chromedp.ByQuery),
	)
	if err != nil {
		return nil, classifyBrowserError(err, "failed to locate table")
	}
	if len(tables) == 0 {
		return nil, engine.NewEngineError(engine.ErrCodeTableNotFound, "no table in rendered page", engine.ErrTableNotFound)
	}

	err = chromedp.Run(lookupCtx, chromedp.Nodes("tbody tr", &rows,
		chromedp.ByQueryAll, chromedp.FromNode(tables[0]), chromedp.AtLeast(0)))
	if err != nil {
		return nil, classifyBrowserError(err, "failed to list table rows")
	}
	return rows, nil
}

func classifyBrowserError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.NewEngineError(engine.ErrCodeTimeout, msg, fmt.Errorf("%w: %w", engine.ErrTimeout, err))
	}
	if strings.Contains(err.Error(), "net::ERR_") {
		return engine.NewEngineError(engine.ErrCodeTransport, msg, fmt.Errorf("%w: %w", engine.ErrNetworkError, err))
	}
	return engine.NewEngineError(engine.ErrCodeBrowser, msg, err)
}

func allocatorOptions(chromePath string, opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return allocOpts
}

// Page is a rendered document whose rows are live DOM nodes.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	rows   []*cdp.Node
	once   sync.Once
}

// Label returns the method label
func (p *Page) Label() string {
	return Label
}

// Rows returns the live table rows.
func (p *Page) Rows() ([]engine.Row, error) {
	rows := make([]engine.Row, len(p.rows))
	for i, n := range p.rows {
		rows[i] = &row{ctx: p.ctx, node: n}
	}
	return rows, nil
}

// Close shuts the browser down.
func (p *Page) Close() error {
	p.once.Do(func() {
		if err := chromedp.Cancel(p.ctx); err != nil {
			log.Debug().Err(err).Msg("Browser did not close cleanly")
		}
		p.cancel()
		log.Debug().Msg("Browser closed")
	})
	return nil
}

type row struct {
	ctx  context.Context
	node *cdp.Node
}

// Cells queries the live document for the row's cells. Nodes that went stale
// after a re-render surface here as an error.
func (r *row) Cells() ([]engine.Cell, error) {
	ctx, cancel := context.WithTimeout(r.ctx, rowTimeout)
	defer cancel()

	var tds []*cdp.Node
	err := chromedp.Run(ctx, chromedp.Nodes("td", &tds,
		chromedp.ByQueryAll, chromedp.FromNode(r.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}

	cells := make([]engine.Cell, 0, len(tds))
	for i, td := range tds {
		var (
			text    string
			anchors []*cdp.Node
		)
		err := chromedp.Run(ctx,
			chromedp.Text([]cdp.NodeID{td.NodeID}, &text, chromedp.ByNodeID, chromedp.NodeReady),
			chromedp.Nodes("a", &anchors, chromedp.ByQueryAll, chromedp.FromNode(td), chromedp.AtLeast(0)),
		)
		if err != nil {
			return nil, fmt.Errorf("read cell %d: %w", i, err)
		}
		c := cell{text: text}
		if len(anchors) > 0 {
			if c.href, err = anchorHref(ctx, anchors[0]); err != nil {
				return nil, fmt.Errorf("read link of cell %d: %w", i, err)
			}
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// anchorHref returns the href property of a, which the browser has already
// resolved against the document URL. An anchor without an href attribute
// yields "".
func anchorHref(ctx context.Context, a *cdp.Node) (string, error) {
	if _, ok := a.Attribute("href"); !ok {
		return "", nil
	}
	var href string
	err := chromedp.Run(ctx, chromedp.JavascriptAttribute([]cdp.NodeID{a.NodeID}, "href", &href, chromedp.ByNodeID))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(href), nil
}

// cell holds the innerText and first href captured from a live <td>.
type cell struct {
	text string
	href string
}

func (c cell) Text() string {
	return strings.TrimSpace(c.text)
}

func (c cell) Lines() []string {
	return splitLines(c.text)
}

func (c cell) Link() (string, bool) {
	return c.href, c.href != ""
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
