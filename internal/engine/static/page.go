package static

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/sismos/internal/engine"
	"golang.org/x/net/html"
)

// Page is a parsed document together with its first table.
type Page struct {
	doc   *goquery.Document
	table *goquery.Selection
}

// ParsePage parses markup from r. It fails with engine.ErrTableNotFound when
// the markup has no <table>.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse HTML", err)
	}
	return PageFromDocument(doc)
}

// PageFromDocument locates the first table of doc.
func PageFromDocument(doc *goquery.Document) (*Page, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, engine.NewEngineError(engine.ErrCodeTableNotFound,
			"no table in fetched markup; the page may render its data with scripts", engine.ErrTableNotFound)
	}
	return &Page{doc: doc, table: table}, nil
}

// Label returns the method label
func (p *Page) Label() string {
	return Label
}

// Document returns the parsed document backing the page.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Rows returns the rows of the table body. A table without a body has no rows.
func (p *Page) Rows() ([]engine.Row, error) {
	var rows []engine.Row
	p.table.Find("tbody").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, row{sel: tr})
	})
	return rows, nil
}

// Close is a no-op for static pages
func (p *Page) Close() error {
	return nil
}

type row struct {
	sel *goquery.Selection
}

func (r row) Cells() ([]engine.Cell, error) {
	var cells []engine.Cell
	r.sel.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, cell{sel: td})
	})
	return cells, nil
}

type cell struct {
	sel *goquery.Selection
}

func (c cell) Text() string {
	return strings.TrimSpace(c.sel.Text())
}

func (c cell) Lines() []string {
	if len(c.sel.Nodes) == 0 {
		return nil
	}
	return segments(c.sel.Nodes[0])
}

func (c cell) Link() (string, bool) {
	href, ok := c.sel.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", false
	}
	return href, true
}

// segments splits the text under n at <br> and block element boundaries,
// collapsing whitespace inside each segment the way a browser's innerText does.
func segments(n *html.Node) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if s := strings.Join(strings.Fields(b.String()), " "); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "br" {
				flush()
				return
			}
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	flush()
	return out
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6",
		"section", "article", "header", "footer", "table", "tr", "blockquote", "pre":
		return true
	}
	return false
}
