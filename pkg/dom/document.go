package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Document is a parsed page plus any layout recorded for its elements.
type Document struct {
	gq     *goquery.Document
	layout map[*html.Node]Layout
}

func newDocument(gq *goquery.Document) *Document {
	return &Document{gq: gq}
}

// Wrap returns the Node handle for a parse tree element.
func (d *Document) Wrap(raw *html.Node) Node {
	if raw == nil || raw.Type != html.ElementNode {
		return Node{}
	}
	return Node{raw: raw, doc: d}
}

func (d *Document) wrapSelection(s *goquery.Selection) []Node {
	out := make([]Node, 0, s.Length())
	for _, raw := range s.Nodes {
		if raw.Type == html.ElementNode {
			out = append(out, Node{raw: raw, doc: d})
		}
	}
	return out
}

// Find returns every element in the document matching a CSS selector, in
// document order. An invalid selector matches nothing.
func (d *Document) Find(selector string) []Node {
	return d.wrapSelection(d.gq.Find(selector))
}

// Root returns the document element.
func (d *Document) Root() Node {
	nodes := d.Find("html")
	if len(nodes) == 0 {
		return Node{}
	}
	return nodes[0]
}

// ElementCount returns the number of elements in the document.
func (d *Document) ElementCount() int {
	return d.gq.Find("*").Length()
}

// HasLayout reports whether any element carries rendered layout.
func (d *Document) HasLayout() bool {
	return len(d.layout) > 0
}

// Snapshot is the read-only view of one page handed to an analysis: the tree
// plus the page facts that would otherwise be read from ambient globals.
type Snapshot struct {
	Doc          *Document
	URL          string
	Title        string
	ClientID     string
	ElementCount int

	// Instrumentation is nil unless a framework binding was captured.
	Instrumentation Instrumentation
}

// ParseHTML builds a static snapshot from saved page markup. Static snapshots
// carry no layout and no instrumentation.
func ParseHTML(r io.Reader, pageURL string) (*Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML: %w", err)
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := newDocument(gq)

	title := NormalizeText(gq.Find("title").First().Text())
	if title == "" {
		title = readabilityTitle(raw, pageURL)
	}

	return &Snapshot{
		Doc:          doc,
		URL:          pageURL,
		Title:        title,
		ElementCount: doc.ElementCount(),
	}, nil
}

// readabilityTitle lets go-readability guess a title from headings and meta
// tags when the page has no <title>.
func readabilityTitle(raw []byte, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = &url.URL{}
	}
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(raw), parsedURL)
	if err != nil {
		return ""
	}
	return NormalizeText(article.Title)
}

// blockTags get line breaks around them when rendering inner text.
var blockTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "dd": {}, "div": {},
	"dl": {}, "dt": {}, "figcaption": {}, "figure": {}, "footer": {}, "h1": {}, "h2": {},
	"h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {}, "hr": {}, "li": {}, "main": {},
	"nav": {}, "ol": {}, "p": {}, "pre": {}, "section": {}, "table": {}, "tr": {}, "ul": {},
}

// InnerText approximates the rendered text of n: block elements start new
// lines, <br> breaks lines, and whitespace inside <pre> is kept.
func (n Node) InnerText() string {
	if n.raw == nil {
		return ""
	}
	return renderText(n.raw, false)
}

// BlockText renders a parse tree like InnerText but keeps every text node
// verbatim, so markdown typed into the page (fences, "# " headings, "- " list
// items) survives on its own lines.
func BlockText(raw *html.Node) string {
	if raw == nil {
		return ""
	}
	return renderText(raw, true)
}

func renderText(raw *html.Node, verbatim bool) string {
	var sb strings.Builder
	var walk func(*html.Node, bool)
	walk = func(h *html.Node, pre bool) {
		switch h.Type {
		case html.TextNode:
			if pre {
				sb.WriteString(h.Data)
				return
			}
			words := strings.Join(strings.Fields(h.Data), " ")
			if words == "" {
				writeSpace(&sb)
				return
			}
			if startsWithSpace(h.Data) {
				writeSpace(&sb)
			}
			sb.WriteString(words)
			if endsWithSpace(h.Data) {
				sb.WriteString(" ")
			}
			return
		case html.ElementNode:
			switch h.Data {
			case "script", "style", "template", "noscript":
				return
			case "br":
				sb.WriteString("\n")
				return
			}
		}
		_, block := blockTags[h.Data]
		if h.Type == html.ElementNode && block {
			sb.WriteString("\n")
		}
		inPre := pre || (h.Type == html.ElementNode && h.Data == "pre")
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inPre)
		}
		if h.Type == html.ElementNode && block {
			sb.WriteString("\n")
		}
	}
	walk(raw, verbatim)
	return CleanText(sb.String())
}
