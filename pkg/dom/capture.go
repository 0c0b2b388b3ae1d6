package dom

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IDAttr is stamped on every element of a captured page copy so layout
// records can be matched back to parsed elements.
const IDAttr = "data-cx-id"

// StyleProperties is the computed-style subset recorded for each element.
var StyleProperties = []string{
	"display", "position", "float", "text-align",
	"margin-left", "margin-right", "padding-left", "padding-right",
	"font-family", "font-size", "font-weight",
	"color", "background-color", "border-radius",
}

// LayoutRecord is the rendered box and style of one captured element.
type LayoutRecord struct {
	ID    int               `json:"id"`
	Box                     // x, y, w, h
	Style map[string]string `json:"style,omitempty"`
}

// Capture is a serialized rendered page: markup with element ids, layout per
// element, and optionally the retained component tree of a UI framework.
type Capture struct {
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	UserAgent    string         `json:"userAgent,omitempty"`
	ElementCount int            `json:"elementCount"`
	CapturedAt   time.Time      `json:"capturedAt"`
	HTML         string         `json:"html"`
	Layout       []LayoutRecord `json:"layout,omitempty"`
	Components   *CapturedTree  `json:"components,omitempty"`
}

// ReadCapture decodes a capture document.
func ReadCapture(r io.Reader) (*Capture, error) {
	var c Capture
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	if strings.TrimSpace(c.HTML) == "" {
		return nil, fmt.Errorf("capture has no html")
	}
	return &c, nil
}

// FromCapture builds a rendered snapshot. The id attribute is removed from the
// parsed copy once layout and component hosts have been attached.
func FromCapture(c *Capture) (*Snapshot, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(c.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse captured HTML: %w", err)
	}
	doc := newDocument(gq)

	byID := make(map[int]*html.Node)
	gq.Find("[" + IDAttr + "]").Each(func(_ int, s *goquery.Selection) {
		raw := s.Nodes[0]
		val, _ := s.Attr(IDAttr)
		if id, err := strconv.Atoi(val); err == nil {
			byID[id] = raw
		}
		s.RemoveAttr(IDAttr)
	})

	if len(c.Layout) > 0 {
		doc.layout = make(map[*html.Node]Layout, len(c.Layout))
		for _, rec := range c.Layout {
			raw, ok := byID[rec.ID]
			if !ok {
				continue
			}
			doc.layout[raw] = Layout{Box: rec.Box, Style: rec.Style}
		}
	}

	snap := &Snapshot{
		Doc:          doc,
		URL:          c.URL,
		Title:        NormalizeText(c.Title),
		ClientID:     c.UserAgent,
		ElementCount: c.ElementCount,
	}
	if snap.ElementCount == 0 {
		snap.ElementCount = doc.ElementCount()
	}
	if snap.Title == "" {
		snap.Title = NormalizeText(gq.Find("title").First().Text())
	}
	if c.Components != nil && len(c.Components.Nodes) > 0 {
		snap.Instrumentation = newComponentTree(c.Components, doc, byID)
	}
	return snap, nil
}
