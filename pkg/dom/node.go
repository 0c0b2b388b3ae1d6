// Package dom wraps a parsed page as a read-only tree of nodes with the layout
// facts a rendered capture adds (visual box, computed style subset).
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Box is an element's border box in page coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Bottom returns the y coordinate of the lower edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// CenterX returns the horizontal centre.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// Layout is what a rendered capture knows about an element beyond its markup.
type Layout struct {
	Box   Box
	Style map[string]string
}

// Node is a read-only handle to one element. The zero Node refers to nothing.
// Nodes are comparable and may be used as map keys.
type Node struct {
	raw *html.Node
	doc *Document
}

// IsZero reports whether n refers to no element.
func (n Node) IsZero() bool { return n.raw == nil }

// Raw returns the underlying parse tree node.
func (n Node) Raw() *html.Node { return n.raw }

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Data
}

// Attr returns the value of the named attribute.
func (n Node) Attr(name string) (string, bool) {
	if n.raw == nil {
		return "", false
	}
	for _, a := range n.raw.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// ClassName returns the raw class attribute.
func (n Node) ClassName() string {
	v, _ := n.Attr("class")
	return v
}

// Classes returns the class list in attribute order.
func (n Node) Classes() []string {
	return strings.Fields(n.ClassName())
}

// Children returns the element children in document order.
func (n Node) Children() []Node {
	if n.raw == nil {
		return nil
	}
	var out []Node
	for c := n.raw.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, Node{raw: c, doc: n.doc})
		}
	}
	return out
}

// ChildCount returns the number of element children.
func (n Node) ChildCount() int {
	if n.raw == nil {
		return 0
	}
	count := 0
	for c := n.raw.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

// Parent returns the parent element, if there is one.
func (n Node) Parent() (Node, bool) {
	if n.raw == nil || n.raw.Parent == nil || n.raw.Parent.Type != html.ElementNode {
		return Node{}, false
	}
	return Node{raw: n.raw.Parent, doc: n.doc}, true
}

// Ancestors returns up to limit ancestors, nearest first. A limit of zero or
// less returns the whole chain.
func (n Node) Ancestors(limit int) []Node {
	var out []Node
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, p)
	}
	return out
}

// PrevSibling returns the previous element sibling.
func (n Node) PrevSibling() (Node, bool) {
	if n.raw == nil {
		return Node{}, false
	}
	for s := n.raw.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return Node{raw: s, doc: n.doc}, true
		}
	}
	return Node{}, false
}

// NextSibling returns the next element sibling.
func (n Node) NextSibling() (Node, bool) {
	if n.raw == nil {
		return Node{}, false
	}
	for s := n.raw.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return Node{raw: s, doc: n.doc}, true
		}
	}
	return Node{}, false
}

// Contains reports whether o is a strict descendant of n.
func (n Node) Contains(o Node) bool {
	if n.raw == nil || o.raw == nil {
		return false
	}
	for p := o.raw.Parent; p != nil; p = p.Parent {
		if p == n.raw {
			return true
		}
	}
	return false
}

// Depth returns the height of the element subtree rooted at n; a leaf is 1.
func (n Node) Depth() int {
	if n.raw == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children() {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func (n Node) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(n.raw).Selection
}

// Text returns the concatenated text content of the subtree.
func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	return n.selection().Text()
}

// TextLength returns the rune length of the trimmed text content.
func (n Node) TextLength() int {
	return len([]rune(strings.TrimSpace(n.Text())))
}

// OuterHTML serializes the element and its subtree.
func (n Node) OuterHTML() string {
	if n.raw == nil {
		return ""
	}
	out, err := goquery.OuterHtml(n.selection())
	if err != nil {
		return ""
	}
	return out
}

// OpeningTag renders only the start tag with its attributes, lower-cased.
func (n Node) OpeningTag() string {
	if n.raw == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(n.raw.Data)
	for _, a := range n.raw.Attr {
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(a.Val)
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	return strings.ToLower(sb.String())
}

// Find returns the descendants of n matching a CSS selector.
func (n Node) Find(selector string) []Node {
	if n.raw == nil {
		return nil
	}
	return n.doc.wrapSelection(n.selection().Find(selector))
}

// Has reports whether any descendant matches the selector.
func (n Node) Has(selector string) bool {
	if n.raw == nil {
		return false
	}
	return n.selection().Find(selector).Length() > 0
}

// Layout returns the rendered layout of the element when the document came
// from a capture.
func (n Node) Layout() (Layout, bool) {
	if n.raw == nil || n.doc == nil || n.doc.layout == nil {
		return Layout{}, false
	}
	l, ok := n.doc.layout[n.raw]
	return l, ok
}

// Box returns the visual box when known.
func (n Node) Box() (Box, bool) {
	l, ok := n.Layout()
	return l.Box, ok
}

// Style returns one computed style property, or "" when unknown.
func (n Node) Style(prop string) string {
	l, ok := n.Layout()
	if !ok {
		return ""
	}
	return l.Style[prop]
}
