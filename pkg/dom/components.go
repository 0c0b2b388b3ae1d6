package dom

import (
	"iter"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// maxAttachDepth bounds the ancestor walk from a container to the nearest
// element carrying a framework reference.
const maxAttachDepth = 10

// CapturedComponent is one fiber-like record of a retained component tree.
// Child and Sibling link to other records by ID; Host is the element id of the
// DOM node a host component renders.
type CapturedComponent struct {
	ID      int            `json:"id"`
	Type    string         `json:"type"`
	Props   map[string]any `json:"props,omitempty"`
	Host    *int           `json:"host,omitempty"`
	Child   *int           `json:"child,omitempty"`
	Sibling *int           `json:"sibling,omitempty"`
}

// CapturedTree is the serialized retained tree of a UI framework.
type CapturedTree struct {
	Framework string              `json:"framework"`
	Nodes     []CapturedComponent `json:"nodes"`
	Attached  map[int]int         `json:"attached"` // element id -> component id
}

// ComponentNode is a component with resolved props, as yielded by an
// Instrumentation.
type ComponentNode struct {
	Type  string
	Props map[string]string
	Host  Node // zero for non-host components
}

// Instrumentation is the capability a framework binding exposes: a lazy walk
// over the retained components reachable from a container.
type Instrumentation interface {
	ListInstrumentedNodes(container Node) iter.Seq[ComponentNode]
}

type componentEntry struct {
	typ     string
	props   map[string]string
	host    *html.Node
	child   int
	sibling int
}

// ComponentTree implements Instrumentation over a captured tree.
type ComponentTree struct {
	framework string
	doc       *Document
	entries   []componentEntry
	attached  map[*html.Node]int
}

func newComponentTree(t *CapturedTree, doc *Document, byID map[int]*html.Node) *ComponentTree {
	index := make(map[int]int, len(t.Nodes))
	for i, c := range t.Nodes {
		index[c.ID] = i
	}
	link := func(id *int) int {
		if id == nil {
			return -1
		}
		if i, ok := index[*id]; ok {
			return i
		}
		return -1
	}

	tree := &ComponentTree{
		framework: t.Framework,
		doc:       doc,
		entries:   make([]componentEntry, len(t.Nodes)),
		attached:  make(map[*html.Node]int, len(t.Attached)),
	}
	for i, c := range t.Nodes {
		e := componentEntry{
			typ:     c.Type,
			props:   resolveProps(c.Props),
			child:   link(c.Child),
			sibling: link(c.Sibling),
		}
		if c.Host != nil {
			e.host = byID[*c.Host]
		}
		tree.entries[i] = e
	}
	for elemID, compID := range t.Attached {
		raw, ok := byID[elemID]
		if !ok {
			continue
		}
		if i, ok := index[compID]; ok {
			tree.attached[raw] = i
		}
	}
	return tree
}

// Framework names the captured framework, e.g. "react".
func (t *ComponentTree) Framework() string { return t.framework }

// ListInstrumentedNodes finds the component attached to container or one of
// its nearest ancestors, then walks the retained tree depth first, children
// before siblings, yielding components that have resolved props.
func (t *ComponentTree) ListInstrumentedNodes(container Node) iter.Seq[ComponentNode] {
	return func(yield func(ComponentNode) bool) {
		start, ok := t.attachedTo(container)
		if !ok {
			return
		}
		seen := make(map[int]bool)
		stack := []int{start}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if i < 0 || seen[i] {
				continue
			}
			seen[i] = true
			e := t.entries[i]
			if len(e.props) > 0 {
				node := ComponentNode{Type: e.typ, Props: e.props}
				if e.host != nil {
					node.Host = t.doc.Wrap(e.host)
				}
				if !yield(node) {
					return
				}
			}
			stack = append(stack, e.sibling, e.child)
		}
	}
}

func (t *ComponentTree) attachedTo(container Node) (int, bool) {
	cur := container
	for level := 0; level <= maxAttachDepth && !cur.IsZero(); level++ {
		if i, ok := t.attached[cur.raw]; ok {
			return i, true
		}
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	return 0, false
}

// resolveProps flattens captured prop values to strings. Objects are dropped;
// arrays of primitives (typically text children) are concatenated.
func resolveProps(props map[string]any) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		if s, ok := propString(v); ok {
			out[k] = s
		}
	}
	return out
}

func propString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case []any:
		var parts []string
		for _, item := range val {
			if s, ok := propString(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ""), true
	}
	return "", false
}
