package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, markup string) *Snapshot {
	t.Helper()
	snap, err := ParseHTML(strings.NewReader(markup), "https://example.com/chat")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	return snap
}

func TestParseHTMLTitle(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "title element",
			markup: "<html><head><title>  My\n Chat </title></head><body><p>x</p></body></html>",
			want:   "My Chat",
		},
		{
			name: "open graph fallback",
			markup: `<html><head><meta property="og:title" content="Fallback Title"></head><body>
				<article><p>` + strings.Repeat("A paragraph with enough words to look like content. ", 20) + `</p></article>
				</body></html>`,
			want: "Fallback Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := parse(t, tt.markup)
			if snap.Title != tt.want {
				t.Errorf("Title = %q, want %q", snap.Title, tt.want)
			}
			if snap.Instrumentation != nil || snap.Doc.HasLayout() {
				t.Error("ParseHTML() snapshot should carry no layout or instrumentation")
			}
		})
	}
}

func TestInnerText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "blocks", markup: "<div id=t><p>Hello <b>world</b></p><p>Second</p></div>", want: "Hello world\n\nSecond"},
		{name: "line break", markup: "<div id=t>one<br>two</div>", want: "one\ntwo"},
		{name: "pre keeps spacing", markup: "<div id=t><pre>a\n  b</pre></div>", want: "a\n  b"},
		{name: "scripts skipped", markup: "<div id=t>text<script>var x = 1;</script><style>p{}</style></div>", want: "text"},
		{name: "collapsed whitespace", markup: "<div id=t>  lots   of\n\n space  </div>", want: "lots of space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := parse(t, "<html><body>"+tt.markup+"</body></html>")
			nodes := snap.Doc.Find("#t")
			if len(nodes) != 1 {
				t.Fatalf("Find(#t) = %d nodes", len(nodes))
			}
			if got := nodes[0].InnerText(); got != tt.want {
				t.Errorf("InnerText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockText(t *testing.T) {
	snap := parse(t, "<html><body><div id=t><p>Here:</p><p>```go\nx := 1\n```</p><p>#  Title</p></div></body></html>")
	got := BlockText(snap.Doc.Find("#t")[0].Raw())
	want := "Here:\n\n```go\nx := 1\n```\n\n#  Title"
	if got != want {
		t.Errorf("BlockText() = %q, want %q", got, want)
	}
	if got := BlockText(nil); got != "" {
		t.Errorf("BlockText(nil) = %q, want empty", got)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("\n\n  first  \r\n\n\n\nsecond\t\n\n")
	want := "  first\n\nsecond"
	if got != want {
		t.Errorf("CleanText() = %q, want %q", got, want)
	}
}

func TestWords(t *testing.T) {
	got := Words("msg user-question Bot2Reply")
	want := []string{"msg", "user", "question", "bot", "reply"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Words() mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeNavigation(t *testing.T) {
	snap := parse(t, `<html><body><main><div id="a" class="x y"><span>1</span></div><div id="b"></div></main></body></html>`)
	a := snap.Doc.Find("#a")[0]
	b := snap.Doc.Find("#b")[0]
	main := snap.Doc.Find("main")[0]

	if !main.Contains(a) || a.Contains(main) || a.Contains(a) {
		t.Error("Contains() should be strict descendant only")
	}
	if next, ok := a.NextSibling(); !ok || next.Raw() != b.Raw() {
		t.Error("NextSibling() of #a should be #b")
	}
	if _, ok := a.PrevSibling(); ok {
		t.Error("PrevSibling() of #a should not exist")
	}
	if got := a.Classes(); !cmp.Equal(got, []string{"x", "y"}) {
		t.Errorf("Classes() = %v, want [x y]", got)
	}
	if got := len(a.Ancestors(2)); got != 2 {
		t.Errorf("Ancestors(2) = %d, want 2", got)
	}
	if got := main.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
	if got := a.OpeningTag(); got != `<div id="a" class="x y">` {
		t.Errorf("OpeningTag() = %q", got)
	}
}

const capturedHTML = `<html data-cx-id="1"><head data-cx-id="2"><title data-cx-id="3">T</title></head>` +
	`<body data-cx-id="4"><main data-cx-id="5"><div data-cx-id="6">question</div><div data-cx-id="7">answer</div>` +
	`<section data-cx-id="8"><div><div><div><div><div><div><div><div><div><div><div><p id="deep">x</p>` +
	`</div></div></div></div></div></div></div></div></div></div></div></section></main></body></html>`

func intp(v int) *int { return &v }

func testCapture() *Capture {
	return &Capture{
		URL:   "https://chatgpt.com/c/1",
		Title: "Captured",
		HTML:  capturedHTML,
		Layout: []LayoutRecord{
			{ID: 6, Box: Box{X: 400, Y: 20, Width: 200, Height: 30}, Style: map[string]string{"text-align": "right"}},
			{ID: 7, Box: Box{X: 10, Y: 60, Width: 500, Height: 80}},
			{ID: 99, Box: Box{X: 1, Y: 1, Width: 1, Height: 1}},
		},
		Components: &CapturedTree{
			Framework: "react",
			Nodes: []CapturedComponent{
				{ID: 1, Type: "MessageList", Child: intp(2)},
				{ID: 2, Type: "MessageItem", Props: map[string]any{"role": "user"}, Host: intp(6), Child: intp(4), Sibling: intp(3)},
				{ID: 3, Type: "MessageItem", Props: map[string]any{"role": "assistant", "index": float64(1)}, Host: intp(7)},
				{ID: 4, Type: "Text", Props: map[string]any{"children": []any{"ques", "tion"}, "style": map[string]any{"x": 1}}},
			},
			Attached: map[int]int{5: 1},
		},
	}
}

func TestFromCapture(t *testing.T) {
	snap, err := FromCapture(testCapture())
	if err != nil {
		t.Fatalf("FromCapture() error = %v", err)
	}
	if snap.Title != "Captured" {
		t.Errorf("Title = %q, want Captured", snap.Title)
	}
	if !snap.Doc.HasLayout() {
		t.Fatal("HasLayout() = false, want true")
	}
	if len(snap.Doc.Find("["+IDAttr+"]")) != 0 {
		t.Errorf("FromCapture() left %s attributes in the document", IDAttr)
	}
	if snap.ElementCount != snap.Doc.ElementCount() {
		t.Errorf("ElementCount = %d, want %d", snap.ElementCount, snap.Doc.ElementCount())
	}

	divs := snap.Doc.Find("main > div")
	box, ok := divs[0].Box()
	if !ok || box.X != 400 || box.Bottom() != 50 {
		t.Errorf("Box() = %+v, %v", box, ok)
	}
	if got := divs[0].Style("text-align"); got != "right" {
		t.Errorf("Style(text-align) = %q, want right", got)
	}
	if _, ok := snap.Doc.Find("main")[0].Box(); ok {
		t.Error("Box() of an element without a layout record should not exist")
	}
}

func TestListInstrumentedNodes(t *testing.T) {
	snap, err := FromCapture(testCapture())
	if err != nil {
		t.Fatalf("FromCapture() error = %v", err)
	}
	if snap.Instrumentation == nil {
		t.Fatal("Instrumentation = nil")
	}

	type seen struct {
		Type  string
		Props map[string]string
		Host  string
	}
	collect := func(container Node) []seen {
		var out []seen
		for c := range snap.Instrumentation.ListInstrumentedNodes(container) {
			out = append(out, seen{Type: c.Type, Props: c.Props, Host: c.Host.Text()})
		}
		return out
	}

	want := []seen{
		{Type: "MessageItem", Props: map[string]string{"role": "user"}, Host: "question"},
		{Type: "Text", Props: map[string]string{"children": "question"}},
		{Type: "MessageItem", Props: map[string]string{"role": "assistant", "index": "1"}, Host: "answer"},
	}

	t.Run("attached container", func(t *testing.T) {
		got := collect(snap.Doc.Find("main")[0])
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListInstrumentedNodes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("attached ancestor", func(t *testing.T) {
		got := collect(snap.Doc.Find("main > div")[1])
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListInstrumentedNodes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ancestor too far", func(t *testing.T) {
		if got := collect(snap.Doc.Find("#deep")[0]); len(got) != 0 {
			t.Errorf("ListInstrumentedNodes() = %v, want nothing", got)
		}
	})
}

func TestReadCapture(t *testing.T) {
	if _, err := ReadCapture(strings.NewReader(`{"url": "x", "html": ""}`)); err == nil {
		t.Error("ReadCapture() expected error for empty html")
	}
	c, err := ReadCapture(strings.NewReader(`{"url": "x", "html": "<p>hi</p>", "layout": [{"id": 1, "x": 2, "y": 3, "w": 4, "h": 5}]}`))
	if err != nil {
		t.Fatalf("ReadCapture() error = %v", err)
	}
	if got := c.Layout[0].Box; got != (Box{X: 2, Y: 3, Width: 4, Height: 5}) {
		t.Errorf("Layout[0].Box = %+v", got)
	}
}
