package confidence

import (
	"math"
	"strings"
	"testing"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

const pairMarkup = `<html><body data-cx-id="1"><div class="thread" data-cx-id="2">` +
	`<div class="msg user" data-cx-id="3">What is the capital of France?</div>` +
	`<div class="msg ai" data-cx-id="4">Paris is the capital of France.</div>` +
	`</div></body></html>`

func capturedPair(t *testing.T, layout []dom.LayoutRecord) (dom.Node, dom.Node) {
	t.Helper()
	snap, err := dom.FromCapture(&dom.Capture{HTML: pairMarkup, Layout: layout})
	if err != nil {
		t.Fatalf("FromCapture() error = %v", err)
	}
	return snap.Doc.Find(".user")[0], snap.Doc.Find(".ai")[0]
}

func staticNodes(t *testing.T, markup string) (dom.Node, dom.Node) {
	t.Helper()
	snap, err := dom.ParseHTML(strings.NewReader("<html><head><title>t</title></head><body>"+markup+"</body></html>"), "")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	return snap.Doc.Find("#u")[0], snap.Doc.Find("#a")[0]
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStructural(t *testing.T) {
	sameStyle := map[string]string{"display": "block", "font-size": "16px"}
	tests := []struct {
		name   string
		layout []dom.LayoutRecord
		want   float64
	}{
		{
			name: "no layout counts path only",
			want: 0.80,
		},
		{
			name: "close below with same style is capped",
			layout: []dom.LayoutRecord{
				{ID: 3, Box: dom.Box{Y: 0, Height: 100}, Style: sameStyle},
				{ID: 4, Box: dom.Box{Y: 120, Height: 300}, Style: sameStyle},
			},
			want: Max,
		},
		{
			name: "far below with one differing property",
			layout: []dom.LayoutRecord{
				{ID: 3, Box: dom.Box{Y: 0, Height: 100}, Style: map[string]string{"text-align": "right"}},
				{ID: 4, Box: dom.Box{Y: 700, Height: 100}, Style: map[string]string{"text-align": "left"}},
			},
			want: 0.80 + 0.15*13.0/14.0,
		},
		{
			name: "assistant above user earns no box bonus",
			layout: []dom.LayoutRecord{
				{ID: 3, Box: dom.Box{Y: 400, Height: 100}, Style: map[string]string{"color": "red"}},
				{ID: 4, Box: dom.Box{Y: 0, Height: 100}, Style: map[string]string{"color": "blue"}},
			},
			want: 0.80 + 0.15*13.0/14.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, a := capturedPair(t, tt.layout)
			if got := Structural(u, a); !approx(got, tt.want) {
				t.Errorf("Structural() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositional(t *testing.T) {
	t.Run("shared class word without layout", func(t *testing.T) {
		u, a := capturedPair(t, nil)
		if got := Positional(u, a); !approx(got, 0.80) {
			t.Errorf("Positional() = %v, want 0.80", got)
		}
	})

	t.Run("below with shared class word is capped", func(t *testing.T) {
		u, a := capturedPair(t, []dom.LayoutRecord{
			{ID: 3, Box: dom.Box{Y: 10, Height: 20}},
			{ID: 4, Box: dom.Box{Y: 50, Height: 20}},
		})
		if got := Positional(u, a); !approx(got, Max) {
			t.Errorf("Positional() = %v, want %v", got, Max)
		}
	})

	t.Run("nothing shared", func(t *testing.T) {
		u, a := staticNodes(t, `<p id="u" class="question">Hello there friend</p><p id="a" class="reply">Hi, how can I help?</p>`)
		if got := Positional(u, a); !approx(got, 0.70) {
			t.Errorf("Positional() = %v, want 0.70", got)
		}
	})
}

func TestPathOverlap(t *testing.T) {
	u, a := staticNodes(t, `<div class="list"><div class="row"><p id="u">one</p></div><p id="a">two</p></div>`)
	// u: [div.row div.list body html], a: [div.list body html]
	got := PathOverlap(u, a)
	if !approx(got, 0) {
		t.Errorf("PathOverlap() = %v, want 0 (paths are misaligned)", got)
	}

	u, a = staticNodes(t, `<div class="list"><p id="u">one</p><p id="a">two</p></div>`)
	if got := PathOverlap(u, a); !approx(got, 1) {
		t.Errorf("PathOverlap() = %v, want 1", got)
	}
}

func TestScoresAreBounded(t *testing.T) {
	u, a := capturedPair(t, []dom.LayoutRecord{
		{ID: 3, Box: dom.Box{Y: 0, Height: 10}},
		{ID: 4, Box: dom.Box{Y: 20, Height: 10}},
	})
	for _, got := range []float64{Structural(u, a), Positional(u, a), Structural(a, u), Positional(a, u)} {
		if got < 0 || got > Max {
			t.Errorf("score %v outside [0, %v]", got, Max)
		}
	}
}
