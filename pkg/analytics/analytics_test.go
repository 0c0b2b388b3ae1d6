package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dtnitsch/chat-extract/models"
)

func TestWordFrequency(t *testing.T) {
	a := &Analytics{}
	got := a.WordFrequency("How do I sort a slice in Go? Sorting slices: sort.Slice, or slices.Sort. Copy")
	// Inner punctuation is kept; stopwords and UI labels are dropped.
	want := map[string]int{
		"sort":        1,
		"slice":       1,
		"go":          1,
		"sorting":     1,
		"slices":      1,
		"sort.slice":  1,
		"slices.sort": 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WordFrequency() mismatch (-want +got):\n%s", diff)
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "The", "you're", "regenerate"} {
		if !IsStopword(w) {
			t.Errorf("IsStopword(%q) = false, want true", w)
		}
	}
	if IsStopword("goroutine") {
		t.Error("IsStopword(goroutine) = true, want false")
	}
}

func TestSummarize(t *testing.T) {
	conv := &models.ExtractedConversation{
		Rounds: []models.ConversationRound{
			{
				User:      models.Message{Text: "Explain goroutines and channels"},
				Assistant: models.Message{Text: "Goroutines are cheap threads. Channels connect goroutines."},
			},
			{
				User:      models.Message{Text: "Are channels buffered?"},
				Assistant: models.Message{Text: "Channels can be buffered or unbuffered."},
			},
		},
	}

	got := (&Analytics{}).Summarize(conv, 2)
	want := Summary{
		User:      []Keyword{{Word: "channels", Count: 2}, {Word: "buffered", Count: 1}},
		Assistant: []Keyword{{Word: "channels", Count: 2}, {Word: "goroutines", Count: 2}},
		Overall:   []Keyword{{Word: "channels", Count: 4}, {Word: "goroutines", Count: 3}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestTopKeywords(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}
	got := TopKeywords(counts, 3)
	want := []Keyword{{Word: "c", Count: 5}, {Word: "a", Count: 2}, {Word: "b", Count: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopKeywords() mismatch (-want +got):\n%s", diff)
	}
	if got := TopKeywords(counts, 10); len(got) != 4 {
		t.Errorf("TopKeywords() with large n = %d entries, want 4", len(got))
	}
}
