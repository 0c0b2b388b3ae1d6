package roles

import (
	"strings"
	"testing"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
)

func parseOne(t *testing.T, markup string) dom.Node {
	t.Helper()
	snap, err := dom.ParseHTML(strings.NewReader("<html><head><title>t</title></head><body>"+markup+"</body></html>"), "")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	nodes := snap.Doc.Find("#target")
	if len(nodes) != 1 {
		t.Fatalf("found %d #target nodes, want 1", len(nodes))
	}
	return nodes[0]
}

func TestClassifyAndEvidence(t *testing.T) {
	tests := []struct {
		name         string
		markup       string
		wantClassify models.Role
		wantEvidence models.Role
	}{
		{
			name:         "user class",
			markup:       `<div id="target" class="msg user-question">What is 2+2? Please explain.</div>`,
			wantClassify: models.RoleUser,
			wantEvidence: models.RoleUser,
		},
		{
			name:         "assistant class",
			markup:       `<div id="target" class="msg ai-answer">It is 4.</div>`,
			wantClassify: models.RoleAssistant,
			wantEvidence: models.RoleAssistant,
		},
		{
			name:         "author role attribute",
			markup:       `<div id="target" data-message-author-role="assistant">Here you go.</div>`,
			wantClassify: models.RoleAssistant,
			wantEvidence: models.RoleAssistant,
		},
		{
			name:         "role marked descendant",
			markup:       `<section id="target"><span class="bot-avatar"></span><p>Sure thing.</p></section>`,
			wantClassify: models.RoleAssistant,
			wantEvidence: models.RoleAssistant,
		},
		{
			name:         "no cues",
			markup:       `<div id="target" class="wrapper spacer">loading the thread now</div>`,
			wantClassify: models.RoleUser,
			wantEvidence: "",
		},
		{
			name:         "substrings are not words",
			markup:       `<div id="target" class="main-container paid">maintain this</div>`,
			wantClassify: models.RoleUser,
			wantEvidence: "",
		},
		{
			name:         "composer input is not a user cue",
			markup:       `<div id="target" class="chat-input-area"><textarea class="input"></textarea></div>`,
			wantClassify: models.RoleUser,
			wantEvidence: "",
		},
		{
			name:         "tie favours user",
			markup:       `<div id="target" class="user assistant">both</div>`,
			wantClassify: models.RoleUser,
			wantEvidence: models.RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := parseOne(t, tt.markup)
			if got := Classify(n); got != tt.wantClassify {
				t.Errorf("Classify() = %q, want %q (scores %+v)", got, tt.wantClassify, Scores(n))
			}
			if got := Evidence(n); got != tt.wantEvidence {
				t.Errorf("Evidence() = %q, want %q (scores %+v)", got, tt.wantEvidence, Scores(n))
			}
		})
	}
}

func TestScoresWeights(t *testing.T) {
	n := parseOne(t, `<div id="target" class="human" data-role="user">Question: how?</div>`)
	got := Scores(n)
	// class 3 + attribute 2 + text 1
	if got.User != 6 || got.Assistant != 0 {
		t.Errorf("Scores() = %+v, want {User:6 Assistant:0}", got)
	}
}
