// Package roles guesses whether a page node was written by the user or the
// assistant. The answer is evidence to weigh, not a verdict.
package roles

import (
	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
)

// Cue weights. Class names are the strongest signal authors leave behind.
const (
	classWeight      = 3
	attrWeight       = 2
	textWeight       = 1
	descendantWeight = 1
)

// leadingRunes bounds how much of a node's text is read for cues. Speaker
// labels sit at the start of a message; the rest is content.
const leadingRunes = 160

var userCues = map[string]bool{
	"user":     true,
	"human":    true,
	"question": true,
}

var assistantCues = map[string]bool{
	"assistant": true,
	"ai":        true,
	"bot":       true,
	"answer":    true,
	"response":  true,
}

// roleAttrs are attributes chat front ends use to name the author.
var roleAttrs = []string{"data-role", "data-author", "data-message-author-role", "data-testid", "aria-label", "id"}

// Score holds the weighted cue counts for each role.
type Score struct {
	User      int
	Assistant int
}

// HasEvidence reports whether any cue was found.
func (s Score) HasEvidence() bool {
	return s.User > 0 || s.Assistant > 0
}

// Scores counts user and assistant cues on n: its class tokens, role-bearing
// attributes, the start of its text, and any role-marked descendant.
func Scores(n dom.Node) Score {
	var s Score
	if n.IsZero() {
		return s
	}

	s.add(dom.Words(n.ClassName()), classWeight)
	for _, attr := range roleAttrs {
		if v, ok := n.Attr(attr); ok {
			s.add(dom.Words(v), attrWeight)
		}
	}
	s.add(dom.Words(leading(n.Text())), textWeight)

	userBelow, assistantBelow := markedDescendants(n)
	if userBelow {
		s.User += descendantWeight
	}
	if assistantBelow {
		s.Assistant += descendantWeight
	}
	return s
}

func (s *Score) add(words []string, weight int) {
	for _, w := range words {
		if userCues[w] {
			s.User += weight
		}
		if assistantCues[w] {
			s.Assistant += weight
		}
	}
}

// Classify returns RoleUser iff the user score is at least the assistant
// score. Ties, including no evidence at all, favour the user.
func Classify(n dom.Node) models.Role {
	s := Scores(n)
	if s.User >= s.Assistant {
		return models.RoleUser
	}
	return models.RoleAssistant
}

// Evidence is Classify, except that a node with no cue at all gets the empty
// role.
func Evidence(n dom.Node) models.Role {
	s := Scores(n)
	switch {
	case !s.HasEvidence():
		return ""
	case s.User >= s.Assistant:
		return models.RoleUser
	default:
		return models.RoleAssistant
	}
}

func leading(text string) string {
	text = dom.NormalizeText(text)
	r := []rune(text)
	if len(r) > leadingRunes {
		return string(r[:leadingRunes])
	}
	return text
}

// markedDescendants looks for descendants whose class or role attributes name
// a side.
func markedDescendants(n dom.Node) (user, assistant bool) {
	for _, d := range n.Find("[class], [data-role], [data-message-author-role], [data-author]") {
		var s Score
		s.add(dom.Words(d.ClassName()), 1)
		for _, attr := range roleAttrs[:3] {
			if v, ok := d.Attr(attr); ok {
				s.add(dom.Words(v), 1)
			}
		}
		user = user || s.User > 0
		assistant = assistant || s.Assistant > 0
		if user && assistant {
			return
		}
	}
	return
}
