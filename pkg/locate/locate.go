// Package locate finds the element enclosing a conversation and the
// message-like elements inside it.
package locate

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/roles"
)

// ContainerSelectors are tried in order: semantic containers, class
// substrings chat front ends tend to use, then structural fallbacks.
var ContainerSelectors = []string{
	"main",
	"[role=main]",
	"[role=log]",
	"[role=feed]",
	"[class*=conversation]",
	"[class*=chat]",
	"[class*=message]",
	"[class*=thread]",
	"[class*=dialog]",
	"#__next",
	"#root",
	"#app",
	"body",
}

const (
	userMarked      = "[class*=user], [class*=human], [data-role=user], [data-message-author-role=user]"
	assistantMarked = "[class*=assistant], [class*=bot], [class*=ai-], [data-role=assistant], [data-message-author-role=assistant]"
	genericMarked   = "[class*=message], [class*=bubble], [class*=msg]"
)

// MinCandidateText is the shortest text a candidate may carry.
const MinCandidateText = 10

// Keywords mark an element as message-like when they appear in its class or
// opening tag.
var Keywords = []string{
	"message", "msg", "chat", "bubble", "turn", "conversation",
	"user", "human", "question", "query", "prompt",
	"assistant", "ai", "bot", "answer", "response",
}

// ValidateSelectors checks user-supplied container selectors.
func ValidateSelectors(selectors []string) error {
	for _, sel := range selectors {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("invalid container selector %q: %w", sel, err)
		}
	}
	return nil
}

// Container returns the first element, in selector order, that looks like it
// encloses a whole conversation. Extra selectors are tried before the built-in
// ones; invalid ones are skipped.
func Container(doc *dom.Document, extra ...string) (dom.Node, bool) {
	selectors := make([]string, 0, len(extra)+len(ContainerSelectors))
	for _, sel := range extra {
		if _, err := cascadia.ParseGroup(sel); err == nil {
			selectors = append(selectors, sel)
		}
	}
	selectors = append(selectors, ContainerSelectors...)

	for _, sel := range selectors {
		for _, n := range doc.Find(sel) {
			if Encloses(n) {
				return n, true
			}
		}
	}
	return dom.Node{}, false
}

// Encloses reports whether n holds both sides of a conversation, or at least
// two generic message elements.
func Encloses(n dom.Node) bool {
	if n.Has(userMarked) && n.Has(assistantMarked) {
		return true
	}
	return len(n.Find(genericMarked)) >= 2
}

// Candidates returns the message-like descendants of container in document
// order. A candidate inside another candidate is dropped, so each message is
// represented by its outermost element. A qualifying element that holds both
// user and assistant messages is a list wrapper, not a message, and is skipped.
func Candidates(container dom.Node) []dom.Node {
	var qualifying []dom.Node
	for _, n := range container.Find("*") {
		if IsCandidate(n) {
			qualifying = append(qualifying, n)
		}
	}

	evidence := make(map[dom.Node]models.Role, len(qualifying))
	for _, n := range qualifying {
		evidence[n] = roles.Evidence(n)
	}

	var out []dom.Node
	for _, n := range qualifying {
		if isWrapper(n, qualifying, evidence) || containedByAny(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func isWrapper(n dom.Node, qualifying []dom.Node, evidence map[dom.Node]models.Role) bool {
	var user, assistant bool
	for _, d := range qualifying {
		if !n.Contains(d) {
			continue
		}
		switch evidence[d] {
		case models.RoleUser:
			user = true
		case models.RoleAssistant:
			assistant = true
		}
		if user && assistant {
			return true
		}
	}
	return false
}

// IsCandidate reports whether n carries enough text and a message keyword in
// its class or opening tag.
func IsCandidate(n dom.Node) bool {
	if n.TextLength() < MinCandidateText {
		return false
	}
	return hasKeyword(n)
}

func hasKeyword(n dom.Node) bool {
	marker := strings.ToLower(n.ClassName()) + " " + n.OpeningTag()
	for _, word := range dom.Words(marker) {
		for _, kw := range Keywords {
			if word == kw {
				return true
			}
		}
	}
	// Compound class names such as "chatMessage" or "userbubble".
	for _, kw := range Keywords {
		if len(kw) > 3 && strings.Contains(marker, kw) {
			return true
		}
	}
	return false
}

func containedByAny(kept []dom.Node, n dom.Node) bool {
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i].Contains(n) {
			return true
		}
	}
	return false
}
