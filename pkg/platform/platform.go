package platform

import (
	"net/url"
	"strings"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

// Generic is reported when no known chat front end matches.
const Generic = "generic"

// Detection contains platform detection results from cheap page signals
type Detection struct {
	Platform   string
	Confidence float64 // 0-10 scale based on signal strength

	HostMatch   bool
	TitleMatch  bool
	MarkupMatch bool
	Mobile      bool
}

type signature struct {
	name    string
	hosts   []string
	titles  []string
	markers []string // CSS selectors only this front end renders
}

var known = []signature{
	{
		name:    "chatgpt",
		hosts:   []string{"chatgpt.com", "chat.openai.com"},
		titles:  []string{"chatgpt"},
		markers: []string{"[data-message-author-role]", "[data-testid^=conversation-turn]"},
	},
	{
		name:    "claude",
		hosts:   []string{"claude.ai"},
		titles:  []string{"claude"},
		markers: []string{".font-claude-message", "[data-testid=user-message]"},
	},
	{
		name:    "deepseek",
		hosts:   []string{"chat.deepseek.com", "deepseek.com"},
		titles:  []string{"deepseek"},
		markers: []string{".ds-markdown", "[class*=ds-message]"},
	},
	{
		name:    "gemini",
		hosts:   []string{"gemini.google.com", "bard.google.com"},
		titles:  []string{"gemini", "bard"},
		markers: []string{"model-response", "user-query"},
	},
	{
		name:    "copilot",
		hosts:   []string{"copilot.microsoft.com", "bing.com"},
		titles:  []string{"copilot"},
		markers: []string{"cib-serp", "[class*=copilot-message]"},
	},
	{
		name:    "poe",
		hosts:   []string{"poe.com"},
		titles:  []string{"poe"},
		markers: []string{"[class*=ChatMessage_]"},
	},
	{
		name:   "perplexity",
		hosts:  []string{"perplexity.ai"},
		titles: []string{"perplexity"},
	},
}

// Detect guesses which chat front end rendered a page from its URL, its title
// and, when a document is given, markup only that front end produces.
func Detect(rawURL, title string, doc *dom.Document) Detection {
	d := Detection{Platform: Generic}
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	lowerTitle := strings.ToLower(title)

	// Mobile sites
	if strings.HasPrefix(host, "m.") || strings.HasPrefix(host, "mobile.") {
		d.Mobile = true
	}

	best := 0.0
	for _, sig := range known {
		cand := Detection{Platform: sig.name, Mobile: d.Mobile}
		cand.HostMatch = matchHost(host, sig.hosts)
		cand.TitleMatch = containsWord(lowerTitle, sig.titles)
		if doc != nil {
			for _, sel := range sig.markers {
				if len(doc.Find(sel)) > 0 {
					cand.MarkupMatch = true
					break
				}
			}
		}
		cand.Confidence = cand.calculateConfidence()
		if cand.Confidence > best {
			best = cand.Confidence
			d = cand
		}
	}
	return d
}

func matchHost(host string, hosts []string) bool {
	if host == "" {
		return false
	}
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func containsWord(s string, words []string) bool {
	for _, w := range dom.Words(s) {
		for _, want := range words {
			if w == want {
				return true
			}
		}
	}
	return false
}

// calculateConfidence computes overall confidence (0-10) based on signal strength
func (d *Detection) calculateConfidence() float64 {
	confidence := 0.0

	// The host is the strongest signal; titles and markup are easy to share
	if d.HostMatch {
		confidence += 6.0
	}
	if d.MarkupMatch {
		confidence += 2.5
	}
	if d.TitleMatch {
		confidence += 1.5
	}
	if d.Mobile && confidence > 0 {
		confidence -= 0.5
	}

	// Cap at 10
	if confidence > 10.0 {
		confidence = 10.0
	}

	return confidence
}
