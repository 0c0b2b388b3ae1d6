package strategy

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/format"
)

// TruncationMarker is appended to message text cut at MaxContentLength.
const TruncationMarker = "...\n[content truncated]"

var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(?::\d{2})?`)

// buildMessage reads a message from a page node.
func buildMessage(n dom.Node, role models.Role, opts Options) models.Message {
	text, truncated := truncate(n.InnerText(), opts.MaxContentLength)
	outer := n.OuterHTML()

	msg := models.Message{
		Role:          role,
		Text:          text,
		SanitizedHTML: opts.Sanitize(outer),
		Metadata: models.MessageMetadata{
			Tag:        n.Tag(),
			ClassName:  n.ClassName(),
			TextLength: n.TextLength(),
			Truncated:  truncated,
		},
		Source: n,
	}
	if ts, ok := findTimestamp(n); ok {
		msg.Metadata.Timestamp = ts.Format(time.RFC3339)
	}
	if role == models.RoleAssistant {
		fa := format.Analyze(outer)
		msg.FormatAnalysis = &fa
	}
	return msg
}

// textMessage builds a message from content that has no page markup.
func textMessage(content string, role models.Role, component string, opts Options) models.Message {
	text, truncated := truncate(dom.CleanText(content), opts.MaxContentLength)
	msg := models.Message{
		Role:          role,
		Text:          text,
		SanitizedHTML: opts.Sanitize(content),
		Metadata: models.MessageMetadata{
			TextLength: len([]rune(strings.TrimSpace(content))),
			Truncated:  truncated,
			Component:  component,
		},
	}
	if role == models.RoleAssistant {
		fa := format.AnalyzeText(content)
		msg.FormatAnalysis = &fa
	}
	return msg
}

// buildRound pairs two nodes. The round timestamp is the first one found on
// the page, falling back to the clock.
func buildRound(index int, user, assistant dom.Node, confidence float64, elements int, opts Options) models.ConversationRound {
	return newRound(index,
		buildMessage(user, models.RoleUser, opts),
		buildMessage(assistant, models.RoleAssistant, opts),
		confidence, elements, opts)
}

func newRound(index int, user, assistant models.Message, confidence float64, elements int, opts Options) models.ConversationRound {
	return models.ConversationRound{
		Index:        index,
		Timestamp:    roundTime(user, assistant, opts),
		User:         user,
		Assistant:    assistant,
		Confidence:   confidence,
		ElementCount: elements,
	}
}

func roundTime(user, assistant models.Message, opts Options) time.Time {
	for _, m := range []models.Message{user, assistant} {
		if m.Metadata.Timestamp == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, m.Metadata.Timestamp); err == nil {
			return t
		}
	}
	return opts.Now().UTC()
}

// truncate cuts text to limit runes and appends the marker. A limit of 0
// keeps the text whole.
func truncate(text string, limit int) (string, bool) {
	if limit <= 0 {
		return text, false
	}
	r := []rune(text)
	if len(r) <= limit {
		return text, false
	}
	return string(r[:limit]) + TruncationMarker, true
}

// findTimestamp looks for when a message was sent: a <time> element, a
// data-time or data-timestamp attribute, then a date-time written in the text
// of a time-ish element.
func findTimestamp(n dom.Node) (time.Time, bool) {
	var raw []string
	for _, t := range n.Find("time") {
		if v, ok := t.Attr("datetime"); ok {
			raw = append(raw, v)
		}
		raw = append(raw, strings.TrimSpace(t.Text()))
	}
	for _, attr := range []string{"data-time", "data-timestamp"} {
		if v, ok := n.Attr(attr); ok {
			raw = append(raw, v)
		}
		for _, d := range n.Find("[" + attr + "]") {
			v, _ := d.Attr(attr)
			raw = append(raw, v)
		}
	}
	timeish := n.Find("[class*=time], [class*=date]")
	if strings.Contains(strings.ToLower(n.ClassName()), "time") {
		timeish = append([]dom.Node{n}, timeish...)
	}
	for _, d := range timeish {
		if m := timestampPattern.FindString(d.Text()); m != "" {
			raw = append(raw, m)
		}
	}

	for _, s := range raw {
		if s == "" {
			continue
		}
		if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
