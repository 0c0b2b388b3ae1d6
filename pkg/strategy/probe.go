package strategy

import (
	"strings"
	"time"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/confidence"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/format"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/roles"
)

// ProbeConfidence is the confidence of rounds read from a component tree.
const ProbeConfidence = 0.9

var messageComponentWords = []string{"message", "chat", "bubble"}

// contentProps are the props that hold a message body, most specific first.
var contentProps = []string{"content", "text", "markdown", "message", "body", "value", "children"}

// ProbeRecord is a message read from a framework component.
type ProbeRecord struct {
	Role      models.Role
	Content   string
	Component string
	Host      dom.Node
}

// FrameworkProbe reads messages straight from a UI framework's retained
// component tree. It is only registered for snapshots that captured one.
type FrameworkProbe struct {
	opts Options
}

// NewFrameworkProbe returns the framework probe strategy.
func NewFrameworkProbe(opts Options) *FrameworkProbe {
	return &FrameworkProbe{opts: opts.withDefaults()}
}

func (p *FrameworkProbe) Name() string  { return NameFrameworkProbe }
func (p *FrameworkProbe) Priority() int { return 100 }

// Execute pairs probe records by strict alternation. With no instrumentation
// or no records it pairs the container's candidates in document order.
func (p *FrameworkProbe) Execute(snap *dom.Snapshot) (*models.ExtractedConversation, error) {
	container, err := locateContainer(snap, p.opts)
	if err != nil {
		return nil, err
	}

	var records []ProbeRecord
	if snap.Instrumentation != nil {
		records = Probe(snap.Instrumentation, container)
	}
	if len(records) == 0 {
		candidates := locate.Candidates(container)
		rounds := Pair(candidates, roles.Evidence, confidence.Positional, p.opts)
		return newResult(snap, p.Name(), rounds, len(candidates)), nil
	}

	rounds := p.pairRecords(records)
	return newResult(snap, p.Name(), rounds, len(records)), nil
}

// Probe collects message records from the components reachable from
// container.
func Probe(inst dom.Instrumentation, container dom.Node) []ProbeRecord {
	var records []ProbeRecord
	for c := range inst.ListInstrumentedNodes(container) {
		if !IsMessageComponent(c) {
			continue
		}
		content := componentContent(c)
		if strings.TrimSpace(content) == "" {
			continue
		}
		records = append(records, ProbeRecord{
			Role:      componentRole(c),
			Content:   content,
			Component: c.Type,
			Host:      c.Host,
		})
	}
	return records
}

// IsMessageComponent matches components whose type name or a prop key
// mentions a message, chat or bubble, or whose role prop names a side.
func IsMessageComponent(c dom.ComponentNode) bool {
	if containsAny(strings.ToLower(c.Type), messageComponentWords) {
		return true
	}
	for key := range c.Props {
		if containsAny(strings.ToLower(key), messageComponentWords) {
			return true
		}
	}
	switch models.Role(strings.ToLower(c.Props["role"])) {
	case models.RoleUser, models.RoleAssistant:
		return true
	}
	return false
}

// componentRole resolves the author: an explicit role prop, else a user-ish
// type name, else the assistant.
func componentRole(c dom.ComponentNode) models.Role {
	switch r := models.Role(strings.ToLower(c.Props["role"])); r {
	case models.RoleUser, models.RoleAssistant:
		return r
	}
	name := strings.ToLower(c.Type)
	if strings.Contains(name, "user") || strings.Contains(name, "human") {
		return models.RoleUser
	}
	return models.RoleAssistant
}

func componentContent(c dom.ComponentNode) string {
	for _, key := range contentProps {
		if v := strings.TrimSpace(c.Props[key]); v != "" {
			return v
		}
	}
	if !c.Host.IsZero() {
		return c.Host.InnerText()
	}
	return ""
}

func (p *FrameworkProbe) pairRecords(records []ProbeRecord) []models.ConversationRound {
	var rounds []models.ConversationRound
	var pending *ProbeRecord
	for i := range records {
		rec := &records[i]
		switch rec.Role {
		case models.RoleUser:
			pending = rec
		case models.RoleAssistant:
			if pending == nil {
				continue
			}
			rounds = append(rounds, newRound(len(rounds),
				p.recordMessage(*pending), p.recordMessage(*rec),
				ProbeConfidence, 2, p.opts))
			pending = nil
		}
	}
	return rounds
}

func (p *FrameworkProbe) recordMessage(rec ProbeRecord) models.Message {
	msg := textMessage(rec.Content, rec.Role, rec.Component, p.opts)
	if rec.Host.IsZero() {
		return msg
	}
	outer := rec.Host.OuterHTML()
	msg.Source = rec.Host
	msg.SanitizedHTML = p.opts.Sanitize(outer)
	msg.Metadata.Tag = rec.Host.Tag()
	msg.Metadata.ClassName = rec.Host.ClassName()
	if ts, ok := findTimestamp(rec.Host); ok {
		msg.Metadata.Timestamp = ts.Format(time.RFC3339)
	}
	if rec.Role == models.RoleAssistant {
		fa := format.Merge(format.Analyze(outer), format.AnalyzeText(rec.Content))
		msg.FormatAnalysis = &fa
	}
	return msg
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
