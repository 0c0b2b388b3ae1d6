// Package models defines the extracted conversation wire format and configuration.
package models

import (
	"strings"
	"time"

	"github.com/dtnitsch/chat-extract/pkg/dom"
)

// SchemaVersion is the version of the ExtractedConversation wire format.
const SchemaVersion = "1.0"

// Role identifies the author of a message. The zero value means no evidence.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FormatAnalysis describes the rich-text features found in a message.
type FormatAnalysis struct {
	HasCodeBlocks bool     `json:"hasCodeBlocks" yaml:"hasCodeBlocks"`
	CodeLanguages []string `json:"codeLanguages" yaml:"codeLanguages"`
	HasHeadings   bool     `json:"hasHeadings" yaml:"hasHeadings"`
	HeadingLevels []int    `json:"headingLevels" yaml:"headingLevels"`
	HasLists      bool     `json:"hasLists" yaml:"hasLists"`
	HasTables     bool     `json:"hasTables" yaml:"hasTables"`
}

// MessageMetadata carries facts about the node a message was built from.
type MessageMetadata struct {
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
	ClassName  string `json:"className,omitempty" yaml:"className,omitempty"`
	TextLength int    `json:"textLength" yaml:"textLength"`
	Timestamp  string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // RFC 3339 when found on the page
	Truncated  bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Component  string `json:"component,omitempty" yaml:"component,omitempty"` // component type name for probe-derived messages
}

// Message is one side of a conversation round. It is not modified once built.
type Message struct {
	Role           Role            `json:"role" yaml:"role"`
	Text           string          `json:"text" yaml:"text"`
	SanitizedHTML  string          `json:"sanitizedHtml" yaml:"sanitizedHtml"`
	FormatAnalysis *FormatAnalysis `json:"formatAnalysis,omitempty" yaml:"formatAnalysis,omitempty"`
	Metadata       MessageMetadata `json:"metadata" yaml:"metadata"`

	// Source is the page node the message was read from. It may be the zero Node.
	Source dom.Node `json:"-" yaml:"-"`
}

// IsEmpty reports whether the message has no text after trimming.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// ConversationRound is one paired user/assistant exchange.
type ConversationRound struct {
	Index        int       `json:"index" yaml:"index"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	User         Message   `json:"user" yaml:"user"`
	Assistant    Message   `json:"assistant" yaml:"assistant"`
	Confidence   float64   `json:"confidence" yaml:"confidence"`
	ElementCount int       `json:"elementCount" yaml:"elementCount"`
}

// Valid reports whether both sides of the round carry text.
func (r ConversationRound) Valid() bool {
	return !r.User.IsEmpty() && !r.Assistant.IsEmpty()
}

// SourceMetadata describes the page a conversation was extracted from.
type SourceMetadata struct {
	URL                string    `json:"url" yaml:"url"`
	Title              string    `json:"title" yaml:"title"`
	ClientID           string    `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ExtractedAt        time.Time `json:"extractedAt" yaml:"extractedAt"`
	Platform           string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	PlatformConfidence float64   `json:"platformConfidence,omitempty" yaml:"platformConfidence,omitempty"` // 0-10 scale
	Language           string    `json:"language,omitempty" yaml:"language,omitempty"`                     // ISO-639-1
}

// StrategyAttempt records how one strategy fared during an analysis.
type StrategyAttempt struct {
	Strategy string   `json:"strategy" yaml:"strategy"`
	Priority int      `json:"priority" yaml:"priority"`
	Rounds   int      `json:"rounds" yaml:"rounds"`
	Score    *float64 `json:"score" yaml:"score"` // nil when the score is undefined (no rounds)
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// ExtractionStats reports how an extraction went.
type ExtractionStats struct {
	Strategy            string            `json:"strategy" yaml:"strategy"`
	TotalRounds         int               `json:"totalRounds" yaml:"totalRounds"`
	SuccessRate         float64           `json:"successRate" yaml:"successRate"`
	DOMElementsAnalyzed int               `json:"domElementsAnalyzed" yaml:"domElementsAnalyzed"`
	ExtractionTimeMs    int64             `json:"extractionTimeMs" yaml:"extractionTimeMs"`
	Attempts            []StrategyAttempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// ExtractedConversation is the result exchanged with downstream consumers.
type ExtractedConversation struct {
	SchemaVersion   string              `json:"schemaVersion" yaml:"schemaVersion"`
	ID              string              `json:"id" yaml:"id"`
	SourceMetadata  SourceMetadata      `json:"sourceMetadata" yaml:"sourceMetadata"`
	Rounds          []ConversationRound `json:"rounds" yaml:"rounds"`
	Confidence      float64             `json:"confidence" yaml:"confidence"`
	ExtractionStats ExtractionStats     `json:"extractionStats" yaml:"extractionStats"`
}

// MeanConfidence returns the average round confidence, or 0 with no rounds.
func MeanConfidence(rounds []ConversationRound) float64 {
	if len(rounds) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rounds {
		sum += r.Confidence
	}
	return sum / float64(len(rounds))
}

// ToPlainText concatenates the text of every message in round order.
func (c *ExtractedConversation) ToPlainText() string {
	var sb strings.Builder
	for _, r := range c.Rounds {
		sb.WriteString(r.User.Text)
		sb.WriteString("\n")
		sb.WriteString(r.Assistant.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
