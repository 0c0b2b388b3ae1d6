// Package strategy holds the independent heuristics that each try to recover
// the conversation from a page snapshot.
package strategy

import (
	"errors"
	"time"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/sanitize"
)

// ErrNoContainerFound means no element on the page looked like it encloses a
// conversation. It stops the strategy that hit it.
var ErrNoContainerFound = errors.New("no conversation container found")

// Strategy is one extraction heuristic. Execute must not modify the snapshot.
type Strategy interface {
	Name() string
	Priority() int
	Execute(snap *dom.Snapshot) (*models.ExtractedConversation, error)
}

// Strategy names, as used in configuration and extraction stats.
const (
	NameFrameworkProbe = "framework-probe"
	NameClustering     = "structural-clustering"
	NameVisualLayout   = "visual-layout"
	NameSequential     = "sequential"
)

// Options tune how strategies build messages.
type Options struct {
	// MaxContentLength truncates message text to this many runes; 0 disables it.
	MaxContentLength int

	// ContainerSelectors are tried before the built-in container selectors.
	ContainerSelectors []string

	// Sanitize cleans message markup before it is stored.
	Sanitize func(string) string

	// Now stamps rounds that carry no timestamp of their own.
	Now func() time.Time
}

// DefaultOptions returns the options used by the CLI when no config is given.
func DefaultOptions() Options {
	return Options{
		MaxContentLength: 10000,
		Sanitize:         sanitize.HTML,
		Now:              time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.Sanitize == nil {
		o.Sanitize = sanitize.HTML
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// locateContainer wraps locate.Container with the strategy sentinel error.
func locateContainer(snap *dom.Snapshot, opts Options) (dom.Node, error) {
	container, ok := locate.Container(snap.Doc, opts.ContainerSelectors...)
	if !ok {
		return dom.Node{}, ErrNoContainerFound
	}
	return container, nil
}

// newResult wraps rounds in a conversation carrying the page facts. The
// orchestrator fills in the id and final stats.
func newResult(snap *dom.Snapshot, name string, rounds []models.ConversationRound, analyzed int) *models.ExtractedConversation {
	if rounds == nil {
		rounds = []models.ConversationRound{}
	}
	successRate := 0.0
	if len(rounds) > 0 {
		successRate = 100
	}
	return &models.ExtractedConversation{
		SchemaVersion: models.SchemaVersion,
		SourceMetadata: models.SourceMetadata{
			URL:      snap.URL,
			Title:    snap.Title,
			ClientID: snap.ClientID,
		},
		Rounds:     rounds,
		Confidence: models.MeanConfidence(rounds),
		ExtractionStats: models.ExtractionStats{
			Strategy:            name,
			TotalRounds:         len(rounds),
			SuccessRate:         successRate,
			DOMElementsAnalyzed: analyzed,
		},
	}
}
