// Package orchestrator runs the extraction strategies against a page snapshot,
// keeps the best result and validates it.
package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/language"
	"github.com/dtnitsch/chat-extract/pkg/platform"
	"github.com/dtnitsch/chat-extract/pkg/strategy"
)

// ErrNoUsableResult means every strategy failed or found no rounds.
var ErrNoUsableResult = errors.New("no strategy produced a usable result")

// errNilResult is recorded for a strategy that returned neither a result nor
// an error.
var errNilResult = errors.New("strategy returned no result")

// scorePrecision rounds Evaluate scores to 1e-9.
const scorePrecision = 1e9

// StrategyError records why one strategy failed.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Orchestrator runs strategies in registration order.
type Orchestrator struct {
	strategies []strategy.Strategy
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now, for stable timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDs replaces the conversation id generator.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// New returns an orchestrator over the given strategies.
func New(logger *slog.Logger, strategies []strategy.Strategy, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		strategies: strategies,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Default registers the strategies a snapshot supports: the framework probe
// when a component tree was captured, structural clustering, and visual layout
// when the page carries rendered boxes. A non-empty enabled list restricts the
// set by name and may also name the plain sequential strategy.
func Default(snap *dom.Snapshot, opts strategy.Options, logger *slog.Logger, enabled []string, extra ...Option) (*Orchestrator, error) {
	available := map[string]bool{
		strategy.NameFrameworkProbe: true,
		strategy.NameClustering:     true,
		strategy.NameVisualLayout:   true,
		strategy.NameSequential:     true,
	}
	for _, name := range enabled {
		if !available[name] {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}
	want := func(name string, byDefault bool) bool {
		if len(enabled) == 0 {
			return byDefault
		}
		return slices.Contains(enabled, name)
	}

	var strategies []strategy.Strategy
	if snap.Instrumentation != nil && want(strategy.NameFrameworkProbe, true) {
		strategies = append(strategies, strategy.NewFrameworkProbe(opts))
	}
	if want(strategy.NameClustering, true) {
		strategies = append(strategies, strategy.NewClustering(opts))
	}
	if snap.Doc.HasLayout() && want(strategy.NameVisualLayout, true) {
		strategies = append(strategies, strategy.NewVisualLayout(opts))
	}
	if want(strategy.NameSequential, false) {
		strategies = append(strategies, strategy.NewSequential(opts))
	}
	if len(strategies) == 0 {
		return nil, errors.New("no strategy can run on this snapshot")
	}
	return New(logger, strategies, extra...), nil
}

// Strategies returns the registered strategy names in run order.
func (o *Orchestrator) Strategies() []string {
	names := make([]string, len(o.strategies))
	for i, s := range o.strategies {
		names[i] = s.Name()
	}
	return names
}

// Analyze runs every strategy, keeps the strictly highest scoring result
// (the earlier strategy wins a tie) and validates it. A failing strategy is
// logged and skipped.
func (o *Orchestrator) Analyze(snap *dom.Snapshot) (*models.ExtractedConversation, error) {
	start := o.now()

	var best *models.ExtractedConversation
	bestScore := 0.0
	attempts := make([]models.StrategyAttempt, 0, len(o.strategies))

	for _, s := range o.strategies {
		attempt := models.StrategyAttempt{Strategy: s.Name(), Priority: s.Priority()}

		result, err := execute(s, snap)
		if err != nil {
			serr := &StrategyError{Strategy: s.Name(), Err: err}
			o.logger.Warn("strategy failed", "strategy", s.Name(), "error", err)
			attempt.Error = serr.Error()
			attempts = append(attempts, attempt)
			continue
		}

		score := Evaluate(result)
		attempt.Rounds = len(result.Rounds)
		if !math.IsNaN(score) {
			attempt.Score = &score
		}
		attempts = append(attempts, attempt)
		o.logger.Info("strategy finished", "strategy", s.Name(), "rounds", len(result.Rounds), "score", attempt.Score)

		// NaN compares false, so a result without rounds never wins.
		if score > bestScore {
			best = result
			bestScore = score
		}
	}

	if best == nil {
		return nil, ErrNoUsableResult
	}

	if best.ID == "" {
		best.ID = o.newID()
	}
	best.ExtractionStats.Attempts = attempts
	now := o.now()
	Validate(best, snap, now, now.Sub(start))

	o.logger.Info("extraction complete",
		"strategy", best.ExtractionStats.Strategy,
		"rounds", best.ExtractionStats.TotalRounds,
		"confidence", best.Confidence,
		"platform", best.SourceMetadata.Platform,
	)
	return best, nil
}

// execute runs one strategy, turning a panic or a nil result into an error so
// a broken strategy cannot abort the analysis.
func execute(s strategy.Strategy, snap *dom.Snapshot) (result *models.ExtractedConversation, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	result, err = s.Execute(snap)
	if err == nil && result == nil {
		err = errNilResult
	}
	return result, err
}

// Evaluate scores a result from 0 to 100: up to 30 for the round count, 40
// for the average round confidence, and 15 each when any assistant message
// has code or headings. A result with no rounds has no average and scores
// NaN.
func Evaluate(c *models.ExtractedConversation) float64 {
	if c == nil {
		return math.NaN()
	}
	n := len(c.Rounds)
	var sum float64
	hasCode, hasHeadings := false, false
	for _, r := range c.Rounds {
		sum += r.Confidence
		if fa := r.Assistant.FormatAnalysis; fa != nil {
			hasCode = hasCode || fa.HasCodeBlocks
			hasHeadings = hasHeadings || fa.HasHeadings
		}
	}
	avg := sum / float64(n) // NaN for zero rounds

	score := math.Min(float64(n)*10, 30) + avg*40
	if hasCode {
		score += 15
	}
	if hasHeadings {
		score += 15
	}
	// Equal confidences must give equal averages whatever the round count.
	return math.Round(score*scorePrecision) / scorePrecision
}

// Validate drops rounds missing either side, recomputes the stats and the
// aggregate confidence, and refreshes the page facts. Running it again with
// the same clock and elapsed time changes nothing.
func Validate(c *models.ExtractedConversation, snap *dom.Snapshot, now time.Time, elapsed time.Duration) {
	kept := make([]models.ConversationRound, 0, len(c.Rounds))
	for _, r := range c.Rounds {
		if r.Valid() {
			kept = append(kept, r)
		}
	}
	c.Rounds = kept
	c.SchemaVersion = models.SchemaVersion
	c.Confidence = models.MeanConfidence(kept)

	stats := &c.ExtractionStats
	stats.TotalRounds = len(kept)
	stats.SuccessRate = 0
	if len(kept) > 0 {
		stats.SuccessRate = 100
	}
	stats.DOMElementsAnalyzed = snap.ElementCount
	stats.ExtractionTimeMs = elapsed.Milliseconds()

	detected := platform.Detect(snap.URL, snap.Title, snap.Doc)
	c.SourceMetadata = models.SourceMetadata{
		URL:                snap.URL,
		Title:              snap.Title,
		ClientID:           snap.ClientID,
		ExtractedAt:        now.UTC(),
		Platform:           detected.Platform,
		PlatformConfidence: detected.Confidence,
		Language:           language.Detect(c.ToPlainText()),
	}
}
