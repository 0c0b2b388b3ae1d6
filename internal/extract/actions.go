package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/chat-extract/internal/common"
	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/analytics"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/extractor"
	"github.com/dtnitsch/chat-extract/pkg/history"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/orchestrator"
	"github.com/dtnitsch/chat-extract/pkg/sanitize"
	"github.com/dtnitsch/chat-extract/pkg/strategy"
)

// summaryKeywords is how many keywords per side the stderr summary shows.
const summaryKeywords = 5

func ExtractAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))

	cfg, err := LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	input := c.String("input")
	if input == "" {
		logger.Error("missing --input")
		os.Exit(2)
	}

	filter, err := extractor.ParseFilter(c.String("filter"))
	if err != nil {
		logger.Error("invalid filter", "error", err)
		os.Exit(2)
	}

	snap, err := LoadSnapshot(input, c.String("url"))
	if err != nil {
		logger.Error("failed to load page", "input", input, "error", err)
		os.Exit(2)
	}

	conv, err := Extract(snap, cfg, filter, logger)
	if errors.Is(err, orchestrator.ErrNoUsableResult) {
		logger.Error("no conversation found", "input", input)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(2)
	}

	if !c.Bool("no-history") {
		recordHistory(cfg.DBPath, conv, logger)
	}

	data, err := common.Marshal(conv, cfg.Format)
	if err != nil {
		logger.Error("failed to marshal conversation", "error", err)
		os.Exit(2)
	}
	if err := common.WriteOutput(c.String("output"), data); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(2)
	}

	if !c.Bool("quiet") {
		printSummary(conv, len(data))
	}

	if len(conv.Rounds) == 0 {
		os.Exit(1)
	}
	return nil
}

// LoadConfig reads the optional --config file and lets flags override it.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("max-content-length") {
		cfg.MaxContentLength = c.Int("max-content-length")
	}
	if c.IsSet("min-confidence") {
		cfg.MinConfidence = c.Float64("min-confidence")
	}
	if c.IsSet("strategies") {
		cfg.Strategies = splitList(c.String("strategies"))
	}
	if c.IsSet("container") {
		cfg.ContainerSelectors = append(c.StringSlice("container"), cfg.ContainerSelectors...)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, locate.ValidateSelectors(cfg.ContainerSelectors)
}

// LoadSnapshot reads saved page markup, or a capture document when the file
// ends in .json. pageURL overrides the URL stored in a capture.
func LoadSnapshot(path, pageURL string) (*dom.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		capture, err := dom.ReadCapture(f)
		if err != nil {
			return nil, err
		}
		if pageURL != "" {
			capture.URL = pageURL
		}
		return dom.FromCapture(capture)
	}
	return dom.ParseHTML(f, pageURL)
}

// Extract runs the configured strategies over snap and applies the result
// filter. The minimum confidence of cfg and filter combine; the stricter wins.
func Extract(snap *dom.Snapshot, cfg models.Config, filter *extractor.Filter, logger *slog.Logger) (*models.ExtractedConversation, error) {
	opts := strategy.Options{
		MaxContentLength:   cfg.MaxContentLength,
		ContainerSelectors: cfg.ContainerSelectors,
		Sanitize:           sanitize.HTML,
	}

	orch, err := orchestrator.Default(snap, opts, logger, cfg.Strategies)
	if err != nil {
		return nil, fmt.Errorf("failed to configure strategies: %w", err)
	}
	logger.Info("starting extraction", "url", snap.URL, "elements", snap.ElementCount, "strategies", orch.Strategies())

	conv, err := orch.Analyze(snap)
	if err != nil {
		return nil, err
	}

	var f extractor.Filter
	if filter != nil {
		f = *filter
	}
	if cfg.MinConfidence > f.MinConfidence {
		f.MinConfidence = cfg.MinConfidence
	}
	return extractor.FilterConversation(conv, &f), nil
}

// recordHistory stores the run. A history failure never fails the extraction.
func recordHistory(dbPath string, conv *models.ExtractedConversation, logger *slog.Logger) {
	database, err := history.Open(dbPath)
	if err != nil {
		logger.Warn("failed to open history database", "error", err)
		return
	}
	defer database.Close()

	hash := common.ContentHash([]byte(conv.ToPlainText()))
	runID, err := database.RecordRun(conv, hash)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Info("run recorded", "run_id", runID, "db", database.Path())
}

func printSummary(conv *models.ExtractedConversation, size int) {
	stats := conv.ExtractionStats
	fmt.Fprintf(os.Stderr, "\n%s: %d rounds via %s (confidence %.2f, %s, %s)\n",
		conv.SourceMetadata.Platform,
		stats.TotalRounds,
		stats.Strategy,
		conv.Confidence,
		humanize.Bytes(uint64(size)),
		humanize.Comma(stats.ExtractionTimeMs)+"ms",
	)

	a := &analytics.Analytics{}
	summary := a.Summarize(conv, summaryKeywords)
	fmt.Fprintf(os.Stderr, "  user:      %s\n", keywordList(summary.User))
	fmt.Fprintf(os.Stderr, "  assistant: %s\n", keywordList(summary.Assistant))
}

func keywordList(keywords []analytics.Keyword) string {
	if len(keywords) == 0 {
		return "-"
	}
	parts := make([]string, len(keywords))
	for i, k := range keywords {
		parts[i] = fmt.Sprintf("%s (%d)", k.Word, k.Count)
	}
	return strings.Join(parts, ", ")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
