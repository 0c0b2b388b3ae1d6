package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/chat-extract/internal/common"
	"github.com/dtnitsch/chat-extract/internal/extract"
	"github.com/dtnitsch/chat-extract/models"
	capturepkg "github.com/dtnitsch/chat-extract/pkg/capture"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/orchestrator"
)

func CaptureAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))

	cfg, err := extract.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	debuggerURL := cfg.DebuggerURL
	if c.IsSet("debugger-url") {
		debuggerURL = c.String("debugger-url")
	}
	if debuggerURL == "" {
		logger.Error("missing --debugger-url (or debugger_url in config)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	logger.Info("capturing page", "debugger_url", debuggerURL, "match", c.String("match"))
	page, err := capturepkg.Page(ctx, capturepkg.Options{
		DebuggerURL: debuggerURL,
		Match:       c.String("match"),
	})
	if errors.Is(err, capturepkg.ErrNoMatchingPage) {
		logger.Error("no matching page", "error", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("capture failed", "error", err)
		os.Exit(2)
	}

	err = Deliver(page, cfg, c.String("output"), c.Bool("extract"), os.Stdout, logger)
	if errors.Is(err, orchestrator.ErrNoUsableResult) {
		logger.Error("no conversation found", "url", page.URL)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("capture failed", "error", err)
		os.Exit(2)
	}
	return nil
}

// Deliver writes the capture to output, or to stdout when output is empty.
// With withExtract the conversation is printed to stdout instead, and the
// capture is kept only when output names a file.
func Deliver(page *dom.Capture, cfg models.Config, output string, withExtract bool, stdout io.Writer, logger *slog.Logger) error {
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal capture: %w", err)
	}
	logger.Info("page captured",
		"url", page.URL,
		"elements", page.ElementCount,
		"components", componentCount(page),
		"size", humanize.Bytes(uint64(len(data))),
	)

	if output != "" {
		if err := common.WriteOutput(output, data); err != nil {
			return err
		}
	}
	if !withExtract {
		if output == "" {
			_, err = fmt.Fprintln(stdout, string(data))
		}
		return err
	}

	snap, err := dom.FromCapture(page)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}
	conv, err := extract.Extract(snap, cfg, nil, logger)
	if err != nil {
		return err
	}
	out, err := common.Marshal(conv, cfg.Format)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func componentCount(c *dom.Capture) int {
	if c.Components == nil {
		return 0
	}
	return len(c.Components.Nodes)
}
