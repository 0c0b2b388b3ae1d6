package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/chat-extract/internal/capture"
	"github.com/dtnitsch/chat-extract/internal/extract"
	"github.com/dtnitsch/chat-extract/internal/history"
)

func main() {
	app := &cli.App{
		Name:  "chat-extract",
		Usage: "Recover user/assistant conversation rounds from rendered chat pages",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Extract the conversation from saved page markup or a capture file",
				Action: extract.ExtractAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Page markup (.html) or capture document (.json)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "URL the page was saved from",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "json",
						Usage:   "Output format: json or yaml",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the conversation to a file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Keep only matching rounds, e.g. conf:>=0.8,type:code|tables",
					},
					&cli.StringFlag{
						Name:  "strategies",
						Usage: "Comma-separated strategies to run (framework-probe, structural-clustering, visual-layout, sequential)",
					},
					&cli.StringSliceFlag{
						Name:  "container",
						Usage: "CSS selector tried before the built-in container selectors (repeatable)",
					},
					&cli.IntFlag{
						Name:  "max-content-length",
						Usage: "Truncate message text to this many characters (0 disables)",
					},
					&cli.Float64Flag{
						Name:  "min-confidence",
						Usage: "Drop rounds below this confidence",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "History database path (default: next to the binary)",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record this run",
					},
				},
			},
			{
				Name:   "capture",
				Usage:  "Capture a rendered page from a running Chrome",
				Action: capture.CaptureAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "debugger-url",
						Usage: "Chrome DevTools websocket URL (ws://...)",
					},
					&cli.StringFlag{
						Name:  "match",
						Usage: "Substring of the URL of the tab to capture",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the capture to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "extract",
						Usage: "Extract the conversation from the capture and print it",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "json",
						Usage:   "Conversation format with --extract: json or yaml",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
						Usage: "Give up on the browser after this long",
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recorded extraction runs",
				Action: history.HistoryAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Number of runs to show (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "attempts",
						Usage: "Show every strategy tried in each run",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "History database path (default: next to the binary)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
