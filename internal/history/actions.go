package history

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	historypkg "github.com/dtnitsch/chat-extract/pkg/history"
)

func HistoryAction(c *cli.Context) error {
	database, err := historypkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	return listRuns(os.Stdout, database, c.Int("limit"), c.Bool("attempts"))
}

func listRuns(w io.Writer, database *historypkg.DB, limit int, withAttempts bool) error {
	runs, err := database.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	// Print table header
	fmt.Fprintf(w, "%-6s %-16s %-10s %-22s %-7s %-6s %-40s\n",
		"ID", "When", "Platform", "Strategy", "Rounds", "Conf", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-16s %-10s %-22s %-7d %-6.2f %-40s\n",
			r.RunID,
			humanize.Time(r.CreatedAt),
			r.Platform,
			r.Strategy,
			r.TotalRounds,
			r.Confidence,
			r.URL,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))

	if withAttempts {
		for _, r := range runs {
			if err := printAttempts(w, database, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func printAttempts(w io.Writer, database *historypkg.DB, r historypkg.Run) error {
	attempts, err := database.GetRunAttempts(r.RunID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRun %d:\n", r.RunID)
	for _, a := range attempts {
		switch {
		case a.Error != "":
			fmt.Fprintf(w, "  %-22s failed: %s\n", a.Strategy, a.Error)
		case a.Score == nil:
			fmt.Fprintf(w, "  %-22s no rounds\n", a.Strategy)
		default:
			fmt.Fprintf(w, "  %-22s %d rounds, score %.1f\n", a.Strategy, a.Rounds, *a.Score)
		}
	}

	if dupes, err := database.FindRunsByHash(r.ContentHash); err == nil && len(dupes) > 1 && r.ContentHash != "" {
		fmt.Fprintf(w, "  same text as %d other run(s)\n", len(dupes)-1)
	}
	return nil
}
