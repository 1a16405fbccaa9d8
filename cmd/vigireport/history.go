package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vigireport/internal/config"
	"github.com/nao1215/vigireport/internal/database"
	"github.com/spf13/cobra"
)

// errTooFewRuns is returned by history --diff when fewer than two runs exist.
var errTooFewRuns = errors.New("need at least two runs of the same term to compare")

// historyDateLayout is used for all history listings.
const historyDateLayout = "2006-01-02 15:04"

// NewHistoryCmd creates the history command.
// This command reads the runs stored by 'vigireport fetch'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [search-term]",
		Short: "Show stored runs and unknown characters",
		Long: `History lists the runs stored in the history database.

Every successful 'vigireport fetch' stores the report, its digest and the
characters the translator could not classify. History reads them back:

- Without flags it lists the stored runs, newest first
- --unknown lists every unknown character seen across all runs
- --diff compares the two most recent runs of a search term

Examples:
  # List all runs
  vigireport history

  # List runs for one search term
  vigireport history "covid-19 vaccine"

  # Show characters missing from the substitution table
  vigireport history --unknown

  # Did anything change since the previous run?
  vigireport history --diff "covid-19 vaccine"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("unknown", "u", false,
		"List unknown characters recorded across all runs")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare the two most recent runs of the search term")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var term string
	if len(args) > 0 {
		term = args[0]
	}

	showUnknown, err := cmd.Flags().GetBool("unknown")
	if err != nil {
		return err
	}
	showDiff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	if showUnknown && showDiff {
		return errors.New("--unknown and --diff cannot be used together")
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Reading history never creates a database.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'vigireport fetch' to download a report.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case showUnknown:
		return listUnknownCharacters(ctx, db, out)
	case showDiff:
		if term == "" {
			term = config.DefaultSearchTerm
		}
		return diffLatestRuns(ctx, db, term, out)
	default:
		return listRuns(ctx, db, term, out)
	}
}

// listRuns prints the stored runs, optionally limited to term.
func listRuns(ctx context.Context, db *database.HistoryDB, term string, out io.Writer) error {
	runs, err := db.ListRuns(ctx, term)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if term != "" {
			fmt.Fprintf(out, "No runs found for %q\n", term)
		} else {
			fmt.Fprintln(out, "No runs found.")
		}
		return nil
	}

	fmt.Fprintf(out, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-5s  %-16s  %-24s  %10s  %6s  %7s  %s\n",
		"ID", "Date", "Search term", "Reports", "Lines", "Unknown", "Digest")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 92))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-5d  %-16s  %-24s  %10d  %6d  %7d  %s\n",
			r.ID,
			r.Timestamp.Format(historyDateLayout),
			truncate(r.SearchTerm, 24),
			r.TotalCount,
			r.LineCount,
			r.UnknownCount,
			shortDigest(r.Digest),
		)
	}
	return nil
}

// listUnknownCharacters prints the unknown code points across all runs.
func listUnknownCharacters(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	stats, err := db.UnknownCharacters(ctx)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		fmt.Fprintln(out, "No unknown characters recorded.")
		return nil
	}

	fmt.Fprintf(out, "Unknown characters (%d):\n\n", len(stats))
	fmt.Fprintf(out, "  %-8s  %-4s  %-40s  %-4s  %11s  %4s  %-16s  %s\n",
		"Code", "Char", "Name", "Hint", "Occurrences", "Runs", "First seen", "Last seen")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 118))
	for _, s := range stats {
		hint := s.Hint
		if hint == "" {
			hint = "-"
		}
		fmt.Fprintf(out, "  U+%04X    %-4s  %-40s  %-4s  %11d  %4d  %-16s  %s\n",
			s.CodePoint,
			s.Char,
			truncate(s.Name, 40),
			hint,
			s.Occurrences,
			s.Runs,
			s.FirstSeen.Format(historyDateLayout),
			s.LastSeen.Format(historyDateLayout),
		)
	}
	return nil
}

// diffLatestRuns compares the two most recent runs of term.
func diffLatestRuns(ctx context.Context, db *database.HistoryDB, term string, out io.Writer) error {
	runs, err := db.LatestRuns(ctx, term, 2)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	if len(runs) < 2 {
		return fmt.Errorf("%w (found %d for %q)", errTooFewRuns, len(runs), term)
	}

	current, previous := runs[0], runs[1]
	fmt.Fprintf(out, "Comparing runs for %q\n\n", term)
	fmt.Fprintf(out, "  %-10s  %-8s  %-16s\n", "", "ID", "Date")
	fmt.Fprintf(out, "  %-10s  %-8d  %-16s\n", "Previous", previous.ID, previous.Timestamp.Format(historyDateLayout))
	fmt.Fprintf(out, "  %-10s  %-8d  %-16s\n\n", "Current", current.ID, current.Timestamp.Format(historyDateLayout))

	fmt.Fprintf(out, "  Total reports:  %d -> %d (%s)\n",
		previous.TotalCount, current.TotalCount, signed(current.TotalCount-previous.TotalCount))
	fmt.Fprintf(out, "  Report lines:   %d -> %d (%s)\n",
		previous.LineCount, current.LineCount, signed(current.LineCount-previous.LineCount))
	fmt.Fprintf(out, "  Unknown chars:  %d -> %d (%s)\n",
		previous.UnknownCount, current.UnknownCount, signed(current.UnknownCount-previous.UnknownCount))

	if current.Digest == previous.Digest {
		fmt.Fprintln(out, "\nReport content unchanged.")
	} else {
		fmt.Fprintf(out, "\nReport content changed: %s -> %s\n",
			shortDigest(previous.Digest), shortDigest(current.Digest))
	}
	return nil
}

// signed formats n with an explicit sign.
func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// shortDigest returns the first 12 hex characters of digest.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
