package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/mdscrape/internal/config"
	"github.com/nao1215/mdscrape/internal/database"
	"github.com/nao1215/mdscrape/internal/model"
)

// defaultHistoryLimit is the number of sessions listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show past crawl sessions",
		Long: `History lists the crawl sessions recorded in the history database,
most recent first. With a session ID it lists every page of that session
with its outcome and output files.

Examples:
  # List the 20 most recent sessions
  mdscrape history

  # List every session
  mdscrape history --limit 0

  # Show the pages of one session as JSON
  mdscrape history --json 6f1c2b7e-4d0a-4f5e-9a39-2f8f0c1d3b4a`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of sessions to list (0 = all)")
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if len(args) == 1 {
		return showSession(ctx, out, db, args[0], jsonOutput)
	}
	return listSessions(ctx, out, db, limit, jsonOutput)
}

// listSessions prints the most recent sessions.
func listSessions(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int, jsonOutput bool) error {
	sessions, err := db.ListSessions(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if jsonOutput {
		return encodeJSON(out, sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	fmt.Fprintf(out, "Crawl sessions (%d):\n\n", len(sessions))
	fmt.Fprintf(out, "  %-36s  %-20s  %-8s  %5s  %6s  %s\n",
		"ID", "Started", "Policy", "Saved", "Failed", "Seed")
	for _, s := range sessions {
		fmt.Fprintf(out, "  %-36s  %-20s  %-8s  %5d  %6d  %s%s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Policy,
			s.Saved,
			s.Failed,
			s.Seed,
			sessionMarker(s),
		)
	}
	return nil
}

// sessionMarker flags sessions that did not finish normally.
func sessionMarker(s database.SessionRecord) string {
	switch {
	case s.Error != "":
		return " (error)"
	case s.Cancelled:
		return " (cancelled)"
	case s.FinishedAt.IsZero():
		return " (unfinished)"
	default:
		return ""
	}
}

// sessionDetail is the JSON form of one session with its pages.
type sessionDetail struct {
	Session database.SessionRecord `json:"session"`
	Pages   []model.PageResult     `json:"pages"`
}

// showSession prints one session and its pages.
func showSession(ctx context.Context, out io.Writer, db *database.CrawlDB, id string, jsonOutput bool) error {
	session, err := db.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	pages, err := db.ListPages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}

	if jsonOutput {
		return encodeJSON(out, sessionDetail{Session: *session, Pages: pages})
	}

	fmt.Fprintf(out, "Session: %s\n", session.ID)
	fmt.Fprintf(out, "Seed:    %s\n", session.Seed)
	fmt.Fprintf(out, "Policy:  %s\n", session.Policy)
	fmt.Fprintf(out, "Started: %s\n", session.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !session.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Elapsed: %s\n", session.FinishedAt.Sub(session.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(out, "Pages:   %d saved, %d failed%s\n", session.Saved, session.Failed, sessionMarker(*session))
	if session.Error != "" {
		fmt.Fprintf(out, "Error:   %s\n", session.Error)
	}

	if len(pages) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	for _, p := range pages {
		if p.Saved() {
			fmt.Fprintf(out, "  [+] %s -> %s\n", p.URL, strings.Join(p.Paths, ", "))
			continue
		}
		fmt.Fprintf(out, "  [!] %s (%s): %s\n", p.URL, p.Status, p.Error)
	}
	return nil
}

// encodeJSON writes v as indented JSON.
func encodeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
