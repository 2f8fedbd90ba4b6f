package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mdscrape/internal/model"
)

// FileName is the name of the history database file inside its directory.
const FileName = "mdscrape.db"

// ErrSessionNotFound is returned when a session ID has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// CrawlDB provides SQLite-based storage for crawl session history.
// It implements pipeline.Recorder.
//
// Design decision: We use a single database file for every session rather
// than one file per output directory. This lets `mdscrape history` list all
// past crawls regardless of where their output was written.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Concurrent sessions share the database; SQLite allows one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
// Timestamps are stored as RFC 3339 text.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Sessions store one row per crawl of a seed URL
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		policy TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		cancelled INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_seed ON sessions(seed);

	-- Pages store the outcome of every fetched or failed page
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		url TEXT NOT NULL,
		origin_url TEXT,
		depth INTEGER DEFAULT 0,
		title TEXT,
		name TEXT,
		paths TEXT,
		blocks INTEGER DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// StartSession inserts the session row.
func (cdb *CrawlDB) StartSession(ctx context.Context, report *model.SessionReport) error {
	query := `
	INSERT INTO sessions (id, seed, policy, started_at)
	VALUES (?, ?, ?, ?)
	`

	_, err := cdb.db.ExecContext(ctx, query,
		report.ID,
		report.Seed,
		report.Policy,
		formatTimestamp(report.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// RecordPage inserts one page outcome for a session.
func (cdb *CrawlDB) RecordPage(ctx context.Context, sessionID string, result model.PageResult) error {
	pathsJSON, err := json.Marshal(result.Paths)
	if err != nil {
		return fmt.Errorf("failed to serialize paths: %w", err)
	}

	query := `
	INSERT INTO pages (session_id, url, origin_url, depth, title, name, paths, blocks, status, error, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = cdb.db.ExecContext(ctx, query,
		sessionID,
		result.URL,
		result.OriginURL,
		result.Depth,
		result.Title,
		result.Name,
		string(pathsJSON),
		result.Blocks,
		result.Status.String(),
		result.Error,
		formatTimestamp(result.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// FinishSession stores the session's end time and outcome.
func (cdb *CrawlDB) FinishSession(ctx context.Context, report *model.SessionReport) error {
	query := `
	UPDATE sessions
	SET finished_at = ?, cancelled = ?, error = ?
	WHERE id = ?
	`

	result, err := cdb.db.ExecContext(ctx, query,
		formatTimestamp(report.FinishedAt),
		report.Cancelled,
		report.ErrorMessage,
		report.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", report.ID, ErrSessionNotFound)
	}
	return nil
}

// SessionRecord is a stored session with its page counts.
// This is used for displaying history without loading every page.
type SessionRecord struct {
	ID         string    `json:"id"`
	Seed       string    `json:"seed"`
	Policy     string    `json:"policy"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Cancelled  bool      `json:"cancelled"`
	Error      string    `json:"error,omitempty"`
	Saved      int       `json:"saved"`
	Failed     int       `json:"failed"`
}

// sessionColumns selects a session row with its page counts.
const sessionColumns = `
	SELECT s.id, s.seed, s.policy, s.started_at, COALESCE(s.finished_at, ''),
		s.cancelled, COALESCE(s.error, ''),
		COALESCE(SUM(CASE WHEN p.status = 'saved' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN p.status != 'saved' THEN 1 ELSE 0 END), 0)
	FROM sessions s
	LEFT JOIN pages p ON p.session_id = s.id
	`

// ListSessions returns stored sessions, most recent first.
// A limit of zero or less returns every session.
func (cdb *CrawlDB) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := sessionColumns + " GROUP BY s.id ORDER BY s.started_at DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// GetSession returns one session by ID.
func (cdb *CrawlDB) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	query := sessionColumns + " WHERE s.id = ? GROUP BY s.id"

	rec, err := scanSession(cdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionRecord, error) {
	var rec SessionRecord
	var started, finished string

	err := row.Scan(
		&rec.ID,
		&rec.Seed,
		&rec.Policy,
		&started,
		&finished,
		&rec.Cancelled,
		&rec.Error,
		&rec.Saved,
		&rec.Failed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan session: %w", err)
	}

	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	return rec, nil
}

// ListPages returns the page outcomes of a session in processing order.
func (cdb *CrawlDB) ListPages(ctx context.Context, sessionID string) ([]model.PageResult, error) {
	query := `
	SELECT url, COALESCE(origin_url, ''), depth, COALESCE(title, ''), COALESCE(name, ''),
		COALESCE(paths, ''), blocks, status, COALESCE(error, ''), processed_at
	FROM pages
	WHERE session_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var results []model.PageResult
	for rows.Next() {
		var r model.PageResult
		var pathsJSON, status, processed string

		if err := rows.Scan(
			&r.URL,
			&r.OriginURL,
			&r.Depth,
			&r.Title,
			&r.Name,
			&pathsJSON,
			&r.Blocks,
			&status,
			&r.Error,
			&processed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		if r.Status, err = model.ParsePageStatus(status); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", r.URL, err)
		}
		if pathsJSON != "" && pathsJSON != "null" {
			if err := json.Unmarshal([]byte(pathsJSON), &r.Paths); err != nil {
				return nil, fmt.Errorf("failed to parse paths of %s: %w", r.URL, err)
			}
		}
		r.ProcessedAt = parseTimestamp(processed)
		results = append(results, r)
	}

	return results, rows.Err()
}

// timestampLayout keeps a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp formats t for storage. The zero time is stored as "".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
