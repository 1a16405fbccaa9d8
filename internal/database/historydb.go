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

	"github.com/nao1215/vigireport/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "vigireport.db"

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02 15:04:05.000"

// HistoryDB stores runs and their unknown characters.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_term TEXT NOT NULL,
		drug_id TEXT,
		timestamp TEXT NOT NULL,
		total_count INTEGER NOT NULL,
		line_count INTEGER NOT NULL,
		digest TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_term ON runs(search_term);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	CREATE TABLE IF NOT EXISTS unknown_chars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		code_point INTEGER NOT NULL,
		char TEXT NOT NULL,
		name TEXT NOT NULL,
		hint TEXT,
		occurrences INTEGER NOT NULL,
		first_seen_in TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_unknown_code_point ON unknown_chars(code_point);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord summarizes a stored run without its report body.
type RunRecord struct {
	ID         int64
	SearchTerm string
	DrugID     string
	Timestamp  time.Time
	TotalCount int
	LineCount  int
	Digest     string

	// UnknownCount is the number of distinct unknown code points.
	UnknownCount int
}

// SaveRun stores report and its unknown characters in one transaction and
// returns the run id.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (search_term, drug_id, timestamp, total_count, line_count, digest, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.SearchTerm,
		report.DrugID,
		report.GeneratedAt.UTC().Format(timestampLayout),
		report.TotalCount,
		len(report.Lines),
		report.Digest(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, u := range report.Unknown {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO unknown_chars (run_id, code_point, char, name, hint, occurrences, first_seen_in)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, u.CodePoint, u.Char, u.Name, u.Hint, u.Occurrences, u.FirstSeenIn); err != nil {
			return 0, fmt.Errorf("failed to save unknown character U+%04X: %w", u.CodePoint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `
	SELECT r.id, r.search_term, r.drug_id, r.timestamp, r.total_count, r.line_count, r.digest,
		(SELECT COUNT(*) FROM unknown_chars u WHERE u.run_id = r.id)
	FROM runs r
`

// ListRuns returns the runs for term, newest first. An empty term lists
// every run.
func (h *HistoryDB) ListRuns(ctx context.Context, term string) ([]RunRecord, error) {
	return h.LatestRuns(ctx, term, -1)
}

// LatestRuns returns at most limit runs for term, newest first. A negative
// limit returns every run.
func (h *HistoryDB) LatestRuns(ctx context.Context, term string, limit int) ([]RunRecord, error) {
	query := runColumns + `
	WHERE (? = '' OR r.search_term = ?)
	ORDER BY r.id DESC
	LIMIT ?
	`

	rows, err := h.db.QueryContext(ctx, query, term, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var drugID sql.NullString
		var timestamp string
		if err := rows.Scan(&rec.ID, &rec.SearchTerm, &drugID, &timestamp,
			&rec.TotalCount, &rec.LineCount, &rec.Digest, &rec.UnknownCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.DrugID = drugID.String
		rec.Timestamp = parseTimestamp(timestamp)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns the stored report of run id.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Report, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// UnknownCharStat aggregates an unknown code point across all runs.
type UnknownCharStat struct {
	CodePoint   int
	Char        string
	Name        string
	Hint        string
	Occurrences int
	Runs        int
	FirstSeen   time.Time
	LastSeen    time.Time
}

// UnknownCharacters returns every unknown code point ever recorded,
// ordered by code point.
func (h *HistoryDB) UnknownCharacters(ctx context.Context) ([]UnknownCharStat, error) {
	query := `
	SELECT u.code_point, MIN(u.char), MIN(u.name), MAX(COALESCE(u.hint, '')),
		SUM(u.occurrences), COUNT(DISTINCT u.run_id), MIN(r.timestamp), MAX(r.timestamp)
	FROM unknown_chars u
	JOIN runs r ON r.id = u.run_id
	GROUP BY u.code_point
	ORDER BY u.code_point
	`

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unknown characters: %w", err)
	}
	defer rows.Close()

	var stats []UnknownCharStat
	for rows.Next() {
		var s UnknownCharStat
		var first, last string
		if err := rows.Scan(&s.CodePoint, &s.Char, &s.Name, &s.Hint,
			&s.Occurrences, &s.Runs, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan unknown character: %w", err)
		}
		s.FirstSeen = parseTimestamp(first)
		s.LastSeen = parseTimestamp(last)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
