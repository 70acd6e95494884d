package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
)

// FileName is the name of the history database inside its directory.
const FileName = "a11yscan.db"

// HistoryDB provides SQLite-based storage for past scan results.
//
// Design decision: Each scan is stored as the same JSON document the JSON
// reporter writes, next to a few denormalized columns (URL, timestamp,
// severity counts). Listing history never needs to decode the documents,
// and a stored scan can always be rendered again by any reporter.
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

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
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
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		scanned_at TEXT NOT NULL,
		wcag_levels TEXT,
		title TEXT,
		lang TEXT,
		total_violations INTEGER NOT NULL DEFAULT 0,
		critical INTEGER NOT NULL DEFAULT 0,
		serious INTEGER NOT NULL DEFAULT 0,
		moderate INTEGER NOT NULL DEFAULT 0,
		minor INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScan stores a scan result and returns its database ID.
func (hdb *HistoryDB) SaveScan(ctx context.Context, result *model.ScanResult) (int64, error) {
	if result == nil {
		return 0, report.ErrNilResult
	}

	reportJSON, err := json.Marshal(report.NewDocument(result))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := model.Summarize(result)
	query := `
	INSERT INTO scans (url, scanned_at, wcag_levels, title, lang,
		total_violations, critical, serious, moderate, minor, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := hdb.db.ExecContext(ctx, query,
		result.URL,
		result.ISOTimestamp(),
		joinLevels(result.ToolOptions.EffectiveLevels()),
		result.Page.Title,
		result.Page.Lang,
		summary.TotalViolations,
		summary.Critical,
		summary.Serious,
		summary.Moderate,
		summary.Minor,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}

	return res.LastInsertId()
}

// ScanRecord contains summary information about a stored scan.
// This is used for displaying scan history without loading the full report.
type ScanRecord struct {
	// ID is the unique identifier of the scan in the database.
	ID int64

	// URL is the scanned page.
	URL string

	// Timestamp is when the scan was performed.
	Timestamp time.Time

	// WCAGLevels are the conformance levels the scan evaluated.
	WCAGLevels []model.WCAGLevel

	// Title is the document title of the scanned page, if any.
	Title string

	// Summary holds the severity counts.
	Summary model.ScanSummary
}

// GetScanHistory retrieves scan records for a URL, newest first.
// A limit of zero or less returns every record.
func (hdb *HistoryDB) GetScanHistory(ctx context.Context, url string, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, url, scanned_at, wcag_levels, title,
		total_violations, critical, serious, moderate, minor
	FROM scans
	WHERE url = ?
	ORDER BY scanned_at DESC, id DESC
	`
	args := []any{url}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	records := make([]ScanRecord, 0)
	for rows.Next() {
		var (
			rec       ScanRecord
			timestamp string
			levels    sql.NullString
			title     sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.URL,
			&timestamp,
			&levels,
			&title,
			&rec.Summary.TotalViolations,
			&rec.Summary.Critical,
			&rec.Summary.Serious,
			&rec.Summary.Moderate,
			&rec.Summary.Minor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.Timestamp = parseTimestamp(timestamp)
		rec.WCAGLevels = splitLevels(levels.String)
		rec.Title = title.String
		rec.Summary.URL = rec.URL
		rec.Summary.Timestamp = rec.Timestamp
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetScanResult retrieves a stored scan by its database ID.
// It returns ErrScanNotFound when no scan has that ID.
func (hdb *HistoryDB) GetScanResult(ctx context.Context, id int64) (*model.ScanResult, error) {
	query := `
	SELECT report_json, title, lang FROM scans
	WHERE id = ?
	`

	var (
		reportJSON  string
		title, lang sql.NullString
	)
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON, &title, &lang)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	result, err := decodeResult(reportJSON)
	if err != nil {
		return nil, err
	}
	result.Page = model.PageInfo{Title: title.String, Lang: lang.String}
	return result, nil
}

// GetLatestScanResults retrieves up to limit stored scans of url, newest first.
// Malformed rows are skipped.
func (hdb *HistoryDB) GetLatestScanResults(ctx context.Context, url string, limit int) ([]*model.ScanResult, error) {
	records, err := hdb.GetScanHistory(ctx, url, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*model.ScanResult, 0, len(records))
	for _, rec := range records {
		result, err := hdb.GetScanResult(ctx, rec.ID)
		if err != nil {
			if errors.Is(err, ErrMalformedReport) {
				continue
			}
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ListScannedURLs returns every URL with at least one stored scan.
func (hdb *HistoryDB) ListScannedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM scans
	ORDER BY url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// DeleteScanHistory removes every stored scan of url and returns how many were removed.
func (hdb *HistoryDB) DeleteScanHistory(ctx context.Context, url string) (int64, error) {
	res, err := hdb.db.ExecContext(ctx, "DELETE FROM scans WHERE url = ?", url)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scan history: %w", err)
	}
	return res.RowsAffected()
}

func decodeResult(reportJSON string) (*model.ScanResult, error) {
	doc, err := report.ParseJSON(strings.NewReader(reportJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}
	result, err := doc.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}
	return result, nil
}

func joinLevels(levels []model.WCAGLevel) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ",")
}

func splitLevels(s string) []model.WCAGLevel {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	levels := make([]model.WCAGLevel, 0, len(parts))
	for _, p := range parts {
		levels = append(levels, model.WCAGLevel(p))
	}
	return levels
}

// timestampFormats contains the timestamp formats a stored scan may carry.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000Z", // format written by SaveScan
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
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
