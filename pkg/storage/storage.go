// Package storage keeps a history of scans in a SQLite database so runs over
// the same package can be listed and compared.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/recommend"

	_ "modernc.org/sqlite"
)

var (
	// ErrScanNotFound is returned when no scan has the requested id.
	ErrScanNotFound = errors.New("scan not found")
	// ErrNoBaseline is returned by Changes when a source has fewer than two scans.
	ErrNoBaseline = errors.New("not enough scans to compare")
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scans (
  id             INTEGER PRIMARY KEY,
  source         TEXT NOT NULL,
  started_at     TEXT NOT NULL,
  rules_version  TEXT NOT NULL,
  min_api        INTEGER NOT NULL,
  report         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source, id);
CREATE TABLE IF NOT EXISTS type_counts (
  scan_id  INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  type     TEXT NOT NULL,
  count    INTEGER NOT NULL,
  UNIQUE(scan_id, type)
);
CREATE TABLE IF NOT EXISTS findings (
  id       INTEGER PRIMARY KEY,
  scan_id  INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  kind     TEXT NOT NULL,
  rule     TEXT NOT NULL,
  message  TEXT NOT NULL,
  url      TEXT
);
CREATE INDEX IF NOT EXISTS idx_findings_scan ON findings(scan_id);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveScan stores a finished report with its type counts and findings and
// returns the new scan id.
func (d *DB) SaveScan(ctx context.Context, r *recommend.Report) (id int64, err error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("encoding report: %w", err)
	}
	started := r.GeneratedAt
	if started.IsZero() {
		started = time.Now()
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO scans(source, started_at, rules_version, min_api, report) VALUES(?,?,?,?,?)`,
		r.Source, started.UTC().Format(time.RFC3339Nano), r.RulesVersion, r.MinAPIVersion, string(body))
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	for _, t := range r.Inventory.Keys("") {
		n, _ := pathstore.Count(r.Inventory[t])
		if _, err = tx.ExecContext(ctx, `INSERT INTO type_counts(scan_id, type, count) VALUES(?,?,?)`, id, t, n); err != nil {
			return 0, err
		}
	}

	for _, f := range reportFindings(r) {
		if _, err = tx.ExecContext(ctx, `INSERT INTO findings(scan_id, kind, rule, message, url) VALUES(?,?,?,?,?)`, id, f.Kind, f.Rule, f.Message, nullIfEmpty(f.URL)); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func reportFindings(r *recommend.Report) []Finding {
	var out []Finding
	for _, rec := range r.Recommendations {
		out = append(out, Finding{Kind: rec.Kind, Rule: rec.Rule, Message: rec.Message, URL: rec.URL})
	}
	for _, ed := range r.Editions {
		for _, reason := range ed.Reasons {
			out = append(out, Finding{Kind: FindingEdition, Rule: ed.Edition, Message: reason.Message})
		}
	}
	for _, a := range r.Alerts {
		out = append(out, Finding{Kind: FindingAlert, Rule: a.Label, Message: a.Message, URL: a.URL})
	}
	for _, diag := range r.Diagnostics {
		out = append(out, Finding{Kind: FindingDiagnostic, Rule: diag.Kind, Message: fmt.Sprintf("%s %s: %s", diag.Type, diag.Member, diag.Message)})
	}
	return out
}

// ListScans returns stored scans, newest first.
func (d *DB) ListScans(ctx context.Context, opts ListOptions) ([]Scan, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Source != "" {
		where += " AND s.source = ?"
		args = append(args, opts.Source)
	}
	if !opts.Since.IsZero() {
		where += " AND s.started_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	q := `SELECT s.id, s.source, s.started_at, s.rules_version, s.min_api,
  (SELECT COALESCE(SUM(count), 0) FROM type_counts WHERE scan_id = s.id),
  (SELECT COUNT(*) FROM findings WHERE scan_id = s.id)
FROM scans s ` + where + " ORDER BY s.id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := []Scan{}
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row rowScanner) (Scan, error) {
	var (
		s       Scan
		started string
	)
	if err := row.Scan(&s.ID, &s.Source, &started, &s.RulesVersion, &s.MinAPIVersion, &s.Components, &s.Findings); err != nil {
		return Scan{}, err
	}
	s.StartedAt = parseTime(started)
	return s, nil
}

// GetScan returns the summary row of one scan.
func (d *DB) GetScan(ctx context.Context, id int64) (Scan, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT s.id, s.source, s.started_at, s.rules_version, s.min_api,
  (SELECT COALESCE(SUM(count), 0) FROM type_counts WHERE scan_id = s.id),
  (SELECT COUNT(*) FROM findings WHERE scan_id = s.id)
FROM scans s WHERE s.id = ?`, id)
	s, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Scan{}, fmt.Errorf("%w: %d", ErrScanNotFound, id)
	}
	return s, err
}

// Report returns the JSON report stored with a scan.
func (d *DB) Report(ctx context.Context, id int64) (json.RawMessage, error) {
	var body string
	err := d.sql.QueryRowContext(ctx, "SELECT report FROM scans WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// TypeCounts returns the type counts of one scan ordered by type.
func (d *DB) TypeCounts(ctx context.Context, id int64) ([]TypeCount, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT type, count FROM type_counts WHERE scan_id = ? ORDER BY type", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []TypeCount{}
	for rows.Next() {
		var c TypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Findings returns the findings of one scan in insertion order.
func (d *DB) Findings(ctx context.Context, id int64) ([]Finding, error) {
	if _, err := d.GetScan(ctx, id); err != nil {
		return nil, err
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT scan_id, kind, rule, message, url FROM findings WHERE scan_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	findings := []Finding{}
	for rows.Next() {
		var (
			f   Finding
			url sql.NullString
		)
		if err := rows.Scan(&f.ScanID, &f.Kind, &f.Rule, &f.Message, &url); err != nil {
			return nil, err
		}
		f.URL = url.String
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Changes compares the type counts of the two newest scans of source.
func (d *DB) Changes(ctx context.Context, source string) ([]Change, error) {
	scans, err := d.ListScans(ctx, ListOptions{Source: source, Limit: 2})
	if err != nil {
		return nil, err
	}
	if len(scans) < 2 {
		return nil, fmt.Errorf("%w for %s", ErrNoBaseline, source)
	}
	return d.Diff(ctx, scans[1].ID, scans[0].ID)
}

// Diff lists every type whose count differs between two scans.
func (d *DB) Diff(ctx context.Context, from, to int64) ([]Change, error) {
	before, err := d.countMap(ctx, from)
	if err != nil {
		return nil, err
	}
	after, err := d.countMap(ctx, to)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for t, n := range after {
		old, existed := before[t]
		switch {
		case !existed:
			changes = append(changes, Change{Type: t, After: n, ChangeType: "added"})
		case old != n:
			changes = append(changes, Change{Type: t, Before: old, After: n, ChangeType: "updated"})
		}
	}
	for t, n := range before {
		if _, ok := after[t]; !ok {
			changes = append(changes, Change{Type: t, Before: n, ChangeType: "removed"})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Type < changes[j].Type })
	return changes, nil
}

func (d *DB) countMap(ctx context.Context, id int64) (map[string]int64, error) {
	if _, err := d.GetScan(ctx, id); err != nil {
		return nil, err
	}
	counts, err := d.TypeCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Type] = c.Count
	}
	return m, nil
}

// SourceStats summarises the history of one source.
type SourceStats struct {
	Source   string
	Scans    int
	LastScan time.Time
	Findings int
}

func (d *DB) GetStats(ctx context.Context) ([]SourceStats, error) {
	query := `
		SELECT
			s.source,
			COUNT(DISTINCT s.id),
			MAX(s.started_at),
			COUNT(f.id)
		FROM
			scans s LEFT JOIN findings f ON f.scan_id = s.id
		GROUP BY
			s.source
		ORDER BY
			s.source;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var (
			s    SourceStats
			last string
		)
		if err := rows.Scan(&s.Source, &s.Scans, &last, &s.Findings); err != nil {
			return nil, err
		}
		s.LastScan = parseTime(last)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// parseTime reads timestamps written by SaveScan, falling back to the
// SQLite CURRENT_TIMESTAMP format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
