// Package store persists extracted benchmarks in the three-table layout
// (chapters, audit_info, remediation) keyed by chapter id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/cisaudit/internal/benchmark"
)

// ErrNotFound is returned when a benchmark does not exist.
var ErrNotFound = errors.New("benchmark not found")

// Benchmark is the metadata row of an ingested document.
type Benchmark struct {
	ID          string    `json:"benchmark_id" yaml:"benchmark_id"`
	Filename    string    `json:"filename" yaml:"filename"`
	Title       string    `json:"title" yaml:"title"`
	ContentHash string    `json:"content_hash" yaml:"content_hash"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Chapters    int       `json:"chapters" yaml:"chapters"`
}

// Store reads and writes benchmarks over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// New wraps an open database. driver selects the placeholder style.
func New(db *sql.DB, driver string) *Store {
	if d, err := NormalizeDriver(driver); err == nil {
		driver = d
	}
	return &Store{db: db, driver: driver}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return rebind(s.driver, query)
}

// SaveBenchmark replaces everything stored for b.ID with the given tables in
// one transaction, so saving the same input twice leaves identical rows.
func (s *Store) SaveBenchmark(ctx context.Context, b Benchmark, t benchmark.Tables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.deleteRows(ctx, tx, b.ID); err != nil {
		return err
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO benchmarks (benchmark_id, filename, title, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), b.ID, b.Filename, b.Title, b.ContentHash, b.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert benchmark: %w", err)
	}

	for _, c := range t.Chapters {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO chapters (benchmark_id, chapter_id, title, hierarchy_index, page_number)
			VALUES (?, ?, ?, ?, ?)
		`), b.ID, c.ID, c.Title, c.Code, c.Page); err != nil {
			return fmt.Errorf("insert chapter %d: %w", c.ID, err)
		}
	}
	for i, a := range t.Audits {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO audit_info (benchmark_id, seq, chapter_id, method, output, page_number)
			VALUES (?, ?, ?, ?, ?, ?)
		`), b.ID, i, a.ChapterID, a.Method, a.Output, a.Page); err != nil {
			return fmt.Errorf("insert audit_info: %w", err)
		}
	}
	for i, r := range t.Remediations {
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO remediation (benchmark_id, seq, chapter_id, remediation, page_number)
			VALUES (?, ?, ?, ?, ?)
		`), b.ID, i, r.ChapterID, r.Remediation, r.Page); err != nil {
			return fmt.Errorf("insert remediation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetBenchmark returns the metadata for one benchmark.
func (s *Store) GetBenchmark(ctx context.Context, id string) (Benchmark, error) {
	row := s.db.QueryRowContext(ctx, s.q(benchmarkSelect+` WHERE b.benchmark_id = ?`), id)
	b, err := scanBenchmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Benchmark{}, ErrNotFound
	}
	if err != nil {
		return Benchmark{}, fmt.Errorf("get benchmark: %w", err)
	}
	return b, nil
}

// FindByHash returns the first benchmark stored for a content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (Benchmark, error) {
	row := s.db.QueryRowContext(ctx, s.q(benchmarkSelect+` WHERE b.content_hash = ? ORDER BY b.created_at LIMIT 1`), hash)
	b, err := scanBenchmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Benchmark{}, ErrNotFound
	}
	if err != nil {
		return Benchmark{}, fmt.Errorf("find benchmark by hash: %w", err)
	}
	return b, nil
}

// ListBenchmarks returns all benchmarks, newest first.
func (s *Store) ListBenchmarks(ctx context.Context) ([]Benchmark, error) {
	rows, err := s.db.QueryContext(ctx, benchmarkSelect+` ORDER BY b.created_at DESC, b.benchmark_id`)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	defer rows.Close()

	out := []Benchmark{}
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan benchmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LoadTables reads the three tables of a benchmark in their stored order.
// An empty hierarchy_index is re-derived from the title.
func (s *Store) LoadTables(ctx context.Context, id string) (benchmark.Tables, error) {
	if _, err := s.GetBenchmark(ctx, id); err != nil {
		return benchmark.Tables{}, err
	}

	var t benchmark.Tables
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT chapter_id, title, hierarchy_index, page_number
		FROM chapters WHERE benchmark_id = ? ORDER BY chapter_id
	`), id)
	if err != nil {
		return t, fmt.Errorf("load chapters: %w", err)
	}
	for rows.Next() {
		var c benchmark.Chapter
		if err := rows.Scan(&c.ID, &c.Title, &c.Code, &c.Page); err != nil {
			rows.Close()
			return t, fmt.Errorf("scan chapter: %w", err)
		}
		if c.Code == "" {
			c.Code = benchmark.HierarchyCode(c.Title)
		}
		t.Chapters = append(t.Chapters, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return t, fmt.Errorf("load chapters: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, s.q(`
		SELECT chapter_id, method, output, page_number
		FROM audit_info WHERE benchmark_id = ? ORDER BY seq
	`), id)
	if err != nil {
		return t, fmt.Errorf("load audit_info: %w", err)
	}
	for rows.Next() {
		var a benchmark.AuditRecord
		if err := rows.Scan(&a.ChapterID, &a.Method, &a.Output, &a.Page); err != nil {
			rows.Close()
			return t, fmt.Errorf("scan audit_info: %w", err)
		}
		t.Audits = append(t.Audits, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return t, fmt.Errorf("load audit_info: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, s.q(`
		SELECT chapter_id, remediation, page_number
		FROM remediation WHERE benchmark_id = ? ORDER BY seq
	`), id)
	if err != nil {
		return t, fmt.Errorf("load remediation: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r benchmark.RemediationRecord
		if err := rows.Scan(&r.ChapterID, &r.Remediation, &r.Page); err != nil {
			return t, fmt.Errorf("scan remediation: %w", err)
		}
		t.Remediations = append(t.Remediations, r)
	}
	if err := rows.Err(); err != nil {
		return t, fmt.Errorf("load remediation: %w", err)
	}
	return t, nil
}

// DeleteBenchmark removes a benchmark and all of its rows.
func (s *Store) DeleteBenchmark(ctx context.Context, id string) error {
	if _, err := s.GetBenchmark(ctx, id); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.deleteRows(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) deleteRows(ctx context.Context, tx *sql.Tx, id string) error {
	for _, table := range []string{"remediation", "audit_info", "chapters", "benchmarks"} {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE benchmark_id = ?`), id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

const benchmarkSelect = `
	SELECT b.benchmark_id, b.filename, b.title, b.content_hash, b.created_at,
		(SELECT COUNT(*) FROM chapters c WHERE c.benchmark_id = b.benchmark_id)
	FROM benchmarks b`

type scanner interface {
	Scan(dest ...any) error
}

func scanBenchmark(row scanner) (Benchmark, error) {
	var (
		b       Benchmark
		created string
	)
	if err := row.Scan(&b.ID, &b.Filename, &b.Title, &b.ContentHash, &created, &b.Chapters); err != nil {
		return Benchmark{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		b.CreatedAt = ts
	}
	return b, nil
}
