package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/cisaudit/internal/benchmark"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := New(db, DriverSQLite)
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func sampleTables() benchmark.Tables {
	return benchmark.Tables{
		Chapters: []benchmark.Chapter{
			{ID: 0, Code: "1.1", Title: "1.1 Filesystem", Page: 10},
			{ID: 1, Code: "1.1.1", Title: "1.1.1 Disable cramfs", Page: 11},
		},
		Audits: []benchmark.AuditRecord{
			{ChapterID: 1, Method: "modprobe -n -v cramfs", Output: "install /bin/true", Page: 11},
		},
		Remediations: []benchmark.RemediationRecord{
			{ChapterID: 1, Remediation: "Edit /etc/modprobe.d/cramfs.conf", Page: 12},
		},
	}
}

func TestSaveAndLoadTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := sampleTables()

	b := Benchmark{ID: "abc", Filename: "cis.pdf", Title: "cis", ContentHash: "h1"}
	if err := s.SaveBenchmark(ctx, b, want); err != nil {
		t.Fatalf("SaveBenchmark: %v", err)
	}

	got, err := s.LoadTables(ctx, "abc")
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveBenchmark_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := Benchmark{ID: "abc", Filename: "cis.pdf", Title: "cis", ContentHash: "h1"}

	if err := s.SaveBenchmark(ctx, b, sampleTables()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	smaller := benchmark.Tables{Chapters: []benchmark.Chapter{{ID: 0, Code: "2", Title: "2 Services", Page: 3}}}
	if err := s.SaveBenchmark(ctx, b, smaller); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.LoadTables(ctx, "abc")
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if diff := cmp.Diff(smaller, got); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	meta, err := s.GetBenchmark(ctx, "abc")
	if err != nil {
		t.Fatalf("GetBenchmark: %v", err)
	}
	if meta.Chapters != 1 {
		t.Errorf("chapters = %d, want 1", meta.Chapters)
	}
}

func TestLoadTables_RederivesEmptyCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tables := benchmark.Tables{Chapters: []benchmark.Chapter{{ID: 0, Title: "3.4 Firewall", Page: 20}}}
	if err := s.SaveBenchmark(ctx, Benchmark{ID: "x", ContentHash: "h"}, tables); err != nil {
		t.Fatalf("SaveBenchmark: %v", err)
	}

	got, err := s.LoadTables(ctx, "x")
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if got.Chapters[0].Code != "3.4" {
		t.Errorf("code = %q, want %q", got.Chapters[0].Code, "3.4")
	}
}

func TestGetBenchmark_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetBenchmark(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.LoadTables(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadTables err = %v, want ErrNotFound", err)
	}
}

func TestListAndFindByHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := old.Add(time.Hour)

	if err := s.SaveBenchmark(ctx, Benchmark{ID: "a", Filename: "a.pdf", ContentHash: "ha", CreatedAt: old}, sampleTables()); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.SaveBenchmark(ctx, Benchmark{ID: "b", Filename: "b.pdf", ContentHash: "hb", CreatedAt: newer}, benchmark.Tables{}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	list, err := s.ListBenchmarks(ctx)
	if err != nil {
		t.Fatalf("ListBenchmarks: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("list = %+v, want [b a]", list)
	}
	if list[1].Chapters != 2 || !list[1].CreatedAt.Equal(old) {
		t.Errorf("a = %+v", list[1])
	}

	found, err := s.FindByHash(ctx, "hb")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if found.ID != "b" {
		t.Errorf("found %q, want b", found.ID)
	}
	if _, err := s.FindByHash(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteBenchmark(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveBenchmark(ctx, Benchmark{ID: "a", ContentHash: "h"}, sampleTables()); err != nil {
		t.Fatalf("SaveBenchmark: %v", err)
	}
	if err := s.DeleteBenchmark(ctx, "a"); err != nil {
		t.Fatalf("DeleteBenchmark: %v", err)
	}
	if _, err := s.GetBenchmark(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var n int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_info WHERE benchmark_id = 'a'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("audit_info rows = %d, want 0", n)
	}
	if err := s.DeleteBenchmark(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
	want := "SELECT * FROM t WHERE a = $1 AND b = $2"
	if got := rebind(DriverPostgres, q); got != want {
		t.Errorf("pgx rebind = %q, want %q", got, want)
	}
}

func TestNormalizeDriver(t *testing.T) {
	tests := map[string]string{
		"":         DriverSQLite,
		"sqlite3":  DriverSQLite,
		"postgres": DriverPostgres,
		"PGX":      DriverPostgres,
	}
	for in, want := range tests {
		got, err := NormalizeDriver(in)
		if err != nil || got != want {
			t.Errorf("NormalizeDriver(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := NormalizeDriver("mysql"); err == nil {
		t.Error("expected error for mysql")
	}
}
