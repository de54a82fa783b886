package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/cisaudit/internal/assess"
	"github.com/dgallion1/cisaudit/internal/benchmark"
)

type fakeTables map[string]benchmark.Tables

func (f fakeTables) LoadTables(_ context.Context, id string) (benchmark.Tables, error) {
	t, ok := f[id]
	if !ok {
		return benchmark.Tables{}, errors.New("no such benchmark")
	}
	return t, nil
}

func testTables() fakeTables {
	return fakeTables{"b1": {
		Chapters: []benchmark.Chapter{
			{ID: 0, Code: "1", Title: "1 Initial Setup", Page: 5},
			{ID: 1, Code: "1.1", Title: "1.1 Filesystem", Page: 6},
			{ID: 2, Code: "1.1.1", Title: "1.1.1 Disable cramfs", Page: 7},
			{ID: 3, Code: "2", Title: "2 Services", Page: 9},
		},
		Audits: []benchmark.AuditRecord{
			{ChapterID: 2, Method: "modprobe -n -v cramfs", Page: 7},
			{ChapterID: 3, Method: "systemctl list-units", Page: 9},
		},
		Remediations: []benchmark.RemediationRecord{
			{ChapterID: 2, Remediation: "blacklist cramfs", Page: 8},
		},
	}}
}

func newTestService() *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewMemoryStore(time.Hour), testTables(), log)
}

func TestService_CreateStartsEmpty(t *testing.T) {
	svc := newTestService()
	st, err := svc.Create(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.ID == "" {
		t.Error("expected session id")
	}
	if st.Answered != 0 || st.Total != 4 || st.Complete {
		t.Errorf("progress = %d/%d complete=%v", st.Answered, st.Total, st.Complete)
	}
	if st.Next == nil || st.Next.ChapterID != 0 || st.Next.Method != assess.NoAuditData {
		t.Errorf("next = %+v", st.Next)
	}
}

func TestQuestionSection(t *testing.T) {
	tables := testTables()["b1"]
	a := assess.Restore(benchmark.NewHierarchy(tables.Chapters), []assess.Entry{
		{ChapterID: 0, Verdict: assess.Implemented, Origin: assess.Explicit},
	})
	st := stateOf(Session{ID: "s"}, tables, a)
	if st.Next == nil || st.Next.ChapterID != 1 {
		t.Fatalf("next = %+v", st.Next)
	}
	if st.Next.Parent != "1" {
		t.Errorf("parent = %q, want 1", st.Next.Parent)
	}
	if len(st.Next.Section) != 1 || st.Next.Section[0] != "1 Initial Setup" {
		t.Errorf("section = %q", st.Next.Section)
	}
}

func TestService_CreateUnknownBenchmark(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Create(context.Background(), "missing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_RecordPropagatesAndPersists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	st, _ := svc.Create(ctx, "b1")

	got, err := svc.Record(ctx, st.ID, 0, assess.NotImplemented)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(got.Inherited) != 2 {
		t.Errorf("inherited = %v, want [1 2]", got.Inherited)
	}
	if got.Next == nil || got.Next.ChapterID != 3 || got.Next.Method != "systemctl list-units" {
		t.Errorf("next = %+v", got.Next)
	}

	// A later explicit answer overrides the inherited one after reload.
	if _, err := svc.Record(ctx, st.ID, 2, assess.Implemented); err != nil {
		t.Fatalf("Record: %v", err)
	}
	loaded, err := svc.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []AnswerEntry{
		{ChapterID: 0, Verdict: assess.NotImplemented, Origin: assess.Explicit},
		{ChapterID: 1, Verdict: assess.NotImplemented, Origin: assess.Inherited},
		{ChapterID: 2, Verdict: assess.Implemented, Origin: assess.Explicit},
	}
	if len(loaded.Answers) != len(want) {
		t.Fatalf("answers = %+v", loaded.Answers)
	}
	for i := range want {
		if loaded.Answers[i] != want[i] {
			t.Errorf("answer %d = %+v, want %+v", i, loaded.Answers[i], want[i])
		}
	}
}

func TestService_RecordAfterReloadDoesNotRepropagate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	st, _ := svc.Create(ctx, "b1")

	svc.Record(ctx, st.ID, 1, assess.PartiallyImplemented)
	got, err := svc.Record(ctx, st.ID, 3, assess.Implemented)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got.Answered != 2 {
		t.Errorf("answered = %d, want 2", got.Answered)
	}
	if got.Next == nil || got.Next.ChapterID != 0 {
		t.Errorf("next = %+v, want chapter 0", got.Next)
	}
}

func TestService_RecordUnknownChapter(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	st, _ := svc.Create(ctx, "b1")
	if _, err := svc.Record(ctx, st.ID, 99, assess.Implemented); !errors.Is(err, assess.ErrUnknownChapter) {
		t.Fatalf("err = %v, want ErrUnknownChapter", err)
	}
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if _, err := svc.Record(ctx, "nope", 0, assess.Implemented); !errors.Is(err, ErrNotFound) {
		t.Errorf("Record err = %v", err)
	}
	if _, err := svc.Findings(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Findings err = %v", err)
	}
}

func TestService_Findings(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	st, _ := svc.Create(ctx, "b1")

	svc.Record(ctx, st.ID, 2, assess.NotImplemented)
	svc.Record(ctx, st.ID, 3, assess.Unknown)

	report, err := svc.Findings(ctx, st.ID)
	if err != nil {
		t.Fatalf("Findings: %v", err)
	}
	if report.Compliant || len(report.Findings) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if f := report.Findings[0]; f.Method != "modprobe -n -v cramfs" || f.Remediation != "blacklist cramfs" {
		t.Errorf("finding 0 = %+v", f)
	}
	if f := report.Findings[1]; f.Remediation != assess.NoRemediationData {
		t.Errorf("finding 1 = %+v", f)
	}
}

func TestService_ConcurrentRecords(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	st, _ := svc.Create(ctx, "b1")

	var wg sync.WaitGroup
	for id := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Record(ctx, st.ID, id, assess.PartiallyImplemented); err != nil {
				t.Errorf("Record %d: %v", id, err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Complete || got.Answered != 4 {
		t.Errorf("answered = %d complete = %v, want all 4", got.Answered, got.Complete)
	}
}
