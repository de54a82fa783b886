package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/cisaudit/internal/assess"
	"github.com/dgallion1/cisaudit/internal/benchmark"
)

// TablesLoader reads the extracted tables of a benchmark.
type TablesLoader interface {
	LoadTables(ctx context.Context, benchmarkID string) (benchmark.Tables, error)
}

// Question is the next chapter to answer.
type Question struct {
	ChapterID int    `json:"chapter_id"`
	Code      string `json:"hierarchy_index"`
	Title     string `json:"title"`
	Method    string `json:"method"`
	Parent    string `json:"parent_index,omitempty"`
	// Section holds the titles of the enclosing chapters, outermost first.
	Section []string `json:"section,omitempty"`
}

// State is a session together with what the state machine derives from it.
type State struct {
	Session
	Answered  int       `json:"answered"`
	Total     int       `json:"total"`
	Complete  bool      `json:"complete"`
	Next      *Question `json:"next,omitempty"`
	Inherited []int     `json:"inherited,omitempty"`
}

// Service runs assessments on top of a session store.
type Service struct {
	mu     sync.Mutex
	store  Store
	tables TablesLoader
	log    *slog.Logger
	now    func() time.Time
}

func NewService(store Store, tables TablesLoader, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		tables: tables,
		log:    log,
		now:    time.Now,
	}
}

// Create starts an empty session for a stored benchmark.
func (s *Service) Create(ctx context.Context, benchmarkID string) (State, error) {
	t, err := s.tables.LoadTables(ctx, benchmarkID)
	if err != nil {
		return State{}, err
	}

	now := s.now().UTC()
	sess := Session{
		ID:          uuid.NewString(),
		BenchmarkID: benchmarkID,
		Answers:     []AnswerEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return State{}, err
	}
	s.log.Info("session created", "session_id", sess.ID, "benchmark_id", benchmarkID, "chapters", len(t.Chapters))
	return stateOf(sess, t, s.restore(sess, t)), nil
}

// Get returns the current state of a session.
func (s *Service) Get(ctx context.Context, id string) (State, error) {
	sess, t, err := s.load(ctx, id)
	if err != nil {
		return State{}, err
	}
	return stateOf(sess, t, s.restore(sess, t)), nil
}

// Record answers one chapter and saves the result. Calls are serialised so
// concurrent answers to one session never lose an update.
func (s *Service) Record(ctx context.Context, id string, chapterID int, v assess.Verdict) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, t, err := s.load(ctx, id)
	if err != nil {
		return State{}, err
	}

	a := s.restore(sess, t)
	inherited, err := a.Record(chapterID, v)
	if err != nil {
		return State{}, err
	}

	sess.Answers = a.Entries()
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return State{}, err
	}

	s.log.Info("answer recorded",
		"session_id", id,
		"chapter_id", chapterID,
		"verdict", v.String(),
		"inherited", len(inherited),
	)
	st := stateOf(sess, t, a)
	st.Inherited = inherited
	return st, nil
}

// Findings returns the remediation report for a session's current answers.
func (s *Service) Findings(ctx context.Context, id string) (assess.Report, error) {
	sess, t, err := s.load(ctx, id)
	if err != nil {
		return assess.Report{}, err
	}
	return assess.Filter(t, s.restore(sess, t)), nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (Session, benchmark.Tables, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return Session{}, benchmark.Tables{}, err
	}
	t, err := s.tables.LoadTables(ctx, sess.BenchmarkID)
	if err != nil {
		return Session{}, benchmark.Tables{}, fmt.Errorf("load benchmark %s: %w", sess.BenchmarkID, err)
	}
	return sess, t, nil
}

func (s *Service) restore(sess Session, t benchmark.Tables) *assess.Assessment {
	return assess.Restore(benchmark.NewHierarchy(t.Chapters), sess.Answers)
}

func stateOf(sess Session, t benchmark.Tables, a *assess.Assessment) State {
	answered, total := a.Progress()
	sess.Answers = a.Entries()
	st := State{
		Session:  sess,
		Answered: answered,
		Total:    total,
		Complete: a.Complete(),
	}
	if next, ok := a.Next(); ok {
		q := &Question{
			ChapterID: next.ID,
			Code:      next.Code,
			Title:     next.Title,
			Method:    assess.NoAuditData,
			Parent:    benchmark.ParentCode(next.Code),
		}
		if rec, ok := t.FirstAudit()[next.ID]; ok {
			q.Method = rec.Method
		}
		for c := range benchmark.NewHierarchy(t.Chapters).Ancestors(next.Code) {
			q.Section = append(q.Section, c.Title)
		}
		st.Next = q
	}
	return st
}
