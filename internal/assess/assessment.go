package assess

import (
	"errors"
	"fmt"

	"github.com/dgallion1/cisaudit/internal/benchmark"
)

// ErrUnknownChapter is returned when an answer names a chapter id that is
// not part of the benchmark.
var ErrUnknownChapter = errors.New("unknown chapter")

// Origin tells whether a verdict was answered directly or inherited from an
// ancestor.
type Origin string

const (
	Explicit  Origin = "explicit"
	Inherited Origin = "inherited"
)

// Answer is the state of one answered chapter.
type Answer struct {
	Verdict Verdict `json:"verdict" yaml:"verdict"`
	Origin  Origin  `json:"origin" yaml:"origin"`
}

// Entry is an answer keyed by chapter, the persisted form of an assessment.
type Entry struct {
	ChapterID int     `json:"chapter_id" yaml:"chapter_id"`
	Verdict   Verdict `json:"verdict" yaml:"verdict"`
	Origin    Origin  `json:"origin" yaml:"origin"`
}

// Assessment holds at most one verdict per chapter. A chapter absent from
// the map is unanswered.
//
// Transitions:
//   - Record always sets the chapter to an explicit verdict, replacing any
//     earlier explicit or inherited one.
//   - Unless the verdict is PartiallyImplemented, Record then gives every
//     still-unanswered descendant the same verdict as inherited.
//   - Inheritance never replaces an existing answer: the first answer to
//     reach a chapter stays until that chapter is recorded explicitly.
type Assessment struct {
	hierarchy *benchmark.Hierarchy
	answers   map[int]Answer
}

// New starts an empty assessment over the given chapters.
func New(h *benchmark.Hierarchy) *Assessment {
	return &Assessment{
		hierarchy: h,
		answers:   make(map[int]Answer),
	}
}

// Restore rebuilds an assessment from persisted entries without
// propagating. Entries for chapters that no longer exist are skipped.
func Restore(h *benchmark.Hierarchy, entries []Entry) *Assessment {
	a := New(h)
	for _, e := range entries {
		if _, ok := h.Chapter(e.ChapterID); !ok {
			continue
		}
		origin := e.Origin
		if origin != Inherited {
			origin = Explicit
		}
		a.answers[e.ChapterID] = Answer{Verdict: e.Verdict, Origin: origin}
	}
	return a
}

// Record answers a chapter explicitly and propagates final verdicts. It
// returns the ids of the descendants that inherited the verdict, in
// document order.
func (a *Assessment) Record(chapterID int, v Verdict) ([]int, error) {
	ch, ok := a.hierarchy.Chapter(chapterID)
	if !ok {
		return nil, fmt.Errorf("record chapter %d: %w", chapterID, ErrUnknownChapter)
	}
	a.answers[chapterID] = Answer{Verdict: v, Origin: Explicit}

	if !v.Propagates() {
		return nil, nil
	}
	var inherited []int
	for d := range a.hierarchy.Descendants(ch.Code) {
		if _, answered := a.answers[d.ID]; answered {
			continue
		}
		a.answers[d.ID] = Answer{Verdict: v, Origin: Inherited}
		inherited = append(inherited, d.ID)
	}
	return inherited, nil
}

// Answer returns the current answer for a chapter.
func (a *Assessment) Answer(chapterID int) (Answer, bool) {
	ans, ok := a.answers[chapterID]
	return ans, ok
}

// Complete reports whether every chapter has an answer.
func (a *Assessment) Complete() bool {
	for _, c := range a.hierarchy.Chapters() {
		if _, ok := a.answers[c.ID]; !ok {
			return false
		}
	}
	return true
}

// Next returns the first unanswered chapter in document order.
func (a *Assessment) Next() (benchmark.Chapter, bool) {
	for _, c := range a.hierarchy.Chapters() {
		if _, ok := a.answers[c.ID]; !ok {
			return c, true
		}
	}
	return benchmark.Chapter{}, false
}

// Progress returns the number of answered chapters and the total.
func (a *Assessment) Progress() (answered, total int) {
	for _, c := range a.hierarchy.Chapters() {
		if _, ok := a.answers[c.ID]; ok {
			answered++
		}
	}
	return answered, a.hierarchy.Len()
}

// Entries returns the answers in document order.
func (a *Assessment) Entries() []Entry {
	out := make([]Entry, 0, len(a.answers))
	for _, c := range a.hierarchy.Chapters() {
		if ans, ok := a.answers[c.ID]; ok {
			out = append(out, Entry{ChapterID: c.ID, Verdict: ans.Verdict, Origin: ans.Origin})
		}
	}
	return out
}
