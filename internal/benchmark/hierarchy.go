package benchmark

import (
	"iter"
	"strings"
)

// IsDescendant reports whether candidate sits strictly below ancestor in the
// dotted code hierarchy ("2.1.3" is below "2.1" and "2", not below "2.10").
func IsDescendant(candidate, ancestor string) bool {
	if ancestor == "" || candidate == ancestor {
		return false
	}
	return strings.HasPrefix(candidate, ancestor+".")
}

// ParentCode returns the code one level up, or "" for a top-level code.
func ParentCode(code string) string {
	i := strings.LastIndexByte(code, '.')
	if i < 0 {
		return ""
	}
	return code[:i]
}

// Hierarchy answers ancestry queries over a chapter list using the codes
// alone; no parent pointers are stored.
type Hierarchy struct {
	chapters []Chapter
	byID     map[int]int
}

// NewHierarchy indexes chapters, which must be in document order.
func NewHierarchy(chapters []Chapter) *Hierarchy {
	h := &Hierarchy{
		chapters: chapters,
		byID:     make(map[int]int, len(chapters)),
	}
	for i, c := range chapters {
		if _, ok := h.byID[c.ID]; !ok {
			h.byID[c.ID] = i
		}
	}
	return h
}

// Chapters returns the chapters in document order.
func (h *Hierarchy) Chapters() []Chapter {
	return h.chapters
}

// Len returns the number of chapters.
func (h *Hierarchy) Len() int {
	return len(h.chapters)
}

// Chapter looks up a chapter by id.
func (h *Hierarchy) Chapter(id int) (Chapter, bool) {
	i, ok := h.byID[id]
	if !ok {
		return Chapter{}, false
	}
	return h.chapters[i], true
}

// Descendants yields every chapter below code in document order. Each range
// over the returned sequence rescans the chapter list.
func (h *Hierarchy) Descendants(code string) iter.Seq[Chapter] {
	return func(yield func(Chapter) bool) {
		for _, c := range h.chapters {
			if IsDescendant(c.Code, code) && !yield(c) {
				return
			}
		}
	}
}

// Ancestors yields every chapter above code in document order.
func (h *Hierarchy) Ancestors(code string) iter.Seq[Chapter] {
	return func(yield func(Chapter) bool) {
		for _, c := range h.chapters {
			if IsDescendant(code, c.Code) && !yield(c) {
				return
			}
		}
	}
}
