// Package benchmark recovers the chapter outline of a security benchmark
// and the audit and remediation text attached to each chapter.
package benchmark

import (
	"regexp"
	"strings"
)

// Chapter is one outline entry. Title embeds the hierarchy code as its
// leading token, e.g. "4.2 Ensure X".
type Chapter struct {
	ID    int    `json:"chapter_id" yaml:"chapter_id"`
	Code  string `json:"hierarchy_index" yaml:"hierarchy_index"`
	Title string `json:"title" yaml:"title"`
	Page  int    `json:"page_number" yaml:"page_number"`
}

// AuditRecord is one "Audit:" block attributed to a chapter.
type AuditRecord struct {
	ChapterID int    `json:"chapter_id" yaml:"chapter_id"`
	Method    string `json:"method" yaml:"method"`
	Output    string `json:"output" yaml:"output"`
	Page      int    `json:"page_number" yaml:"page_number"`
}

// RemediationRecord is one "Remediation:" block attributed to a chapter.
type RemediationRecord struct {
	ChapterID   int    `json:"chapter_id" yaml:"chapter_id"`
	Remediation string `json:"remediation" yaml:"remediation"`
	Page        int    `json:"page_number" yaml:"page_number"`
}

// Tables is the extracted record set: chapters in document order plus the
// audit_info and remediation tables keyed by chapter id.
type Tables struct {
	Chapters     []Chapter           `json:"chapters" yaml:"chapters"`
	Audits       []AuditRecord       `json:"audit_info" yaml:"audit_info"`
	Remediations []RemediationRecord `json:"remediation" yaml:"remediation"`
}

// Options configures the outline markers.
type Options struct {
	Marker     string // phrase that opens the table of contents
	StopMarker string // substring that ends outline recognition
}

// DefaultOptions returns the markers used by CIS benchmarks.
func DefaultOptions() Options {
	return Options{
		Marker:     "Table of Contents",
		StopMarker: "Appendix",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Marker == "" {
		o.Marker = d.Marker
	}
	if o.StopMarker == "" {
		o.StopMarker = d.StopMarker
	}
	return o
}

// Extract runs outline extraction followed by content association.
func Extract(pages []string, opts Options) Tables {
	outline := ExtractOutline(pages, opts)
	audits, rems := Associate(pages, outline.Lookup)
	return Tables{
		Chapters:     outline.Chapters,
		Audits:       audits,
		Remediations: rems,
	}
}

var codeRe = regexp.MustCompile(`^\d+(\.\d+)*$`)

// HierarchyCode isolates the dotted code from a chapter title. Titles that
// do not lead with a numeric code yield "".
func HierarchyCode(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 || !codeRe.MatchString(fields[0]) {
		return ""
	}
	return fields[0]
}

// FirstAudit returns the first audit record of each chapter.
func (t Tables) FirstAudit() map[int]AuditRecord {
	m := make(map[int]AuditRecord)
	for _, a := range t.Audits {
		if _, ok := m[a.ChapterID]; !ok {
			m[a.ChapterID] = a
		}
	}
	return m
}

// FirstRemediation returns the first remediation record of each chapter.
func (t Tables) FirstRemediation() map[int]RemediationRecord {
	m := make(map[int]RemediationRecord)
	for _, r := range t.Remediations {
		if _, ok := m[r.ChapterID]; !ok {
			m[r.ChapterID] = r
		}
	}
	return m
}
