package benchmark

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOutlineLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantCode  string
		wantTitle string
		wantPage  int
	}{
		{"leader dots", "4.2 Ensure separate partition .... 45", true, "4.2", "Ensure separate partition", 45},
		{"deep code", "1.1.1.1 Ensure mounting of cramfs is disabled (Scored) ........... 17", true, "1.1.1.1", "Ensure mounting of cramfs is disabled (Scored)", 17},
		{"surrounding space", "   2.1 Disable inetd ... 9  ", true, "2.1", "Disable inetd", 9},
		{"body reference", "As discussed in 4.2 Ensure separate partition above", false, "", "", 0},
		{"code without leader", "2.1.3 as shown above", false, "", "", 0},
		{"two dots only", "2.1 Disable inetd .. 9", false, "", "", 0},
		{"missing page", "2.1 Disable inetd ....", false, "", "", 0},
		{"single segment code", "1 Initial Setup .... 5", false, "", "", 0},
		{"no space before leader", "2.1 Disable inetd.... 9", false, "", "", 0},
		{"nbsp separators", "2.1\u00a0Disable\u00a0inetd\u00a0.... 9", true, "2.1", "Disable inetd", 9},
		{"narrow nbsp before page", "2.1 Disable inetd ....\u202f9", true, "2.1", "Disable inetd", 9},
		{"non-ascii digits", "\u0662.\u0661 Disable inetd .... 9", false, "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, title, page, ok := parseOutlineLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if code != tt.wantCode || title != tt.wantTitle || page != tt.wantPage {
				t.Errorf("expected (%q, %q, %d), got (%q, %q, %d)",
					tt.wantCode, tt.wantTitle, tt.wantPage, code, title, page)
			}
		})
	}
}

func TestExtractOutline_StartsAtMarker(t *testing.T) {
	pages := []string{
		"Overview\n9.9 Looks like an entry .... 1",
		"Table of Contents\n1.1 Filesystem .... 3\n1.2 Updates .... 5",
	}
	out := ExtractOutline(pages, DefaultOptions())

	want := []Chapter{
		{ID: 1, Code: "1.1", Title: "1.1 Filesystem", Page: 3},
		{ID: 2, Code: "1.2", Title: "1.2 Updates", Page: 5},
	}
	if diff := cmp.Diff(want, out.Chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
	if e := out.Lookup["1.2 Updates"]; e.ID != 2 || e.Page != 5 {
		t.Errorf("expected lookup (2, 5), got (%d, %d)", e.ID, e.Page)
	}
}

func TestExtractOutline_DuplicatesIgnored(t *testing.T) {
	pages := []string{
		"Table of Contents\n1.1 Filesystem .... 3\n1.1 Filesystem .... 3",
		"1.1 Filesystem .... 4\n1.2 Updates .... 5",
	}
	out := ExtractOutline(pages, DefaultOptions())

	if len(out.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %+v", len(out.Chapters), out.Chapters)
	}
	// First sighting wins, including its page number.
	if out.Chapters[0].Page != 3 {
		t.Errorf("expected first-seen page 3, got %d", out.Chapters[0].Page)
	}
	seen := map[string]bool{}
	for _, c := range out.Chapters {
		if seen[c.Title] {
			t.Errorf("duplicate title %q", c.Title)
		}
		seen[c.Title] = true
	}
}

func TestExtractOutline_StopsAfterAppendixPage(t *testing.T) {
	pages := []string{
		"Table of Contents\n1.1 Filesystem .... 3",
		"1.2 Updates .... 5\nAppendix: Summary Table .... 90",
		"2.1 Never reached .... 7",
	}
	out := ExtractOutline(pages, DefaultOptions())

	if len(out.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %+v", len(out.Chapters), out.Chapters)
	}
	if out.Chapters[1].Title != "1.2 Updates" {
		t.Errorf("expected the stop page to be fully processed, got %+v", out.Chapters)
	}
	if _, ok := out.Lookup["2.1 Never reached"]; ok {
		t.Error("expected scanning to stop after the appendix page")
	}
}

func TestExtractOutline_AppendixBeforeMarkerIgnored(t *testing.T) {
	pages := []string{
		"See Appendix A for history",
		"Table of Contents\n1.1 Filesystem .... 3",
	}
	out := ExtractOutline(pages, DefaultOptions())
	if len(out.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(out.Chapters))
	}
}

func TestExtractOutline_NBSPMarker(t *testing.T) {
	pages := []string{"Table\u00a0of\u00a0Contents\n1.1\u00a0Filesystem .... 3"}
	out := ExtractOutline(pages, DefaultOptions())
	if len(out.Chapters) != 1 || out.Chapters[0].Title != "1.1 Filesystem" {
		t.Errorf("unexpected chapters: %+v", out.Chapters)
	}
}

func TestExtractOutline_NoMarker(t *testing.T) {
	pages := []string{"1.1 Filesystem .... 3", "1.2 Updates .... 5"}
	out := ExtractOutline(pages, DefaultOptions())
	if len(out.Chapters) != 0 || len(out.Lookup) != 0 {
		t.Errorf("expected empty outline, got %+v", out.Chapters)
	}
}

func TestExtractOutline_CustomMarkers(t *testing.T) {
	pages := []string{
		"Contents\n1.1 Filesystem .... 3\nEnd of contents",
		"1.2 Updates .... 5",
	}
	out := ExtractOutline(pages, Options{Marker: "Contents", StopMarker: "End of contents"})
	if len(out.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(out.Chapters))
	}
}

func TestExtractOutline_Idempotent(t *testing.T) {
	pages := []string{
		"Table of Contents\n1.1 Filesystem .... 3\n1.1.1 Disable cramfs ...... 4",
		"1.2 Updates .... 5\nAppendix",
	}
	first := ExtractOutline(pages, DefaultOptions())
	second := ExtractOutline(pages, DefaultOptions())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("expected identical outlines (-first +second):\n%s", diff)
	}
}
