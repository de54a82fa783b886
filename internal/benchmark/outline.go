package benchmark

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// outlineLineRe matches a table of contents line: a dotted code with at
// least two segments, the title, a leader of three or more dots and the
// page number. The leader and page number are what separate outline lines
// from body text that merely cites a section. RE2 classes are ASCII only:
// Unicode spaces are folded by normalizeSpaces first, non-ASCII digits never
// match.
var outlineLineRe = regexp.MustCompile(`^(\d+(?:\.\d+)+)\s+(.+?)\s+\.{3,}\s+(\d+)$`)

// Entry is the reverse lookup value for a full chapter title.
type Entry struct {
	ID   int
	Page int
}

// Outline is the result of scanning the table of contents.
type Outline struct {
	Chapters []Chapter        // first-seen order
	Lookup   map[string]Entry // full title -> (id, page)
}

// ExtractOutline scans pages for the table of contents. Outline lines are
// only recognised from the first page containing opts.Marker onward, and
// scanning stops after the first such page that contains opts.StopMarker.
// A document without the marker yields an empty outline.
func ExtractOutline(pages []string, opts Options) Outline {
	opts = opts.withDefaults()
	out := Outline{Lookup: make(map[string]Entry)}

	started := false
	nextID := 0
	for _, text := range pages {
		text = normalizeSpaces(text)
		if !started && strings.Contains(text, opts.Marker) {
			started = true
		}
		if !started {
			continue
		}

		for _, line := range strings.Split(text, "\n") {
			code, title, page, ok := parseOutlineLine(line)
			if !ok {
				continue
			}
			full := code + " " + title
			if _, seen := out.Lookup[full]; seen {
				continue
			}
			nextID++
			out.Lookup[full] = Entry{ID: nextID, Page: page}
			out.Chapters = append(out.Chapters, Chapter{
				ID:    nextID,
				Code:  code,
				Title: full,
				Page:  page,
			})
		}

		// The stop page is processed in full before stopping.
		if strings.Contains(text, opts.StopMarker) {
			break
		}
	}
	return out
}

func parseOutlineLine(line string) (code, title string, page int, ok bool) {
	m := outlineLineRe.FindStringSubmatch(strings.TrimSpace(normalizeSpaces(line)))
	if m == nil {
		return "", "", 0, false
	}
	page, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}
	return m[1], m[2], page, true
}

// normalizeSpaces folds non-ASCII spaces such as NBSP, common in PDF
// outlines, to a plain space. ASCII whitespace is left alone.
func normalizeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
