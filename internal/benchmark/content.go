package benchmark

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	auditRe = regexp.MustCompile(`(?s)Audit:(.*?)(?:Remediation:|\z)`)
	// A remediation block runs until the next line that opens with a
	// capitalised label such as "Default:" or "References:".
	remediationRe = regexp.MustCompile(`(?s)Remediation:(.*?)(?:\n[A-Z][a-z]+:|\z)`)
)

const outputLabel = "Output:"

type titleEntry struct {
	title string
	id    int
}

// Associate re-scans the pages, tracking the current chapter by title
// recognition, and attributes every audit and remediation block to the
// chapter active on its page. Blocks found before any chapter title has
// been seen are dropped.
func Associate(pages []string, lookup map[string]Entry) ([]AuditRecord, []RemediationRecord) {
	titles := titlesLongestFirst(lookup)

	var (
		audits  []AuditRecord
		rems    []RemediationRecord
		current int
	)
	for i, text := range pages {
		page := i + 1
		text = normalizeSpaces(text)

		// The cursor carries over from the previous page when no title matches.
		for _, t := range titles {
			if strings.Contains(text, t.title) {
				current = t.id
				break
			}
		}

		for _, m := range auditRe.FindAllStringSubmatch(text, -1) {
			if current == 0 {
				continue
			}
			method, output := splitAudit(m[1])
			audits = append(audits, AuditRecord{
				ChapterID: current,
				Method:    method,
				Output:    output,
				Page:      page,
			})
		}

		for _, m := range remediationRe.FindAllStringSubmatch(text, -1) {
			rem := strings.TrimSpace(m[1])
			if rem == "" || current == 0 {
				continue
			}
			rems = append(rems, RemediationRecord{
				ChapterID:   current,
				Remediation: rem,
				Page:        page,
			})
		}
	}
	return audits, rems
}

// splitAudit separates the verification method from the expected output at
// the first "Output:" label.
func splitAudit(block string) (method, output string) {
	block = strings.TrimSpace(block)
	before, after, found := strings.Cut(block, outputLabel)
	if !found {
		return block, ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// titlesLongestFirst orders titles so a short title never shadows a longer
// one containing it ("4 Install" vs "4.1 Install Updates"). Equal lengths
// fall back to outline order.
func titlesLongestFirst(lookup map[string]Entry) []titleEntry {
	titles := make([]titleEntry, 0, len(lookup))
	for title, e := range lookup {
		titles = append(titles, titleEntry{title: title, id: e.ID})
	}
	sort.Slice(titles, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(titles[i].title), utf8.RuneCountInString(titles[j].title)
		if li != lj {
			return li > lj
		}
		return titles[i].id < titles[j].id
	})
	return titles
}
