package assess

import "github.com/dgallion1/cisaudit/internal/benchmark"

// Placeholders for chapters without extracted text.
const (
	NoAuditData       = "No data"
	NoRemediationData = "No instructions"
)

// Finding is a chapter that needs remediation.
type Finding struct {
	ChapterID   int     `json:"chapter_id" yaml:"chapter_id"`
	Title       string  `json:"title" yaml:"title"`
	Verdict     Verdict `json:"verdict" yaml:"verdict"`
	Method      string  `json:"method" yaml:"method"`
	Remediation string  `json:"remediation" yaml:"remediation"`
}

// Report is the filtered findings list. Compliant is true when nothing needs
// remediation.
type Report struct {
	Findings  []Finding `json:"findings" yaml:"findings"`
	Compliant bool      `json:"compliant" yaml:"compliant"`
}

// Filter keeps the chapters whose verdict is Unknown or NotImplemented, in
// document order, joined with their first audit method and first remediation.
// Unanswered chapters are not findings.
func Filter(t benchmark.Tables, a *Assessment) Report {
	audits := t.FirstAudit()
	rems := t.FirstRemediation()

	report := Report{Findings: []Finding{}}
	for _, c := range t.Chapters {
		ans, ok := a.Answer(c.ID)
		if !ok || !ans.Verdict.NeedsRemediation() {
			continue
		}
		f := Finding{
			ChapterID:   c.ID,
			Title:       c.Title,
			Verdict:     ans.Verdict,
			Method:      NoAuditData,
			Remediation: NoRemediationData,
		}
		if rec, ok := audits[c.ID]; ok {
			f.Method = rec.Method
		}
		if rec, ok := rems[c.ID]; ok {
			f.Remediation = rec.Remediation
		}
		report.Findings = append(report.Findings, f)
	}
	report.Compliant = len(report.Findings) == 0
	return report
}
