package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/cisaudit/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "cisaudit-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		if text, ferr := extractPdftotext(tmpPath); ferr == nil {
			pages, err = splitPages(text), nil
		} else if err != nil {
			err = fmt.Errorf("%w (fallback: %v)", err, ferr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := &doctree.Document{
		Title: trimExt(filename, ".pdf"),
	}
	for _, page := range pages {
		doc.AppendPage(page)
	}
	return doc, nil
}

// extractPDFPages returns one entry per PDF page. Unreadable pages stay as
// empty strings so page numbers line up with the source.
func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(page))
	}
	return pages, nil
}

// pageText rebuilds lines from glyph positions; outline matching is line
// based. Pages the content interpreter cannot handle fall back to the
// library's plain text.
func pageText(page pdflib.Page) string {
	if text, ok := contentText(page); ok {
		return text
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// glyphLine is one baseline of text on a page.
type glyphLine struct {
	y      float64
	tol    float64
	glyphs []pdflib.Text
}

// contentText groups glyphs into lines by baseline, orders lines top to
// bottom and glyphs left to right, and inserts a space wherever the gap
// between two glyphs is wider than a fraction of the font size.
func contentText(page pdflib.Page) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			text, ok = "", false
		}
	}()

	var lines []*glyphLine
	for _, g := range page.Content().Text {
		if g.S == "\n" || g.S == "\r" || g.S == "" {
			continue
		}
		var line *glyphLine
		for _, l := range lines {
			if math.Abs(l.y-g.Y) <= l.tol {
				line = l
				break
			}
		}
		if line == nil {
			line = &glyphLine{y: g.Y, tol: max(g.FontSize*0.3, 1)}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}
	if len(lines) == 0 {
		return "", false
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.String())
	}
	return strings.Join(out, "\n"), true
}

func (l *glyphLine) String() string {
	sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
	var sb strings.Builder
	var prev *pdflib.Text
	for i := range l.glyphs {
		g := &l.glyphs[i]
		if prev != nil && g.X-(prev.X+prev.W) > max(g.FontSize, prev.FontSize)*0.2 &&
			!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		prev = g
	}
	return strings.TrimRight(sb.String(), " ")
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
