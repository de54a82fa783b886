package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/cisaudit/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages, which is
// what pdftotext emits.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &doctree.Document{
		Title: trimExt(filename, ".txt"),
	}
	for _, page := range splitPages(string(data)) {
		doc.AppendPage(page)
	}
	return doc, nil
}

// splitPages splits on form feeds and normalises line endings. A trailing
// empty segment after the final form feed is dropped.
func splitPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
