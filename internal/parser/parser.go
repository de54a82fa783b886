package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/cisaudit/internal/doctree"
)

// Parser converts raw document bytes into an ordered page sequence.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// ErrUnsupported is returned for file extensions without a parser.
var ErrUnsupported = errors.New("unsupported file extension")

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func trimExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}

// pageBuilder accumulates lines into pages; a heading opens a new page.
type pageBuilder struct {
	doc     *doctree.Document
	current strings.Builder
	started bool
}

func (b *pageBuilder) heading(text string) {
	b.flush()
	b.started = true
	b.current.WriteString(text)
}

func (b *pageBuilder) line(text string) {
	if text == "" {
		return
	}
	b.started = true
	if b.current.Len() > 0 {
		b.current.WriteString("\n")
	}
	b.current.WriteString(text)
}

func (b *pageBuilder) flush() {
	if b.started {
		b.doc.AppendPage(strings.TrimSpace(b.current.String()))
	}
	b.current.Reset()
	b.started = false
}
