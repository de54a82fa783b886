package doctree

// Document is a parsed source document reduced to its page text sequence.
type Document struct {
	Title string // Document title (from metadata or filename)
	Pages []Page // Pages in document order
}

// Page is the plain text of one document page.
type Page struct {
	Number int    // 1-indexed, for reporting only
	Text   string // Page text with lines separated by "\n"
}

// Texts returns the page texts in order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Text
	}
	return out
}

// AppendPage adds a page numbered after the last one.
func (d *Document) AppendPage(text string) {
	d.Pages = append(d.Pages, Page{Number: len(d.Pages) + 1, Text: text})
}
