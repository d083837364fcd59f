package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"docstyle/docsync"
)

type paragraph struct {
	doc *Document
	el  *etree.Element
}

// Paragraphs returns document paragraphs in document order.
func (d *Document) Paragraphs() []docsync.Paragraph {
	body := d.main.Root().SelectElement("w:body")
	if body == nil {
		return nil
	}
	var out []docsync.Paragraph
	for _, p := range body.SelectElements("w:p") {
		out = append(out, &paragraph{doc: d, el: p})
	}
	return out
}

// Text returns the trimmed concatenation of every text run of the
// paragraph, including runs nested in hyperlinks and the like.
func (p *paragraph) Text() string {
	var buf strings.Builder
	collectText(p.el, &buf)
	return strings.TrimSpace(buf.String())
}

func collectText(el *etree.Element, buf *strings.Builder) {
	for _, child := range el.ChildElements() {
		if child.Space == "w" && child.Tag == "t" {
			buf.WriteString(child.Text())
			continue
		}
		collectText(child, buf)
	}
}

// SetStyle assigns the named style to the paragraph. The style must already
// exist in the document's style table.
func (p *paragraph) SetStyle(name string) error {
	id := p.doc.styleIDByName(name)
	if len(id) == 0 {
		return fmt.Errorf("%w: %q", docsync.ErrMissingTargetStyle, name)
	}

	pPr := p.el.SelectElement("w:pPr")
	if pPr == nil {
		// paragraph properties must be the first child of w:p
		pPr = etree.NewElement("w:pPr")
		p.el.InsertChildAt(0, pPr)
	}
	pStyle := pPr.SelectElement("w:pStyle")
	if pStyle == nil {
		pStyle = pPr.CreateElement("w:pStyle")
	}
	pStyle.RemoveAttr("w:val")
	pStyle.CreateAttr("w:val", id)
	return nil
}

// AddParagraph appends a paragraph with a single text run to the document
// body. Used to seed fresh documents.
func (d *Document) AddParagraph(text string) {
	body := d.main.Root().SelectElement("w:body")
	if body == nil {
		body = d.main.Root().CreateElement("w:body")
	}
	p := body.CreateElement("w:p")
	r := p.CreateElement("w:r")
	t := r.CreateElement("w:t")
	if text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
	t.SetText(text)
}
