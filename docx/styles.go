package docx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"docstyle/common"
	"docstyle/style"
)

// WordprocessingML measures indents and spacing in twentieths of a point
// (twips) and font sizes in half points. The style model uses centimeters
// and points.
const (
	twipsPerCm    = 567.0
	twipsPerPoint = 20.0
)

// ParagraphStyles enumerates paragraph level styles of the document in
// style table order, converted to the neutral style model. Styles without a
// run properties block carry no font descriptor and are skipped.
func (d *Document) ParagraphStyles() []style.Definition {
	var out []style.Definition
	for _, s := range d.styles.Root().SelectElements("w:style") {
		if s.SelectAttrValue("w:type", "") != "paragraph" {
			continue
		}
		rPr := s.SelectElement("w:rPr")
		if rPr == nil {
			continue
		}

		def := style.Defaults
		def.Name = styleName(s)
		if len(def.Name) == 0 {
			continue
		}

		if fonts := rPr.SelectElement("w:rFonts"); fonts != nil {
			if name := fonts.SelectAttrValue("w:ascii", ""); len(name) != 0 {
				def.FontName = name
			}
		}
		if sz := rPr.SelectElement("w:sz"); sz != nil {
			if half, err := strconv.Atoi(sz.SelectAttrValue("w:val", "")); err == nil {
				def.FontSize = float64(half) / 2
			}
		}
		def.Bold = onOffEnabled(rPr.SelectElement("w:b"))
		def.Italic = onOffEnabled(rPr.SelectElement("w:i"))
		if c := rPr.SelectElement("w:color"); c != nil {
			def.Color = parseColor(c.SelectAttrValue("w:val", ""))
		}

		if pPr := s.SelectElement("w:pPr"); pPr != nil {
			if jc := pPr.SelectElement("w:jc"); jc != nil {
				def.Alignment = parseAlignment(jc.SelectAttrValue("w:val", ""))
			}
			if ind := pPr.SelectElement("w:ind"); ind != nil {
				if tw, err := strconv.Atoi(ind.SelectAttrValue("w:firstLine", "")); err == nil {
					def.FirstLineIndent = float64(tw) / twipsPerCm
				}
				if tw, err := strconv.Atoi(ind.SelectAttrValue("w:left", "")); err == nil {
					def.LeftIndent = float64(tw) / twipsPerCm
				}
			}
			if sp := pPr.SelectElement("w:spacing"); sp != nil {
				if tw, err := strconv.Atoi(sp.SelectAttrValue("w:after", "")); err == nil {
					def.SpaceAfter = float64(tw) / twipsPerPoint
				}
			}
		}

		out = append(out, def)
	}
	return out
}

// SetParagraphStyle finds or creates the same-named paragraph style and
// rebuilds its run and paragraph properties from the definition. Rebuilding
// from scratch keeps the operation idempotent - the same definition always
// produces identical XML.
func (d *Document) SetParagraphStyle(def style.Definition) error {
	if len(def.Name) == 0 {
		return fmt.Errorf("style name must not be empty")
	}

	s := d.findStyle(def.Name)
	if s == nil {
		s = d.styles.Root().CreateElement("w:style")
		s.CreateAttr("w:type", "paragraph")
		s.CreateAttr("w:styleId", d.newStyleID(def.Name))
		name := s.CreateElement("w:name")
		name.CreateAttr("w:val", def.Name)
	}

	if old := s.SelectElement("w:pPr"); old != nil {
		s.RemoveChild(old)
	}
	if old := s.SelectElement("w:rPr"); old != nil {
		s.RemoveChild(old)
	}

	pPr := s.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", alignmentValue(def.Alignment))
	ind := pPr.CreateElement("w:ind")
	ind.CreateAttr("w:firstLine", strconv.Itoa(cmToTwips(def.FirstLineIndent)))
	ind.CreateAttr("w:left", strconv.Itoa(cmToTwips(def.LeftIndent)))
	spacing := pPr.CreateElement("w:spacing")
	spacing.CreateAttr("w:after", strconv.Itoa(ptToTwips(def.SpaceAfter)))

	rPr := s.CreateElement("w:rPr")
	fonts := rPr.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", def.FontName)
	fonts.CreateAttr("w:hAnsi", def.FontName)
	if def.Bold {
		rPr.CreateElement("w:b")
	}
	if def.Italic {
		rPr.CreateElement("w:i")
	}
	if def.FontSize > 0 {
		sz := rPr.CreateElement("w:sz")
		sz.CreateAttr("w:val", strconv.Itoa(int(def.FontSize*2+0.5)))
	}
	if def.Color != nil {
		c := rPr.CreateElement("w:color")
		c.CreateAttr("w:val", fmt.Sprintf("%02X%02X%02X", def.Color[0], def.Color[1], def.Color[2]))
	}
	return nil
}

func (d *Document) scaffoldNormalStyle() {
	def := style.Defaults
	def.Name = "Normal"
	_ = d.SetParagraphStyle(def)
}

// findStyle locates a paragraph style by its display name.
func (d *Document) findStyle(name string) *etree.Element {
	for _, s := range d.styles.Root().SelectElements("w:style") {
		if s.SelectAttrValue("w:type", "") != "paragraph" {
			continue
		}
		if styleName(s) == name {
			return s
		}
	}
	return nil
}

// styleIDByName resolves the internal style id paragraphs reference in
// their w:pStyle element.
func (d *Document) styleIDByName(name string) string {
	s := d.findStyle(name)
	if s == nil {
		return ""
	}
	return s.SelectAttrValue("w:styleId", "")
}

func styleName(s *etree.Element) string {
	if n := s.SelectElement("w:name"); n != nil {
		if v := n.SelectAttrValue("w:val", ""); len(v) != 0 {
			return v
		}
	}
	return s.SelectAttrValue("w:styleId", "")
}

// newStyleID derives a unique identifier from a display name the way Word
// does - alphanumerics only, deduplicated with a numeric suffix.
func (d *Document) newStyleID(name string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, name)
	if len(base) == 0 {
		base = "Style"
	}

	used := make(map[string]bool)
	for _, s := range d.styles.Root().SelectElements("w:style") {
		used[s.SelectAttrValue("w:styleId", "")] = true
	}
	id := base
	for n := 1; used[id]; n++ {
		id = fmt.Sprintf("%s%d", base, n)
	}
	return id
}

// onOffEnabled interprets OOXML toggle elements: present without value
// means on, explicit 0/false means off.
func onOffEnabled(el *etree.Element) bool {
	if el == nil {
		return false
	}
	switch el.SelectAttrValue("w:val", "") {
	case "0", "false", "off":
		return false
	default:
		return true
	}
}

func parseColor(val string) *style.RGB {
	if len(val) != 6 {
		// "auto" and anything exotic means no explicit color
		return nil
	}
	n, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return nil
	}
	return &style.RGB{uint8(n >> 16), uint8(n >> 8), uint8(n)}
}

func parseAlignment(val string) common.Alignment {
	switch val {
	case "center":
		return common.AlignmentCenter
	case "right", "end":
		return common.AlignmentEnd
	case "both", "justify", "distribute":
		return common.AlignmentJustify
	default:
		return common.AlignmentStart
	}
}

func alignmentValue(a common.Alignment) string {
	switch a {
	case common.AlignmentCenter:
		return "center"
	case common.AlignmentEnd:
		return "right"
	case common.AlignmentJustify:
		return "both"
	default:
		return "left"
	}
}

func cmToTwips(cm float64) int {
	return int(cm*twipsPerCm + 0.5)
}

func ptToTwips(pt float64) int {
	return int(pt*twipsPerPoint + 0.5)
}
