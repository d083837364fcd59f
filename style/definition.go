// Package style defines the paragraph style data model and its ordered,
// name-unique registry with file persistence.
package style

import (
	"encoding/json"
	"fmt"

	"docstyle/common"
)

// RecordTypeParagraph tags serialized paragraph style records. Records
// carrying any other tag are skipped on load so that future style kinds can
// share the same registry file.
const RecordTypeParagraph = "paragraph"

// RGB is a 24-bit color, serialized as a three element JSON array.
type RGB [3]uint8

// Definition describes one named paragraph style. Indents are in
// centimeters, font size and space after paragraph in points.
type Definition struct {
	Name            string
	FontName        string
	FontSize        float64
	Bold            bool
	Italic          bool
	Color           *RGB
	Alignment       common.Alignment
	FirstLineIndent float64
	LeftIndent      float64
	SpaceAfter      float64
}

// Defaults is the single source of fallback values applied when a persisted
// record omits a field.
var Defaults = Definition{
	FontName:  "Calibri",
	FontSize:  11,
	Alignment: common.AlignmentStart,
}

type (
	// FontRecord groups font attributes of a serialized style record.
	FontRecord struct {
		Name   string  `json:"name"`
		Size   float64 `json:"size"`
		Bold   bool    `json:"bold"`
		Italic bool    `json:"italic"`
		Color  *RGB    `json:"color"`
	}

	// ParagraphRecord groups paragraph format attributes of a serialized
	// style record.
	ParagraphRecord struct {
		Alignment       common.Alignment `json:"alignment"`
		FirstLineIndent float64          `json:"first_line_indent"`
		LeftIndent      float64          `json:"left_indent"`
		SpaceAfter      float64          `json:"space_after"`
	}

	// Record is the stable serialized shape of a Definition. Field names
	// must not change between releases - registry files round-trip through
	// it.
	Record struct {
		Type      string          `json:"type"`
		Name      string          `json:"name"`
		Font      FontRecord      `json:"font"`
		Paragraph ParagraphRecord `json:"paragraph"`
	}
)

// Record produces the serialized form of the definition. Pure function of
// the current field values.
func (d Definition) Record() Record {
	var color *RGB
	if d.Color != nil {
		c := *d.Color
		color = &c
	}
	return Record{
		Type: RecordTypeParagraph,
		Name: d.Name,
		Font: FontRecord{
			Name:   d.FontName,
			Size:   d.FontSize,
			Bold:   d.Bold,
			Italic: d.Italic,
			Color:  color,
		},
		Paragraph: ParagraphRecord{
			Alignment:       d.Alignment,
			FirstLineIndent: d.FirstLineIndent,
			LeftIndent:      d.LeftIndent,
			SpaceAfter:      d.SpaceAfter,
		},
	}
}

// FromRecord builds a definition back from its serialized form. The only
// fatal condition is a missing name, everything else has a default.
func FromRecord(rec Record) (Definition, error) {
	if len(rec.Name) == 0 {
		return Definition{}, fmt.Errorf("%w: mandatory name field is absent", ErrMalformedRecord)
	}
	var color *RGB
	if rec.Font.Color != nil {
		c := *rec.Font.Color
		color = &c
	}
	return Definition{
		Name:            rec.Name,
		FontName:        rec.Font.Name,
		FontSize:        rec.Font.Size,
		Bold:            rec.Font.Bold,
		Italic:          rec.Font.Italic,
		Color:           color,
		Alignment:       rec.Paragraph.Alignment,
		FirstLineIndent: rec.Paragraph.FirstLineIndent,
		LeftIndent:      rec.Paragraph.LeftIndent,
		SpaceAfter:      rec.Paragraph.SpaceAfter,
	}, nil
}

// defaultRecord seeds decoding so that fields absent from stored data keep
// their documented defaults.
func defaultRecord() Record {
	rec := Defaults.Record()
	rec.Name = ""
	return rec
}

// UnmarshalRecord decodes one stored record tolerantly - unknown fields are
// ignored, missing fields fall back to Defaults.
func UnmarshalRecord(data []byte) (Definition, error) {
	rec := defaultRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		return Definition{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return FromRecord(rec)
}

// Equal reports structural equality - two definitions are equal exactly when
// their serialized records are equal.
func (d Definition) Equal(o Definition) bool {
	a, b := d.Record(), o.Record()
	if (a.Font.Color == nil) != (b.Font.Color == nil) {
		return false
	}
	if a.Font.Color != nil && *a.Font.Color != *b.Font.Color {
		return false
	}
	a.Font.Color, b.Font.Color = nil, nil
	return a == b
}

func (d Definition) String() string {
	return fmt.Sprintf("style %q: %s, %gpt", d.Name, d.FontName, d.FontSize)
}
