// Package docx is a minimal WordprocessingML document store: just enough of
// the OOXML package format to read and write paragraph style tables and
// paragraph style assignments. Everything it does not understand is carried
// through byte for byte.
package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
)

const (
	documentPart     = "word/document.xml"
	stylesPart       = "word/styles.xml"
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
	documentRelsPart = "word/_rels/document.xml.rels"
)

const (
	nsWordML       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationship = "http://schemas.openxmlformats.org/package/2006/relationships"
	relOfficeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relStyles      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// Document is one open DOCX package. The main document part and the style
// table are kept as live XML trees, all other parts stay raw and are written
// back unchanged in their original order.
type Document struct {
	names  []string
	raw    map[string][]byte
	main   *etree.Document
	styles *etree.Document

	// rewrite saved archive without data descriptors, some readers choke
	// on streamed zip entries
	fixZip bool
}

// Open reads the DOCX package at path.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open package: %w", err)
	}
	defer zr.Close()

	d := &Document{raw: make(map[string][]byte)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open part %q: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read part %q: %w", f.Name, err)
		}

		d.names = append(d.names, f.Name)
		switch f.Name {
		case documentPart:
			d.main = etree.NewDocument()
			if err := d.main.ReadFromBytes(data); err != nil {
				return nil, fmt.Errorf("unable to parse %s: %w", documentPart, err)
			}
		case stylesPart:
			d.styles = etree.NewDocument()
			if err := d.styles.ReadFromBytes(data); err != nil {
				return nil, fmt.Errorf("unable to parse %s: %w", stylesPart, err)
			}
		default:
			d.raw[f.Name] = data
		}
	}

	if d.main == nil || d.main.Root() == nil {
		return nil, fmt.Errorf("package has no %s part", documentPart)
	}
	if d.styles == nil {
		// style table part is optional in the wild - synthesize an empty one
		d.styles = newStylesDoc()
		d.names = append(d.names, stylesPart)
		d.ensureStylesDeclared()
	}
	return d, nil
}

// New scaffolds a fresh empty document with the bare minimum of parts Word
// needs: content types, package relationships, an empty body and a style
// table holding the default "Normal" style.
func New() *Document {
	d := &Document{raw: make(map[string][]byte)}

	d.raw[contentTypesPart] = serialize(newContentTypesDoc())
	d.raw[packageRelsPart] = serialize(newPackageRelsDoc())
	d.raw[documentRelsPart] = serialize(newDocumentRelsDoc())

	d.main = etree.NewDocument()
	d.main.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := d.main.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsWordML)
	root.CreateElement("w:body")

	d.styles = newStylesDoc()

	d.names = []string{contentTypesPart, packageRelsPart, documentRelsPart, documentPart, stylesPart}
	d.scaffoldNormalStyle()
	return d
}

// Save rewrites the whole package to path through a temporary file. No
// atomicity is guaranteed beyond what the filesystem rename of the final
// copy provides.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".docstyle-*.docx")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := d.writeArchive(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize temporary file: %w", err)
	}

	if d.fixZip {
		return copyZipWithoutDataDescriptors(tmpName, path)
	}
	return copyFile(tmpName, path)
}

func (d *Document) writeArchive(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range d.names {
		var data []byte
		switch name {
		case documentPart:
			data = serialize(d.main)
		case stylesPart:
			data = serialize(d.styles)
		default:
			data = d.raw[name]
		}
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("unable to create part %q: %w", name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("unable to write part %q: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close archive: %w", err)
	}
	return nil
}

func serialize(doc *etree.Document) []byte {
	data, err := doc.WriteToBytes()
	if err != nil {
		// etree only fails on writer errors, bytes.Buffer has none
		panic(err)
	}
	return data
}

// ensureStylesDeclared registers the synthesized style table part in content
// types and document relationships of a package that was missing it.
func (d *Document) ensureStylesDeclared() {
	if data, ok := d.raw[contentTypesPart]; ok {
		ct := etree.NewDocument()
		if err := ct.ReadFromBytes(data); err == nil && ct.Root() != nil {
			found := false
			for _, o := range ct.Root().SelectElements("Override") {
				if o.SelectAttrValue("PartName", "") == "/"+stylesPart {
					found = true
					break
				}
			}
			if !found {
				o := ct.Root().CreateElement("Override")
				o.CreateAttr("PartName", "/"+stylesPart)
				o.CreateAttr("ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
				d.raw[contentTypesPart] = serialize(ct)
			}
		}
	}

	data, ok := d.raw[documentRelsPart]
	if !ok {
		d.raw[documentRelsPart] = serialize(newDocumentRelsDoc())
		d.names = append(d.names, documentRelsPart)
		return
	}
	rels := etree.NewDocument()
	if err := rels.ReadFromBytes(data); err != nil || rels.Root() == nil {
		return
	}
	maxID := 0
	for _, r := range rels.Root().SelectElements("Relationship") {
		if r.SelectAttrValue("Type", "") == relStyles {
			return
		}
		var n int
		if _, err := fmt.Sscanf(r.SelectAttrValue("Id", ""), "rId%d", &n); err == nil && n > maxID {
			maxID = n
		}
	}
	r := rels.Root().CreateElement("Relationship")
	r.CreateAttr("Id", fmt.Sprintf("rId%d", maxID+1))
	r.CreateAttr("Type", relStyles)
	r.CreateAttr("Target", "styles.xml")
	d.raw[documentRelsPart] = serialize(rels)
}

func newStylesDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsWordML)
	return doc
}

func newContentTypesDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", nsContentTypes)

	rels := types.CreateElement("Default")
	rels.CreateAttr("Extension", "rels")
	rels.CreateAttr("ContentType", "application/vnd.openxmlformats-package.relationships+xml")

	xml := types.CreateElement("Default")
	xml.CreateAttr("Extension", "xml")
	xml.CreateAttr("ContentType", "application/xml")

	main := types.CreateElement("Override")
	main.CreateAttr("PartName", "/"+documentPart)
	main.CreateAttr("ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")

	styles := types.CreateElement("Override")
	styles.CreateAttr("PartName", "/"+stylesPart)
	styles.CreateAttr("ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")

	return doc
}

func newPackageRelsDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", nsRelationship)

	rel := rels.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", relOfficeDoc)
	rel.CreateAttr("Target", documentPart)

	return doc
}

func newDocumentRelsDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	rels := doc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", nsRelationship)

	rel := rels.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", relStyles)
	rel.CreateAttr("Target", "styles.xml")

	return doc
}

func copyZipWithoutDataDescriptors(from, to string) error {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
