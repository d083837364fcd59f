package restyle

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

type sourceKind int

const (
	kindUnknown sourceKind = iota
	kindDocument
	kindArchive
)

// document container inspection needs more than the usual magic bytes
const sniffLen = 8192

// detectKind tells a word processing document apart from a plain zip
// archive of documents. Both are zip containers, the difference is in the
// entries.
func detectKind(path string) (sourceKind, error) {

	f, err := os.Open(path)
	if err != nil {
		return kindUnknown, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return kindUnknown, err
	}

	t, err := filetype.Match(buf[:n])
	if err != nil {
		return kindUnknown, err
	}

	switch t {
	case matchers.TypeDocx:
		return kindDocument, nil
	case matchers.TypeZip:
		// container inspection is limited to the sniff buffer, extension
		// breaks the tie for documents with large leading entries
		if strings.EqualFold(filepath.Ext(path), ".docx") {
			return kindDocument, nil
		}
		return kindArchive, nil
	}
	return kindUnknown, nil
}
