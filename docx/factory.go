package docx

import (
	"fmt"
	"os"

	"docstyle/docsync"
)

// Document satisfies the document store contract consumed by docsync.
var _ docsync.Store = (*Document)(nil)

// Factory opens DOCX stores for docsync.SyncFile.
type Factory struct {
	// FixZip rewrites saved archives without data descriptors for readers
	// that cannot handle streamed zip entries.
	FixZip bool
}

var _ docsync.Factory = Factory{}

// OpenOrCreate loads the document at path, or scaffolds a fresh empty one
// when the path does not exist.
func (f Factory) OpenOrCreate(path string) (docsync.Store, error) {
	var (
		d   *Document
		err error
	)
	if _, serr := os.Stat(path); serr == nil {
		d, err = Open(path)
		if err != nil {
			return nil, err
		}
	} else if os.IsNotExist(serr) {
		d = New()
	} else {
		return nil, fmt.Errorf("unable to check %q: %w", path, serr)
	}
	d.fixZip = f.FixZip
	return d, nil
}
