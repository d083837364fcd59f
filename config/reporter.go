package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"docstyle/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	path  string
	stamp time.Time
	data  []byte
}

// Report accumulates files and data snippets to be archived into a single
// debug report on Close.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		// no report has been requested
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to a file to be put in the final archive later. The
// file is read at finalization time - store a copy instead when content is
// about to change.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	r.entries[r.versioned(name)] = entry{path: path, stamp: time.Now()}
}

// StoreData saves binary data to be put in the final archive later as a
// file under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.entries[r.versioned(name)] = entry{data: data, stamp: time.Now()}
}

// StoreCopy snapshots current content of the file so later modifications do
// not leak into the report.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to snapshot %q for report: %w", path, err)
	}
	r.entries[r.versioned(name)] = entry{data: data, stamp: time.Now()}
	return nil
}

// versioned suffixes duplicate names with a timestamp so repeated stores of
// the same logical item never collide.
func (r *Report) versioned(name string) string {
	if _, exists := r.entries[name]; !exists {
		return name
	}
	return fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
}

// finalize creates the final archive (report) with all previously stored
// items.
func (r *Report) finalize() error {

	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		if len(e.path) != 0 {
			fmt.Fprintf(manifest, "%s\t%s\t%s\n", name, e.stamp.Format(time.RFC3339), e.path)
		} else {
			fmt.Fprintf(manifest, "%s\t%s\t<data:%d bytes>\n", name, e.stamp.Format(time.RFC3339), len(e.data))
		}
	}
	if err := saveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.path) == 0 {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		// ignoring absent files - they may have been cleaned up already
		f, err := os.Open(e.path)
		if err != nil {
			continue
		}
		err = saveFile(arc, name, e.stamp, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func saveFile(arc *zip.Writer, name string, stamp time.Time, from io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: stamp,
	})
	if err != nil {
		return fmt.Errorf("unable to create report entry %q: %w", name, err)
	}
	if _, err := io.Copy(w, from); err != nil {
		return fmt.Errorf("unable to write report entry %q: %w", name, err)
	}
	return nil
}
