package style

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// Registry is an ordered, name-unique collection of style definitions for
// one working session. Insertion order is preserved for display, lookups are
// by name only.
//
// Registry is not safe for concurrent use - it is exclusively owned by the
// calling session, same as everything else in this program.
type Registry struct {
	items []Definition
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert replaces a same-named entry in place keeping its position, or
// appends when the name is new.
func (r *Registry) Upsert(d Definition) {
	for i := range r.items {
		if r.items[i].Name == d.Name {
			r.items[i] = d
			return
		}
	}
	r.items = append(r.items, d)
}

// Lookup finds a definition by name.
func (r *Registry) Lookup(name string) (Definition, error) {
	for i := range r.items {
		if r.items[i].Name == name {
			return r.items[i], nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
}

func (r *Registry) Contains(name string) bool {
	for i := range r.items {
		if r.items[i].Name == name {
			return true
		}
	}
	return false
}

func (r *Registry) Count() int {
	return len(r.items)
}

// All returns entries in registry order. The returned slice is a copy,
// mutating it does not affect the registry.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Registry) Clear() {
	r.items = r.items[:0]
}

// Persist serializes every entry in registry order and rewrites destination
// as a single indented JSON document. The write is a whole-file rewrite, no
// extra atomicity layer is added on top of the filesystem - an interrupted
// write may leave a truncated file behind.
func (r *Registry) Persist(destination string) error {
	records := make([]Record, 0, len(r.items))
	for i := range r.items {
		records = append(records, r.items[i].Record())
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: unable to serialize registry: %w", ErrPersistence, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(destination, data, 0644); err != nil {
		return fmt.Errorf("%w: unable to write %q: %w", ErrPersistence, destination, err)
	}
	return nil
}

// Restore replaces registry content with records loaded from source and
// returns the number of entries loaded. A missing file is not an error - the
// registry is left untouched. Records with an unrecognized type tag are
// silently skipped to stay forward compatible, malformed records are skipped
// too with their errors accumulated in the returned error.
func (r *Registry) Restore(source string) (int, error) {
	data, err := os.ReadFile(source)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("unable to read %q: %w", source, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("unable to parse %q: %w", source, err)
	}

	r.Clear()

	var errs error
	for i, entry := range raw {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(entry, &probe); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if probe.Type != RecordTypeParagraph {
			continue
		}
		d, err := UnmarshalRecord(entry)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		r.Upsert(d)
	}
	return len(r.items), errs
}
