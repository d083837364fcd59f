// Package docsync moves style definitions between a registry and a document
// store and reassigns paragraph styles by rule. The store behind the
// interface is typically a DOCX file, but docsync itself never looks inside
// the document format.
package docsync

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"docstyle/rules"
	"docstyle/style"
)

// ErrMissingTargetStyle is reported when a rule names a style absent from
// the destination document. Recoverable per paragraph - the assignment is
// skipped, the pass continues.
var ErrMissingTargetStyle = errors.New("target style not present in document")

// Paragraph is one paragraph of a document exposed for classification.
type Paragraph interface {
	// Text returns paragraph text with surrounding whitespace trimmed.
	Text() string
	// SetStyle assigns the named style to the paragraph. Returns an error
	// wrapping ErrMissingTargetStyle when the document has no such style.
	SetStyle(name string) error
}

// Store is the narrow contract a document format must provide. Styles and
// paragraphs are exposed in document order.
type Store interface {
	// ParagraphStyles returns descriptors of every paragraph level style
	// carrying a font descriptor, in the document's native order.
	ParagraphStyles() []style.Definition
	// SetParagraphStyle finds or creates the same-named paragraph style and
	// overwrites its font and paragraph format attributes.
	SetParagraphStyle(def style.Definition) error
	// Paragraphs returns document paragraphs in document order.
	Paragraphs() []Paragraph
	// Save persists the document to permanent storage as a whole-file
	// rewrite.
	Save(path string) error
}

// Factory opens document stores so that SyncFile stays independent of the
// concrete format.
type Factory interface {
	// OpenOrCreate loads the document at path, or produces a fresh empty
	// document when the path does not exist yet.
	OpenOrCreate(path string) (Store, error)
}

// Pull imports every paragraph style the store exposes into a fresh
// registry, preserving the store's enumeration order. A document without
// paragraph styles yields an empty registry.
func Pull(store Store) *style.Registry {
	reg := style.NewRegistry()
	for _, def := range store.ParagraphStyles() {
		reg.Upsert(def)
	}
	return reg
}

// Push writes every registry entry, in registry order, into the store's
// style table, creating styles as needed. Pushing the same registry twice
// is idempotent.
func Push(store Store, reg *style.Registry) error {
	var errs error
	for _, def := range reg.All() {
		if err := store.SetParagraphStyle(def); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("style %q: %w", def.Name, err))
		}
	}
	return errs
}

// Apply classifies every paragraph in document order and assigns the
// resulting style. Blank paragraphs are skipped, a missing target style is
// logged and skipped without aborting the pass. Returns the number of
// paragraphs successfully restyled.
func Apply(store Store, ruleList []rules.Rule, log *zap.Logger) (int, error) {
	var (
		applied int
		errs    error
	)
	for i, p := range store.Paragraphs() {
		text := p.Text()
		if len(text) == 0 {
			continue
		}
		target, ok := rules.Classify(text, ruleList)
		if !ok {
			continue
		}
		if err := p.SetStyle(target); err != nil {
			if errors.Is(err, ErrMissingTargetStyle) {
				log.Warn("Rule names a style the document does not have, skipping paragraph",
					zap.Int("paragraph", i), zap.String("style", target))
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("paragraph %d: %w", i, err))
			continue
		}
		applied++
	}
	return applied, errs
}

// SyncFile opens or creates the document at path, pushes the registry's
// style definitions, reassigns paragraph styles when rules are supplied and
// saves the document back to path. The style table is updated even when the
// rule list is empty.
func SyncFile(f Factory, path string, reg *style.Registry, ruleList []rules.Rule, log *zap.Logger) error {
	store, err := f.OpenOrCreate(path)
	if err != nil {
		return fmt.Errorf("unable to open document %q: %w", path, err)
	}

	if err := Push(store, reg); err != nil {
		return fmt.Errorf("unable to push styles to %q: %w", path, err)
	}

	if len(ruleList) > 0 {
		applied, err := Apply(store, ruleList, log)
		if err != nil {
			return fmt.Errorf("unable to apply rules to %q: %w", path, err)
		}
		log.Info("Applied rules", zap.String("document", path), zap.Int("restyled", applied))
	}

	if err := store.Save(path); err != nil {
		return fmt.Errorf("unable to save document %q: %w", path, err)
	}
	return nil
}
