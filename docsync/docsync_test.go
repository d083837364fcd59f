package docsync

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"docstyle/common"
	"docstyle/rules"
	"docstyle/style"
)

// fakeStore is an in-memory document used to exercise the orchestration
// logic without touching any real format.
type fakeStore struct {
	styles     []style.Definition
	paragraphs []*fakeParagraph
	saved      []string
}

type fakeParagraph struct {
	store *fakeStore
	text  string
	style string
}

func (p *fakeParagraph) Text() string { return strings.TrimSpace(p.text) }

func (p *fakeParagraph) SetStyle(name string) error {
	for i := range p.store.styles {
		if p.store.styles[i].Name == name {
			p.style = name
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrMissingTargetStyle, name)
}

func (s *fakeStore) ParagraphStyles() []style.Definition {
	out := make([]style.Definition, len(s.styles))
	copy(out, s.styles)
	return out
}

func (s *fakeStore) SetParagraphStyle(def style.Definition) error {
	for i := range s.styles {
		if s.styles[i].Name == def.Name {
			s.styles[i] = def
			return nil
		}
	}
	s.styles = append(s.styles, def)
	return nil
}

func (s *fakeStore) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(s.paragraphs))
	for i, p := range s.paragraphs {
		out[i] = p
	}
	return out
}

func (s *fakeStore) Save(path string) error {
	s.saved = append(s.saved, path)
	return nil
}

func (s *fakeStore) addParagraph(text string) {
	s.paragraphs = append(s.paragraphs, &fakeParagraph{store: s, text: text})
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) OpenOrCreate(string) (Store, error) { return f.store, nil }

func TestPullPreservesStoreOrder(t *testing.T) {
	store := &fakeStore{styles: []style.Definition{
		{Name: "Normal", FontSize: 11},
		{Name: "Heading 1", FontSize: 16, Bold: true},
		{Name: "Quote", Italic: true},
	}}

	reg := Pull(store)

	if reg.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", reg.Count())
	}
	want := []string{"Normal", "Heading 1", "Quote"}
	for i, def := range reg.All() {
		if def.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, def.Name, want[i])
		}
	}
}

func TestPullEmptyStore(t *testing.T) {
	reg := Pull(&fakeStore{})
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}

func TestPushIsIdempotent(t *testing.T) {
	store := &fakeStore{styles: []style.Definition{{Name: "Normal", FontSize: 10}}}

	reg := style.NewRegistry()
	reg.Upsert(style.Definition{Name: "Normal", FontSize: 11})
	reg.Upsert(style.Definition{Name: "Heading 1", FontSize: 16, Bold: true, Alignment: common.AlignmentCenter})

	if err := Push(store, reg); err != nil {
		t.Fatalf("first Push() error = %v", err)
	}
	first := store.ParagraphStyles()

	if err := Push(store, reg); err != nil {
		t.Fatalf("second Push() error = %v", err)
	}
	second := store.ParagraphStyles()

	if len(first) != len(second) {
		t.Fatalf("style count changed between pushes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("style %q changed on second push", first[i].Name)
		}
	}
	if first[0].FontSize != 11 {
		t.Errorf("push did not overwrite existing style: size = %g", first[0].FontSize)
	}
}

func TestApplyTwoTierScenario(t *testing.T) {
	store := &fakeStore{styles: []style.Definition{
		{Name: "Heading 1", FontSize: 16, Bold: true, Alignment: common.AlignmentCenter},
		{Name: "Normal", FontSize: 11},
	}}
	store.addParagraph("Intro")
	store.addParagraph("A very long body paragraph exceeding forty characters for certain")
	store.addParagraph("Conclusion")

	list := []rules.Rule{
		rules.Length("Heading 1", 40),
		rules.Universal("Normal"),
	}

	applied, err := Apply(store, list, zap.NewNop())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied != 3 {
		t.Errorf("Apply() = %d, want 3", applied)
	}

	want := []string{"Heading 1", "Normal", "Heading 1"}
	for i, p := range store.paragraphs {
		if p.style != want[i] {
			t.Errorf("paragraph %d style = %q, want %q", i, p.style, want[i])
		}
	}
}

func TestApplySkipsBlankParagraphs(t *testing.T) {
	store := &fakeStore{styles: []style.Definition{{Name: "Normal"}}}
	store.addParagraph("   ")
	store.addParagraph("text")

	applied, err := Apply(store, []rules.Rule{rules.Universal("Normal")}, zap.NewNop())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied != 1 {
		t.Errorf("Apply() = %d, want 1", applied)
	}
	if store.paragraphs[0].style != "" {
		t.Error("blank paragraph must keep its style")
	}
}

func TestApplyMissingTargetIsNotFatal(t *testing.T) {
	store := &fakeStore{styles: []style.Definition{{Name: "Normal"}}}
	store.addParagraph("short")
	store.addParagraph("a considerably longer body paragraph here")

	list := []rules.Rule{
		rules.Length("Heading 1", 10), // not in store
		rules.Universal("Normal"),
	}

	applied, err := Apply(store, list, zap.NewNop())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied != 1 {
		t.Errorf("Apply() = %d, want 1", applied)
	}
	if store.paragraphs[1].style != "Normal" {
		t.Errorf("paragraph 1 style = %q, want Normal", store.paragraphs[1].style)
	}
}

func TestSyncFilePushesWithoutRules(t *testing.T) {
	store := &fakeStore{}
	store.addParagraph("text")

	reg := style.NewRegistry()
	reg.Upsert(style.Definition{Name: "Normal", FontSize: 11})

	if err := SyncFile(&fakeFactory{store: store}, "out.docx", reg, nil, zap.NewNop()); err != nil {
		t.Fatalf("SyncFile() error = %v", err)
	}

	if len(store.styles) != 1 || store.styles[0].Name != "Normal" {
		t.Errorf("style table = %v, want pushed Normal", store.styles)
	}
	if store.paragraphs[0].style != "" {
		t.Error("paragraph styles must stay untouched when no rules are given")
	}
	if len(store.saved) != 1 || store.saved[0] != "out.docx" {
		t.Errorf("saved = %v, want single save to out.docx", store.saved)
	}
}
