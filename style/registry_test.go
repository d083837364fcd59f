package style

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUpsertReplacesInPlace(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Definition{Name: "Normal", FontSize: 11})
	r.Upsert(Definition{Name: "Heading 1", FontSize: 16})
	r.Upsert(Definition{Name: "Quote", FontSize: 10})

	r.Upsert(Definition{Name: "Heading 1", FontSize: 18})

	if r.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", r.Count())
	}
	all := r.All()
	if all[1].Name != "Heading 1" || all[1].FontSize != 18 {
		t.Errorf("replaced entry = %+v, want Heading 1 at position 1 with size 18", all[1])
	}
}

func TestUpsertIdempotence(t *testing.T) {
	r := NewRegistry()
	d := Definition{Name: "Normal", FontSize: 11}
	r.Upsert(d)
	before := r.All()

	r.Upsert(d)
	r.Upsert(d)

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	after := r.All()
	if !after[0].Equal(before[0]) {
		t.Errorf("repeated upsert changed entry: %+v", after[0])
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Definition{Name: "Normal"})

	if _, err := r.Lookup("Normal"); err != nil {
		t.Errorf("Lookup(Normal) error = %v", err)
	}

	_, err := r.Lookup("Missing")
	if !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("Lookup(Missing) error = %v, want ErrStyleNotFound", err)
	}
}

func TestAllIsDefensiveCopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Definition{Name: "Normal", FontSize: 11})

	all := r.All()
	all[0].FontSize = 99

	got, _ := r.Lookup("Normal")
	if got.FontSize != 11 {
		t.Errorf("mutation of All() result leaked into registry: size = %g", got.FontSize)
	}
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")

	r := NewRegistry()
	r.Upsert(Definition{Name: "Heading 1", FontSize: 16, Bold: true, Color: &RGB{255, 0, 0}})
	r.Upsert(Definition{Name: "Normal", FontSize: 11})

	if err := r.Persist(path); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	loaded := NewRegistry()
	n, err := loaded.Restore(path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Restore() loaded %d entries, want 2", n)
	}

	want := r.All()
	got := loaded.All()
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("entry %d differs: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRestoreMissingFileIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Definition{Name: "Keep me", FontSize: 12})

	n, err := r.Restore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Restore() = %d, want 0", n)
	}
	if r.Count() != 1 || !r.Contains("Keep me") {
		t.Error("restore of missing file must leave registry unchanged")
	}
}

func TestRestoreSkipsUnknownRecordTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	content := `[
    {"type": "character", "name": "Emphasis"},
    {"type": "paragraph", "name": "Normal"},
    {"type": "table", "name": "Grid"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	n, err := r.Restore(path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Restore() = %d, want 1", n)
	}
	if !r.Contains("Normal") || r.Contains("Emphasis") {
		t.Errorf("unexpected registry content: %v", r.All())
	}
}

func TestRestoreIsolatesMalformedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	content := `[
    {"type": "paragraph", "font": {"size": 12}},
    {"type": "paragraph", "name": "Normal"}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	n, err := r.Restore(path)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Restore() error = %v, want ErrMalformedRecord", err)
	}
	if n != 1 || !r.Contains("Normal") {
		t.Errorf("Restore() = %d, registry %v; want the valid record loaded", n, r.All())
	}
}

func TestRestoreInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if _, err := r.Restore(path); err == nil {
		t.Error("expected error for invalid registry file")
	}
}
