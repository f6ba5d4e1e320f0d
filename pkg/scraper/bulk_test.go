package scraper

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBulkFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing bulk file: %v", err)
	}
	return path
}

func TestParseBulkFile(t *testing.T) {
	path := writeBulkFile(t, `# districts of Cairo
cafes | Zamalek, Cairo

dentists|Maadi, Cairo
  pharmacies  |  Heliopolis, Cairo
`)
	items, err := ParseBulkFile(path)
	if err != nil {
		t.Fatalf("ParseBulkFile: %v", err)
	}
	want := []BulkItem{
		{Query: "cafes", Location: "Zamalek, Cairo"},
		{Query: "dentists", Location: "Maadi, Cairo"},
		{Query: "pharmacies", Location: "Heliopolis, Cairo"},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestParseBulkFileRejectsMalformedLines(t *testing.T) {
	for _, content := range []string{
		"cafes without a location\n",
		"| Cairo\n",
		"cafes |\n",
	} {
		path := writeBulkFile(t, content)
		if _, err := ParseBulkFile(path); err == nil {
			t.Errorf("ParseBulkFile accepted %q", content)
		}
	}
}

func TestParseBulkFileMissing(t *testing.T) {
	if _, err := ParseBulkFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
