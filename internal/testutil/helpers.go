package testutil

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// PuhuaJSON is a two-conjugation record used across tests
const PuhuaJSON = `[
  {
    "verb": "puhua",
    "image": "https://example.com/images/puhua.jpg",
    "note": "Type 1 verb",
    "conjugations": ["puhun", "puhut"],
    "translations": ["I speak", "you speak"]
  }
]`

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// APKGNote is a note row read back from a package
type APKGNote struct {
	GUID      string
	Fields    []string
	SortField string
	Checksum  int64
}

// APKGContents is what a test can see inside an .apkg file
type APKGContents struct {
	Entries   []string          // zip entry names in order
	Media     map[string]string // index -> filename
	MediaData map[string][]byte // filename -> bytes
	Notes     []APKGNote
	Cards     int
	DeckJSON  string
	ModelJSON string
}

// ReadAPKG opens an .apkg file and reads back notes, cards and media
func ReadAPKG(t *testing.T, path string) *APKGContents {
	t.Helper()

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open APKG as zip: %v", err)
	}
	defer reader.Close()

	contents := &APKGContents{
		Media:     map[string]string{},
		MediaData: map[string][]byte{},
	}
	raw := map[string][]byte{}
	for _, file := range reader.File {
		contents.Entries = append(contents.Entries, file.Name)
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("Failed to open zip entry %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read zip entry %s: %v", file.Name, err)
		}
		raw[file.Name] = data
	}

	if data, ok := raw["media"]; ok {
		if err := json.Unmarshal(data, &contents.Media); err != nil {
			t.Fatalf("Failed to parse media mapping: %v", err)
		}
	} else {
		t.Fatal("APKG has no media mapping")
	}
	for index, name := range contents.Media {
		contents.MediaData[name] = raw[index]
	}

	collection, ok := raw["collection.anki2"]
	if !ok {
		t.Fatal("APKG has no collection.anki2")
	}
	dbPath := filepath.Join(t.TempDir(), "collection.anki2")
	if err := os.WriteFile(dbPath, collection, 0644); err != nil {
		t.Fatalf("Failed to extract collection: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open collection: %v", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT guid, flds, sfld, csum FROM notes ORDER BY id")
	if err != nil {
		t.Fatalf("Failed to query notes: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var note APKGNote
		var flds string
		if err := rows.Scan(&note.GUID, &flds, &note.SortField, &note.Checksum); err != nil {
			t.Fatalf("Failed to scan note: %v", err)
		}
		note.Fields = strings.Split(flds, "\x1f")
		contents.Notes = append(contents.Notes, note)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to iterate notes: %v", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&contents.Cards); err != nil {
		t.Fatalf("Failed to count cards: %v", err)
	}
	if err := db.QueryRow("SELECT decks, models FROM col").Scan(&contents.DeckJSON, &contents.ModelJSON); err != nil {
		t.Fatalf("Failed to read collection row: %v", err)
	}

	return contents
}
