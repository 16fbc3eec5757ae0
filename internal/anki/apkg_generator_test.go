package anki

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/verbdeck/internal/testutil"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func testFields(question string) []string {
	fields := make([]string, 3+ConjugationSlots*FieldsPerSlot)
	fields[0] = question
	return fields
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck(0, "Test Deck", nil)

	if deck.ID != DefaultDeckID {
		t.Errorf("Expected deck id %d, got %d", DefaultDeckID, deck.ID)
	}
	if deck.Model == nil || deck.Model.ID != DefaultModelID {
		t.Error("Expected default verb model")
	}
	if len(deck.Notes) != 0 || len(deck.MediaFiles) != 0 {
		t.Error("Expected empty deck")
	}
}

func TestAddNote_FieldCount(t *testing.T) {
	deck := NewDeck(DefaultDeckID, "Test Deck", NewVerbModel(DefaultModelID))

	if err := deck.AddNote([]string{"too", "short"}); err == nil {
		t.Error("Expected error for wrong field count")
	}

	fields := testFields("Conjugate the verb 'puhua'")
	if err := deck.AddNote(fields); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}

	// The note must not alias the caller's slice
	fields[0] = "changed"
	if deck.Notes[0].Fields[0] != "Conjugate the verb 'puhua'" {
		t.Error("Note fields were mutated through the caller's slice")
	}
}

func TestWritePackage(t *testing.T) {
	tempDir := t.TempDir()

	audioFile := filepath.Join(tempDir, "media", "puhua_conjugation_1.mp3")
	imageFile := filepath.Join(tempDir, "media", "puhua.jpg")
	testutil.CreateTestFile(t, audioFile, []byte("test audio data"))
	testutil.CreateTestFile(t, imageFile, []byte("test image data"))

	deck := NewDeck(DefaultDeckID, "Finnish Verbs", NewVerbModel(DefaultModelID))
	fields := testFields("Conjugate the verb 'puhua'")
	fields[1] = FormatImageField(imageFile)
	fields[3] = "puhun"
	fields[4] = "I speak"
	fields[5] = FormatAudioField(audioFile)
	if err := deck.AddNote(fields); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	deck.SetMediaFiles([]string{imageFile, audioFile, imageFile})

	outputPath := filepath.Join(tempDir, "out", "test.apkg")
	gen := NewAPKGGenerator().WithClock(fixedClock)
	if err := gen.WritePackage(deck, outputPath); err != nil {
		t.Fatalf("WritePackage() error = %v", err)
	}

	contents := testutil.ReadAPKG(t, outputPath)

	expectedEntries := []string{"collection.anki2", "media", "0", "1"}
	if strings.Join(contents.Entries, ",") != strings.Join(expectedEntries, ",") {
		t.Errorf("Expected entries %v, got %v", expectedEntries, contents.Entries)
	}

	if contents.Media["0"] != "puhua.jpg" || contents.Media["1"] != "puhua_conjugation_1.mp3" {
		t.Errorf("Unexpected media mapping: %v", contents.Media)
	}
	if string(contents.MediaData["puhua_conjugation_1.mp3"]) != "test audio data" {
		t.Error("Audio file content not preserved")
	}

	if len(contents.Notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(contents.Notes))
	}
	note := contents.Notes[0]
	if len(note.Fields) != 21 {
		t.Fatalf("Expected 21 fields, got %d", len(note.Fields))
	}
	if note.Fields[5] != "[sound:puhua_conjugation_1.mp3]" {
		t.Errorf("Unexpected audio field: %s", note.Fields[5])
	}
	if note.Fields[1] != `<img src="puhua.jpg"/>` {
		t.Errorf("Unexpected image field: %s", note.Fields[1])
	}
	if note.GUID != NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", 0) {
		t.Errorf("Unexpected GUID: %s", note.GUID)
	}
	if note.Checksum == 0 {
		t.Error("Expected a non-zero sort field checksum")
	}
	if contents.Cards != 1 {
		t.Errorf("Expected 1 card, got %d", contents.Cards)
	}

	if !strings.Contains(contents.DeckJSON, `"name":"Finnish Verbs"`) {
		t.Errorf("Deck name missing from collection: %s", contents.DeckJSON)
	}
	if !strings.Contains(contents.ModelJSON, "Verb Conjugation Table with Image and Audio") {
		t.Error("Model name missing from collection")
	}
}

func TestWritePackage_EmptyDeck(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.apkg")

	deck := NewDeck(DefaultDeckID, "Empty", nil)
	if err := NewAPKGGenerator().WritePackage(deck, outputPath); err != nil {
		t.Fatalf("WritePackage() error = %v", err)
	}

	contents := testutil.ReadAPKG(t, outputPath)
	if len(contents.Notes) != 0 || contents.Cards != 0 {
		t.Errorf("Expected no notes or cards, got %d notes and %d cards", len(contents.Notes), contents.Cards)
	}
	if len(contents.Media) != 0 {
		t.Errorf("Expected empty media mapping, got %v", contents.Media)
	}
}

func TestWritePackage_MissingMedia(t *testing.T) {
	tempDir := t.TempDir()

	deck := NewDeck(DefaultDeckID, "Broken", nil)
	deck.SetMediaFiles([]string{filepath.Join(tempDir, "missing.mp3")})

	outputPath := filepath.Join(tempDir, "broken.apkg")
	if err := NewAPKGGenerator().WritePackage(deck, outputPath); err == nil {
		t.Error("Expected error for missing media file")
	}
	if _, err := os.Stat(outputPath); err == nil {
		t.Error("No package should be written when media is missing")
	}
}

func TestWritePackage_MediaNameClash(t *testing.T) {
	tempDir := t.TempDir()

	first := filepath.Join(tempDir, "a", "same.mp3")
	second := filepath.Join(tempDir, "b", "same.mp3")
	testutil.CreateTestFile(t, first, []byte("a"))
	testutil.CreateTestFile(t, second, []byte("b"))

	deck := NewDeck(DefaultDeckID, "Clash", nil)
	deck.SetMediaFiles([]string{first, second})

	if err := NewAPKGGenerator().WritePackage(deck, filepath.Join(tempDir, "clash.apkg")); err == nil {
		t.Error("Expected error for two media files with the same name")
	}
}

func TestNoteGUID(t *testing.T) {
	a := NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", 0)
	b := NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", 0)
	c := NoteGUID(DefaultDeckID, "Conjugate the verb 'olla'", 0)
	d := NoteGUID(1, "Conjugate the verb 'puhua'", 0)
	e := NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", 1)
	f := NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", 2)

	if a != b {
		t.Error("GUID should be stable for the same input")
	}
	if a == c || a == d {
		t.Error("GUID should differ for different verbs or decks")
	}
	if a == e || e == f {
		t.Error("GUID should differ for repeated questions")
	}
}

func TestWritePackage_RepeatedQuestionGetsDistinctGUIDs(t *testing.T) {
	deck := NewDeck(DefaultDeckID, "Test Deck", NewVerbModel(DefaultModelID))
	for _, form := range []string{"puhun", "puhuin", "puhun"} {
		fields := testFields("Conjugate the verb 'puhua'")
		fields[3] = form
		if err := deck.AddNote(fields); err != nil {
			t.Fatalf("AddNote failed: %v", err)
		}
	}

	output := filepath.Join(t.TempDir(), "deck.apkg")
	if err := NewAPKGGenerator().WithClock(fixedClock).WritePackage(deck, output); err != nil {
		t.Fatalf("WritePackage failed: %v", err)
	}

	contents := testutil.ReadAPKG(t, output)
	if len(contents.Notes) != 3 {
		t.Fatalf("Expected 3 notes, got %d", len(contents.Notes))
	}

	seen := map[string]bool{}
	for i, note := range contents.Notes {
		if seen[note.GUID] {
			t.Errorf("Note %d reuses GUID %s", i+1, note.GUID)
		}
		seen[note.GUID] = true
		if want := NoteGUID(DefaultDeckID, "Conjugate the verb 'puhua'", i); note.GUID != want {
			t.Errorf("Note %d GUID = %s, want %s", i+1, note.GUID, want)
		}
	}
}

func TestFieldChecksum(t *testing.T) {
	if got := fieldChecksum("puhua"); got <= 0 || got > 0xFFFFFFFF {
		t.Errorf("Checksum out of range: %d", got)
	}
	if fieldChecksum("puhua") != fieldChecksum("puhua") {
		t.Error("Checksum should be deterministic")
	}
}
