package anki

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultGeneratorOptions(t *testing.T) {
	opts := DefaultGeneratorOptions()

	if opts.OutputPath != "anki_import.csv" {
		t.Errorf("Expected output path 'anki_import.csv', got '%s'", opts.OutputPath)
	}

	if !opts.IncludeHeaders {
		t.Error("Expected IncludeHeaders to be true")
	}
}

func TestNewGenerator(t *testing.T) {
	deck := NewDeck(0, "Test", nil)

	// Test with nil options
	gen := NewGenerator(deck, nil)
	if gen == nil {
		t.Fatal("NewGenerator returned nil")
	}
	if gen.options == nil {
		t.Error("Generator options should not be nil")
	}

	// Test with custom options
	opts := &GeneratorOptions{
		OutputPath: "custom.csv",
	}
	gen = NewGenerator(deck, opts)
	if gen.options.OutputPath != "custom.csv" {
		t.Errorf("Expected custom output path, got '%s'", gen.options.OutputPath)
	}
}

func TestFormatAudioField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple filename",
			input:    "puhua_conjugation_1.mp3",
			expected: "[sound:puhua_conjugation_1.mp3]",
		},
		{
			name:     "Full path",
			input:    "/path/to/media/puhua_conjugation_2.mp3",
			expected: "[sound:puhua_conjugation_2.mp3]",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatAudioField(tt.input)
			if result != tt.expected {
				t.Errorf("FormatAudioField(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatImageField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple filename",
			input:    "puhua.jpg",
			expected: `<img src="puhua.jpg"/>`,
		},
		{
			name:     "Full path",
			input:    "media/puhua.jpg",
			expected: `<img src="puhua.jpg"/>`,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatImageField(tt.input)
			if result != tt.expected {
				t.Errorf("FormatImageField(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateCSV(t *testing.T) {
	tempDir := t.TempDir()
	outputPath := filepath.Join(tempDir, "export", "verbs.csv")

	deck := NewDeck(0, "Finnish Verbs", nil)
	fields := testFields("Conjugate the verb 'puhua'")
	fields[2] = "Type 1 verb, with a comma"
	fields[3] = "puhun"
	fields[5] = "[sound:puhua_conjugation_1.mp3]"
	if err := deck.AddNote(fields); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}

	gen := NewGenerator(deck, &GeneratorOptions{OutputPath: outputPath, IncludeHeaders: true})
	if err := gen.GenerateCSV(); err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected header and 1 row, got %d rows", len(records))
	}
	if records[0][0] != "Question" || records[0][20] != "Audio6" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if len(records[1]) != 21 {
		t.Fatalf("Expected 21 columns, got %d", len(records[1]))
	}
	if records[1][2] != "Type 1 verb, with a comma" {
		t.Errorf("Note field not round-tripped: %q", records[1][2])
	}
	if records[1][5] != "[sound:puhua_conjugation_1.mp3]" {
		t.Errorf("Audio field not round-tripped: %q", records[1][5])
	}
}

func TestGenerateCSVWithoutHeaders(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "verbs.csv")

	deck := NewDeck(0, "Finnish Verbs", nil)
	if err := deck.AddNote(testFields("Conjugate the verb 'olla'")); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}

	gen := NewGenerator(deck, &GeneratorOptions{OutputPath: outputPath})
	if err := gen.GenerateCSV(); err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 1 || records[0][0] != "Conjugate the verb 'olla'" {
		t.Errorf("Expected a single data row, got %v", records)
	}
}

func TestStats(t *testing.T) {
	deck := NewDeck(0, "Stats", nil)

	withBoth := testFields("a")
	withBoth[1] = `<img src="a.jpg"/>`
	withBoth[5] = "[sound:a_conjugation_1.mp3]"
	audioOnly := testFields("b")
	audioOnly[8] = "[sound:b_conjugation_2.mp3]"
	bare := testFields("c")
	noteOnly := testFields("d")
	noteOnly[2] = `<img src="d.jpg"/> [sound:d.mp3]`

	for _, fields := range [][]string{withBoth, audioOnly, bare, noteOnly} {
		if err := deck.AddNote(fields); err != nil {
			t.Fatalf("AddNote() error = %v", err)
		}
	}

	total, withAudio, withImages := Stats(deck)
	if total != 4 {
		t.Errorf("Expected 4 total notes, got %d", total)
	}
	if withAudio != 2 {
		t.Errorf("Expected 2 notes with audio, got %d", withAudio)
	}
	if withImages != 1 {
		t.Errorf("Expected 1 note with images, got %d", withImages)
	}
}
