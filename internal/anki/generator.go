package anki

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GeneratorOptions configures the CSV export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include the model's field names as first row
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "anki_import.csv",
		IncludeHeaders: true,
	}
}

// Generator writes a deck as an Anki-importable CSV file. Media is not
// bundled; the referenced files must be copied to collection.media by hand.
type Generator struct {
	options *GeneratorOptions
	deck    *Deck
}

// NewGenerator creates a new CSV generator for the deck
func NewGenerator(deck *Deck, options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		deck:    deck,
	}
}

// GenerateCSV creates a CSV file for Anki import
func (g *Generator) GenerateCSV() error {
	if dir := filepath.Dir(g.options.OutputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if g.options.IncludeHeaders {
		if err := writer.Write(g.deck.Model.FieldNames()); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, note := range g.deck.Notes {
		if err := writer.Write(note.Fields); err != nil {
			return fmt.Errorf("failed to write note %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

// FormatAudioField formats the audio file reference for Anki
func FormatAudioField(audioFile string) string {
	if audioFile == "" {
		return ""
	}

	// Anki audio format: [sound:filename.mp3]
	return fmt.Sprintf("[sound:%s]", filepath.Base(audioFile))
}

// FormatImageField formats image file reference for Anki
func FormatImageField(imageFile string) string {
	if imageFile == "" {
		return ""
	}
	return fmt.Sprintf(`<img src="%s"/>`, filepath.Base(imageFile))
}

// Stats returns statistics about the deck. Only the model's Image and AudioN
// fields count, so HTML inside a note does not.
func Stats(deck *Deck) (totalNotes, withAudio, withImages int) {
	totalNotes = len(deck.Notes)
	names := deck.Model.FieldNames()

	for _, note := range deck.Notes {
		hasAudio, hasImage := false, false
		for i, field := range note.Fields {
			if i >= len(names) || field == "" {
				continue
			}
			switch name := names[i]; {
			case name == "Image":
				hasImage = hasImage || strings.Contains(field, "<img ")
			case strings.HasPrefix(name, "Audio"):
				hasAudio = hasAudio || strings.Contains(field, "[sound:")
			}
		}
		if hasAudio {
			withAudio++
		}
		if hasImage {
			withImages++
		}
	}

	return
}
