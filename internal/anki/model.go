package anki

import (
	"fmt"
	"strings"
)

const (
	// DefaultModelID is the note type id used unless configured otherwise.
	// Keeping it fixed lets Anki match re-imported decks to the same note type.
	DefaultModelID int64 = 1234567890

	// DefaultDeckID is the deck id used unless configured otherwise
	DefaultDeckID int64 = 987654321

	// ConjugationSlots is the number of conjugation rows on a card
	ConjugationSlots = 6

	// FieldsPerSlot is Verb, Translate and Audio
	FieldsPerSlot = 3
)

// Field describes one field of a note type
type Field struct {
	Name string
	Font string
	Size int
}

// Template describes one card template of a note type
type Template struct {
	Name  string
	Front string
	Back  string
}

// Model is an Anki note type: field list, templates and styling
type Model struct {
	ID        int64
	Name      string
	Fields    []Field
	Templates []Template
	CSS       string
}

// NewVerbModel returns the fixed verb conjugation note type:
// Question, Image, Note followed by six Verb/Translate/Audio groups.
func NewVerbModel(id int64) *Model {
	if id == 0 {
		id = DefaultModelID
	}

	fields := []Field{
		{Name: "Question", Font: "Arial", Size: 20},
		{Name: "Image", Font: "Arial", Size: 20},
		{Name: "Note", Font: "Arial", Size: 16},
	}
	for i := 1; i <= ConjugationSlots; i++ {
		fields = append(fields,
			Field{Name: fmt.Sprintf("Verb%d", i), Font: "Arial", Size: 20},
			Field{Name: fmt.Sprintf("Translate%d", i), Font: "Arial", Size: 16},
			Field{Name: fmt.Sprintf("Audio%d", i), Font: "Arial", Size: 16},
		)
	}

	return &Model{
		ID:     id,
		Name:   "Verb Conjugation Table with Image and Audio",
		Fields: fields,
		Templates: []Template{
			{
				Name:  "Verb Conjugation Card",
				Front: frontTemplate(),
				Back:  backTemplate(),
			},
		},
		CSS: cardCSS(),
	}
}

// FieldNames returns the field names in note order
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// frontTemplate returns the question template
func frontTemplate() string {
	return `{{Question}}{{#Image}}<br><hr>{{Image}}<br>{{/Image}}`
}

// backTemplate returns the answer template with one table row per conjugation
func backTemplate() string {
	var b strings.Builder
	b.WriteString("{{FrontSide}}<br><hr>\n<table class=\"conjugations\">\n")
	for i := 1; i <= ConjugationSlots; i++ {
		fmt.Fprintf(&b,
			"<tr><td class=\"verb\">{{Verb%[1]d}}</td><td class=\"translate\">{{#Translate%[1]d}} ({{Translate%[1]d}}){{/Translate%[1]d}}</td><td class=\"audio\">{{Audio%[1]d}}</td></tr>\n",
			i)
	}
	b.WriteString("</table>\n{{#Note}}\n<div class=\"notes\">{{Note}}</div>\n{{/Note}}")
	return b.String()
}

// cardCSS returns the card styling
func cardCSS() string {
	return `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
  color: #333;
  background-color: white;
}

img {
  max-width: 100%;
  max-height: 300px;
  height: auto;
  border-radius: 8px;
}

table.conjugations {
  margin: 0 auto;
  border-collapse: collapse;
}

table.conjugations td {
  padding: 4px 10px;
  text-align: left;
}

td.verb {
  font-weight: bold;
  color: #2c3e50;
}

td.translate {
  color: #7f8c8d;
}

.notes {
  font-size: 16px;
  color: #7f8c8d;
  margin-top: 20px;
  font-style: italic;
}`
}
