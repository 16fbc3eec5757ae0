package anki

import (
	"fmt"
)

// Note is one filled-in note; Fields follow the model's field order
type Note struct {
	Fields []string
	Tags   []string
}

// SortField returns the value Anki sorts and checksums on (the first field)
func (n Note) SortField() string {
	if len(n.Fields) == 0 {
		return ""
	}
	return n.Fields[0]
}

// Deck is the unit that gets packaged: notes of a single model plus the
// media files they reference
type Deck struct {
	ID          int64
	Name        string
	Description string
	Model       *Model
	Notes       []Note
	MediaFiles  []string
}

// NewDeck creates an empty deck for the given model
func NewDeck(id int64, name string, model *Model) *Deck {
	if id == 0 {
		id = DefaultDeckID
	}
	if model == nil {
		model = NewVerbModel(DefaultModelID)
	}
	return &Deck{
		ID:         id,
		Name:       name,
		Model:      model,
		Notes:      make([]Note, 0),
		MediaFiles: make([]string, 0),
	}
}

// AddNote appends a note after checking it matches the model's field count
func (d *Deck) AddNote(fields []string, tags ...string) error {
	if len(fields) != len(d.Model.Fields) {
		return fmt.Errorf("note has %d fields, model %q expects %d", len(fields), d.Model.Name, len(d.Model.Fields))
	}

	note := Note{
		Fields: append([]string(nil), fields...),
		Tags:   tags,
	}
	d.Notes = append(d.Notes, note)
	return nil
}

// SetMediaFiles replaces the media list packaged with the deck
func (d *Deck) SetMediaFiles(paths []string) {
	d.MediaFiles = append([]string(nil), paths...)
}
