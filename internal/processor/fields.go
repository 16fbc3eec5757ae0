package processor

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"codeberg.org/snonux/verbdeck/internal/anki"
	"codeberg.org/snonux/verbdeck/internal/batch"
)

// notePolicy keeps basic formatting in notes and strips scripts and handlers
var notePolicy = bluemonday.UGCPolicy()

// CardMedia names the media files a card refers to. Names are base filenames
// inside the media directory; empty means none.
type CardMedia struct {
	Image string
	Audio []string // indexed by conjugation slot
}

// Question fills the verb into the question format
func Question(format, verb string) string {
	return strings.ReplaceAll(format, "{verb}", verb)
}

// SanitizeNote strips unsafe HTML from a note. The result is HTML: special
// characters in plain text come back as entities.
func SanitizeNote(note string) string {
	return strings.TrimSpace(notePolicy.Sanitize(note))
}

// BuildCardFields maps a record and its media to the model's 21 fields:
// Question, Image, Note, then Verb/Translate/Audio for each of the 6 slots.
// Conjugations beyond the last slot are dropped and unused slots stay empty.
func BuildCardFields(record batch.VerbRecord, questionFormat string, media CardMedia) []string {
	fields := make([]string, 0, 3+anki.ConjugationSlots*anki.FieldsPerSlot)
	fields = append(fields,
		Question(questionFormat, record.Verb),
		anki.FormatImageField(media.Image),
		SanitizeNote(record.Note),
	)

	for i := 0; i < anki.ConjugationSlots; i++ {
		if i >= len(record.Conjugations) {
			fields = append(fields, "", "", "")
			continue
		}
		fields = append(fields,
			record.Conjugations[i],
			valueAt(record.Translations, i),
			anki.FormatAudioField(valueAt(media.Audio, i)),
		)
	}

	return fields
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
