package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/verbdeck/internal"
	"codeberg.org/snonux/verbdeck/internal/anki"
	"codeberg.org/snonux/verbdeck/internal/archive"
	"codeberg.org/snonux/verbdeck/internal/batch"
	"codeberg.org/snonux/verbdeck/internal/cli"
)

// ImageFetcher downloads an image URL to a local file
type ImageFetcher interface {
	FetchImage(ctx context.Context, url, outputPath string) error
}

// Synthesizer turns text into an audio file
type Synthesizer interface {
	GenerateAudio(ctx context.Context, text string, outputFile string) error
}

// Packager serializes a deck into a package file
type Packager interface {
	WritePackage(deck *anki.Deck, outputPath string) error
}

// Translator produces an English translation of a conjugated form
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// availabilityChecker is implemented by synthesizers that can report a
// broken setup before any work starts
type availabilityChecker interface {
	IsAvailable() error
}

// Summary describes what a run produced
type Summary struct {
	Notes         int
	Images        int
	AudioFiles    int
	MediaFiles    int
	Translated    int
	OutputPath    string
	CSVPath       string
	ArchivedMedia string // previous media directory, if it was archived
}

// Processor turns verb records into a deck and its media
type Processor struct {
	flags      *cli.Flags
	fetcher    ImageFetcher
	synth      Synthesizer
	packager   Packager
	translator Translator
	logger     logrus.FieldLogger
	now        func() time.Time
}

// Option configures a Processor
type Option func(*Processor)

// WithImageFetcher sets the image downloader
func WithImageFetcher(fetcher ImageFetcher) Option {
	return func(p *Processor) { p.fetcher = fetcher }
}

// WithSynthesizer sets the audio provider
func WithSynthesizer(synth Synthesizer) Option {
	return func(p *Processor) { p.synth = synth }
}

// WithPackager sets the deck serializer
func WithPackager(packager Packager) Option {
	return func(p *Processor) { p.packager = packager }
}

// WithTranslator sets the translator used to fill missing translations
func WithTranslator(translator Translator) Option {
	return func(p *Processor) { p.translator = translator }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithClock sets the time source for archive names
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a processor. Without options it packages with the
// APKG generator and has no fetcher, synthesizer or translator.
func NewProcessor(flags *cli.Flags, opts ...Option) *Processor {
	p := &Processor{
		flags:    flags,
		packager: anki.NewAPKGGenerator(),
		logger:   logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads the verb file, fetches and synthesizes media, and writes the package
func (p *Processor) Run(ctx context.Context, inputPath string) (*Summary, error) {
	records, err := batch.ReadVerbFile(inputPath)
	if err != nil {
		return nil, err
	}

	// Everything that can be checked up front fails before the media directory is touched
	if err := p.check(records); err != nil {
		return nil, err
	}

	summary := &Summary{OutputPath: p.flags.Output, CSVPath: p.flags.CSVPath}

	archived, err := p.prepareMediaDir()
	if err != nil {
		return nil, err
	}
	summary.ArchivedMedia = archived

	deck := anki.NewDeck(p.flags.DeckID, p.flags.DeckName, anki.NewVerbModel(p.flags.ModelID))
	names := newNameRegistry()
	var media []string

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.processRecord(ctx, i+1, record, names)
		if err != nil {
			return nil, err
		}
		if err := deck.AddNote(result.fields); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i+1, record.Verb, err)
		}

		media = append(media, result.media...)
		summary.Translated += result.translated
		if result.image {
			summary.Images++
		}
		summary.AudioFiles += result.audio
	}

	deck.SetMediaFiles(lo.Uniq(media))
	summary.Notes = len(deck.Notes)
	summary.MediaFiles = len(deck.MediaFiles)

	if err := p.packager.WritePackage(deck, p.flags.Output); err != nil {
		return nil, fmt.Errorf("failed to write package %s: %w", p.flags.Output, err)
	}

	if p.flags.CSVPath != "" {
		gen := anki.NewGenerator(deck, &anki.GeneratorOptions{
			OutputPath:     p.flags.CSVPath,
			IncludeHeaders: true,
		})
		if err := gen.GenerateCSV(); err != nil {
			return nil, fmt.Errorf("failed to write CSV %s: %w", p.flags.CSVPath, err)
		}
	}

	_, withAudio, withImages := anki.Stats(deck)
	p.logger.WithFields(logrus.Fields{
		"notes":             summary.Notes,
		"notes_with_audio":  withAudio,
		"notes_with_images": withImages,
		"media":             summary.MediaFiles,
		"output":            summary.OutputPath,
	}).Info("Deck written")

	return summary, nil
}

func (p *Processor) check(records []batch.VerbRecord) error {
	if p.packager == nil {
		return fmt.Errorf("no packager configured")
	}

	if !p.flags.SkipAudio {
		if p.synth == nil {
			return fmt.Errorf("no audio provider configured (use --skip-audio to build cards without audio)")
		}
		if checker, ok := p.synth.(availabilityChecker); ok {
			if err := checker.IsAvailable(); err != nil {
				return fmt.Errorf("audio provider is not available: %w", err)
			}
		}
		if !lo.Contains([]string{"mp3", "wav"}, p.flags.AudioFormat) {
			return fmt.Errorf("unsupported audio format: %s (use mp3 or wav)", p.flags.AudioFormat)
		}
	}

	if !p.flags.SkipImages && p.fetcher == nil && lo.SomeBy(records, batch.VerbRecord.HasImage) {
		return fmt.Errorf("no image fetcher configured (use --skip-images to build cards without images)")
	}

	fill := p.flags.TranslateMissing && p.translator != nil
	for i, record := range records {
		slots := min(len(record.Conjugations), anki.ConjugationSlots)
		if len(record.Translations) < slots && !fill {
			return fmt.Errorf("record %d: %w: verb %q has %d conjugations but %d translations",
				i+1, batch.ErrInvalidRecord, record.Verb, slots, len(record.Translations))
		}
	}

	return nil
}

// prepareMediaDir clears the media directory, or archives it with --archive-media
func (p *Processor) prepareMediaDir() (string, error) {
	if err := checkMediaDir(p.flags.MediaDir); err != nil {
		return "", err
	}
	dir := filepath.Clean(p.flags.MediaDir)

	var archived string
	if p.flags.ArchiveMedia {
		archivePath, err := archive.Dir(dir, "media", p.now())
		switch {
		case err == nil:
			archived = archivePath
			p.logger.WithField("archive", archivePath).Info("Archived previous media directory")
		case errors.Is(err, os.ErrNotExist):
		default:
			return "", fmt.Errorf("failed to archive media directory: %w", err)
		}
	} else if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear media directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	return archived, nil
}

// checkMediaDir refuses directories whose removal would take the working
// directory or the home directory with it
func checkMediaDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("media directory must not be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid media directory %q: %w", dir, err)
	}

	protected := []string{}
	if wd, err := os.Getwd(); err == nil {
		protected = append(protected, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		protected = append(protected, home)
	}

	for _, keep := range protected {
		if contains(abs, keep) {
			return fmt.Errorf("refusing to use %q as media directory: it contains %s", dir, keep)
		}
	}
	return nil
}

// contains reports whether dir is target or one of its ancestors
func contains(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

type recordResult struct {
	fields     []string
	media      []string
	image      bool
	audio      int
	translated int
}

func (p *Processor) processRecord(ctx context.Context, index int, record batch.VerbRecord, names *nameRegistry) (*recordResult, error) {
	log := p.logger.WithFields(logrus.Fields{"record": index, "verb": record.Verb})
	log.Info("Processing verb")

	slots := min(len(record.Conjugations), anki.ConjugationSlots)
	if extra := len(record.Conjugations) - anki.ConjugationSlots; extra > 0 {
		log.WithField("ignored", extra).Warn("Verb has more conjugations than the card has slots")
	}

	result := &recordResult{}

	translations, filled, err := p.completeTranslations(ctx, record, slots)
	if err != nil {
		return nil, fmt.Errorf("record %d (%s): %w", index, record.Verb, err)
	}
	record.Translations = translations
	result.translated = filled

	var media CardMedia

	if record.HasImage() && !p.flags.SkipImages {
		name := names.claim(imageFileName(record))
		outputPath := filepath.Join(p.flags.MediaDir, name)
		if err := p.fetcher.FetchImage(ctx, strings.TrimSpace(record.Image), outputPath); err != nil {
			return nil, fmt.Errorf("record %d (%s): failed to fetch image: %w", index, record.Verb, err)
		}
		log.WithField("file", name).Debug("Image saved")
		media.Image = name
		result.media = append(result.media, outputPath)
		result.image = true
	}

	if !p.flags.SkipAudio {
		media.Audio = make([]string, slots)
		for i := 0; i < slots; i++ {
			text := strings.TrimSpace(record.Conjugations[i])
			if text == "" {
				continue
			}

			name := names.claim(audioFileName(record.Verb, i+1, p.flags.AudioFormat))
			outputPath := filepath.Join(p.flags.MediaDir, name)
			if err := p.synth.GenerateAudio(ctx, text, outputPath); err != nil {
				return nil, fmt.Errorf("record %d (%s): failed to synthesize %q: %w", index, record.Verb, text, err)
			}
			log.WithField("file", name).Debug("Audio saved")
			media.Audio[i] = name
			result.media = append(result.media, outputPath)
			result.audio++
		}
	}

	result.fields = BuildCardFields(record, p.flags.QuestionFormat, media)
	return result, nil
}

// completeTranslations returns the record's translations, filling the
// rendered slots that have none through the translator
func (p *Processor) completeTranslations(ctx context.Context, record batch.VerbRecord, slots int) ([]string, int, error) {
	if len(record.Translations) >= slots {
		return record.Translations, 0, nil
	}
	if !p.flags.TranslateMissing || p.translator == nil {
		return nil, 0, fmt.Errorf("%w: %d conjugations but %d translations",
			batch.ErrInvalidRecord, slots, len(record.Translations))
	}

	translations := append([]string(nil), record.Translations...)
	filled := 0
	for i := len(translations); i < slots; i++ {
		text := strings.TrimSpace(record.Conjugations[i])
		if text == "" {
			translations = append(translations, "")
			continue
		}

		translated, err := p.translator.Translate(ctx, text)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to translate %q: %w", text, err)
		}
		p.logger.WithFields(logrus.Fields{"text": text, "translation": translated}).Info("Filled missing translation")
		translations = append(translations, translated)
		filled++
	}
	return translations, filled, nil
}

// imageFileName is the sanitized basename of the image URL, or <verb>.jpg
func imageFileName(record batch.VerbRecord) string {
	base := internal.URLBaseName(record.Image)
	if base == "" {
		return internal.SanitizeFilename(record.Verb) + ".jpg"
	}

	name := internal.SanitizeFilename(base)
	if path.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

func audioFileName(verb string, slot int, format string) string {
	return internal.SanitizeFilename(fmt.Sprintf("%s_conjugation_%d.%s", verb, slot, format))
}

// nameRegistry hands out media filenames that are unique within a run
type nameRegistry struct {
	used map[string]bool
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{used: make(map[string]bool)}
}

// claim returns name, or name with a _2, _3, ... suffix if it is already taken
func (r *nameRegistry) claim(name string) string {
	candidate := name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; r.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	r.used[candidate] = true
	return candidate
}
