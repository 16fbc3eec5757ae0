package anki

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// guidNamespace scopes note GUIDs to this tool
var guidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://codeberg.org/snonux/verbdeck"))

// APKGGenerator writes decks as Anki package files (.apkg)
type APKGGenerator struct {
	now func() time.Time
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator() *APKGGenerator {
	return &APKGGenerator{now: time.Now}
}

// WithClock sets the time source used for ids and modification stamps
func (g *APKGGenerator) WithClock(now func() time.Time) *APKGGenerator {
	g.now = now
	return g
}

// WritePackage creates an .apkg file containing the deck and its media
func (g *APKGGenerator) WritePackage(deck *Deck, outputPath string) error {
	if deck == nil || deck.Model == nil {
		return fmt.Errorf("deck and model are required")
	}

	// Create temporary directory for building the package
	tempDir, err := os.MkdirTemp("", "anki_export_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Media files are stored under their index; the mapping restores the names
	mapping, err := g.copyMediaFiles(deck.MediaFiles, tempDir)
	if err != nil {
		return fmt.Errorf("failed to copy media files: %w", err)
	}

	if err := g.createMediaMapping(mapping, tempDir); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(deck, dbPath); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := g.createZipPackage(tempDir, outputPath, len(mapping)); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}

	return nil
}

// createDatabase creates the Anki SQLite database
func (g *APKGGenerator) createDatabase(deck *Deck, dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := g.createTables(db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := g.insertCollection(db, deck); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	if err := g.insertNotesAndCards(db, deck); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}

	return nil
}

// createTables creates the required Anki database tables
func (g *APKGGenerator) createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE col (
			id integer PRIMARY KEY,
			crt integer NOT NULL,
			mod integer NOT NULL,
			scm integer NOT NULL,
			ver integer NOT NULL,
			dty integer NOT NULL,
			usn integer NOT NULL,
			ls integer NOT NULL,
			conf text NOT NULL,
			models text NOT NULL,
			decks text NOT NULL,
			dconf text NOT NULL,
			tags text NOT NULL
		)`,
		`CREATE TABLE notes (
			id integer PRIMARY KEY,
			guid text NOT NULL,
			mid integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			tags text NOT NULL,
			flds text NOT NULL,
			sfld text NOT NULL,
			csum integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE cards (
			id integer PRIMARY KEY,
			nid integer NOT NULL,
			did integer NOT NULL,
			ord integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			type integer NOT NULL,
			queue integer NOT NULL,
			due integer NOT NULL,
			ivl integer NOT NULL,
			factor integer NOT NULL,
			reps integer NOT NULL,
			lapses integer NOT NULL,
			left integer NOT NULL,
			odue integer NOT NULL,
			odid integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE revlog (
			id integer PRIMARY KEY,
			cid integer NOT NULL,
			usn integer NOT NULL,
			ease integer NOT NULL,
			ivl integer NOT NULL,
			lastIvl integer NOT NULL,
			factor integer NOT NULL,
			time integer NOT NULL,
			type integer NOT NULL
		)`,
		`CREATE TABLE graves (
			usn integer NOT NULL,
			oid integer NOT NULL,
			type integer NOT NULL
		)`,
		`CREATE INDEX ix_notes_csum ON notes (csum)`,
		`CREATE INDEX ix_notes_usn ON notes (usn)`,
		`CREATE INDEX ix_cards_usn ON cards (usn)`,
		`CREATE INDEX ix_cards_nid ON cards (nid)`,
		`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
		`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
		`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// insertCollection inserts the collection metadata
func (g *APKGGenerator) insertCollection(db *sql.DB, deck *Deck) error {
	now := g.now().Unix()

	// The arrays are [learningCount, reviewCount] for today's stats
	decks := map[string]interface{}{
		"1":                            deckConfig(1, "Default", "", now),
		strconv.FormatInt(deck.ID, 10): deckConfig(deck.ID, deck.Name, deck.Description, now),
	}
	decksJSON, err := json.Marshal(decks)
	if err != nil {
		return err
	}

	models := map[string]interface{}{
		strconv.FormatInt(deck.Model.ID, 10): g.createNoteTypeConfig(deck, now),
	}
	modelsJSON, err := json.Marshal(models)
	if err != nil {
		return err
	}

	conf := map[string]interface{}{
		"nextPos":       len(deck.Notes) + 1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      strconv.FormatInt(deck.Model.ID, 10),
		"dayLearnFirst": false,
	}
	confJSON, err := json.Marshal(conf)
	if err != nil {
		return err
	}

	dconf := map[string]interface{}{
		"1": map[string]interface{}{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": map[string]interface{}{
				"delays":        []int{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"perDay":        20,
				"order":         1,
				"bury":          true,
				"separate":      true,
			},
			"lapse": map[string]interface{}{
				"delays":      []int{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": map[string]interface{}{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": true,
			"replayq":  true,
		},
	}
	dconfJSON, err := json.Marshal(dconf)
	if err != nil {
		return err
	}

	query := `INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.Exec(query,
		1,        // id
		now,      // crt
		now*1000, // mod
		now*1000, // scm
		11,       // ver (schema version)
		0,        // dty
		0,        // usn
		0,        // ls
		string(confJSON),
		string(modelsJSON),
		string(decksJSON),
		string(dconfJSON),
		"{}", // tags
	)
	return err
}

func deckConfig(id int64, name, desc string, mod int64) map[string]interface{} {
	return map[string]interface{}{
		"id":               id,
		"name":             name,
		"mod":              mod,
		"desc":             desc,
		"collapsed":        false,
		"dyn":              0,
		"conf":             1,
		"usn":              0,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
		"browserCollapsed": false,
		"extendNew":        10,
		"extendRev":        50,
	}
}

// createNoteTypeConfig creates the note type configuration
func (g *APKGGenerator) createNoteTypeConfig(deck *Deck, now int64) map[string]interface{} {
	model := deck.Model

	flds := make([]map[string]interface{}, 0, len(model.Fields))
	for i, f := range model.Fields {
		flds = append(flds, map[string]interface{}{
			"name":   f.Name,
			"ord":    i,
			"sticky": false,
			"rtl":    false,
			"font":   f.Font,
			"size":   f.Size,
			"media":  []string{},
		})
	}

	tmpls := make([]map[string]interface{}, 0, len(model.Templates))
	req := make([][]interface{}, 0, len(model.Templates))
	for i, t := range model.Templates {
		tmpls = append(tmpls, map[string]interface{}{
			"name":  t.Name,
			"ord":   i,
			"qfmt":  t.Front,
			"afmt":  t.Back,
			"did":   nil,
			"bqfmt": "",
			"bafmt": "",
		})
		// Every template needs the sort field to render
		req = append(req, []interface{}{i, "any", []int{0}})
	}

	return map[string]interface{}{
		"id":    model.ID,
		"name":  model.Name,
		"type":  0,
		"mod":   now,
		"usn":   -1,
		"sortf": 0,
		"did":   deck.ID,
		"req":   req,
		"vers":  []int{},
		"tags":  []string{},
		"latexPre": `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}`,
		"latexPost": `\end{document}`,
		"flds":      flds,
		"tmpls":     tmpls,
		"css":       model.CSS,
	}
}

// insertNotesAndCards inserts all notes and one card per template
func (g *APKGGenerator) insertNotesAndCards(db *sql.DB, deck *Deck) error {
	now := g.now()
	base := now.UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	noteStmt, err := tx.Prepare(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := tx.Prepare(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	templates := len(deck.Model.Templates)
	occurrences := make(map[string]int, len(deck.Notes))
	for i, note := range deck.Notes {
		noteID := base + int64(i)

		// Join fields with field separator (ASCII 31)
		fields := strings.Join(note.Fields, "\x1f")
		sortField := note.SortField()
		occurrence := occurrences[sortField]
		occurrences[sortField]++

		tags := ""
		if len(note.Tags) > 0 {
			tags = " " + strings.Join(note.Tags, " ") + " "
		}

		_, err := noteStmt.Exec(
			noteID,                                   // id
			NoteGUID(deck.ID, sortField, occurrence), // guid
			deck.Model.ID,                            // mid
			now.Unix(),                               // mod
			-1,                                       // usn
			tags,                                     // tags
			fields,                                   // flds
			sortField,                                // sfld
			fieldChecksum(sortField),                 // csum
			0,                                        // flags
			"",                                       // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert note %d: %w", i+1, err)
		}

		for ord := 0; ord < templates; ord++ {
			cardID := base + int64(i*templates+ord)
			_, err = cardStmt.Exec(
				cardID,     // id
				noteID,     // nid
				deck.ID,    // did
				ord,        // ord
				now.Unix(), // mod
				-1,         // usn
				0,          // type (0=new)
				0,          // queue (0=new)
				i+1,        // due (position for new cards)
				0,          // ivl
				0,          // factor
				0,          // reps
				0,          // lapses
				0,          // left
				0,          // odue
				0,          // odid
				0,          // flags
				"",         // data
			)
			if err != nil {
				return fmt.Errorf("failed to insert card for note %d: %w", i+1, err)
			}
		}
	}

	return tx.Commit()
}

// NoteGUID derives a stable GUID from the deck, the note's sort field and
// how many earlier notes in the deck share that sort field. Importing a
// rebuilt deck updates notes instead of duplicating them, and notes with the
// same question stay distinct.
func NoteGUID(deckID int64, sortField string, occurrence int) string {
	name := strconv.FormatInt(deckID, 10) + "\x1f" + sortField
	if occurrence > 0 {
		name += "\x1f" + strconv.Itoa(occurrence)
	}
	return uuid.NewSHA1(guidNamespace, []byte(name)).String()
}

// fieldChecksum is the first 8 hex digits of the SHA-1 of the field, as an integer
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:4]), 16, 64)
	return v
}

// copyMediaFiles copies media files into dir under their index and returns
// the index -> filename mapping
func (g *APKGGenerator) copyMediaFiles(paths []string, dir string) (map[string]string, error) {
	mapping := make(map[string]string, len(paths))
	seen := make(map[string]string, len(paths))

	for _, path := range paths {
		name := filepath.Base(path)
		if prev, ok := seen[name]; ok {
			if prev == path {
				continue
			}
			return nil, fmt.Errorf("media files %s and %s share the name %q", prev, path, name)
		}

		index := strconv.Itoa(len(mapping))
		if err := copyFile(path, filepath.Join(dir, index)); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", path, err)
		}
		mapping[index] = name
		seen[name] = path
	}

	return mapping, nil
}

// createMediaMapping creates the media mapping JSON file
func (g *APKGGenerator) createMediaMapping(mapping map[string]string, dir string) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "media"), data, 0644)
}

// createZipPackage creates the final .apkg zip file. Entries are written in a
// fixed order: collection, media map, then media files by index.
func (g *APKGGenerator) createZipPackage(dir, outputPath string, mediaCount int) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)

	entries := []string{"collection.anki2", "media"}
	for i := 0; i < mediaCount; i++ {
		entries = append(entries, strconv.Itoa(i))
	}

	for _, name := range entries {
		if err := addZipEntry(archive, filepath.Join(dir, name), name); err != nil {
			archive.Close()
			return err
		}
	}

	if err := archive.Close(); err != nil {
		return err
	}
	return zipFile.Close()
}

func addZipEntry(archive *zip.Writer, path, name string) error {
	writer, err := archive.Create(name)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}

// Helper functions

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}
