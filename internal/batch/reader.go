package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRecord is wrapped by every validation failure of a verb record.
var ErrInvalidRecord = errors.New("invalid verb record")

// VerbRecord is one input item: a verb with its conjugation table
type VerbRecord struct {
	Verb         string   `json:"verb" yaml:"verb"`
	Image        string   `json:"image,omitempty" yaml:"image,omitempty"`
	Note         string   `json:"note,omitempty" yaml:"note,omitempty"`
	Conjugations []string `json:"conjugations" yaml:"conjugations"`
	Translations []string `json:"translations" yaml:"translations"`
}

// HasImage reports whether the record carries a non-empty image URL
func (r VerbRecord) HasImage() bool {
	return strings.TrimSpace(r.Image) != ""
}

// ReadVerbFile reads verb records from a JSON or YAML file.
// The format is chosen by extension: .yaml and .yml are YAML, everything else is JSON.
func ReadVerbFile(filename string) ([]VerbRecord, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read verb file: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	return ParseVerbs(content, format)
}

// ParseVerbs decodes and validates verb records in the given format ("json" or "yaml")
func ParseVerbs(content []byte, format string) ([]VerbRecord, error) {
	var records []VerbRecord

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(content, &records); err != nil {
			return nil, fmt.Errorf("failed to parse YAML verb list: %w", err)
		}
	case "json":
		if len(bytes.TrimSpace(content)) == 0 {
			return nil, fmt.Errorf("failed to parse JSON verb list: empty input")
		}
		if err := json.Unmarshal(content, &records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON verb list: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported verb file format: %s", format)
	}

	for i, record := range records {
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	// An empty list is valid and yields an empty deck
	if records == nil {
		records = []VerbRecord{}
	}
	return records, nil
}

// Validate checks the required keys of a record
func (r VerbRecord) Validate() error {
	if strings.TrimSpace(r.Verb) == "" {
		return fmt.Errorf("%w: missing verb", ErrInvalidRecord)
	}
	if r.Conjugations == nil {
		return fmt.Errorf("%w: verb %q has no conjugations key", ErrInvalidRecord, r.Verb)
	}
	return nil
}
