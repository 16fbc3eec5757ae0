package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ESpeakProvider implements Provider interface for espeak-ng
type ESpeakProvider struct {
	espeak *ESpeak
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (*ESpeakProvider, error) {
	espeak, err := New(config)
	if err != nil {
		return nil, err
	}

	return &ESpeakProvider{espeak: espeak}, nil
}

// GenerateAudio generates audio using espeak-ng
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	switch ext := strings.ToLower(filepath.Ext(outputFile)); ext {
	case ".mp3":
		return p.espeak.GenerateMP3(ctx, text, outputFile)
	case ".wav":
		return p.espeak.GenerateWAV(ctx, text, outputFile)
	default:
		return fmt.Errorf("espeak-ng provider cannot produce %s files", ext)
	}
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}
