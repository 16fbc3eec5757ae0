package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MockSynthesizer mocks an audio provider. Every call writes fake MP3 bytes
// to the requested file unless an error is registered for the text.
type MockSynthesizer struct {
	Errors map[string]error
	Calls  []string
}

// GenerateAudio mocks text-to-speech synthesis
func (m *MockSynthesizer) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	m.Calls = append(m.Calls, fmt.Sprintf("TTS: %s -> %s", text, filepath.Base(outputFile)))

	if err, ok := m.Errors[text]; ok {
		return err
	}

	data := append(GenerateAudioData(), []byte(text)...)
	return os.WriteFile(outputFile, data, 0644)
}

// Name returns the mock provider name
func (m *MockSynthesizer) Name() string {
	return "mock"
}

// IsAvailable always succeeds
func (m *MockSynthesizer) IsAvailable() error {
	return nil
}

// MockImageFetcher mocks image downloads
type MockImageFetcher struct {
	Images map[string][]byte
	Errors map[string]error
	Calls  []string
}

// FetchImage mocks downloading url to outputPath
func (m *MockImageFetcher) FetchImage(ctx context.Context, url, outputPath string) error {
	m.Calls = append(m.Calls, fmt.Sprintf("GET %s -> %s", url, filepath.Base(outputPath)))

	if err, ok := m.Errors[url]; ok {
		return err
	}

	data, ok := m.Images[url]
	if !ok {
		data = GenerateImageData()
	}
	return os.WriteFile(outputPath, data, 0644)
}

// MockTranslator mocks translation service
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error
	Calls        []string
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("Translate: %s", text))

	if err, ok := m.Errors[text]; ok {
		return "", err
	}

	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	return fmt.Sprintf("mock translation of %s", text), nil
}

// GenerateAudioData generates mock audio data
func GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}

// GenerateImageData generates mock image data
func GenerateImageData() []byte {
	// Simple mock JPEG header
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}
}
