package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
	logger      logrus.FieldLogger
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return newOpenAIProvider(config, openai.NewClient(config.OpenAIKey))
}

func newOpenAIProvider(config *Config, client *openai.Client) (*OpenAIProvider, error) {
	provider := &OpenAIProvider{
		client:      client,
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
		logger:      config.logger(),
	}

	// Create cache directory if caching is enabled
	if provider.enableCache && provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// GenerateAudio generates audio using OpenAI TTS
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	format, err := speechFormat(outputFile)
	if err != nil {
		return err
	}

	// Check cache first
	if p.enableCache {
		cacheFile := p.getCacheFilePath(text, format)
		if _, err := os.Stat(cacheFile); err == nil {
			p.logger.WithField("file", filepath.Base(outputFile)).Debug("OpenAI TTS cache hit")
			return copyFile(cacheFile, outputFile)
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          strings.TrimSpace(text),
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: format,
	}

	// Only the newer models accept voice instructions
	if supportsInstructions(p.config.OpenAIModel) {
		req.Instructions = p.config.Instruction()
	}

	p.logger.WithFields(logrus.Fields{
		"model": p.config.OpenAIModel,
		"voice": p.config.OpenAIVoice,
		"speed": p.config.OpenAISpeed,
		"input": req.Input,
	}).Debug("OpenAI TTS request")

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "does not have access to model") && supportsInstructions(p.config.OpenAIModel) {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try using --openai-model tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	written, err := writeAudioFile(outputFile, response)
	if err != nil {
		return err
	}
	if written == 0 {
		os.Remove(outputFile)
		return fmt.Errorf("no audio data received from OpenAI")
	}

	// Cache the result if caching is enabled
	if p.enableCache {
		cacheFile := p.getCacheFilePath(text, format)
		if err := copyFile(outputFile, cacheFile); err != nil {
			p.logger.WithError(err).Debug("Failed to cache audio")
		}
	}

	return nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// A test call would spend credits, so only the key is checked
	return nil
}

func supportsInstructions(model string) bool {
	return model == "gpt-4o-mini-tts" || model == "gpt-4o-mini-audio-preview"
}

// speechFormat maps an output file extension to an OpenAI response format
func speechFormat(outputFile string) (openai.SpeechResponseFormat, error) {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".mp3":
		return openai.SpeechResponseFormatMp3, nil
	case ".wav":
		return openai.SpeechResponseFormatWav, nil
	case ".opus":
		return openai.SpeechResponseFormatOpus, nil
	case ".aac":
		return openai.SpeechResponseFormatAac, nil
	case ".flac":
		return openai.SpeechResponseFormatFlac, nil
	default:
		return "", fmt.Errorf("unsupported audio format for %s", filepath.Base(outputFile))
	}
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAIProvider) getCacheFilePath(text string, format openai.SpeechResponseFormat) string {
	// Create a hash of the text and settings
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	if supportsInstructions(p.config.OpenAIModel) {
		h.Write([]byte(p.config.Instruction()))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// Use first 2 chars as subdirectory for better file system performance
	subdir := hash[:2]
	filename := hash[2:] + "." + string(format)

	return filepath.Join(p.cacheDir, subdir, filename)
}

// ClearCache removes all cached audio files
func (p *OpenAIProvider) ClearCache() error {
	if p.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(p.cacheDir)
}

// GetCacheStats returns cache statistics
func (p *OpenAIProvider) GetCacheStats() (fileCount int, totalSize int64, err error) {
	if !p.enableCache || p.cacheDir == "" {
		return 0, 0, nil
	}
	if _, err := os.Stat(p.cacheDir); os.IsNotExist(err) {
		return 0, 0, nil
	}

	err = filepath.Walk(p.cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}

// writeAudioFile streams r into path, creating the parent directory. A
// partially written file is removed on error.
func writeAudioFile(path string, r io.Reader) (int64, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(path)
		return 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	return written, nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	_, err = writeAudioFile(dst, source)
	return err
}
