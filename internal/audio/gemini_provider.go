package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiProvider implements Provider interface for Gemini speech generation
type GeminiProvider struct {
	generate generateContentFunc
	config   *Config
	logger   logrus.FieldLogger
}

// NewGeminiProvider creates a new Gemini TTS provider
func NewGeminiProvider(ctx context.Context, config *Config) (*GeminiProvider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		generate: func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, model, contents, cfg)
		},
		config: config,
		logger: config.logger(),
	}, nil
}

// GenerateAudio synthesizes text with a prebuilt Gemini voice. The model
// returns raw PCM, which is stored as WAV or converted to MP3 with ffmpeg.
func (p *GeminiProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(outputFile))
	if ext != ".wav" && ext != ".mp3" {
		return fmt.Errorf("gemini provider cannot produce %s files", ext)
	}

	prompt := strings.TrimSpace(text)
	if p.config.LanguageName != "" {
		prompt = fmt.Sprintf("Say slowly and clearly in %s: %s", p.config.LanguageName, prompt)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: p.config.GeminiVoice,
				},
			},
			LanguageCode: p.config.Language,
		},
	}

	p.logger.WithFields(logrus.Fields{
		"model": p.config.GeminiModel,
		"voice": p.config.GeminiVoice,
		"input": text,
	}).Debug("Gemini TTS request")

	resp, err := p.generate(ctx, p.config.GeminiModel, genai.Text(prompt), cfg)
	if err != nil {
		return fmt.Errorf("Gemini TTS API error: %w", err)
	}

	pcm, mimeType := inlineAudio(resp)
	if len(pcm) == 0 {
		return fmt.Errorf("no audio data received from Gemini")
	}

	var wav bytes.Buffer
	if err := WriteWAV(&wav, pcm, ParsePCMMimeType(mimeType)); err != nil {
		return err
	}

	if ext == ".wav" {
		_, err := writeAudioFile(outputFile, &wav)
		return err
	}

	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"
	if _, err := writeAudioFile(tempWAV, &wav); err != nil {
		return err
	}
	defer os.Remove(tempWAV)

	return ConvertWAVToMP3(ctx, tempWAV, outputFile)
}

// inlineAudio concatenates the inline audio parts of the first candidate
func inlineAudio(resp *genai.GenerateContentResponse) ([]byte, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}

	var data []byte
	var mimeType string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil {
			continue
		}
		if mimeType == "" {
			mimeType = part.InlineData.MIMEType
		}
		data = append(data, part.InlineData.Data...)
	}
	return data, mimeType
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks that a Gemini key is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}
