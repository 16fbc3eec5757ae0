package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // Provider name: "openai", "gemini" or "espeak"
	OutputFormat string // Output format: "mp3" or "wav"
	Language     string // BCP-47 code of the spoken language, e.g. "fi-FI"
	LanguageName string // Human readable language name used in voice instructions

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model

	// Gemini-specific settings
	GeminiKey   string
	GeminiModel string
	GeminiVoice string // Prebuilt voice, e.g. "Kore" or "Puck"

	// espeak-ng settings
	ESpeakVoice string

	// Cache settings
	EnableCache bool
	CacheDir    string

	Logger logrus.FieldLogger
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:     "openai",
		OutputFormat: "mp3",
		Language:     "fi-FI",
		LanguageName: "Finnish",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		OpenAISpeed:  1.0,
		GeminiModel:  "gemini-2.5-flash-preview-tts",
		GeminiVoice:  "Kore",
		ESpeakVoice:  "fi",
		CacheDir:     "./.audio_cache",
	}
}

// Instruction returns the voice instruction sent with instruction-capable
// models, derived from the language unless set explicitly
func (c *Config) Instruction() string {
	if c.OpenAIInstruction != "" {
		return c.OpenAIInstruction
	}
	if c.LanguageName == "" {
		return ""
	}
	return fmt.Sprintf("You are speaking %s. Pronounce the text with authentic %s phonetics. Speak slowly and clearly for language learners.",
		c.LanguageName, c.LanguageName)
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(ctx context.Context, config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiProvider(ctx, config)

	case "espeak", "espeak-ng":
		espeakConfig := DefaultConfig()
		if config.ESpeakVoice != "" {
			espeakConfig.Voice = config.ESpeakVoice
		}
		return NewESpeakProvider(espeakConfig)

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option. The
// primary sits behind a circuit breaker: once it has failed often enough in a
// row, requests go straight to the fallback until the breaker half-opens.
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	breaker  *gobreaker.CircuitBreaker
	logger   logrus.FieldLogger
}

// BreakerSettings controls when the primary provider is bypassed
type BreakerSettings struct {
	MaxFailures uint32        // Consecutive failures before the breaker opens
	OpenTimeout time.Duration // How long the breaker stays open
}

// DefaultBreakerSettings returns the breaker settings used by the CLI
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxFailures: 3,
		OpenTimeout: 60 * time.Second,
	}
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, settings BreakerSettings, logger logrus.FieldLogger) *ProviderWithFallback {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = DefaultBreakerSettings().MaxFailures
	}

	p := &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        primary.Name(),
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about the provider's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("Audio provider circuit breaker changed state")
		},
	})
	return p
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.primary.GenerateAudio(ctx, text, outputFile)
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	entry := p.logger.WithFields(logrus.Fields{
		"primary":  p.primary.Name(),
		"fallback": p.fallback.Name(),
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		entry.Debug("Primary provider bypassed by open circuit breaker")
	} else {
		entry.WithError(err).Warn("Primary provider failed, falling back")
	}

	if fbErr := p.fallback.GenerateAudio(ctx, text, outputFile); fbErr != nil {
		return fmt.Errorf("fallback provider %s failed after primary error (%v): %w", p.fallback.Name(), err, fbErr)
	}
	return nil
}

// State returns the state of the circuit breaker guarding the primary provider
func (p *ProviderWithFallback) State() gobreaker.State {
	return p.breaker.State()
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
