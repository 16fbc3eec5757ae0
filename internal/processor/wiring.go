package processor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/verbdeck/internal/anki"
	"codeberg.org/snonux/verbdeck/internal/audio"
	"codeberg.org/snonux/verbdeck/internal/cli"
	"codeberg.org/snonux/verbdeck/internal/image"
	"codeberg.org/snonux/verbdeck/internal/translation"
)

// NewDefault creates a processor backed by the real image fetcher, speech
// providers and translator selected by flags
func NewDefault(ctx context.Context, flags *cli.Flags, logger logrus.FieldLogger) (*Processor, error) {
	opts := []Option{
		WithLogger(logger),
		WithPackager(anki.NewAPKGGenerator()),
	}

	if !flags.SkipImages {
		fetcher := image.NewFetcher(&image.FetchOptions{
			Timeout:      flags.ImageTimeout,
			MaxSizeBytes: flags.ImageMaxBytes,
		}, logger)
		opts = append(opts, WithImageFetcher(fetcher))
	}

	if !flags.SkipAudio {
		synth, err := NewSynthesizer(ctx, flags, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSynthesizer(synth))
	}

	if flags.TranslateMissing {
		apiKey := cli.GetOpenAIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("--translate-missing needs an OpenAI API key (OPENAI_API_KEY or audio.openai_key)")
		}
		opts = append(opts, WithTranslator(translation.NewTranslator(apiKey, flags.LanguageName)))
	}

	return NewProcessor(flags, opts...), nil
}

// NewSynthesizer creates the configured audio provider. With a fallback
// provider set, the primary is guarded by a circuit breaker.
func NewSynthesizer(ctx context.Context, flags *cli.Flags, logger logrus.FieldLogger) (audio.Provider, error) {
	primary, err := audio.NewProvider(ctx, AudioConfig(flags, flags.AudioProvider, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create audio provider %s: %w", flags.AudioProvider, err)
	}
	if err := prepareAudioCache(primary, flags, logger); err != nil {
		return nil, err
	}

	if flags.FallbackProvider == "" || flags.FallbackProvider == flags.AudioProvider {
		return primary, nil
	}

	fallback, err := audio.NewProvider(ctx, AudioConfig(flags, flags.FallbackProvider, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback audio provider %s: %w", flags.FallbackProvider, err)
	}
	if err := prepareAudioCache(fallback, flags, logger); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"primary":  primary.Name(),
		"fallback": fallback.Name(),
	}).Debug("Audio fallback enabled")

	return audio.NewProviderWithFallback(primary, fallback, audio.DefaultBreakerSettings(), logger), nil
}

// prepareAudioCache empties the OpenAI audio cache with --clear-audio-cache
// and logs what the cache holds
func prepareAudioCache(provider audio.Provider, flags *cli.Flags, logger logrus.FieldLogger) error {
	cached, ok := provider.(*audio.OpenAIProvider)
	if !ok || !flags.AudioCache {
		return nil
	}

	if flags.ClearAudioCache {
		if err := cached.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear audio cache: %w", err)
		}
		logger.WithField("dir", flags.AudioCacheDir).Info("Audio cache cleared")
	}

	files, size, err := cached.GetCacheStats()
	if err != nil {
		return fmt.Errorf("failed to read audio cache: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"dir":   flags.AudioCacheDir,
		"files": files,
		"bytes": size,
	}).Info("Audio cache")
	return nil
}

// AudioConfig builds the provider configuration for the named provider
func AudioConfig(flags *cli.Flags, provider string, logger logrus.FieldLogger) *audio.Config {
	return &audio.Config{
		Provider:          provider,
		OutputFormat:      flags.AudioFormat,
		Language:          flags.Language,
		LanguageName:      flags.LanguageName,
		OpenAIKey:         cli.GetOpenAIKey(),
		OpenAIModel:       flags.OpenAIModel,
		OpenAIVoice:       flags.OpenAIVoice,
		OpenAISpeed:       flags.OpenAISpeed,
		OpenAIInstruction: flags.OpenAIInstruction,
		GeminiKey:         cli.GetGeminiKey(),
		GeminiModel:       flags.GeminiModel,
		GeminiVoice:       flags.GeminiVoice,
		ESpeakVoice:       flags.ESpeakVoice,
		EnableCache:       flags.AudioCache,
		CacheDir:          flags.AudioCacheDir,
		Logger:            logger,
	}
}
