package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InitConfig loads .env from the working directory, then initializes viper
// from the config file and VERBDECK_* environment variables. A missing
// default config file is fine; an explicitly given one must be readable.
func InitConfig(cfgFile string) error {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home and working directory with name ".verbdeck" (without extension)
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".verbdeck")
	}

	// Environment variables, e.g. VERBDECK_AUDIO_PROVIDER for audio.provider
	viper.SetEnvPrefix("VERBDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// ConfigFileUsed returns the config file viper read, if any
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// ApplyConfig copies the merged flag, environment and config file values
// back into flags. Explicit flags win over the environment, which wins over
// the config file, which wins over flag defaults.
func ApplyConfig(flags *Flags) {
	flags.LogLevel = viper.GetString("log.level")
	flags.LogFormat = viper.GetString("log.format")

	flags.Output = viper.GetString("output.file")
	flags.MediaDir = viper.GetString("output.media_dir")
	flags.CSVPath = viper.GetString("output.csv")
	flags.ArchiveMedia = viper.GetBool("output.archive_media")

	flags.DeckName = viper.GetString("deck.name")
	flags.DeckID = viper.GetInt64("deck.id")
	flags.ModelID = viper.GetInt64("deck.model_id")
	flags.QuestionFormat = viper.GetString("deck.question")

	flags.AudioProvider = viper.GetString("audio.provider")
	flags.FallbackProvider = viper.GetString("audio.fallback")
	flags.AudioFormat = viper.GetString("audio.format")
	flags.Language = viper.GetString("audio.language")
	flags.LanguageName = viper.GetString("audio.language_name")
	flags.AudioCache = viper.GetBool("audio.cache")
	flags.AudioCacheDir = viper.GetString("audio.cache_dir")
	flags.ClearAudioCache = viper.GetBool("audio.clear_cache")
	flags.OpenAIModel = viper.GetString("audio.openai_model")
	flags.OpenAIVoice = viper.GetString("audio.openai_voice")
	flags.OpenAISpeed = viper.GetFloat64("audio.openai_speed")
	flags.OpenAIInstruction = viper.GetString("audio.openai_instruction")
	flags.GeminiModel = viper.GetString("audio.gemini_model")
	flags.GeminiVoice = viper.GetString("audio.gemini_voice")
	flags.ESpeakVoice = viper.GetString("audio.espeak_voice")

	flags.ImageTimeout = viper.GetDuration("image.timeout")
	flags.ImageMaxBytes = viper.GetInt64("image.max_bytes")

	flags.TranslateMissing = viper.GetBool("translation.fill_missing")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("audio.gemini_key")
}
