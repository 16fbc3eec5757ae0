package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/verbdeck/internal"
	"codeberg.org/snonux/verbdeck/internal/audio"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verbdeck [verbs.json]",
		Short: "Verb conjugation Anki deck generator",
		Long: `verbdeck turns a JSON or YAML list of verbs into an Anki package of
conjugation cards.

Each card shows the verb with an optional image on the front and a table of
conjugations with translations and pronunciation audio on the back. Images are
downloaded from the given URLs and audio is synthesized per conjugation.

Examples:
  verbdeck verbs.json                        # Write Finnish_Verbs.apkg
  verbdeck verbs.yaml -o deck.apkg           # Read YAML, custom output
  verbdeck verbs.json --skip-audio --csv out.csv
  verbdeck --list-models                     # Show available OpenAI models`,
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.ListModels {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.verbdeck.yaml or ./.verbdeck.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	// Local flags
	cmd.Flags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output .apkg file")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name")
	cmd.Flags().Int64Var(&flags.DeckID, "deck-id", flags.DeckID, "Deck id (keep stable to update an imported deck)")
	cmd.Flags().Int64Var(&flags.ModelID, "model-id", flags.ModelID, "Note type id")
	cmd.Flags().StringVar(&flags.MediaDir, "media-dir", flags.MediaDir, "Media directory (wiped at the start of each run)")
	cmd.Flags().StringVar(&flags.QuestionFormat, "question", flags.QuestionFormat, "Question text; {verb} is replaced with the verb")
	cmd.Flags().StringVar(&flags.CSVPath, "csv", "", "Also write the notes as CSV for plain text import")
	cmd.Flags().BoolVar(&flags.SkipAudio, "skip-audio", false, "Skip audio generation")
	cmd.Flags().BoolVar(&flags.SkipImages, "skip-images", false, "Skip image download")
	cmd.Flags().BoolVar(&flags.ArchiveMedia, "archive-media", false, "Move the previous media directory to archive/ instead of deleting it")
	cmd.Flags().BoolVar(&flags.TranslateMissing, "translate-missing", false, "Translate conjugations that have no translation with OpenAI")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	// Audio flags
	cmd.Flags().StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Audio provider: openai, gemini or espeak")
	cmd.Flags().StringVar(&flags.FallbackProvider, "fallback-provider", "", "Provider used when the primary one keeps failing")
	cmd.Flags().StringVarP(&flags.AudioFormat, "format", "f", flags.AudioFormat, "Audio format (mp3 or wav)")
	cmd.Flags().StringVar(&flags.Language, "language", flags.Language, "Language code of the verbs (BCP-47)")
	cmd.Flags().StringVar(&flags.LanguageName, "language-name", flags.LanguageName, "Language name used in voice instructions and translation prompts")
	cmd.Flags().BoolVar(&flags.AudioCache, "audio-cache", false, "Cache OpenAI audio on disk")
	cmd.Flags().StringVar(&flags.AudioCacheDir, "audio-cache-dir", flags.AudioCacheDir, "Directory for cached audio")
	cmd.Flags().BoolVar(&flags.ClearAudioCache, "clear-audio-cache", false, "Empty the audio cache before synthesizing")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts (derived from --language-name when empty)")

	// Gemini flags
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini speech model")
	cmd.Flags().StringVar(&flags.GeminiVoice, "gemini-voice", flags.GeminiVoice, "Gemini prebuilt voice, e.g. Kore or Puck")

	// espeak-ng flags
	cmd.Flags().StringVar(&flags.ESpeakVoice, "espeak-voice", flags.ESpeakVoice, "espeak-ng voice variant: "+strings.Join(audio.ListVoices(), ", "))

	// Image flags
	cmd.Flags().DurationVar(&flags.ImageTimeout, "image-timeout", flags.ImageTimeout, "Timeout per image download")
	cmd.Flags().Int64Var(&flags.ImageMaxBytes, "image-max-bytes", flags.ImageMaxBytes, "Maximum image size in bytes (0 = no limit)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// viperKeys maps config keys to the flags that set them
var viperKeys = map[string]string{
	"log.level":                "log-level",
	"log.format":               "log-format",
	"output.file":              "output",
	"output.media_dir":         "media-dir",
	"output.csv":               "csv",
	"output.archive_media":     "archive-media",
	"deck.name":                "deck-name",
	"deck.id":                  "deck-id",
	"deck.model_id":            "model-id",
	"deck.question":            "question",
	"audio.provider":           "audio-provider",
	"audio.fallback":           "fallback-provider",
	"audio.format":             "format",
	"audio.language":           "language",
	"audio.language_name":      "language-name",
	"audio.cache":              "audio-cache",
	"audio.cache_dir":          "audio-cache-dir",
	"audio.clear_cache":        "clear-audio-cache",
	"audio.openai_model":       "openai-model",
	"audio.openai_voice":       "openai-voice",
	"audio.openai_speed":       "openai-speed",
	"audio.openai_instruction": "openai-instruction",
	"audio.gemini_model":       "gemini-model",
	"audio.gemini_voice":       "gemini-voice",
	"audio.espeak_voice":       "espeak-voice",
	"image.timeout":            "image-timeout",
	"image.max_bytes":          "image-max-bytes",
	"translation.fill_missing": "translate-missing",
}

func bindFlagsToViper(cmd *cobra.Command) {
	for key, name := range viperKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		bindFlag(key, flag)
	}
}

func bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	_ = viper.BindPFlag(key, flag)
}
