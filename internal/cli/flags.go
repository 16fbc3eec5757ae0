package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile          string
	Output           string
	DeckName         string
	DeckID           int64
	ModelID          int64
	MediaDir         string
	QuestionFormat   string
	CSVPath          string
	SkipAudio        bool
	SkipImages       bool
	ArchiveMedia     bool
	TranslateMissing bool
	ListModels       bool

	// Audio flags
	AudioProvider    string
	FallbackProvider string
	AudioFormat      string
	Language         string // BCP-47 code passed to speech providers
	LanguageName     string // Used in voice instructions and translation prompts
	AudioCache       bool
	AudioCacheDir    string
	ClearAudioCache  bool

	// OpenAI flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Gemini flags
	GeminiModel string
	GeminiVoice string

	// espeak-ng flags
	ESpeakVoice string

	// Image download flags
	ImageTimeout  time.Duration
	ImageMaxBytes int64

	// Logging flags
	LogLevel  string
	LogFormat string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Output:         "Finnish_Verbs.apkg",
		DeckName:       "Finnish Verbs",
		DeckID:         987654321,
		ModelID:        1234567890,
		MediaDir:       "media",
		QuestionFormat: "Conjugate the verb '{verb}'",
		AudioProvider:  "openai",
		AudioFormat:    "mp3",
		Language:       "fi-FI",
		LanguageName:   "Finnish",
		AudioCacheDir:  ".audio_cache",
		OpenAIModel:    "gpt-4o-mini-tts",
		OpenAIVoice:    "alloy",
		OpenAISpeed:    1.0,
		GeminiModel:    "gemini-2.5-flash-preview-tts",
		GeminiVoice:    "Kore",
		ESpeakVoice:    "fi",
		ImageTimeout:   30 * time.Second,
		ImageMaxBytes:  10 * 1024 * 1024,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}
