package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Translator translates conjugated verb forms into English
type Translator struct {
	apiKey         string
	client         *openai.Client
	model          string
	sourceLanguage string
	cache          *TranslationCache
}

// NewTranslator creates a new translator for text in sourceLanguage
func NewTranslator(apiKey, sourceLanguage string) *Translator {
	return newTranslator(apiKey, sourceLanguage, openai.NewClient(apiKey))
}

func newTranslator(apiKey, sourceLanguage string, client *openai.Client) *Translator {
	if sourceLanguage == "" {
		sourceLanguage = "Finnish"
	}
	return &Translator{
		apiKey:         apiKey,
		client:         client,
		model:          openai.GPT4oMini,
		sourceLanguage: sourceLanguage,
		cache:          NewTranslationCache(),
	}
}

// Translate translates text to English. Repeated texts are answered from
// an in-memory cache.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("nothing to translate")
	}
	if translation, ok := t.cache.Get(text); ok {
		return translation, nil
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(t.sourceLanguage, text),
			},
		},
		MaxTokens:   50,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", fmt.Errorf("empty translation returned for %q", text)
	}
	t.cache.Add(text, translation)
	return translation, nil
}

// Prompt builds the chat prompt for translating one conjugated form
func Prompt(sourceLanguage, text string) string {
	return fmt.Sprintf("Translate the %s verb form '%s' to English, including the pronoun (for example 'I speak'). Respond with only the English translation, nothing else.",
		sourceLanguage, text)
}

// TranslationCache stores translations in memory for batch operations
type TranslationCache struct {
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(text, translation string) {
	tc.translations[text] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(text string) (string, bool) {
	translation, ok := tc.translations[text]
	return translation, ok
}
