package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
)

// maxChatModels caps how many chat models are printed
const maxChatModels = 10

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return newLister(apiKey, openai.NewClient(apiKey))
}

func newLister(apiKey string, client *openai.Client) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: client,
	}
}

// Categories groups model ids by what verbdeck uses them for
type Categories struct {
	Speech []string // usable for --openai-model
	Chat   []string // usable for translation gap filling
}

// Categorize sorts model ids into speech and chat models
func Categorize(ids []string) Categories {
	speech := lo.Filter(ids, func(id string, _ int) bool {
		return strings.Contains(id, "tts") || strings.Contains(id, "audio")
	})
	chat := lo.Filter(ids, func(id string, _ int) bool {
		return !lo.Contains(speech, id) && (strings.HasPrefix(id, "gpt") || strings.Contains(id, "chat"))
	})

	sort.Strings(speech)
	sort.Strings(chat)
	return Categories{Speech: speech, Chat: chat}
}

// ListAvailableModels writes the speech and chat models available for the key to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .verbdeck.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ids := lo.Map(models.Models, func(m openai.Model, _ int) string { return m.ID })
	categories := Categorize(ids)

	fmt.Fprintln(w, "Available OpenAI Models:")
	fmt.Fprintln(w, "\nText-to-Speech (TTS) Models:")
	if len(categories.Speech) == 0 {
		fmt.Fprintln(w, "  No TTS models found")
	}
	for _, model := range categories.Speech {
		fmt.Fprintf(w, "  %s\n", model)
	}

	fmt.Fprintln(w, "\nChat Models (for --translate-missing):")
	if len(categories.Chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
	}
	for _, model := range lo.Slice(categories.Chat, 0, maxChatModels) {
		fmt.Fprintf(w, "  %s\n", model)
	}
	if extra := len(categories.Chat) - maxChatModels; extra > 0 {
		fmt.Fprintf(w, "  ... and %d more models\n", extra)
	}

	return nil
}
