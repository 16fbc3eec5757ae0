package translation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestNewTranslator(t *testing.T) {
	translator := NewTranslator("test-api-key", "")

	if translator == nil {
		t.Fatal("NewTranslator returned nil")
	}

	if translator.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", translator.apiKey)
	}

	if translator.client == nil {
		t.Error("OpenAI client not initialized")
	}

	if translator.sourceLanguage != "Finnish" {
		t.Errorf("Expected default source language 'Finnish', got '%s'", translator.sourceLanguage)
	}
}

func TestTranslate_NoAPIKey(t *testing.T) {
	translator := NewTranslator("", "Finnish")

	_, err := translator.Translate(context.Background(), "puhun")
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	if err.Error() != "OpenAI API key not found" {
		t.Errorf("Expected 'OpenAI API key not found' error, got: %v", err)
	}
}

func TestPrompt(t *testing.T) {
	prompt := Prompt("Finnish", "puhun")

	if !strings.Contains(prompt, "Finnish verb form 'puhun'") {
		t.Errorf("Prompt does not name the language and text: %s", prompt)
	}
}

func newChatServer(t *testing.T, reply string, calls *int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req openai.ChatCompletionRequest
		if err := json.Unmarshal(body, &req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testTranslator(serverURL string) *Translator {
	config := openai.DefaultConfig("test-key")
	config.BaseURL = serverURL + "/v1"
	return newTranslator("test-key", "Finnish", openai.NewClientWithConfig(config))
}

func TestTranslate(t *testing.T) {
	calls := 0
	server := newChatServer(t, "  I speak \n", &calls)
	translator := testTranslator(server.URL)

	translation, err := translator.Translate(context.Background(), "puhun")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if translation != "I speak" {
		t.Errorf("Expected 'I speak', got %q", translation)
	}

	// The second lookup is served from the cache
	if _, err := translator.Translate(context.Background(), " puhun "); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 API call, got %d", calls)
	}
}

func TestTranslate_EmptyReply(t *testing.T) {
	calls := 0
	server := newChatServer(t, "   ", &calls)
	translator := testTranslator(server.URL)

	if _, err := translator.Translate(context.Background(), "puhun"); err == nil {
		t.Error("Expected error for empty translation")
	}
	if _, err := translator.Translate(context.Background(), "  "); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestTranslate_Integration(t *testing.T) {
	// Skip if no API key
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	translator := NewTranslator(apiKey, "Finnish")

	translation, err := translator.Translate(context.Background(), "minä puhun")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translation == "" {
		t.Error("Got empty translation")
	}

	t.Logf("Translation of 'minä puhun': %s", translation)
}

func TestTranslationCache(t *testing.T) {
	cache := NewTranslationCache()

	// Test empty cache
	if _, ok := cache.Get("puhun"); ok {
		t.Error("Expected cache miss for non-existent key")
	}

	// Test Add and Get
	cache.Add("puhun", "I speak")
	translation, ok := cache.Get("puhun")
	if !ok {
		t.Error("Expected cache hit after adding")
	}
	if translation != "I speak" {
		t.Errorf("Expected 'I speak', got '%s'", translation)
	}
}
