package reason

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestOpenAIEngine_Evaluate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: `{"support_confidence": 0.8}`,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	engine, err := NewOpenAIEngine(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	raw, err := engine.Evaluate(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if raw != `{"support_confidence": 0.8}` {
		t.Errorf("Unexpected response: %s", raw)
	}
}

func TestOpenAIEngine_Evaluate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	engine, err := NewOpenAIEngine(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if _, err := engine.Evaluate(context.Background(), "test prompt"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIEngine_Evaluate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-123"})
	}))
	defer server.Close()

	engine, err := NewOpenAIEngine(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if _, err := engine.Evaluate(context.Background(), "test prompt"); err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestNewOpenAIEngine_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIEngine(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestNewEngine_ProviderDispatch(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"openai", "openai", false},
		{"anthropic", "anthropic", false},
		{"claude", "anthropic", false},
		{"ollama", "ollama", false},
		{"OpenAI", "openai", false},
		{"gemini", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			engine, err := NewEngine(Config{Provider: tt.provider, APIKey: "test-key"})
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error for unknown provider")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngine failed: %v", err)
			}
			if engine.Name() != tt.wantName {
				t.Errorf("Expected engine %s, got %s", tt.wantName, engine.Name())
			}
		})
	}
}
