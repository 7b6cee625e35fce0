package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paper-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-key", 0.2)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = srv.URL
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("  ", 0.2); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"answer": "hi"}`}},
			},
		})
	})

	out, err := client.Generate(context.Background(), "deepseek-r1-distill-llama-70b", []llm.Message{
		{Role: llm.RoleSystem, Content: "respond in JSON"},
		{Role: llm.RoleUser, Content: "question"},
	}, 4096)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"answer": "hi"}` {
		t.Fatalf("output = %q", out)
	}

	if got.Model != "deepseek-r1-distill-llama-70b" {
		t.Fatalf("model = %q", got.Model)
	}
	if got.MaxCompletionTokens != 4096 {
		t.Fatalf("max tokens = %d", got.MaxCompletionTokens)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Fatalf("response format = %q", got.ResponseFormat.Type)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestGenerateRequiresModel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent without a model")
	})
	if _, err := client.Generate(context.Background(), " ", nil, 0); err == nil {
		t.Fatal("expected error for blank model")
	}
}

func TestGenerateAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model decommissioned", "type": "invalid_request_error"},
		})
	})

	_, err := client.Generate(context.Background(), "old-model", nil, 0)
	if err == nil || !strings.Contains(err.Error(), "model decommissioned") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateMissingChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := client.Generate(context.Background(), "m", nil, 0)
	if err == nil || !strings.Contains(err.Error(), "missing choices") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "   "}},
			},
		})
	})

	_, err := client.Generate(context.Background(), "m", nil, 0)
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("err = %v", err)
	}
}
