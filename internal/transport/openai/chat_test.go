package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
)

// completionResponse mirrors the OpenAI-compatible chat completion response.
type completionResponse struct {
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func completionServer(t *testing.T, reply string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if capture != nil {
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, capture)
		}

		resp := completionResponse{Object: "chat.completion", Model: "test-model"}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = reply
		resp.Choices[0].FinishReason = "stop"
		resp.Usage.PromptTokens = 12
		resp.Usage.CompletionTokens = 3
		resp.Usage.TotalTokens = 15

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestChat_Complete(t *testing.T) {
	var captured map[string]any
	server := completionServer(t, "Dr Smith is well reviewed.", &captured)
	defer server.Close()

	chat := NewChat(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	reply, err := chat.Complete(context.Background(), domain.CompletionRequest{
		Turns: []domain.Turn{
			{Role: domain.RoleSystem, Content: "You are helpful."},
			{Role: domain.RoleUser, Content: "How is Dr Smith?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Dr Smith is well reviewed." {
		t.Errorf("reply = %q", reply)
	}

	msgs, ok := captured["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v", captured["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("first role = %v", first["role"])
	}
}

func TestChat_ZeroTemperatureIsSent(t *testing.T) {
	var captured map[string]any
	server := completionServer(t, "ok", &captured)
	defer server.Close()

	chat := NewChat(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Logger: zap.NewNop()})
	if _, err := chat.Complete(context.Background(), domain.CompletionRequest{
		Turns: []domain.Turn{{Role: domain.RoleUser, Content: "q"}},
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	temp, ok := captured["temperature"].(float64)
	if !ok {
		t.Fatal("temperature missing from request body")
	}
	if temp > 1e-6 {
		t.Errorf("temperature = %v, want near zero", temp)
	}
}

func TestChat_JSONOnlySetsResponseFormat(t *testing.T) {
	var captured map[string]any
	server := completionServer(t, `{"entity":"Smith"}`, &captured)
	defer server.Close()

	chat := NewChat(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Logger: zap.NewNop()})
	if _, err := chat.Complete(context.Background(), domain.CompletionRequest{
		Turns:    []domain.Turn{{Role: domain.RoleUser, Content: "q"}},
		JSONOnly: true,
		Op:       "filter",
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	format, ok := captured["response_format"].(map[string]any)
	if !ok || format["type"] != "json_object" {
		t.Errorf("response_format = %v", captured["response_format"])
	}
}

func TestChat_APIErrorWrapsGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream down", "type": "server_error"},
		})
	}))
	defer server.Close()

	chat := NewChat(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Logger: zap.NewNop()})
	_, err := chat.Complete(context.Background(), domain.CompletionRequest{
		Turns: []domain.Turn{{Role: domain.RoleUser, Content: "q"}},
	})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
}
