package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-test",
	}, WithSleeper(func(time.Duration) {}))
	return client, server
}

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestCompleteReturnsContent(t *testing.T) {
	var captured chatCompletionRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("hello world")))
	})

	content, err := client.Complete(context.Background(), Request{
		SystemPrompt: "You are a helper.",
		UserPrompt:   "Say hello.",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "hello world" {
		t.Errorf("content = %q", content)
	}
	if captured.Model != "gpt-test" {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %d", len(captured.Messages))
	}
}

func TestCompleteSendsInlineImage(t *testing.T) {
	var rawBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&rawBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("ok")))
	})

	_, err := client.Complete(context.Background(), Request{
		SystemPrompt: "sys",
		UserPrompt:   "inspect this",
		ImageBytes:   []byte{0x89, 0x50, 0x4e, 0x47},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	messages := rawBody["messages"].([]any)
	user := messages[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok {
		t.Fatalf("user content is not multimodal: %T", user["content"])
	}
	if len(parts) != 2 {
		t.Fatalf("content parts = %d", len(parts))
	}
	image := parts[1].(map[string]any)
	urlField := image["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(urlField, "data:image/png;base64,") {
		t.Errorf("image url = %q", urlField)
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "upstream failure", http.StatusBadGateway)
			return
		}
		w.Write([]byte(completionBody("recovered")))
	})

	content, err := client.Complete(context.Background(), Request{
		SystemPrompt: "sys",
		UserPrompt:   "user",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "recovered" {
		t.Errorf("content = %q", content)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d", attempts)
	}
}

func TestCompleteDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := client.Complete(context.Background(), Request{
		SystemPrompt: "sys",
		UserPrompt:   "user",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d", attempts)
	}
}

func TestCompleteJSONStripsFences(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("```json\n{\"result\":\"Pass\"}\n```")))
	})

	payload, err := client.CompleteJSON(context.Background(), "sys", "user", nil)
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if payload != `{"result":"Pass"}` {
		t.Errorf("payload = %q", payload)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFences(tc.in); got != tc.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var out struct {
		Result string `json:"result"`
	}
	if err := DecodeModelJSON("```json\n{\"result\":\"Fail\"}\n```", &out); err != nil {
		t.Fatalf("DecodeModelJSON: %v", err)
	}
	if out.Result != "Fail" {
		t.Errorf("result = %q", out.Result)
	}
	if err := DecodeModelJSON("not json", &out); err == nil {
		t.Error("expected error for malformed payload")
	}
}
