package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateDecodesImage(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a}
	var captured generationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(raw)}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "gpt-image-1"})
	image, err := client.Generate(context.Background(), "a neon city at dusk", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(image) != string(raw) {
		t.Errorf("image bytes mismatch")
	}
	if captured.Size != defaultSize {
		t.Errorf("size = %q", captured.Size)
	}
	if captured.N != 1 {
		t.Errorf("n = %d", captured.N)
	}
}

func TestGenerateWithReferenceUsesEditsForm(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	reference := []byte("reference-bytes")
	var gotPath string
	var gotPrompt string
	var gotReference []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotPrompt = r.FormValue("prompt")
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		gotReference, err = io.ReadAll(file)
		if err != nil {
			t.Fatalf("read reference: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(raw)}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL + "/v1/images/generations", Model: "gpt-image-1"})
	image, err := client.Generate(context.Background(), "the same character on a cliff", reference)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(image) != string(raw) {
		t.Errorf("image bytes mismatch")
	}
	if gotPath != "/v1/images/edits" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPrompt != "the same character on a cliff" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	if string(gotReference) != string(reference) {
		t.Errorf("reference bytes mismatch")
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	client := NewClient(Config{APIKey: "key"})
	if _, err := client.Generate(context.Background(), "   ", nil); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "content policy violation"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	if _, err := client.Generate(context.Background(), "prompt", nil); err == nil {
		t.Error("expected error for http 400")
	}
}
