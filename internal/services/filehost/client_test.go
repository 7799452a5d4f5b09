package filehost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake-video"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestUploadReturnsURL(t *testing.T) {
	var gotName string
	var gotBytes []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("files[]")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		gotName = header.Filename
		gotBytes, _ = io.ReadAll(file)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"files":   []map[string]string{{"url": "https://files.example/abc/clip.mp4"}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{UploadURL: server.URL})
	url, err := client.Upload(context.Background(), writeFixture(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://files.example/abc/clip.mp4" {
		t.Errorf("url = %q", url)
	}
	if gotName != "clip.mp4" {
		t.Errorf("filename = %q", gotName)
	}
	if string(gotBytes) != "fake-video" {
		t.Error("uploaded bytes mismatch")
	}
}

func TestUploadSurfacesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":     false,
			"description": "file type not allowed",
		})
	}))
	defer server.Close()

	client := NewClient(Config{UploadURL: server.URL})
	_, err := client.Upload(context.Background(), writeFixture(t))
	if err == nil || !strings.Contains(err.Error(), "file type not allowed") {
		t.Errorf("err = %v", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Upload(context.Background(), "/nonexistent/clip.mp4"); err == nil {
		t.Error("expected error for missing file")
	}
}
