package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelforge/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Storage directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s, got %#v", dir, result)
	}

	missing := CheckDirectoryAccess("Storage directory", dir+"/nope")
	if missing.Passed {
		t.Fatalf("expected failure for missing dir, got %#v", missing)
	}
}

func TestCheckKey(t *testing.T) {
	if r := CheckKey("Speech key", "abc"); !r.Passed {
		t.Fatalf("expected pass, got %#v", r)
	}
	if r := CheckKey("Speech key", ""); r.Passed || r.Detail == "" {
		t.Fatalf("expected failure with detail, got %#v", r)
	}
}

func TestCheckLLMReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.LLM.BaseURL = server.URL

	result := CheckLLM(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got %#v", result)
	}
}

func TestRunAllReportsProviderKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.APIKey = ""
	cfg.Runway.APIKey = ""

	var providerResult *Result
	for _, result := range RunAll(context.Background(), cfg) {
		if result.Name == "Video provider keys" {
			r := result
			providerResult = &r
		}
	}
	if providerResult == nil {
		t.Fatal("provider key check missing")
	}
	if !providerResult.Passed || providerResult.Detail != "kling configured" {
		t.Fatalf("unexpected provider result: %#v", providerResult)
	}
}
