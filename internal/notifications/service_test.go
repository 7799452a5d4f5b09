package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunCompleted(context.Background(), "lighthouse", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "run started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunStarted(context.Background(), 3, "lighthouse")
			},
			expectTitle:   "ReelForge - Run Started",
			expectMessage: "Started run #3: lighthouse",
			expectTags:    "reelforge,run,started",
		},
		{
			name: "run completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunCompleted(context.Background(), "lighthouse", 95*time.Second)
			},
			expectTitle:    "ReelForge - Run Complete",
			expectMessage:  "🎬 Video ready: lighthouse (1m35s)",
			expectTags:     "reelforge,run,completed",
			expectPriority: "high",
		},
		{
			name: "run failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunFailed(context.Background(), "lighthouse", "video_generation", "provider timeout")
			},
			expectTitle:    "ReelForge - Run Failed",
			expectMessage:  "❌ Run failed: lighthouse\nStage: video_generation\nReason: provider timeout",
			expectTags:     "reelforge,run,failed",
			expectPriority: "high",
		},
		{
			name: "batch completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), 4, 0, 10*time.Minute)
			},
			expectTitle:   "ReelForge - Batch Complete",
			expectMessage: "Batch complete: 4 videos produced in 10m0s",
			expectTags:    "reelforge,batch,completed",
		},
		{
			name: "batch completed with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), 3, 1, 10*time.Minute)
			},
			expectTitle:   "ReelForge - Batch Complete (with errors)",
			expectMessage: "Batch complete: 3 succeeded, 1 failed in 10m0s",
			expectTags:    "reelforge,batch,completed",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("disk full"), "batch")
			},
			expectTitle:    "ReelForge - Error",
			expectMessage:  "❌ Error with batch: disk full",
			expectTags:     "reelforge,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
