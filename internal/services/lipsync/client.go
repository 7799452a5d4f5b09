// Package lipsync aligns a generated video's mouth movement with the
// voiceover track through the Sync.so generation API. Inputs must be publicly
// reachable URLs, so local videos go through the filehost first.
package lipsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/services"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 10 * time.Second
	defaultMaxWait      = 30 * time.Minute
)

// Job states reported by the Sync.so API.
const (
	statePending    = "PENDING"
	stateProcessing = "PROCESSING"
	stateCompleted  = "COMPLETED"
	stateFailed     = "FAILED"
	stateRejected   = "REJECTED"
)

// Config carries the lip-sync endpoint settings.
type Config struct {
	APIKey              string
	BaseURL             string
	Model               string
	SyncMode            string
	PollIntervalSeconds int
	MaxWaitSeconds      int
}

// Client submits lip-sync jobs and polls them to completion.
type Client struct {
	cfg        Config
	httpClient *http.Client

	pollInterval time.Duration
	maxWait      time.Duration
	sleeper      func(context.Context, time.Duration) error
	now          func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPollInterval overrides the polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithMaxWait overrides the total polling budget.
func WithMaxWait(budget time.Duration) Option {
	return func(c *Client) {
		if budget > 0 {
			c.maxWait = budget
		}
	}
}

// WithSleeper overrides how poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a lip-sync client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:   strings.TrimSpace(cfg.APIKey),
			BaseURL:  strings.TrimSpace(cfg.BaseURL),
			Model:    strings.TrimSpace(cfg.Model),
			SyncMode: strings.TrimSpace(cfg.SyncMode),
		},
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval: defaultPollInterval,
		maxWait:      defaultMaxWait,
		now:          time.Now,
	}
	if cfg.PollIntervalSeconds > 0 {
		client.pollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second
	}
	if cfg.MaxWaitSeconds > 0 {
		client.maxWait = time.Duration(cfg.MaxWaitSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.sync.so"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "lipsync-2"
	}
	if client.cfg.SyncMode == "" {
		client.cfg.SyncMode = "cut_off"
	}
	return client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Input   []generateInput `json:"input"`
	Options generateOptions `json:"options"`
}

type generateInput struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type generateOptions struct {
	SyncMode string `json:"sync_mode"`
}

type jobStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	OutputURL string `json:"outputUrl"`
	Error     string `json:"error"`
}

// Sync submits a lip-sync job for the given video and audio URLs and waits
// for the synced output URL.
func (c *Client) Sync(ctx context.Context, videoURL, audioURL string) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	audioURL = strings.TrimSpace(audioURL)
	if videoURL == "" || audioURL == "" {
		return "", errors.New("lipsync: video and audio urls required")
	}
	if strings.HasPrefix(videoURL, "file://") || strings.HasPrefix(audioURL, "file://") {
		return "", errors.New("lipsync: inputs must be remote urls, upload local files first")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("lipsync: api key required")
	}

	payload := generateRequest{
		Model: c.cfg.Model,
		Input: []generateInput{
			{Type: "video", URL: videoURL},
			{Type: "audio", URL: audioURL},
		},
		Options: generateOptions{SyncMode: c.cfg.SyncMode},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("lipsync: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v2/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("lipsync: new request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	job, err := c.doJobRequest(req)
	if err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", errors.New("lipsync: submit returned no job id")
	}
	return c.waitForJob(ctx, job.ID)
}

func (c *Client) waitForJob(ctx context.Context, jobID string) (string, error) {
	deadline := c.now().Add(c.maxWait)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			strings.TrimRight(c.cfg.BaseURL, "/")+"/v2/generate/"+jobID, nil)
		if err != nil {
			return "", fmt.Errorf("lipsync poll: new request: %w", err)
		}
		req.Header.Set("x-api-key", c.cfg.APIKey)

		job, err := c.doJobRequest(req)
		if err != nil {
			return "", err
		}
		switch job.Status {
		case stateCompleted:
			if job.OutputURL == "" {
				return "", errors.New("lipsync poll: job completed without output url")
			}
			return job.OutputURL, nil
		case stateFailed, stateRejected:
			msg := job.Error
			if msg == "" {
				msg = "no failure detail"
			}
			return "", fmt.Errorf("lipsync poll: job %s %s: %s", jobID, strings.ToLower(job.Status), msg)
		case statePending, stateProcessing, "":
			// still running
		default:
			return "", fmt.Errorf("lipsync poll: job %s in unknown state %q", jobID, job.Status)
		}

		if c.now().Add(c.pollInterval).After(deadline) {
			return "", fmt.Errorf("lipsync poll: job %s did not finish within %s: %w", jobID, c.maxWait, services.ErrTimeout)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
	}
}

func (c *Client) doJobRequest(req *http.Request) (*jobStatus, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lipsync: http error: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lipsync: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("lipsync: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var job jobStatus
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("lipsync: decode response: %w", err)
	}
	return &job, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if c.sleeper != nil {
		return c.sleeper(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
