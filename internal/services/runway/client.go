// Package runway drives the Runway image-to-video API. Unlike the remote
// Kling flow, Runway clips are short fixed-length segments, so callers chain
// several tasks together and stitch the results locally.
package runway

import (
	"bytes"
	"context"
	"encoding/base64"
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
	apiVersion          = "2024-11-06"
)

// Task states reported by the Runway API.
const (
	statePending   = "PENDING"
	stateThrottled = "THROTTLED"
	stateRunning   = "RUNNING"
	stateSucceeded = "SUCCEEDED"
	stateFailed    = "FAILED"
)

// ratioByAspect maps friendly aspect names to the pixel ratios Runway accepts.
var ratioByAspect = map[string]string{
	"16:9": "1280:720",
	"9:16": "720:1280",
	"1:1":  "960:960",
	"4:3":  "1104:832",
	"3:4":  "832:1104",
	"21:9": "1584:672",
}

var supportedModels = map[string]bool{
	"gen3a_turbo": true,
	"gen4_turbo":  true,
}

// Config carries the Runway endpoint settings.
type Config struct {
	APIKey              string
	BaseURL             string
	Model               string
	PollIntervalSeconds int
	MaxWaitSeconds      int
}

// Client submits image-to-video tasks and polls them to completion.
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

// NewClient constructs a Runway client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Model:   strings.TrimSpace(cfg.Model),
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
		client.cfg.BaseURL = "https://api.dev.runwayml.com/v1"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "gen4_turbo"
	}
	return client
}

// Segment describes one completed clip.
type Segment struct {
	TaskID   string
	VideoURL string
}

// ImageToVideo submits an image-to-video task and waits for the rendered
// segment. aspect is a friendly name like "9:16"; duration must be 5 or 10.
func (c *Client) ImageToVideo(ctx context.Context, imageBytes []byte, prompt, aspect string, durationSeconds int) (*Segment, error) {
	if len(imageBytes) == 0 {
		return nil, errors.New("runway image2video: image required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("runway image2video: api key required")
	}
	if !supportedModels[c.cfg.Model] {
		return nil, fmt.Errorf("runway image2video: unsupported model %q", c.cfg.Model)
	}
	if durationSeconds != 5 && durationSeconds != 10 {
		return nil, fmt.Errorf("runway image2video: duration must be 5 or 10 seconds, got %d", durationSeconds)
	}
	ratio, ok := ratioByAspect[strings.TrimSpace(aspect)]
	if !ok {
		return nil, fmt.Errorf("runway image2video: unsupported aspect %q", aspect)
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"promptImage": "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes),
		"promptText":  strings.TrimSpace(prompt),
		"ratio":       ratio,
		"duration":    durationSeconds,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("runway image2video: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/image_to_video", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("runway image2video: new request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runway image2video: http error: %w", err)
	}
	payload, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("runway image2video: read body: %w", readErr)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("runway image2video: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var submitted struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return nil, fmt.Errorf("runway image2video: decode response: %w", err)
	}
	if submitted.ID == "" {
		return nil, errors.New("runway image2video: submit returned no task id")
	}
	return c.waitForTask(ctx, submitted.ID)
}

type taskStatus struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
}

func (c *Client) waitForTask(ctx context.Context, taskID string) (*Segment, error) {
	deadline := c.now().Add(c.maxWait)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			strings.TrimRight(c.cfg.BaseURL, "/")+"/tasks/"+taskID, nil)
		if err != nil {
			return nil, fmt.Errorf("runway poll: new request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("runway poll: http error: %w", err)
		}
		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("runway poll: read body: %w", readErr)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("runway poll: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		}
		var task taskStatus
		if err := json.Unmarshal(payload, &task); err != nil {
			return nil, fmt.Errorf("runway poll: decode response: %w", err)
		}

		switch task.Status {
		case stateSucceeded:
			if len(task.Output) == 0 || task.Output[0] == "" {
				return nil, errors.New("runway poll: task succeeded without output")
			}
			return &Segment{TaskID: taskID, VideoURL: task.Output[0]}, nil
		case stateFailed:
			msg := task.Failure
			if msg == "" {
				msg = "no failure detail"
			}
			return nil, fmt.Errorf("runway poll: task %s failed: %s", taskID, msg)
		case statePending, stateThrottled, stateRunning, "":
			// still running
		default:
			return nil, fmt.Errorf("runway poll: task %s in unknown state %q", taskID, task.Status)
		}

		if c.now().Add(c.pollInterval).After(deadline) {
			return nil, fmt.Errorf("runway poll: task %s did not finish within %s: %w", taskID, c.maxWait, services.ErrTimeout)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Runway-Version", apiVersion)
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
