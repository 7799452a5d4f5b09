// Package kling drives the Kling image-to-video and video-extension APIs.
// Requests authenticate with short-lived HS256 tokens minted from the
// configured access and secret key pair.
package kling

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

	"github.com/golang-jwt/jwt/v5"

	"reelforge/internal/services"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 10 * time.Second
	defaultMaxWait      = 30 * time.Minute
	tokenLifetime       = 30 * time.Minute
	tokenNotBeforeSkew  = 5 * time.Second
)

// Task states reported by the Kling API.
const (
	stateSubmitted  = "submitted"
	stateProcessing = "processing"
	stateSucceed    = "succeed"
	stateFailed     = "failed"
)

// Config carries the Kling endpoint settings.
type Config struct {
	AccessKey           string
	SecretKey           string
	BaseURL             string
	Model               string
	PollIntervalSeconds int
	MaxWaitSeconds      int
}

// Client submits video generation tasks and polls them to completion.
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

// NewClient constructs a Kling client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			AccessKey: strings.TrimSpace(cfg.AccessKey),
			SecretKey: strings.TrimSpace(cfg.SecretKey),
			BaseURL:   strings.TrimSpace(cfg.BaseURL),
			Model:     strings.TrimSpace(cfg.Model),
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
		client.cfg.BaseURL = "https://api-singapore.klingai.com/v1"
	}
	return client
}

// Result describes a completed generation task.
type Result struct {
	TaskID   string
	VideoID  string
	VideoURL string
	Duration string
}

// ImageToVideo submits an image-to-video task and waits for the rendered clip.
func (c *Client) ImageToVideo(ctx context.Context, imageBytes []byte, prompt string, durationSeconds int) (*Result, error) {
	if len(imageBytes) == 0 {
		return nil, errors.New("kling image2video: image required")
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if durationSeconds <= 0 {
		durationSeconds = 10
	}

	body := map[string]any{
		"model_name": c.cfg.Model,
		"image":      base64.StdEncoding.EncodeToString(imageBytes),
		"prompt":     strings.TrimSpace(prompt),
		"duration":   fmt.Sprintf("%d", durationSeconds),
		"mode":       "std",
	}
	taskID, err := c.submit(ctx, "/videos/image2video", body)
	if err != nil {
		return nil, err
	}
	return c.waitForTask(ctx, "/videos/image2video/"+taskID, taskID)
}

// ExtendVideo submits a video-extension task against a previously generated
// video id and waits for the extended clip.
func (c *Client) ExtendVideo(ctx context.Context, videoID, prompt string) (*Result, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.New("kling extend: video id required")
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"video_id": videoID,
		"prompt":   strings.TrimSpace(prompt),
	}
	taskID, err := c.submit(ctx, "/videos/video-extend", body)
	if err != nil {
		return nil, err
	}
	return c.waitForTask(ctx, "/videos/video-extend/"+taskID, taskID)
}

func (c *Client) checkCredentials() error {
	if c.cfg.AccessKey == "" || c.cfg.SecretKey == "" {
		return errors.New("kling: access key and secret key required")
	}
	return nil
}

// bearerToken mints a fresh HS256 JWT for a single request.
func (c *Client) bearerToken() (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"iss": c.cfg.AccessKey,
		"exp": now.Add(tokenLifetime).Unix(),
		"nbf": now.Add(-tokenNotBeforeSkew).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("kling: sign token: %w", err)
	}
	return signed, nil
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type taskData struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	TaskResult    struct {
		Videos []struct {
			ID       string `json:"id"`
			URL      string `json:"url"`
			Duration string `json:"duration"`
		} `json:"videos"`
	} `json:"task_result"`
}

func (c *Client) submit(ctx context.Context, path string, body map[string]any) (string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", err
	}
	var task taskData
	if err := json.Unmarshal(data, &task); err != nil {
		return "", fmt.Errorf("kling: decode task: %w", err)
	}
	if task.TaskID == "" {
		return "", errors.New("kling: submit returned no task id")
	}
	return task.TaskID, nil
}

func (c *Client) waitForTask(ctx context.Context, pollPath, taskID string) (*Result, error) {
	deadline := c.now().Add(c.maxWait)
	for {
		data, err := c.doRequest(ctx, http.MethodGet, pollPath, nil)
		if err != nil {
			return nil, err
		}
		var task taskData
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, fmt.Errorf("kling: decode task: %w", err)
		}
		switch task.TaskStatus {
		case stateSucceed:
			if len(task.TaskResult.Videos) == 0 {
				return nil, errors.New("kling: task succeeded without videos")
			}
			video := task.TaskResult.Videos[0]
			return &Result{
				TaskID:   taskID,
				VideoID:  video.ID,
				VideoURL: video.URL,
				Duration: video.Duration,
			}, nil
		case stateFailed:
			msg := task.TaskStatusMsg
			if msg == "" {
				msg = "no failure detail"
			}
			return nil, fmt.Errorf("kling: task %s failed: %s", taskID, msg)
		case stateSubmitted, stateProcessing, "":
			// still running
		default:
			return nil, fmt.Errorf("kling: task %s in unknown state %q", taskID, task.TaskStatus)
		}

		if c.now().Add(c.pollInterval).After(deadline) {
			return nil, fmt.Errorf("kling: task %s did not finish within %s: %w", taskID, c.maxWait, services.ErrTimeout)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body map[string]any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("kling: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("kling: new request: %w", err)
	}
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kling: http error: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kling: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("kling: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded apiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("kling: decode response: %w", err)
	}
	if decoded.Code != 0 {
		return nil, fmt.Errorf("kling: api error %d: %s", decoded.Code, strings.TrimSpace(decoded.Message))
	}
	return decoded.Data, nil
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
