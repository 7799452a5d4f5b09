// Package transcribe turns voiceover audio into SRT subtitles through an
// OpenAI-compatible Whisper transcription endpoint.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout  = 300 * time.Second
	defaultMaxUploadMiB = 25
)

// Config carries the transcription endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	MaxUploadMiB   int
	TimeoutSeconds int
}

// Client transcribes audio files into subtitle text.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:       strings.TrimSpace(cfg.APIKey),
			BaseURL:      strings.TrimSpace(cfg.BaseURL),
			Model:        strings.TrimSpace(cfg.Model),
			Language:     strings.TrimSpace(cfg.Language),
			MaxUploadMiB: cfg.MaxUploadMiB,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1/audio/transcriptions"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "whisper-1"
	}
	if client.cfg.MaxUploadMiB <= 0 {
		client.cfg.MaxUploadMiB = defaultMaxUploadMiB
	}
	return client
}

// TranscribeToSRT uploads audioPath and returns the subtitle body in SRT form.
// Files above the configured upload ceiling are rejected before any network
// traffic happens.
func (c *Client) TranscribeToSRT(ctx context.Context, audioPath string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("transcribe: api key required")
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: stat audio: %w", err)
	}
	maxBytes := int64(c.cfg.MaxUploadMiB) * 1024 * 1024
	if info.Size() > maxBytes {
		return "", fmt.Errorf("transcribe: audio file %s is %d bytes, above the %d MiB upload limit",
			filepath.Base(audioPath), info.Size(), c.cfg.MaxUploadMiB)
	}

	audio, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open audio: %w", err)
	}
	defer audio.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("transcribe: copy audio: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if err := writer.WriteField("response_format", "srt"); err != nil {
		return "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if c.cfg.Language != "" {
		if err := writer.WriteField("language", c.cfg.Language); err != nil {
			return "", fmt.Errorf("transcribe: build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: http error: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("transcribe: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	srt := strings.TrimSpace(string(payload))
	if srt == "" {
		return "", errors.New("transcribe: empty transcription")
	}
	return srt, nil
}
