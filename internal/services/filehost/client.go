// Package filehost uploads local media to a temporary public file host so
// that services requiring remote URLs can read them.
package filehost

import (
	"bytes"
	"context"
	"encoding/json"
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

const defaultHTTPTimeout = 300 * time.Second

// Config carries the upload endpoint settings.
type Config struct {
	UploadURL      string
	TimeoutSeconds int
}

// Client uploads files and returns their public URLs.
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

// NewClient constructs a file host client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        Config{UploadURL: strings.TrimSpace(cfg.UploadURL)},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.UploadURL == "" {
		client.cfg.UploadURL = "https://uguu.se/upload"
	}
	return client
}

type uploadResponse struct {
	Success bool `json:"success"`
	Files   []struct {
		URL string `json:"url"`
	} `json:"files"`
	Description string `json:"description"`
}

// Upload sends path to the file host and returns the resulting public URL.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("filehost upload: open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files[]", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("filehost upload: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("filehost upload: copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("filehost upload: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("filehost upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("filehost upload: http error: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("filehost upload: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("filehost upload: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded uploadResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("filehost upload: decode response: %w", err)
	}
	if !decoded.Success {
		msg := decoded.Description
		if msg == "" {
			msg = "upload rejected"
		}
		return "", fmt.Errorf("filehost upload: %s", msg)
	}
	if len(decoded.Files) == 0 || decoded.Files[0].URL == "" {
		return "", errors.New("filehost upload: response contains no file url")
	}
	return decoded.Files[0].URL, nil
}
