// Package imagegen renders prompt text into artwork frames through an
// OpenAI-compatible image endpoint. A reference image switches the call to
// the multipart edits form so generated artwork stays visually consistent
// with the brand character.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 180 * time.Second
	defaultSize        = "1024x1792"
)

// Config carries the image endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	TimeoutSeconds int
}

// Client generates still images from text prompts.
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

// NewClient constructs an image generation client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(cfg.BaseURL),
			Model:   strings.TrimSpace(cfg.Model),
			Size:    strings.TrimSpace(cfg.Size),
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1/images/generations"
	}
	if client.cfg.Size == "" {
		client.cfg.Size = defaultSize
	}
	return client
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders a single portrait image and returns the raw PNG bytes.
// When reference is non-empty the request goes to the edits endpoint with
// the reference attached, so the output keeps the reference character.
func (c *Client) Generate(ctx context.Context, prompt string, reference []byte) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("imagegen generate: prompt required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("imagegen generate: api key required")
	}

	var req *http.Request
	var err error
	if len(reference) > 0 {
		req, err = c.newEditRequest(ctx, prompt, reference)
	} else {
		req, err = c.newGenerationRequest(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("imagegen generate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded generationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("imagegen generate: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("imagegen generate: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return nil, errors.New("imagegen generate: empty image data in response")
	}
	image, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: decode image: %w", err)
	}
	return image, nil
}

func (c *Client) newGenerationRequest(ctx context.Context, prompt string) (*http.Request, error) {
	payload := generationRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		N:              1,
		Size:           c.cfg.Size,
		ResponseFormat: "b64_json",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) newEditRequest(ctx context.Context, prompt string, reference []byte) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "reference.png")
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: reference part: %w", err)
	}
	if _, err := part.Write(reference); err != nil {
		return nil, fmt.Errorf("imagegen generate: write reference: %w", err)
	}
	fields := map[string]string{
		"model":           c.cfg.Model,
		"prompt":          prompt,
		"n":               "1",
		"size":            c.cfg.Size,
		"response_format": "b64_json",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("imagegen generate: write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("imagegen generate: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.editsURL(), &body)
	if err != nil {
		return nil, fmt.Errorf("imagegen generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// editsURL derives the image-edit endpoint from the configured generation
// endpoint.
func (c *Client) editsURL() string {
	if strings.HasSuffix(c.cfg.BaseURL, "/generations") {
		return strings.TrimSuffix(c.cfg.BaseURL, "/generations") + "/edits"
	}
	return c.cfg.BaseURL
}
