// Package engine wraps the external code-generation HTTP service.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable covers transport errors, timeouts and non-200 responses
// from the engine. Callers treat all of them as a downstream failure.
var ErrUnavailable = errors.New("engine unavailable")

// Client is a thin HTTP client for the generation engine. One attempt per
// call, bounded by the configured timeout; retrying is left to operators.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// GenerateRequest is the engine's generation payload.
type GenerateRequest struct {
	TaskDescription string `json:"task_description"`
	Language        string `json:"language"`
	ComplexityLevel string `json:"complexity_level"`
}

type generateResponse struct {
	GeneratedCode string `json:"generated_code"`
}

// GenerateCode POSTs a prompt to the engine and returns the generated blob.
func (c *Client) GenerateCode(ctx context.Context, task, language, complexity string) (string, error) {
	body, err := json.Marshal(GenerateRequest{
		TaskDescription: task,
		Language:        language,
		ComplexityLevel: complexity,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-code", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return out.GeneratedCode, nil
}

// Health probes the engine's health endpoint with a short deadline,
// independent of the generation timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
