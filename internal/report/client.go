// SPDX-License-Identifier: MIT
/*
Package report sends a captured vocal clip, the session's spectrogram
still, and the summarized metrics to a multimodal chat-completion
endpoint and returns the model's qualitative feedback as prose.

The client is a thin adapter: it does not retry, queue, or interpret
the response beyond unwrapping it. Callers decide whether a failed
report is worth repeating.
*/
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vocalscope/internal/analysis"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "voice-coach"
	defaultTimeout = 60 * time.Second
)

const systemPrompt = "You are a vocal coach reviewing a short recorded take. " +
	"You receive the recording as a WAV attachment, a spectrogram image of the take, " +
	"and summary metrics (pitch in Hz, volume in dBFS, clarity 0-1). " +
	"Give concise, encouraging, technically grounded feedback on pitch stability, " +
	"breath support, and resonance. Plain prose only, no lists, under 200 words."

// Client talks to an Ollama-compatible /api/chat endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Summary carries the session-level numbers included with the clip.
type Summary struct {
	Metrics  analysis.Metrics
	Duration time.Duration
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// NewClient creates a report client. Empty baseURL or model fall back
// to the local Ollama defaults; a timeout <= 0 defaults to 60s, sized
// for multimodal inference rather than a plain HTTP round trip.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Analyze posts the clip and spectrogram and returns the model's prose
// report. wavData is a complete WAV file; pngData is the exported
// spectrogram still and may be nil when no still is available.
func (c *Client) Analyze(ctx context.Context, wavData, pngData []byte, summary Summary) (string, error) {
	if len(wavData) == 0 {
		return "", fmt.Errorf("report: no clip data to analyze")
	}

	images := []string{base64.StdEncoding.EncodeToString(wavData)}
	if len(pngData) > 0 {
		images = append(images, base64.StdEncoding.EncodeToString(pngData))
	}

	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{
				Role:    "user",
				Content: formatSummary(summary),
				Images:  images,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("report: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("report: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("report: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("report: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("report: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("report: %s", parsed.Error)
	}

	text := strings.TrimSpace(parsed.Message.Content)
	if text == "" {
		return "", fmt.Errorf("report: empty response")
	}
	return text, nil
}

func formatSummary(s Summary) string {
	return fmt.Sprintf(
		"Take length: %.1fs. Final metrics: pitch %.1f Hz, volume %.1f dBFS, clarity %.2f.",
		s.Duration.Seconds(), s.Metrics.Pitch, s.Metrics.Volume, s.Metrics.Clarity)
}
