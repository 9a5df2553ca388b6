package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analyzer.go -package=mocks mistakevault/internal/llm Analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"mistakevault/internal/storage"
)

// DefaultTimeout bounds a single analysis request.
const DefaultTimeout = 120 * time.Second

const analysisTemperature = 0.1

const analysisPrompt = `Analyze this math problem image. You must respond with ONLY valid JSON, no other text.

{
    "question_text": "The verbatim text of the question",
    "topic_tag": "NSW Curriculum topic (e.g., 'Stage 3 Fractions')",
    "calculated_answer": "The final numeric or short answer only (e.g., '24', '1/2', 'C')",
    "logic_template": "The problem rewritten with variables",
    "reasoning_steps": "Brief step-by-step logic"
}

Important: For multiple choice, put just the letter (A, B, C, or D) in calculated_answer.`

// Analyzer turns a question image into a structured analysis.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (storage.Analysis, error)
}

// Client talks to an Ollama-compatible vision model server.
type Client struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client = &http.Client{Timeout: d}
	}
}

// NewClient creates a new vision client.
func NewClient(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze sends the image to the model and parses its answer.
// Transport failures and non-200 responses are errors. A reply that does not contain
// usable JSON is not an error: it comes back as a fallback analysis with an empty answer.
func (c *Client) Analyze(ctx context.Context, imagePath string) (storage.Analysis, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return storage.Analysis{}, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	text, err := c.Generate(ctx, analysisPrompt, image)
	if err != nil {
		return storage.Analysis{}, err
	}

	return ParseAnalysis(text), nil
}

// Generate runs a single non-streaming completion with optional images and returns the
// model's response text.
func (c *Client) Generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	url := fmt.Sprintf("%s/api/generate", c.BaseURL)

	payload := GenerateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
		Options: GenerateOptions{
			Temperature: analysisTemperature,
		},
	}
	for _, img := range images {
		payload.Images = append(payload.Images, base64.StdEncoding.EncodeToString(img))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return genResp.Response, nil
}

// ModelAvailable reports whether the configured model is installed on the server.
// A bare model name matches any tag of it ("llama3.2-vision" matches "llama3.2-vision:latest").
func (c *Client) ModelAvailable(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/api/tags", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach model server: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("failed to decode tags: %w", err)
	}

	for _, m := range tags.Models {
		for _, name := range []string{m.Name, m.Model} {
			if name == c.Model || strings.HasPrefix(name, c.Model+":") {
				return true, nil
			}
		}
	}
	return false, nil
}
