// Package ollama implements the extraction and answer collaborators against
// a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shubham-Nemade-24/certagent/internal/llm"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "mistral"
	DefaultTimeout = 120 * time.Second
)

// Config holds the Ollama generation settings.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client calls the Ollama generate API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

var (
	_ llm.RecordExtractor = (*Client)(nil)
	_ llm.Answerer        = (*Client)(nil)
)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// ExtractRecord asks the model for the 9-field row over the full document
// context. The raw response is returned untouched; validation and archiving
// happen downstream.
func (c *Client) ExtractRecord(ctx context.Context, contextText string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"context_len", len(contextText),
	)

	out, err := c.generate(ctx, llm.BuildExtractionPrompt(contextText))
	if err != nil {
		c.log.Error("llm.extract.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("model invocation failed: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Answer answers a question over retrieved context.
func (c *Client) Answer(ctx context.Context, contextText, question string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("llm.answer.start", "req_id", rid, "model", c.cfg.Model, "question_len", len(question))

	out, err := c.generate(ctx, llm.BuildAnswerPrompt(contextText, question))
	if err != nil {
		c.log.Error("llm.answer.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("model invocation failed: %w", err)
	}
	c.log.Info("llm.answer.ok", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(out), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
	}
	if c.cfg.Temperature > 0 {
		body.Options = map[string]any{"temperature": c.cfg.Temperature}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("ollama response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, buf.String())
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Response, nil
}
