package gemini

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

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/neocube/neocube-backend/internal/platform/envutil"
	"github.com/neocube/neocube-backend/internal/platform/httpx"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/"
	defaultModel    = "gemini-2.5-flash"
)

type Config struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL; empty uses the public v1beta endpoint.
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("GEMINI_API_KEY", ""),
		Model:      envutil.String("GEMINI_MODEL", defaultModel),
		Endpoint:   envutil.String("GEMINI_ENDPOINT", ""),
		Timeout:    time.Duration(envutil.Int("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries: envutil.Int("GEMINI_MAX_RETRIES", 2),
	}
}

type Client struct {
	log        *logger.Logger
	httpClient *http.Client
	endpoint   string
	model      string
	timeout    time.Duration
	maxRetries int
}

// NewClient builds an API-key authenticated client for the generateContent REST method.
func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	hc, endpoint, err := htransport.NewClient(ctx,
		option.WithAPIKey(cfg.APIKey),
		option.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini transport: %w", err)
	}
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	return &Client{
		log:        log.With("client", "GeminiClient"),
		httpClient: hc,
		endpoint:   strings.TrimRight(endpoint, "/") + "/",
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *content `json:"content"`
		FinishReason string   `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

// Generate sends prompt as a single user turn and concatenates the text parts of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	req := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}

	var resp generateResponse
	if err := c.do(ctx, "models/"+c.model+":generateContent", &req, &resp); err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	c.log.Debug("Gemini generation done", "model", c.model, "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func candidateText(resp generateResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (c *Client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	if err := googleapi.CheckResponseWithBody(resp, raw); err != nil {
		return resp, raw, err
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, path string, body, out any) error {
	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w", uErr)
			}
			return nil
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			return fmt.Errorf("gemini generate: %w", err)
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Gemini request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep_ms", sleepFor.Milliseconds(),
			"error", err,
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("gemini generate: retries exhausted")
}

func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return httpx.IsRetryableHTTPStatus(gerr.Code)
	}
	return httpx.IsRetryableError(err)
}
