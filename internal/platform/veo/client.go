package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reeldeck/reeldeck-api/internal/config"
	"github.com/reeldeck/reeldeck-api/internal/generation"
)

// Client implements the generation.VideoGenerator interface using the Veo
// HTTP API.
type Client struct {
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Client from the provider configuration.
// Returns an error if the configuration is incomplete.
func NewClient(logger *slog.Logger, cfg config.ProviderConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: provider base URL cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: provider API key cannot be empty", generation.ErrInvalidConfig)
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		logger:     logger.With(slog.String("component", "veo_client")),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NormalizePrompt rewrites literal \n escape sequences to newlines and trims
// surrounding whitespace. Prompts pasted from other tools frequently carry
// \n as two characters.
func NormalizePrompt(prompt string) string {
	if strings.Contains(prompt, `\n`) {
		prompt = strings.ReplaceAll(prompt, `\n`, "\n")
	}
	return strings.TrimSpace(prompt)
}

// Submit creates one generation task and returns the provider task ID.
//
// Seeds outside [generation.MinSeed, generation.MaxSeed] and non-success
// envelope codes are reported as generation.ErrInvalidRequest; rate-limit
// rejections as generation.ErrRateLimited; anything the client cannot
// interpret as generation.ErrProtocol.
func (c *Client) Submit(ctx context.Context, req generation.SubmissionRequest) (string, error) {
	if req.Seeds != nil && (*req.Seeds < generation.MinSeed || *req.Seeds > generation.MaxSeed) {
		return "", fmt.Errorf("%w: seeds must be between %d and %d",
			generation.ErrInvalidRequest, generation.MinSeed, generation.MaxSeed)
	}

	payload := generateRequest{
		Prompt:            NormalizePrompt(req.Prompt),
		Model:             req.Model,
		AspectRatio:       req.AspectRatio,
		EnableTranslation: req.EnableTranslation,
		GenerationType:    req.GenerationType,
		ImageURLs:         req.ImageURLs,
		Seeds:             req.Seeds,
		Watermark:         req.Watermark,
		CallbackURL:       req.CallbackURL,
	}

	env, err := c.post(ctx, c.baseURL+"/generate", payload)
	if err != nil {
		return "", err
	}

	if env.Code != envelopeSuccessCode {
		if isRateLimitMessage(env.Msg) {
			return "", fmt.Errorf("%w: %s", generation.ErrRateLimited, env.Msg)
		}
		return "", fmt.Errorf("%w: API error %d: %s", generation.ErrInvalidRequest, env.Code, env.Msg)
	}

	var data generateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("%w: malformed generate payload: %v", generation.ErrProtocol, err)
	}

	if data.TaskID == "" {
		return "", fmt.Errorf("%w: generate response carried no task ID", generation.ErrProtocol)
	}

	c.logger.DebugContext(ctx, "generation task created", "task_id", data.TaskID)
	return data.TaskID, nil
}

// QueryStatus reports the state of one generation task.
//
// The provider's tri-state success flag maps to the task states: 1 to
// completed, 0 to processing, anything else to failed with the record's
// error code and message. An envelope whose message names a missing record
// maps to generation.ErrTaskNotReady so callers keep the task outstanding.
func (c *Client) QueryStatus(ctx context.Context, taskID string) (*generation.TaskStatus, error) {
	endpoint := fmt.Sprintf("%s/record-info?taskId=%s", c.baseURL, url.QueryEscape(taskID))

	env, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if env.Code != envelopeSuccessCode {
		if isNotReadyMessage(env.Msg) {
			return nil, fmt.Errorf("%w: %s", generation.ErrTaskNotReady, env.Msg)
		}
		return nil, fmt.Errorf("%w: API error %d: %s", generation.ErrProtocol, env.Code, env.Msg)
	}

	var data recordData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed record payload: %v", generation.ErrProtocol, err)
	}

	switch data.SuccessFlag {
	case successFlagCompleted:
		return &generation.TaskStatus{
			State:      generation.TaskStateCompleted,
			ResultURLs: data.Response.ResultURLs,
			OriginURLs: data.Response.OriginURLs,
			Resolution: data.Response.Resolution,
		}, nil
	case successFlagProcessing:
		return &generation.TaskStatus{State: generation.TaskStateProcessing}, nil
	default:
		return &generation.TaskStatus{
			State:        generation.TaskStateFailed,
			ErrorCode:    data.ErrorCode.String(),
			ErrorMessage: data.ErrorMessage,
		}, nil
	}
}

// post sends a JSON request and decodes the response envelope.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", generation.ErrProtocol, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrProtocol, err)
	}
	return c.do(req)
}

// get sends a GET request and decodes the response envelope.
func (c *Client) get(ctx context.Context, endpoint string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrProtocol, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", generation.ErrProtocol, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: HTTP 429", generation.ErrRateLimited)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", generation.ErrProtocol, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", generation.ErrProtocol, resp.StatusCode, truncate(string(raw), 200))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed response envelope: %v", generation.ErrProtocol, err)
	}

	return &env, nil
}

// isRateLimitMessage reports whether a provider message indicates a
// request-rate rejection.
func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests")
}

// isNotReadyMessage reports whether a provider message indicates the task
// record has not materialized yet.
func isNotReadyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "record is null") ||
		strings.Contains(lower, "not found")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
