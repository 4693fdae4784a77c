// Package huggingface talks to the Hugging Face Inference API text-to-image task.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"outfitgen/internal/domain"
	"outfitgen/internal/infra"
)

// ErrMissingToken indicates that the client was configured without credentials.
var ErrMissingToken = fmt.Errorf("%w: hugging face token is required", domain.ErrConfiguration)

const (
	defaultBaseURL = "https://router.huggingface.co/hf-inference"
	defaultModel   = "black-forest-labs/FLUX.1-dev"
	// Generated images stay well below this; anything larger is rejected.
	maxResponseBytes = 32 << 20
)

// Options configures the inference client.
type Options struct {
	Token          string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs single text-to-image calls. It never retries.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
	maxBytes   int
}

// ImageRequest captures the inputs for one text-to-image call.
type ImageRequest struct {
	Model          string
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
}

// ImageAsset is the raw payload returned by the API.
type ImageAsset struct {
	Data   []byte
	Format string
}

// APIError is a non-2xx answer from the inference endpoint.
type APIError struct {
	StatusCode    int
	Message       string
	EstimatedTime float64
}

func (e *APIError) Error() string {
	if e.EstimatedTime > 0 {
		return fmt.Sprintf("huggingface: status %d: %s (estimated %.0fs)", e.StatusCode, e.Message, e.EstimatedTime)
	}
	return fmt.Sprintf("huggingface: status %d: %s", e.StatusCode, e.Message)
}

type inferenceRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters *inferenceParameters `json:"parameters,omitempty"`
}

type inferenceParameters struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

type errorResponse struct {
	Error         any     `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// NewClient constructs a client. The token is captured here once.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, ErrMissingToken
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		maxBytes:   maxResponseBytes,
	}, nil
}

// TextToImage invokes the model once and returns the image bytes.
func (c *Client) TextToImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if c == nil || c.token == "" {
		return nil, ErrMissingToken
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: huggingface: prompt is required", domain.ErrInvalidRequest)
	}
	model := strings.Trim(strings.TrimSpace(req.Model), "/")
	if model == "" {
		model = defaultModel
	}

	payload := inferenceRequest{Inputs: prompt}
	if req.NegativePrompt != "" || req.Width > 0 || req.Height > 0 {
		payload.Parameters = &inferenceParameters{
			NegativePrompt: strings.TrimSpace(req.NegativePrompt),
			Width:          req.Width,
			Height:         req.Height,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("huggingface: encode request: %w", err)
	}
	endpoint := c.baseURL + "/models/" + modelPath(model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: huggingface: http request: %w", domain.ErrUpstreamGeneration, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: huggingface: read response: %w", domain.ErrUpstreamGeneration, err)
	}
	if len(raw) > c.maxBytes {
		return nil, fmt.Errorf("%w: huggingface: response exceeds %d bytes", domain.ErrUpstreamGeneration, c.maxBytes)
	}

	if resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, apiErr)
		default:
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamGeneration, apiErr)
		}
	}

	format := mediaType(resp.Header.Get("Content-Type"))
	if format == "" {
		format = http.DetectContentType(raw)
	}
	if !strings.HasPrefix(format, "image/") || len(raw) == 0 {
		return nil, fmt.Errorf("%w: huggingface: unexpected %s payload of %d bytes", domain.ErrUpstreamGeneration, format, len(raw))
	}
	c.logger.Debug().
		Str("model", model).
		Str("format", format).
		Int("bytes", len(raw)).
		Msg("huggingface: generated image")
	return &ImageAsset{Data: raw, Format: format}, nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Error != nil {
		apiErr.EstimatedTime = detail.EstimatedTime
		switch v := detail.Error.(type) {
		case string:
			apiErr.Message = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			apiErr.Message = strings.Join(parts, "; ")
		default:
			apiErr.Message = fmt.Sprint(v)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func mediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// modelPath escapes each segment of an "org/name" model id.
func modelPath(model string) string {
	segments := strings.Split(model, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
