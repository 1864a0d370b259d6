package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/render"
)

// Options controls how the render backend client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client invokes the external image-generation service. The service is
// treated as opaque: it accepts a parameter bundle and either returns an
// image URL or a structured error payload. When no API key is configured the
// client produces deterministic placeholder URLs so the rest of the pipeline
// stays exercisable in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

type renderRequest struct {
	Subject       domain.SubjectAttributes `json:"subject_attributes"`
	VariantFields map[string]string        `json:"variant_fields"`
	Mode          string                   `json:"mode"`
	Style         string                   `json:"style,omitempty"`
	Finish        string                   `json:"finish,omitempty"`
	ColorHex      string                   `json:"color_hex,omitempty"`
	DesignAsset   string                   `json:"design_asset,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	RequestID     string                   `json:"request_id,omitempty"`
}

type renderResponse struct {
	ImageURL string `json:"image_url"`
}

type renderErrorResponse struct {
	Error struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a render backend client with sane defaults. A nil HTTP
// client is replaced with one carrying a generous timeout, since generation
// calls routinely take tens of seconds.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Render implements render.Renderer.
func (c *Client) Render(ctx context.Context, req render.Request) (render.Result, error) {
	if err := ctx.Err(); err != nil {
		return render.Result{}, err
	}
	if c.apiKey == "" || c.baseURL == "" {
		return c.syntheticResult(req), nil
	}

	payload := renderRequest{
		Subject:       req.Subject,
		VariantFields: req.VariantFields,
		Mode:          string(req.Mode),
		Style:         req.Params.StyleName,
		Finish:        req.Params.FinishType,
		ColorHex:      req.Params.ColorHex,
		DesignAsset:   req.Params.DesignAssetKey,
		Notes:         req.Params.Notes,
		RequestID:     req.RunID.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return render.Result{}, fmt.Errorf("renderapi: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return render.Result{}, fmt.Errorf("renderapi: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return render.Result{}, fmt.Errorf("renderapi: call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return render.Result{}, fmt.Errorf("renderapi: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp renderErrorResponse
		if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Message != "" {
			return render.Result{}, fmt.Errorf("%w: %s", domain.ErrProviderFailure, errResp.Error.Message)
		}
		return render.Result{}, fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var decoded renderResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return render.Result{}, fmt.Errorf("renderapi: decode response: %w", err)
	}
	if decoded.ImageURL == "" {
		return render.Result{}, fmt.Errorf("%w: response missing image url", domain.ErrProviderFailure)
	}
	return render.Result{ImageURL: decoded.ImageURL}, nil
}

func (c *Client) syntheticResult(req render.Request) render.Result {
	c.logger.Debug().
		Str("variant", req.VariantKey).
		Msg("renderapi: no api key configured, returning placeholder asset")
	return render.Result{
		ImageURL: fmt.Sprintf("https://placeholder.wrapdash.local/%s/%s.png", req.RunID, req.VariantKey),
	}
}

var _ render.Renderer = (*Client)(nil)
