// Package client talks to a running homelab dashboard server over its REST
// contract. HTTPClient satisfies dashboard.Backend, so a Controller can edit
// a remote dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient implements dashboard.Backend against GET/PUT /widgets and GET /integrations.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ dashboard.Backend = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the server at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// FetchWidgets reads the stored dashboard.
func (c *HTTPClient) FetchWidgets(ctx context.Context) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	if err := c.do(ctx, http.MethodGet, "/widgets", nil, &snap); err != nil {
		return dashboard.Snapshot{}, err
	}
	return snap, nil
}

// SaveWidgets replaces the stored dashboard.
func (c *HTTPClient) SaveWidgets(ctx context.Context, snap dashboard.Snapshot) error {
	return c.do(ctx, http.MethodPut, "/widgets", snap, nil)
}

// FetchIntegrations reads integration settings.
func (c *HTTPClient) FetchIntegrations(ctx context.Context) (dashboard.IntegrationSettings, error) {
	settings := dashboard.IntegrationSettings{}
	if err := c.do(ctx, http.MethodGet, "/integrations", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// PreviewMobile asks the server for the generated mobile arrangement.
func (c *HTTPClient) PreviewMobile(ctx context.Context, widgets []dashboard.Widget) ([]dashboard.Widget, error) {
	req := previewPayload{Widgets: widgets}
	var resp previewPayload
	if err := c.do(ctx, http.MethodPost, "/layout/mobile", req, &resp); err != nil {
		return nil, err
	}
	return resp.Widgets, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("client: encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("client: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var remote errorPayload
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		if json.Unmarshal(buf.Bytes(), &remote) != nil || remote.Error == "" {
			remote.Error = strings.TrimSpace(buf.String())
		}
		if resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", dashboard.ErrInvalidSnapshot, remote.Error)
		}
		return fmt.Errorf("client: remote error %d: %s", resp.StatusCode, remote.Error)
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

type previewPayload struct {
	Widgets []dashboard.Widget `json:"widgets"`
}

type errorPayload struct {
	Error string `json:"error"`
}
