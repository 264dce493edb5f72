// Package catalog reads the monitored-service catalog exposed through the
// relational query API and resolves resource identities to service IDs.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/good-yellow-bee/statushook/internal/models"
)

const (
	// ViewFull is the catalog view including nested property lists.
	ViewFull = "service_view_full"
	// ViewBrief is the lightweight catalog view without properties.
	ViewBrief = "service_view_brief"
)

// Client is a read-only HTTP client for the service catalog views.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client. The timeout bounds every request so a
// slow catalog can never block ingestion indefinitely.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListFull returns all services with their nested properties.
func (c *Client) ListFull(ctx context.Context) ([]models.Service, error) {
	return c.list(ctx, ViewFull)
}

// ListBrief returns all services without property lists.
func (c *Client) ListBrief(ctx context.Context) ([]models.Service, error) {
	return c.list(ctx, ViewBrief)
}

func (c *Client) list(ctx context.Context, view string) ([]models.Service, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+view, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("catalog %s: status %d, body: %s", view, resp.StatusCode, string(body))
	}

	var services []models.Service
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return services, nil
}

// Ping checks catalog reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+ViewBrief, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog ping: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("catalog ping: status %d", resp.StatusCode)
	}
	return nil
}
