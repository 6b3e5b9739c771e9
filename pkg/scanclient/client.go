// Package scanclient implements the polling half of the label-scan
// protocol: poll the status endpoint on a fixed interval until the
// scan reaches a terminal state or the attempt budget runs out.
package scanclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrScanTimeout means the client gave up polling. The scan may still
// complete server-side; this is distinct from a scan that FAILED.
var ErrScanTimeout = errors.New("scan timeout: polling attempts exhausted")

// ErrScanNotFound means the server does not know the scan identifier.
var ErrScanNotFound = errors.New("scan not found")

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
)

// Scan mirrors the status endpoint's JSON record.
type Scan struct {
	ID             string          `json:"id"`
	ImageURL       string          `json:"imageUrl"`
	Status         string          `json:"status"`
	OCRText        *string         `json:"ocrText"`
	ExtractedData  json.RawMessage `json:"extractedData"`
	ProductName    *string         `json:"productName"`
	HealthScore    *int            `json:"healthScore"`
	AnalysisResult json.RawMessage `json:"analysisResult"`
	ErrorMessage   *string         `json:"errorMessage"`
}

// IsTerminal reports whether polling should stop.
func (s *Scan) IsTerminal() bool {
	return s.Status == "COMPLETED" || s.Status == "FAILED"
}

// Client polls a label-scan server.
type Client struct {
	BaseURL     string
	Interval    time.Duration
	MaxAttempts int
	HTTPClient  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:     baseURL,
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Get fetches the current state of a scan once.
func (c *Client) Get(ctx context.Context, scanID string) (*Scan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/label-scan/"+scanID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrScanNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll scan: unexpected status %d", resp.StatusCode)
	}

	var scan Scan
	if err := json.NewDecoder(resp.Body).Decode(&scan); err != nil {
		return nil, fmt.Errorf("decode scan: %w", err)
	}
	return &scan, nil
}

// WaitForResult polls until the scan is terminal. A FAILED scan is a
// successful poll: the returned record carries the error message.
// Exhausting MaxAttempts returns ErrScanTimeout.
func (c *Client) WaitForResult(ctx context.Context, scanID string) (*Scan, error) {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		scan, err := c.Get(ctx, scanID)
		if err != nil {
			return nil, err
		}
		if scan.IsTerminal() {
			return scan, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, ErrScanTimeout
}
