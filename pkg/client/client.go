// Package client is the REST side of the monitoring backend contract:
// snapshot, stats and history reads plus the check-now and alert-resolve
// mutations. Calls are plain request/response with no caching and no retry;
// refresh policy belongs to the caller.
package client

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

	"go.uber.org/zap"

	"opspulse/pkg/model"
)

// Client talks to one monitoring backend. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	log  *zap.SugaredLogger

	// CheckTimeout bounds the check-now trigger, which fans out to every
	// backend probe and is the slowest call on the surface.
	CheckTimeout time.Duration
}

// New builds a client for the given REST base URL. A nil httpClient gets a
// default with a generous overall timeout.
func New(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		base:         strings.TrimRight(baseURL, "/"),
		http:         httpClient,
		log:          log,
		CheckTimeout: 5 * time.Second,
	}
}

// Overview fetches the full aggregated monitoring snapshot.
func (c *Client) Overview(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.getJSON(ctx, c.base+"/api/monitoring/overview", &snap)
	return snap, err
}

// Stats fetches backend-wide monitoring counters.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := c.getJSON(ctx, c.base+"/api/monitoring/stats", &st)
	return st, err
}

// ServiceHistory fetches the sample window for one service. An empty service
// name short-circuits to an empty history without touching the network.
func (c *Client) ServiceHistory(ctx context.Context, serviceName string, hours int) (model.ServiceHistory, error) {
	if serviceName == "" {
		return model.ServiceHistory{PeriodHours: hours, DataPoints: []model.HistoryPoint{}}, nil
	}
	u := fmt.Sprintf("%s/api/monitoring/service/%s/history?hours=%d",
		c.base, url.PathEscape(serviceName), hours)
	var h model.ServiceHistory
	err := c.getJSON(ctx, u, &h)
	return h, err
}

// CheckNow asks the backend to run an immediate probe cycle. The response
// body is not used; fresh results arrive via the next snapshot.
func (c *Client) CheckNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.CheckTimeout)
	defer cancel()
	return c.postJSON(ctx, c.base+"/api/monitoring/check-now", nil, nil)
}

// ResolveAlert marks an alert resolved on the backend. The caller must follow
// a success with a snapshot refresh: the backend owns resolved_at and may
// have touched other alerts as a side effect. Failures come back as
// *ResolutionError and imply no local state change.
func (c *Client) ResolveAlert(ctx context.Context, alertID int, resolvedBy string) error {
	u := fmt.Sprintf("%s/api/monitoring/alerts/%d/resolve", c.base, alertID)
	body := map[string]string{"resolved_by": resolvedBy}
	if err := c.postJSON(ctx, u, body, nil); err != nil {
		return &ResolutionError{AlertID: alertID, Err: err}
	}
	return nil
}

// GetJSON performs a GET against path (joined to the REST base) and decodes
// the JSON body into out. Exposed so sibling read-only subsystems sharing the
// backend's transport conventions (ratings) reuse the same error taxonomy.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	return c.getJSON(ctx, c.base+path, out)
}

// PostJSON performs a POST with a JSON payload against path, decoding the
// response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.postJSON(ctx, c.base+path, payload, out)
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, u string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warnw("backend error", "url", req.URL.String(), "status", resp.StatusCode, "body", strings.TrimSpace(string(b)))
		return &NetworkError{Status: resp.StatusCode, URL: req.URL.String()}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ParseError{URL: req.URL.String(), Err: err}
	}
	return nil
}
