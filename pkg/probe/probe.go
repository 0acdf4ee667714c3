// Package probe checks service endpoints directly from the dashboard host,
// bypassing the monitoring backend. Used as a second opinion when the backend
// itself is suspect.
package probe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Target is one endpoint to probe; URL is the service base, the probe hits
// its /health path.
type Target struct {
	Name string
	URL  string
}

// Result is the outcome of one probe. A timed-out probe counts as offline,
// not indeterminate.
type Result struct {
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Online    bool          `json:"online"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Prober runs direct health probes with short per-target and sweep deadlines.
type Prober struct {
	http         *http.Client
	timeout      time.Duration // single target
	sweepTimeout time.Duration // whole sweep
	log          *zap.SugaredLogger
}

// New builds a prober. Zero timeouts get the policy defaults (3 s per target,
// 5 s per sweep).
func New(timeout, sweepTimeout time.Duration, log *zap.SugaredLogger) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if sweepTimeout <= 0 {
		sweepTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Prober{
		http:         &http.Client{Timeout: sweepTimeout},
		timeout:      timeout,
		sweepTimeout: sweepTimeout,
		log:          log,
	}
}

// Check probes one target's /health endpoint. Any error, non-2xx or timeout
// means offline.
func (p *Prober) Check(ctx context.Context, t Target) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res := Result{Name: t.Name, URL: t.URL, CheckedAt: time.Now()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL+"/health", nil)
	if err != nil {
		return res
	}
	start := time.Now()
	resp, err := p.http.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		p.log.Debugw("probe failed", "target", t.Name, "err", err)
		return res
	}
	defer resp.Body.Close()
	res.Online = resp.StatusCode >= 200 && resp.StatusCode < 300
	return res
}

// Sweep probes all targets concurrently, bounded by the sweep deadline.
// Results come back in target order.
func (p *Prober) Sweep(ctx context.Context, targets []Target) []Result {
	ctx, cancel := context.WithTimeout(ctx, p.sweepTimeout)
	defer cancel()

	results := make([]Result, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			results[i] = p.Check(ctx, t)
		}(i, t)
	}
	wg.Wait()
	return results
}
