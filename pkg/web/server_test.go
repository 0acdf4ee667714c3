package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opspulse/pkg/client"
	"opspulse/pkg/dashboard"
	"opspulse/pkg/model"
	"opspulse/pkg/ratings"
)

// backendState is a minimal monitoring + ratings API for handler tests.
type backendState struct {
	mu         sync.Mutex
	resolved   map[int]string
	lastRating model.RatingSubmission
}

func (b *backendState) handler() http.HandlerFunc {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch {
		case r.URL.Path == "/api/monitoring/overview":
			snap := model.Snapshot{
				Timestamp:     now,
				Services:      []model.Service{{Name: "api", Status: model.StatusHealthy, LastChecked: now}},
				OverallHealth: model.StatusHealthy,
			}
			alert := model.SystemAlert{ID: 42, Severity: model.SeverityWarning, Service: "api", Message: "hiccup", CreatedAt: now}
			if who, ok := b.resolved[42]; ok {
				alert.Resolved = true
				alert.ResolvedBy = who
				alert.ResolvedAt = &now
			}
			snap.Alerts = []model.SystemAlert{alert}
			_ = json.NewEncoder(w).Encode(snap)
		case strings.HasSuffix(r.URL.Path, "/resolve"):
			if _, ok := b.resolved[42]; ok {
				http.Error(w, "already resolved", http.StatusConflict)
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			b.resolved[42] = body["resolved_by"]
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		case strings.Contains(r.URL.Path, "/history"):
			_ = json.NewEncoder(w).Encode(model.ServiceHistory{
				ServiceName: "api", PeriodHours: 24,
				DataPoints: []model.HistoryPoint{
					{Status: model.StatusHealthy, ResponseTime: 0.12},
					{Status: model.StatusUnknown},
					{Status: model.StatusHealthy, ResponseTime: 0.34},
				},
			})
		case r.URL.Path == "/api/monitoring/stats":
			_ = json.NewEncoder(w).Encode(model.Stats{MonitoredServices: 1, UptimePercentage: 99.9})
		case r.URL.Path == "/api/monitoring/check-now":
			_, _ = w.Write([]byte(`{"status": "triggered"}`))
		case r.URL.Path == "/api/ratings/stats":
			_ = json.NewEncoder(w).Encode(model.RatingStats{PeriodDays: 30, TotalRatings: 2})
		case r.URL.Path == "/api/rating":
			_ = json.NewDecoder(r.Body).Decode(&b.lastRating)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *backendState) {
	t.Helper()
	b := &backendState{resolved: map[int]string{}}
	backend := httptest.NewServer(b.handler())
	t.Cleanup(backend.Close)

	api := client.New(backend.URL, backend.Client(), nil)
	view := dashboard.New(api, nil, time.Hour, nil)
	t.Cleanup(view.Close)
	require.NoError(t, view.Start(context.Background()))

	srv := NewServer(view, api, ratings.New(api), nil, nil, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, b
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestStateEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	var out map[string]interface{}
	resp := getJSON(t, ts.URL+"/state", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", out["phase"])
	assert.Equal(t, true, out["has_data"])
	assert.Equal(t, "healthy", out["local_health"])
	require.Contains(t, out, "snapshot")
}

func TestHistoryEndpointIncludesSummary(t *testing.T) {
	ts, _ := newTestServer(t)
	var out struct {
		History model.ServiceHistory `json:"history"`
		Summary struct {
			Average float64 `json:"Average"`
			Min     float64 `json:"Min"`
			Max     float64 `json:"Max"`
		} `json:"summary"`
	}
	resp := getJSON(t, ts.URL+"/history/api?hours=24", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.History.DataPoints, 3)
	assert.InDelta(t, 0.12, out.Summary.Min, 1e-9)
	assert.InDelta(t, 0.34, out.Summary.Max, 1e-9)
	assert.InDelta(t, (0.12+0.34)/3, out.Summary.Average, 1e-9)
}

func TestResolveEndpoint(t *testing.T) {
	ts, b := newTestServer(t)
	resp, err := http.Post(ts.URL+"/alerts/42/resolve", "application/json",
		strings.NewReader(`{"resolved_by": "admin"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alert model.SystemAlert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alert))
	assert.True(t, alert.Resolved)
	assert.Equal(t, "admin", alert.ResolvedBy)

	b.mu.Lock()
	assert.Equal(t, "admin", b.resolved[42])
	b.mu.Unlock()
}

func TestResolveEndpointRepeatIsConflict(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, wantStatus := range []int{http.StatusOK, http.StatusConflict} {
		resp, err := http.Post(ts.URL+"/alerts/42/resolve", "application/json",
			strings.NewReader(`{"resolved_by": "admin"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, wantStatus, resp.StatusCode)
	}
}

func TestResolveEndpointRequiresBody(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/alerts/42/resolve", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckNowEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/check-now", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRatingSubmitEndpoint(t *testing.T) {
	ts, b := newTestServer(t)
	resp, err := http.Post(ts.URL+"/rating", "application/json",
		strings.NewReader(`{"clarity": 5, "design": 4, "feedback": "nice"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.NotEmpty(t, b.lastRating.SessionID)
	assert.Equal(t, 5, b.lastRating.Overall) // (5+4)/2 rounded up
	assert.Equal(t, "nice", b.lastRating.Feedback)
}

func TestRatingStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	var out model.RatingStats
	resp := getJSON(t, ts.URL+"/ratings/stats?days=30", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, out.TotalRatings)
}

func TestProbeEndpointWithoutTargets(t *testing.T) {
	ts, _ := newTestServer(t)
	var out []interface{}
	resp := getJSON(t, ts.URL+"/probe", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	var out map[string]string
	resp := getJSON(t, ts.URL+"/healthz", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}
