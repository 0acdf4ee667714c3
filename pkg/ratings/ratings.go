// Package ratings reads user-rating aggregates and submits new ratings. It is
// a separate read-mostly subsystem on the same backend, sharing the REST
// transport conventions of pkg/client.
package ratings

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"opspulse/pkg/client"
	"opspulse/pkg/model"
)

// Client wraps the shared REST transport with the /api/ratings surface.
type Client struct {
	api *client.Client
}

func New(api *client.Client) *Client {
	return &Client{api: api}
}

// Stats fetches rating aggregates for the period, optionally scoped to one
// service.
func (c *Client) Stats(ctx context.Context, serviceName string, days int) (model.RatingStats, error) {
	var st model.RatingStats
	err := c.api.GetJSON(ctx, scopedPath("/api/ratings/stats", serviceName, days), &st)
	return st, err
}

// Timeline fetches the day-by-day rating series for the period.
func (c *Client) Timeline(ctx context.Context, serviceName string, days int) (model.RatingTimeline, error) {
	var tl model.RatingTimeline
	err := c.api.GetJSON(ctx, scopedPath("/api/ratings/timeline", serviceName, days), &tl)
	return tl, err
}

// Services fetches per-service rating aggregates for the period.
func (c *Client) Services(ctx context.Context, days int) (model.ServicesRatings, error) {
	var sr model.ServicesRatings
	err := c.api.GetJSON(ctx, fmt.Sprintf("/api/ratings/services?days=%d", days), &sr)
	return sr, err
}

// Submit posts a rating. A missing session id gets a generated one, and a
// zero Overall is filled with the rounded mean of the category scores the
// user actually provided (zero when none were).
func (c *Client) Submit(ctx context.Context, r model.RatingSubmission) error {
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	if r.Overall == 0 {
		r.Overall = OverallFromCategories(r)
	}
	return c.api.PostJSON(ctx, "/api/rating", r, nil)
}

// OverallFromCategories computes the overall score as the rounded mean of the
// provided (non-zero) category scores; zero when none were provided.
func OverallFromCategories(r model.RatingSubmission) int {
	sum, n := 0, 0
	for _, v := range r.CategoryScores() {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	// round half up, scores are all positive
	return (sum*2 + n) / (n * 2)
}

func scopedPath(base, serviceName string, days int) string {
	p := fmt.Sprintf("%s?days=%d", base, days)
	if serviceName != "" {
		p += "&service_name=" + url.QueryEscape(serviceName)
	}
	return p
}
