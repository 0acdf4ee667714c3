// Package health computes display-level health values from raw monitoring
// data: the overall system status and response-time summaries for history
// windows.
package health

import "opspulse/pkg/model"

// statusRank orders statuses worst-first for aggregation. Anything the
// backend sends outside the known set ranks alongside unknown.
var statusRank = map[model.ServiceStatus]int{
	model.StatusDown:     3,
	model.StatusDegraded: 2,
	model.StatusUnknown:  1,
	model.StatusHealthy:  0,
}

// Worst returns the overall status for a set of services: the worst status
// present, using the order down > degraded > unknown > healthy. An empty set
// aggregates to unknown so a dashboard with no data never shows green.
func Worst(services []model.Service) model.ServiceStatus {
	if len(services) == 0 {
		return model.StatusUnknown
	}
	out := model.StatusHealthy
	for _, svc := range services {
		st := svc.Status
		if !st.Valid() {
			st = model.StatusUnknown
		}
		if statusRank[st] > statusRank[out] {
			out = st
		}
	}
	return out
}

// ResponseTimeSummary holds derived statistics over a history window, in the
// same unit as the samples (seconds).
type ResponseTimeSummary struct {
	Average float64
	Min     float64
	Max     float64
	Samples int
}

// SummarizeResponseTimes computes average, min and max over a history window.
// Samples with no response time come through the wire as zero and still count
// toward the average and max, but are excluded from the min so a gap in the
// data does not report a near-zero fastest probe. The asymmetry is kept for
// wire-level compatibility with existing dashboards. With no positive sample,
// Min stays zero.
func SummarizeResponseTimes(points []model.HistoryPoint) ResponseTimeSummary {
	s := ResponseTimeSummary{Samples: len(points)}
	if len(points) == 0 {
		return s
	}
	sum := 0.0
	minSet := false
	for _, p := range points {
		rt := p.ResponseTime
		sum += rt
		if rt > s.Max {
			s.Max = rt
		}
		if rt > 0 && (!minSet || rt < s.Min) {
			s.Min = rt
			minSet = true
		}
	}
	s.Average = sum / float64(len(points))
	return s
}
