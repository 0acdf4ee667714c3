package model

import "time"

// ServiceStatus is the health of a single monitored service.
type ServiceStatus string

const (
	StatusHealthy  ServiceStatus = "healthy"
	StatusDegraded ServiceStatus = "degraded"
	StatusDown     ServiceStatus = "down"
	StatusUnknown  ServiceStatus = "unknown"
)

// Valid reports whether s is one of the four known status values.
func (s ServiceStatus) Valid() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusDown, StatusUnknown:
		return true
	}
	return false
}

// ServiceType classifies what kind of target a health check probes.
type ServiceType string

const (
	TypeDeployment  ServiceType = "deployment"
	TypeProcessHost ServiceType = "process-host"
	TypeCredential  ServiceType = "credential"
	TypeDatabase    ServiceType = "database"
)

// AlertSeverity grades a SystemAlert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Service is one monitored target as reported by the backend. Records are
// replaced wholesale per snapshot, never patched field by field; Name is the
// identity within a snapshot.
type Service struct {
	Name         string                 `json:"name"`
	Type         ServiceType            `json:"type"`
	Status       ServiceStatus          `json:"status"`
	ResponseTime float64                `json:"response_time,omitempty"` // seconds
	LastChecked  time.Time              `json:"last_checked"`
	Error        string                 `json:"error,omitempty"`
	Metadata     map[string]interface{} `json:"additional_info,omitempty"`
}

// SystemAlert is a backend-generated alert. The client never creates or
// deletes alerts; it only drives the unresolved -> resolved transition.
// ResolvedAt/ResolvedBy are set iff Resolved is true.
type SystemAlert struct {
	ID         int           `json:"id"`
	Severity   AlertSeverity `json:"severity"`
	Service    string        `json:"service"`
	Message    string        `json:"message"`
	CreatedAt  time.Time     `json:"created_at"`
	Resolved   bool          `json:"resolved,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy string        `json:"resolved_by,omitempty"`
}

// UserActivity carries 24h usage counters, replaced wholesale per snapshot.
type UserActivity struct {
	TotalUsers24h    int     `json:"total_users_24h"`
	TotalRequests24h int     `json:"total_requests_24h"`
	AvgResponseTime  float64 `json:"avg_response_time"`
}

// Snapshot is the aggregate monitoring view: the unit of last-write-wins
// replacement for both the REST loader and the live channel. Service and
// alert order is backend-defined and preserved.
type Snapshot struct {
	Timestamp     time.Time     `json:"timestamp"`
	Services      []Service     `json:"services"`
	Alerts        []SystemAlert `json:"alerts"`
	Activity      UserActivity  `json:"activity"`
	OverallHealth ServiceStatus `json:"overall_health"`
}

// AlertByID returns the alert with the given id, if present.
func (s *Snapshot) AlertByID(id int) (SystemAlert, bool) {
	for _, a := range s.Alerts {
		if a.ID == id {
			return a, true
		}
	}
	return SystemAlert{}, false
}

// ServiceByName returns the service with the given name, if present.
func (s *Snapshot) ServiceByName(name string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// HistoryPoint is one sample in a service's status history.
type HistoryPoint struct {
	Timestamp    time.Time     `json:"timestamp"`
	Status       ServiceStatus `json:"status"`
	ResponseTime float64       `json:"response_time,omitempty"` // seconds; 0 when the sample carried none
	Error        string        `json:"error,omitempty"`
}

// ServiceHistory is a per-service time window of samples, fetched fresh per
// request and never merged with live data.
type ServiceHistory struct {
	ServiceName string         `json:"service_name"`
	PeriodHours int            `json:"period_hours"`
	DataPoints  []HistoryPoint `json:"data_points"`
}

// Stats are backend-wide monitoring counters.
type Stats struct {
	TotalHealthChecks int     `json:"total_health_checks"`
	TotalAlerts       int     `json:"total_alerts"`
	ActiveAlerts      int     `json:"active_alerts"`
	MonitoredServices int     `json:"monitored_services"`
	UptimePercentage  float64 `json:"uptime_percentage"`
}
