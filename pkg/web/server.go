// Package web serves the dashboard view over HTTP: the merged monitoring
// state as JSON, plus the workflow actions. It only reads the View and rating
// clients; all state ownership stays in pkg/dashboard.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"opspulse/pkg/client"
	"opspulse/pkg/dashboard"
	"opspulse/pkg/health"
	"opspulse/pkg/model"
	"opspulse/pkg/probe"
	"opspulse/pkg/ratings"
	"opspulse/pkg/version"
)

type Server struct {
	view    *dashboard.View
	api     *client.Client
	ratings *ratings.Client
	prober  *probe.Prober
	targets []probe.Target
	log     *zap.SugaredLogger
}

func NewServer(view *dashboard.View, api *client.Client, rc *ratings.Client, prober *probe.Prober, targets []probe.Target, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{view: view, api: api, ratings: rc, prober: prober, targets: targets, log: log}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/history/{service}", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id:[0-9]+}/resolve", s.handleResolve).Methods(http.MethodPost)
	r.HandleFunc("/check-now", s.handleCheckNow).Methods(http.MethodPost)
	r.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/probe", s.handleProbe).Methods(http.MethodGet)
	r.HandleFunc("/ratings/stats", s.handleRatingStats).Methods(http.MethodGet)
	r.HandleFunc("/ratings/timeline", s.handleRatingTimeline).Methods(http.MethodGet)
	r.HandleFunc("/ratings/services", s.handleRatingServices).Methods(http.MethodGet)
	r.HandleFunc("/rating", s.handleRatingSubmit).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Use(s.logMiddleware)
	return r
}

// handleState renders the consumer contract in one payload: phase, live
// state, the merged snapshot and the locally recomputed aggregate.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.view.Snapshot()
	out := map[string]interface{}{
		"phase":        s.view.Phase().String(),
		"live":         s.view.LiveState().String(),
		"has_data":     ok,
		"local_health": s.view.OverallHealth(),
	}
	if ok {
		out["snapshot"] = snap
	}
	if err := s.view.Err(); err != nil {
		out["last_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.api.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	hours := intQuery(r, "hours", 24)
	h, err := s.api.ServiceHistory(r.Context(), service, hours)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": h,
		"summary": health.SummarizeResponseTimes(h.DataPoints),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body struct {
		ResolvedBy string `json:"resolved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ResolvedBy == "" {
		http.Error(w, "resolved_by is required", http.StatusBadRequest)
		return
	}
	alert, err := s.view.ResolveAlert(r.Context(), id, body.ResolvedBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	if err := s.view.TriggerCheck(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil || len(s.targets) == 0 {
		writeJSON(w, http.StatusOK, []probe.Result{})
		return
	}
	writeJSON(w, http.StatusOK, s.prober.Sweep(r.Context(), s.targets))
}

func (s *Server) handleRatingStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ratings.Stats(r.Context(), r.URL.Query().Get("service_name"), intQuery(r, "days", 30))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRatingTimeline(w http.ResponseWriter, r *http.Request) {
	tl, err := s.ratings.Timeline(r.Context(), r.URL.Query().Get("service_name"), intQuery(r, "days", 30))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleRatingServices(w http.ResponseWriter, r *http.Request) {
	sr, err := s.ratings.Services(r.Context(), intQuery(r, "days", 30))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (s *Server) handleRatingSubmit(w http.ResponseWriter, r *http.Request) {
	var sub model.RatingSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad rating payload", http.StatusBadRequest)
		return
	}
	if err := s.ratings.Submit(r.Context(), sub); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Build})
}

// writeError maps the client error taxonomy onto the view server's responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var ne *client.NetworkError
	var re *client.ResolutionError
	switch {
	case errors.As(err, &re):
		status = http.StatusConflict
		if errors.As(err, &ne) && ne.Status != 0 {
			status = ne.Status
		}
	case errors.As(err, &ne) && ne.Status != 0:
		status = ne.Status
	}
	s.log.Warnw("request failed", "err", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Infow("http request", "method", r.Method, "path", r.URL.Path, "status", sw.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
