// Package dashboard owns the in-memory state behind a monitoring dashboard
// view: the current snapshot, its lifecycle phase, the live/poll update
// plumbing, history selection and the alert resolution workflow. One View per
// mounted dashboard; Close tears everything down deterministically.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"opspulse/pkg/client"
	"opspulse/pkg/health"
	"opspulse/pkg/live"
	"opspulse/pkg/model"
)

// Phase is the dashboard lifecycle state.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
	// PhaseReadyStale: data is displayed but the live channel is gone for
	// good. The last snapshot stays visible; only manual refresh updates it.
	PhaseReadyStale
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	case PhaseReadyStale:
		return "ready-stale"
	}
	return "unknown"
}

// View is the single owner of the current snapshot. The snapshot is only ever
// replaced here, by Refresh or by the live channel; everything else reads.
type View struct {
	api          *client.Client
	live         *live.Manager // nil when running poll-only
	log          *zap.SugaredLogger
	pollInterval time.Duration

	mu      sync.RWMutex
	snap    *model.Snapshot
	phase   Phase
	lastErr error

	selected   string
	histGen    uint64
	history    *model.ServiceHistory
	historyErr error

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a view over the REST client, with an optional live manager. A
// nil manager switches the view to fixed-interval polling.
func New(api *client.Client, lm *live.Manager, pollInterval time.Duration, log *zap.SugaredLogger) *View {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &View{
		api:          api,
		live:         lm,
		log:          log,
		pollInterval: pollInterval,
		phase:        PhaseInitial,
		stop:         make(chan struct{}),
	}
}

// Start loads the initial snapshot and begins receiving updates, via the live
// channel when one is configured, otherwise by periodic re-fetch. The initial
// load failure leaves the view in PhaseError; updates may still recover it.
func (v *View) Start(ctx context.Context) error {
	v.setPhase(PhaseLoading)
	err := v.Refresh(ctx)

	if v.live != nil {
		v.live.OnSnapshot(v.applyLive)
		v.live.OnState(v.onLiveState)
		v.live.Start()
	} else {
		v.wg.Add(1)
		go v.pollLoop()
	}
	return err
}

// Refresh fetches a fresh snapshot and applies it. Errors propagate so the
// caller can offer a retry; existing data is never cleared on failure.
func (v *View) Refresh(ctx context.Context) error {
	snap, err := v.api.Overview(ctx)
	if err != nil {
		v.mu.Lock()
		v.lastErr = err
		if v.snap == nil {
			v.phase = PhaseError
		}
		v.mu.Unlock()
		return err
	}
	v.apply(snap)
	return nil
}

// Snapshot returns the current snapshot, false before the first load. The
// last known snapshot stays available through disconnects and failed
// refreshes.
func (v *View) Snapshot() (model.Snapshot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.snap == nil {
		return model.Snapshot{}, false
	}
	return *v.snap, true
}

// Phase returns the lifecycle phase.
func (v *View) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

// Err returns the most recent load error, if any.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// LiveState reports the live channel state; StateClosed when polling.
func (v *View) LiveState() live.State {
	if v.live == nil {
		return live.StateClosed
	}
	return v.live.State()
}

// OverallHealth recomputes the aggregate locally. Display trusts the
// server-supplied value; this exists so the two can be compared.
func (v *View) OverallHealth() model.ServiceStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.snap == nil {
		return model.StatusUnknown
	}
	return health.Worst(v.snap.Services)
}

// ResolveAlert drives the resolution workflow: backend mutation first, then a
// full snapshot refresh, because the backend owns resolved_at and may touch
// other alerts as a side effect. Nothing is patched locally: a failure
// returns *client.ResolutionError with the alert list untouched, and a repeat
// call on an already-resolved alert just surfaces whatever the backend says.
// On success the refreshed alert is returned when it is still present.
func (v *View) ResolveAlert(ctx context.Context, alertID int, resolvedBy string) (model.SystemAlert, error) {
	if err := v.api.ResolveAlert(ctx, alertID, resolvedBy); err != nil {
		return model.SystemAlert{}, err
	}
	if err := v.Refresh(ctx); err != nil {
		// The resolve itself succeeded; the next snapshot will reconcile.
		v.log.Warnw("refresh after resolve failed", "alert", alertID, "err", err)
		return model.SystemAlert{}, nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.snap != nil {
		if a, ok := v.snap.AlertByID(alertID); ok {
			return a, nil
		}
	}
	return model.SystemAlert{}, nil
}

// TriggerCheck asks the backend for an immediate probe cycle. Results show up
// on the next snapshot.
func (v *View) TriggerCheck(ctx context.Context) error {
	return v.api.CheckNow(ctx)
}

// SelectHistory switches the history panel to a service and fetches its
// window asynchronously. Selecting again supersedes any in-flight fetch: a
// result arriving for anything but the current selection is discarded.
func (v *View) SelectHistory(ctx context.Context, serviceName string, hours int) {
	select {
	case <-v.stop:
		return
	default:
	}
	v.mu.Lock()
	v.selected = serviceName
	v.histGen++
	gen := v.histGen
	v.history = nil
	v.historyErr = nil
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		h, err := v.api.ServiceHistory(ctx, serviceName, hours)
		v.storeHistory(gen, serviceName, h, err)
	}()
}

// storeHistory lands a fetched window, unless a newer selection superseded it.
func (v *View) storeHistory(gen uint64, serviceName string, h model.ServiceHistory, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.histGen || serviceName != v.selected {
		v.log.Debugw("stale history discarded", "service", serviceName)
		return
	}
	if err != nil {
		v.historyErr = err
		return
	}
	v.history = &h
}

// History returns the loaded window for the current selection, false while
// loading or when nothing is selected.
func (v *View) History() (model.ServiceHistory, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.history == nil {
		return model.ServiceHistory{}, false
	}
	return *v.history, true
}

// HistoryErr returns the error from the latest history fetch, if it failed.
func (v *View) HistoryErr() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.historyErr
}

// HistorySummary derives avg/min/max response times over the loaded window.
func (v *View) HistorySummary() (health.ResponseTimeSummary, bool) {
	h, ok := v.History()
	if !ok {
		return health.ResponseTimeSummary{}, false
	}
	return health.SummarizeResponseTimes(h.DataPoints), true
}

// Close shuts the live channel, stops the poller and waits for in-flight
// work. Idempotent; the snapshot stays readable afterwards.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		close(v.stop)
		if v.live != nil {
			v.live.Close()
		}
		v.wg.Wait()
	})
}

func (v *View) setPhase(p Phase) {
	v.mu.Lock()
	v.phase = p
	v.mu.Unlock()
}

// apply installs an incoming snapshot as the new current state.
func (v *View) apply(snap model.Snapshot) {
	v.mu.Lock()
	merged := Merge(v.snap, snap)
	v.snap = &merged
	v.lastErr = nil
	if v.phase != PhaseReadyStale {
		v.phase = PhaseReady
	}
	v.mu.Unlock()
}

func (v *View) applyLive(snap model.Snapshot) {
	v.apply(snap)
	v.log.Debugw("live snapshot applied", "services", len(snap.Services), "alerts", len(snap.Alerts))
}

func (v *View) onLiveState(s live.State) {
	if s != live.StateClosed {
		return
	}
	if v.live.Err() == nil {
		return // deliberate close, teardown in progress
	}
	v.mu.Lock()
	if v.phase == PhaseReady {
		v.phase = PhaseReadyStale
	}
	v.mu.Unlock()
	v.log.Warnw("live channel lost for good, data now stale")
}

// pollLoop substitutes fixed-interval re-fetch when no live channel exists.
func (v *View) pollLoop() {
	defer v.wg.Done()
	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-v.stop:
			return
		case <-ticker.C:
			if err := v.Refresh(context.Background()); err != nil {
				v.log.Warnw("poll refresh failed", "err", err)
			}
		}
	}
}
