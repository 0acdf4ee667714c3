// Package live maintains the receive-only WebSocket channel that streams full
// monitoring snapshots from the backend. One Manager owns one connection;
// nothing is ever sent on it.
package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"opspulse/pkg/model"
)

// State is the observable connection state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// ErrExhausted marks the terminal closed state reached after the retry budget
// ran out. Consumers surface it as a persistent "not live" indicator and keep
// showing the last snapshot.
var ErrExhausted = errors.New("live channel retry budget exhausted")

// Policy is the reconnect contract: a bounded number of attempts with a fixed
// inter-attempt delay. The backend contract uses fixed delays, not backoff.
type Policy struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultPolicy mirrors the served dashboard: 10 retries, 3 s apart.
var DefaultPolicy = Policy{MaxAttempts: 10, RetryDelay: 3 * time.Second}

// Manager dials ws(s)://<base>/ws/monitoring and keeps it alive within the
// retry budget. Decoded snapshots go to the OnSnapshot callback; state
// transitions go to OnState. Malformed frames are logged and dropped without
// touching the connection.
type Manager struct {
	endpoint string
	policy   Policy
	log      *zap.SugaredLogger

	onSnapshot func(model.Snapshot)
	onState    func(State)

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	err     error
	stopped bool

	stop chan struct{}
	done chan struct{}
}

// New builds a manager for the given WebSocket base URL. http(s) schemes are
// mapped to ws(s) so the REST base can be reused verbatim.
func New(wsBase string, policy Policy, log *zap.SugaredLogger) (*Manager, error) {
	u, err := url.Parse(wsBase)
	if err != nil {
		return nil, fmt.Errorf("parse ws base: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported ws scheme %q", u.Scheme)
	}
	u.Path = "/ws/monitoring"
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if policy.RetryDelay <= 0 {
		policy.RetryDelay = DefaultPolicy.RetryDelay
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		endpoint: u.String(),
		policy:   policy,
		log:      log,
		state:    StateConnecting,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// OnSnapshot registers the consumer for decoded snapshots. Must be set before
// Start; the callback runs on the read loop goroutine.
func (m *Manager) OnSnapshot(fn func(model.Snapshot)) { m.onSnapshot = fn }

// OnState registers a state-change observer. Must be set before Start.
func (m *Manager) OnState(fn func(State)) { m.onState = fn }

// Start launches the connect/read loop.
func (m *Manager) Start() { go m.loop() }

// Done is closed once the manager reaches its terminal closed state, whether
// by Close or by budget exhaustion.
func (m *Manager) Done() <-chan struct{} { return m.done }

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns ErrExhausted after the retry budget ran out, nil otherwise.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close tears the connection down and stops reconnecting. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	conn := m.conn
	m.mu.Unlock()

	close(m.stop)
	if conn != nil {
		_ = conn.Close()
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	attempts := 0
	for {
		select {
		case <-m.stop:
			m.setState(StateClosed, nil)
			return
		default:
		}

		conn, resp, err := websocket.DefaultDialer.Dial(m.endpoint, nil)
		if err != nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			m.log.Warnw("ws dial failed", "url", m.endpoint, "status", status, "err", err)
		} else {
			m.mu.Lock()
			if m.stopped {
				m.mu.Unlock()
				_ = conn.Close()
				m.setState(StateClosed, nil)
				return
			}
			m.conn = conn
			m.mu.Unlock()
			m.setState(StateOpen, nil)
			m.log.Infow("ws connected", "url", m.endpoint)

			m.readLoop(conn)

			m.mu.Lock()
			m.conn = nil
			stopped := m.stopped
			m.mu.Unlock()
			if stopped {
				m.setState(StateClosed, nil)
				return
			}
		}

		attempts++
		if attempts > m.policy.MaxAttempts {
			m.log.Warnw("ws retry budget exhausted", "attempts", attempts-1)
			m.setState(StateClosed, ErrExhausted)
			return
		}
		m.setState(StateConnecting, nil)
		m.log.Infow("ws reconnecting", "attempt", attempts, "delay", m.policy.RetryDelay)
		select {
		case <-m.stop:
			m.setState(StateClosed, nil)
			return
		case <-time.After(m.policy.RetryDelay):
		}
	}
}

// readLoop pumps frames until the connection dies. A frame that fails to
// decode is dropped; the connection stays up.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.log.Infow("ws read ended", "err", err)
			return
		}
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			m.log.Warnw("ws message dropped", "err", err, "bytes", len(data))
			continue
		}
		if m.onSnapshot != nil {
			m.onSnapshot(snap)
		}
	}
}

func (m *Manager) setState(s State, err error) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	if err != nil {
		m.err = err
	}
	m.mu.Unlock()
	if changed && m.onState != nil {
		m.onState(s)
	}
}
