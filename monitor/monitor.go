package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/sabik/telemetry"
	"github.com/zero-day-ai/sabik/toolerr"
)

// StartStatus is the outcome of Start.
type StartStatus string

const (
	Started        StartStatus = "started"
	AlreadyRunning StartStatus = "already_running"
)

// Reasons a connection ended, used to pick the backoff delay.
const (
	CauseTimeout = "timeout"
	CauseIOError = "io_error"
	CauseFault   = "fault"
	CauseEnd     = "end"
)

// Default timings.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultJoinTimeout    = 5 * time.Second
)

// Backoff holds the fixed delay applied after each kind of disconnect.
type Backoff struct {
	Timeout time.Duration
	IOError time.Duration
	Fault   time.Duration
	End     time.Duration
}

// DefaultBackoff returns 10s after failures and 5s after a clean end.
func DefaultBackoff() Backoff {
	return Backoff{
		Timeout: 10 * time.Second,
		IOError: 10 * time.Second,
		Fault:   10 * time.Second,
		End:     5 * time.Second,
	}
}

func (b Backoff) delay(cause string) time.Duration {
	switch cause {
	case CauseTimeout:
		return b.Timeout
	case CauseIOError:
		return b.IOError
	case CauseEnd:
		return b.End
	default:
		return b.Fault
	}
}

// Session is one live consumer of a feed.
type Session struct {
	ID        string
	FeedID    string
	URL       string
	StartedAt time.Time

	done chan struct{}
}

// Running reports whether the session's worker has not exited yet.
func (s *Session) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Done is closed when the worker exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Monitor supervises server-sent event feeds. Each started feed gets one
// worker goroutine that reconnects after a fixed delay until StopAll.
// All workers share a single cancellation signal; there is no way to stop
// one feed while leaving the others running.
type Monitor struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ctx      context.Context
	cancel   context.CancelFunc

	client         *http.Client
	sink           Sink
	headers        map[string]string
	backoff        Backoff
	connectTimeout time.Duration
	readTimeout    time.Duration
	joinTimeout    time.Duration

	logger  *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithHTTPClient sets the client used to open feeds. Its Timeout should be
// zero; connection and idle limits are enforced by the monitor.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Monitor) {
		m.client = c
	}
}

// WithSink sets where events are delivered. If the sink implements
// Notifier it also receives lifecycle notices.
func WithSink(s Sink) Option {
	return func(m *Monitor) {
		m.sink = s
	}
}

// WithHeaders adds headers to every feed request.
func WithHeaders(h map[string]string) Option {
	return func(m *Monitor) {
		for k, v := range h {
			m.headers[k] = v
		}
	}
}

// WithBackoff overrides the reconnect delays.
func WithBackoff(b Backoff) Option {
	return func(m *Monitor) {
		m.backoff = b
	}
}

// WithTimeouts sets the connect timeout and how long a stream may stay
// silent before it is treated as timed out.
func WithTimeouts(connect, read time.Duration) Option {
	return func(m *Monitor) {
		m.connectTimeout = connect
		m.readTimeout = read
	}
}

// WithJoinTimeout sets how long StopAll waits for each worker.
func WithJoinTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		m.joinTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithMetrics records event and reconnect counters.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// New creates a monitor with no running feeds.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		sessions:       make(map[string]*Session),
		client:         &http.Client{},
		sink:           discard{},
		headers:        make(map[string]string),
		backoff:        DefaultBackoff(),
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		joinTimeout:    DefaultJoinTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "monitor")
	return m
}

// Start launches a worker for feedID unless one is already live.
func (m *Monitor) Start(feedID, url string) (StartStatus, error) {
	if feedID == "" || url == "" {
		return "", toolerr.New("monitor", "start", toolerr.CodeInvalidInput, "feed id and url are required").
			WithDetails(map[string]any{"feed_id": feedID, "url": url})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[feedID]; ok && s.Running() {
		return AlreadyRunning, nil
	}

	if m.ctx == nil || m.ctx.Err() != nil {
		m.ctx, m.cancel = context.WithCancel(context.Background())
	}

	s := &Session{
		ID:        uuid.NewString(),
		FeedID:    feedID,
		URL:       url,
		StartedAt: m.now(),
		done:      make(chan struct{}),
	}
	m.sessions[feedID] = s

	go m.run(m.ctx, s)

	m.logger.Info("feed worker started", "feed", feedID, "session_id", s.ID, "url", url)
	return Started, nil
}

// StopAll cancels every worker and waits up to the join timeout for each
// to exit. Workers still alive afterwards are logged and abandoned. The
// active set is cleared, so a later Start always launches a new worker.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := m.sessions[id]
		timer := time.NewTimer(m.joinTimeout)
		select {
		case <-s.done:
			m.logger.Debug("feed worker joined", "feed", id, "session_id", s.ID)
		case <-timer.C:
			m.logger.Warn("feed worker did not terminate",
				"feed", id,
				"session_id", s.ID,
				"join_timeout", m.joinTimeout)
		}
		timer.Stop()
	}

	m.sessions = make(map[string]*Session)
	m.ctx = nil
	m.cancel = nil
}

// Running returns the ids of feeds with a live worker, sorted.
func (m *Monitor) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.Running() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsRunning reports whether feedID has a live worker.
func (m *Monitor) IsRunning(feedID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[feedID]
	return ok && s.Running()
}

func (m *Monitor) run(ctx context.Context, s *Session) {
	defer close(s.done)

	logger := m.logger.With("feed", s.FeedID, "session_id", s.ID)
	m.notify(Notice{FeedID: s.FeedID, Kind: NoticeStarted})

	for {
		cause, err := m.consume(ctx, s, logger)
		if ctx.Err() != nil {
			break
		}

		delay := m.backoff.delay(cause)
		if err != nil {
			logger.Warn("feed connection lost", "cause", cause, "retry_in", delay, "error", err)
		} else {
			logger.Info("feed stream ended", "retry_in", delay)
		}
		m.metrics.RecordFeedReconnect(ctx, s.FeedID, cause)
		m.notify(Notice{FeedID: s.FeedID, Kind: NoticeRetrying, Cause: cause, Err: err, Retry: delay})

		if !sleep(ctx, delay) {
			break
		}
	}

	m.notify(Notice{FeedID: s.FeedID, Kind: NoticeStopped})
	logger.Info("feed worker exited")
}

// consume holds one connection open until it ends and reports why.
func (m *Monitor) consume(ctx context.Context, s *Session, logger *slog.Logger) (cause string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("feed worker panic", "panic", r, "stack", string(debug.Stack()))
			cause = CauseFault
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	dog := newWatchdog(m.connectTimeout, cancel)
	defer dog.stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.URL, nil)
	if err != nil {
		return CauseFault, fmt.Errorf("build request: %w", err)
	}
	for k, v := range m.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := m.client.Do(req)
	if err != nil {
		return classify(err, dog), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return CauseIOError, toolerr.New("monitor", "connect", toolerr.CodeUpstreamStatus,
			fmt.Sprintf("feed returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"status_code": resp.StatusCode, "url": s.URL})
	}

	dog.reset(m.readTimeout)
	logger.Info("feed connected", "url", s.URL)
	m.notify(Notice{FeedID: s.FeedID, Kind: NoticeConnected})

	err = parseSSE(reqCtx, resp.Body, func() { dog.reset(m.readTimeout) }, func(name, data string) error {
		ev, ok := newEvent(s.FeedID, name, data, m.now())
		if !ok {
			return nil
		}
		m.metrics.RecordFeedEvent(ctx, s.FeedID, ev.Raw)
		m.sink.Deliver(ev)
		return nil
	})
	if err != nil {
		return classify(err, dog), err
	}
	return CauseEnd, nil
}

func (m *Monitor) notify(n Notice) {
	if nt, ok := m.sink.(Notifier); ok {
		nt.Notify(n)
	}
}

func classify(err error, dog *watchdog) string {
	if dog.fired.Load() || errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	return CauseIOError
}

// sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// watchdog cancels a request when it is not reset in time.
type watchdog struct {
	timer *time.Timer
	fired atomic.Bool
}

func newWatchdog(d time.Duration, cancel context.CancelFunc) *watchdog {
	w := &watchdog{}
	w.timer = time.AfterFunc(d, func() {
		w.fired.Store(true)
		cancel()
	})
	return w
}

func (w *watchdog) reset(d time.Duration) {
	w.timer.Reset(d)
}

func (w *watchdog) stop() {
	w.timer.Stop()
}
