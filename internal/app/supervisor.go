package app

import (
	"context"
	"sync"
	"time"
)

// ActionKind identifies a user-initiated control action. Destructive actions
// are two-phase: Request records the intent, Confirm dispatches it.
type ActionKind string

const (
	ActionNone    ActionKind = ""
	ActionCancel  ActionKind = "cancel"
	ActionRestart ActionKind = "restart"
	ActionRewrite ActionKind = "rewrite"
)

// ProcessAPI is the slice of the backend the supervisor talks to.
type ProcessAPI interface {
	FetchProcessStatus(ctx context.Context) (ProcessStatus, error)
	CancelProcess(ctx context.Context) error
	RestartProcess(ctx context.Context, params map[string]any) error
	RewriteApplications(ctx context.Context, useLastCache bool) error
}

// StatusObserver receives every accepted snapshot, including the forced-idle
// one after a failed status read.
type StatusObserver func(ProcessStatus)

const (
	DefaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Supervisor owns the authoritative ProcessStatus for one backend run,
// decides when to poll for it, and mediates the cancel/restart/rewrite
// commands behind a confirmation step and a busy flag.
//
// Status reads are deliberately gated: polling only runs after the user has
// confirmed a command (before that there is no reason to believe a process
// exists), and only while the last snapshot says the run is live. A backend
// that doesn't expose the status endpoint therefore costs one failed fetch,
// not a stream of them.
type Supervisor struct {
	api      ProcessAPI
	observer StatusObserver
	logger   *Logger
	interval time.Duration
	timeout  time.Duration

	mu            sync.Mutex
	status        ProcessStatus
	pending       ActionKind
	restartParams map[string]any
	loading       bool
	pollEnabled   bool
	pollStop      chan struct{}
	fetchWarned   bool
	closed        bool
}

// NewSupervisor starts in the idle state with polling disarmed. The observer
// is fixed at construction so a test harness can substitute a recording one.
func NewSupervisor(api ProcessAPI, observer StatusObserver, logger *Logger, interval time.Duration) *Supervisor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Supervisor{
		api:      api,
		observer: observer,
		logger:   logger,
		interval: interval,
		timeout:  defaultRequestTimeout,
		status:   IdleStatus(time.Now()),
	}
}

// Status returns the current snapshot.
func (s *Supervisor) Status() ProcessStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pending returns the action awaiting confirmation, or ActionNone.
func (s *Supervisor) Pending() ActionKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Busy reports whether a confirmed command is still in flight. The rendered
// controls must stay disabled while this is true.
func (s *Supervisor) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// PollingActive reports whether the recurring status fetch is running.
func (s *Supervisor) PollingActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollStop != nil
}

// PollingEnabled reports whether a confirmed command has armed polling.
// Armed is not active: the loop runs only while the run is also live.
func (s *Supervisor) PollingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollEnabled
}

// ReportStatus accepts a status snapshot. Snapshots older than the current
// one are discarded; an accepted one replaces the status, re-evaluates the
// polling condition and notifies the observer.
func (s *Supervisor) ReportStatus(st ProcessStatus) {
	s.mu.Lock()
	if s.closed || st.Timestamp.Before(s.status.Timestamp) {
		s.mu.Unlock()
		return
	}
	s.status = st
	s.reevaluateLocked()
	obs := s.observer
	s.mu.Unlock()

	if obs != nil {
		obs(st)
	}
}

// RequestAction records kind as awaiting confirmation. The caller is expected
// to have disabled the triggering control when the action is meaningless; the
// checks here are a defense against stale UI state, and a failed check is a
// silent no-op, not an error.
func (s *Supervisor) RequestAction(kind ActionKind) {
	if kind == ActionRestart {
		s.RequestRestart(nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.loading {
		return
	}
	switch kind {
	case ActionCancel:
		if !s.status.CanCancel {
			return
		}
	case ActionRewrite:
		// Rewrite has no status precondition; it gates itself through its
		// own confirmation.
	default:
		return
	}
	s.pending = kind
}

// RequestRestart records a restart with a caller-supplied parameter bag
// (keywords, limits). A nil bag means restart with the backend's defaults.
func (s *Supervisor) RequestRestart(params map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.loading || !s.status.CanRestart {
		return
	}
	if params == nil {
		params = map[string]any{}
	}
	s.pending = ActionRestart
	s.restartParams = params
}

// CancelPending drops the awaiting action without any network effect.
// Calling it with nothing pending is a no-op.
func (s *Supervisor) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		// The in-flight dispatch owns the clear now.
		return
	}
	s.pending = ActionNone
	s.restartParams = nil
}

// ConfirmPending dispatches the awaiting action: it raises the busy flag so
// a duplicate confirm is rejected, arms polling (confirming a command is the
// sole trigger that does), and issues exactly one command call. Pending and
// busy are cleared when the call resolves, success or not. The response never
// updates the status directly; the backend is the source of truth and the
// next accepted poll reflects it.
func (s *Supervisor) ConfirmPending(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.loading || s.pending == ActionNone {
		s.mu.Unlock()
		return
	}
	kind := s.pending
	params := s.restartParams
	s.loading = true
	s.pollEnabled = true
	s.reevaluateLocked()
	s.mu.Unlock()

	go s.dispatch(ctx, kind, params)
}

// Close tears down the poll loop. Further operations are no-ops.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.reevaluateLocked()
}

func (s *Supervisor) dispatch(ctx context.Context, kind ActionKind, params map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	switch kind {
	case ActionCancel:
		err = s.api.CancelProcess(ctx)
	case ActionRestart:
		err = s.api.RestartProcess(ctx, params)
	case ActionRewrite:
		err = s.api.RewriteApplications(ctx, true)
	}

	s.mu.Lock()
	s.pending = ActionNone
	s.restartParams = nil
	s.loading = false
	bootstrap := err == nil && !s.closed && s.pollEnabled && s.pollStop == nil
	s.mu.Unlock()

	if err != nil {
		if s.logger != nil {
			s.logger.Error("process command failed", map[string]interface{}{
				"action": string(kind),
				"error":  err.Error(),
			})
		}
		// No automatic retry; the next poll, if any, reveals the true state.
		return
	}

	if bootstrap {
		// The last snapshot predates the command, so the recurring loop is
		// still down. One read picks up the backend's new state; if it now
		// reports a live run, ReportStatus arms the loop.
		s.fetchStatus(nil)
	}
}

// reevaluateLocked starts or stops the poll loop so that it runs exactly
// while pollEnabled && status.IsRunning on a live supervisor.
func (s *Supervisor) reevaluateLocked() {
	active := !s.closed && s.pollEnabled && s.status.IsRunning
	switch {
	case active && s.pollStop == nil:
		stop := make(chan struct{})
		s.pollStop = stop
		go s.pollLoop(stop)
	case !active && s.pollStop != nil:
		close(s.pollStop)
		s.pollStop = nil
	}
}

// pollLoop fetches immediately, then at the fixed interval, until torn down.
func (s *Supervisor) pollLoop(stop chan struct{}) {
	s.fetchStatus(stop)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.fetchStatus(stop)
		}
	}
}

func (s *Supervisor) fetchStatus(stop <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	st, err := s.api.FetchProcessStatus(ctx)
	cancel()

	if stop != nil {
		select {
		case <-stop:
			// Torn down while the fetch was in flight; the result belongs
			// to a loop that no longer exists.
			return
		default:
		}
	}

	if err != nil {
		s.degradeToIdle(err)
		return
	}
	s.ReportStatus(st)
}

// degradeToIdle treats an unreachable status endpoint as "no process is
// running": the status is forced to idle, which flips the active condition
// and ends polling after the one failed attempt. The diagnostic is emitted
// at most once per supervisor so an absent endpoint can't flood the log.
func (s *Supervisor) degradeToIdle(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !s.fetchWarned {
		s.fetchWarned = true
		if s.logger != nil {
			s.logger.Error("process status unreachable, treating as idle", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	st := IdleStatus(time.Now())
	if st.Timestamp.Before(s.status.Timestamp) {
		st.Timestamp = s.status.Timestamp
	}
	s.status = st
	s.reevaluateLocked()
	obs := s.observer
	s.mu.Unlock()

	if obs != nil {
		obs(st)
	}
}
