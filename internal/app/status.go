package app

import "time"

// Phase is the lifecycle phase of the remote hunt process as reported by the
// backend. "Process" here is the long-running job-search/application run, not
// an OS process.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCancelled Phase = "cancelled"
	PhaseCompleted Phase = "completed"
	PhaseError     Phase = "error"
)

// ProcessStatus is a point-in-time snapshot of the watched run.
type ProcessStatus struct {
	Phase      Phase     `json:"status"`
	IsRunning  bool      `json:"is_running"`
	CanCancel  bool      `json:"can_cancel"`
	CanRestart bool      `json:"can_restart"`
	Timestamp  time.Time `json:"timestamp"`
}

// Normalized returns a copy with the capability booleans derived from the
// phase, so a snapshot can never claim a cancel on a non-running process or
// a restart on a running one.
func (s ProcessStatus) Normalized() ProcessStatus {
	s.IsRunning = s.Phase == PhaseRunning || s.Phase == PhasePaused
	s.CanCancel = s.Phase == PhaseRunning
	s.CanRestart = !s.IsRunning
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	return s
}

// IdleStatus is the conservative default: nothing running, restart allowed.
func IdleStatus(at time.Time) ProcessStatus {
	return ProcessStatus{
		Phase:      PhaseIdle,
		IsRunning:  false,
		CanCancel:  false,
		CanRestart: true,
		Timestamp:  at,
	}
}
