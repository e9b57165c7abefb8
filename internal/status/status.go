// Package status carries loading progress from whatever produces a widget
// value to whatever displays it.
package status

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage is where a request is in its lifecycle.
type Stage string

const (
	Pending    Stage = "pending"
	Generating Stage = "generating"
	Complete   Stage = "complete"
	Error      Stage = "error"
)

// Status is a point-in-time loading state. The widget does not interpret
// it; it is handed to a Tracker unchanged.
type Status struct {
	Stage         Stage         `json:"status" yaml:"status"`
	QueuePosition int           `json:"queue_position,omitempty" yaml:"queue_position,omitempty"`
	QueueSize     int           `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	ETA           time.Duration `json:"eta,omitempty" yaml:"eta,omitempty"`
	Message       string        `json:"message,omitempty" yaml:"message,omitempty"`
}

// Done reports whether the stage is terminal.
func (s Status) Done() bool {
	return s.Stage == Complete || s.Stage == Error
}

func (s Status) String() string {
	switch s.Stage {
	case Pending:
		if s.QueueSize > 0 {
			return fmt.Sprintf("queued %d/%d", s.QueuePosition+1, s.QueueSize)
		}
		return "pending"
	case Generating:
		if s.ETA > 0 {
			return fmt.Sprintf("generating (eta %s)", s.ETA.Round(time.Second))
		}
		return "generating"
	case Error:
		if s.Message != "" {
			return "error: " + s.Message
		}
		return "error"
	case "":
		return "idle"
	}
	return string(s.Stage)
}

// Tracker receives every status the widget is given.
type Tracker interface {
	Update(Status)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(Status)

func (f TrackerFunc) Update(s Status) { f(s) }

// LogTracker logs each status at debug level, errors at warn.
type LogTracker struct {
	Name string
}

func (t LogTracker) Update(s Status) {
	if s.Stage == Error {
		zap.S().Warnw("loading failed", "widget", t.Name, "message", s.Message)
		return
	}
	zap.S().Debugw("loading status", "widget", t.Name, "status", s.String())
}

// Recorder keeps the last status for hosts that draw it later.
type Recorder struct {
	mu   sync.Mutex
	last Status
	seen bool
}

func (r *Recorder) Update(s Status) {
	r.mu.Lock()
	r.last, r.seen = s, true
	r.mu.Unlock()
}

// Last returns the most recent status and whether one was recorded.
func (r *Recorder) Last() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.seen
}

// Multi fans a status out to several trackers in order.
func Multi(ts ...Tracker) Tracker {
	return TrackerFunc(func(s Status) {
		for _, t := range ts {
			if t != nil {
				t.Update(s)
			}
		}
	})
}
