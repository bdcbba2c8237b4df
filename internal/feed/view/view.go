package view

import (
	"strings"
	"sync"
	"time"

	"github.com/zappabad/marketpulse/internal/market"
)

// Status is the load state of the market table.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultErrorMessage is shown when a failure carries no message.
const DefaultErrorMessage = "Failed to load market data"

// State is a point-in-time copy of the feed state.
type State struct {
	Status Status
	// Snapshot is the last successful load. It survives a later failure.
	Snapshot    market.Snapshot
	Err         error
	Message     string
	LastAttempt time.Time
	LastSuccess time.Time
}

// HasData reports whether any records have been loaded.
func (s State) HasData() bool {
	return s.Snapshot.Len() > 0
}

// FeedView owns the state record. Every transition replaces it under one lock.
type FeedView struct {
	mu    sync.RWMutex
	state State
}

// NewFeedView creates a FeedView in the idle state.
func NewFeedView() *FeedView {
	return &FeedView{}
}

// BeginLoad moves to Loading and clears the previous error.
func (v *FeedView) BeginLoad(at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Status = StatusLoading
	v.state.Err = nil
	v.state.Message = ""
	v.state.LastAttempt = at
}

// Succeed moves to Success with snap replacing the previous records.
func (v *FeedView) Succeed(snap market.Snapshot, at time.Time) {
	snap = snap.Clone()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = State{
		Status:      StatusSuccess,
		Snapshot:    snap,
		LastAttempt: v.state.LastAttempt,
		LastSuccess: at,
	}
}

// Fail moves to Error. The last good records are kept.
func (v *FeedView) Fail(err error, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Status = StatusError
	v.state.Err = err
	v.state.Message = ErrorMessage(err)
	v.state.LastAttempt = at
}

// State returns a copy of the current state.
func (v *FeedView) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := v.state
	s.Snapshot = s.Snapshot.Clone()
	return s
}

// Sorted returns the current records filtered by category and sorted.
func (v *FeedView) Sorted(sort market.SortState, category market.Category) []market.Record {
	v.mu.RLock()
	records := v.state.Snapshot.Records
	v.mu.RUnlock()
	return market.Sorted(market.Filter(records, category), sort)
}

// Summary counts the current records.
func (v *FeedView) Summary() market.Summary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return market.Summarize(v.state.Snapshot.Records)
}

// ErrorMessage returns the first line of err for the banner.
func ErrorMessage(err error) string {
	if err == nil {
		return DefaultErrorMessage
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return DefaultErrorMessage
	}
	return msg
}
