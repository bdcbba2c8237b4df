package view

import "time"

// EventKind identifies a feed event.
type EventKind int

const (
	EventLoading EventKind = iota
	EventLoaded
	EventFailed
	EventNews
)

// FeedEvent reports a transition of the feed.
type FeedEvent struct {
	Kind    EventKind
	Source  string
	Records int
	Err     error
	Time    time.Time
}
