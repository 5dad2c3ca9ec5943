package events

import "time"

// FetchStart is emitted before a batch of FetchRequests is dispatched to one
// subgraph (internal/fetch.DataSource.Dispatch, one event per group).
type FetchStart struct {
	Subgraph      string
	OperationType string
	RequestCount  int
}

// FetchFinish is emitted after a dispatched group returns.
type FetchFinish struct {
	Subgraph      string
	OperationType string
	RequestCount  int
	Err           error
	Duration      time.Duration
}
