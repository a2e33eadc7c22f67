package audit

import "context"

// Sink receives compliance events. Callers treat it as fire-and-forget:
// a failed Record never blocks or fails a dial.
type Sink interface {
	Record(ctx context.Context, event *ComplianceEvent) error
}

// Store persists compliance events
type Store interface {
	Append(ctx context.Context, events []*ComplianceEvent) error
}
