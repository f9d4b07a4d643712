package port

import "context"

// AuditEntry represents a single auditable DDL event from the creation phase.
type AuditEntry struct {
	Index      string
	Table      string
	SQL        string
	Outcome    CreationOutcome
	DurationMS int64
	Err        error
}

// DDLAuditor records index-creation audit events.
type DDLAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}
