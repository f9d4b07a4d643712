package port

import (
	"context"

	"github.com/ringo380/pgadvisor/internal/core/domain"
)

// CreationOutcome is the terminal state of one candidate's build attempt.
type CreationOutcome string

const (
	OutcomeCreated       CreationOutcome = "CREATED"
	OutcomeAlreadyExists CreationOutcome = "ALREADY_EXISTS"
	OutcomeFailed        CreationOutcome = "FAILED"
)

// CreationResult records what happened to one candidate. Error is empty
// unless Outcome is FAILED.
type CreationResult struct {
	Candidate  domain.IndexCandidate `json:"candidate"`
	SQL        string                `json:"sql,omitempty"`
	Outcome    CreationOutcome       `json:"outcome"`
	Error      string                `json:"error,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
}

// IndexCreator executes one approved candidate against the database with a
// non-locking build. Implementations must check the live catalog for the
// candidate's generated name first (idempotence) and must confine each
// candidate to its own unit of work: a failed build is cleaned up and
// reported, never propagated as an error.
type IndexCreator interface {
	Create(ctx context.Context, candidate domain.IndexCandidate) CreationResult
}
