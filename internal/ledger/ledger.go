// Package ledger provides the versioned state store and the transaction
// committer. Every entity version is a row with a unique reference that can be
// consumed by at most one committed transaction; a proposal whose inputs were
// already consumed is rejected outright, which is the only concurrency gate in
// the system.
package ledger

import (
	"context"
	"errors"
)

// Committer errors
var (
	// ErrInputConsumed is returned when any input reference of a proposal was
	// already consumed by another committed transaction.
	ErrInputConsumed = errors.New("input state version already consumed")
	// ErrEmptyProposal is returned for a proposal with no outputs.
	ErrEmptyProposal = errors.New("proposal has no outputs")
)

// StateRef identifies one state version row in one table
type StateRef struct {
	Table string
	RefID string
}

// Proposal is a set of input references to consume plus the output rows to
// append, committed atomically with one journal entry.
type Proposal struct {
	Inputs      []StateRef
	Outputs     []interface{}
	TxType      string
	Description string
	PerformedBy string
}

// Committer applies proposals atomically. Commit succeeds only if every input
// reference is still unconsumed at apply time.
type Committer interface {
	Commit(ctx context.Context, p *Proposal) (txID string, err error)
}
