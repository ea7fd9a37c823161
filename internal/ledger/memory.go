package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// refKey addresses one row across tables
type refKey struct {
	table string
	refID string
}

// MemoryCommitter is an in-process Committer with the same consume-at-most-once
// semantics as the database committer. It backs unit tests and single-node
// deployments that run without a database.
type MemoryCommitter struct {
	mu       sync.Mutex
	rows     map[refKey]interface{}
	consumed map[refKey]bool
	journal  []string
}

// NewMemoryCommitter creates an empty in-memory committer
func NewMemoryCommitter() *MemoryCommitter {
	return &MemoryCommitter{
		rows:     make(map[refKey]interface{}),
		consumed: make(map[refKey]bool),
	}
}

// Seed places a row into the store without going through a commit
func (m *MemoryCommitter) Seed(table, refID string, row interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[refKey{table, refID}] = row
}

// Commit applies the proposal under one lock: all inputs must be present and
// unconsumed, otherwise nothing changes.
func (m *MemoryCommitter) Commit(_ context.Context, p *Proposal) (string, error) {
	if len(p.Outputs) == 0 {
		return "", ErrEmptyProposal
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range p.Inputs {
		k := refKey{in.Table, in.RefID}
		if _, ok := m.rows[k]; !ok {
			return "", ErrInputConsumed
		}
		if m.consumed[k] {
			return "", ErrInputConsumed
		}
	}

	for _, in := range p.Inputs {
		m.consumed[refKey{in.Table, in.RefID}] = true
	}
	for _, out := range p.Outputs {
		if t, ok := out.(interface {
			TableName() string
			StateRefID() string
		}); ok {
			m.rows[refKey{t.TableName(), t.StateRefID()}] = out
		}
	}

	txID := uuid.NewString()
	m.journal = append(m.journal, txID)
	return txID, nil
}

// Consumed reports whether a reference has been consumed
func (m *MemoryCommitter) Consumed(table, refID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed[refKey{table, refID}]
}

// Unconsumed returns the live rows of one table
func (m *MemoryCommitter) Unconsumed(table string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interface{}
	for k, row := range m.rows {
		if k.table == table && !m.consumed[k] {
			out = append(out, row)
		}
	}
	return out
}

// CommitCount returns the number of committed transactions
func (m *MemoryCommitter) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.journal)
}
