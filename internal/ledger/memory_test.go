package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterRow is a minimal versioned row for exercising the committer
type counterRow struct {
	RefID string
	Value int
}

func (counterRow) TableName() string     { return "counter_rows" }
func (r *counterRow) StateRefID() string { return r.RefID }

func seedCounter(m *MemoryCommitter, value int) *counterRow {
	row := &counterRow{RefID: uuid.NewString(), Value: value}
	m.Seed(row.TableName(), row.RefID, row)
	return row
}

func TestCommitConsumesInputs(t *testing.T) {
	m := NewMemoryCommitter()
	ctx := context.Background()
	old := seedCounter(m, 1)

	next := &counterRow{RefID: uuid.NewString(), Value: 2}
	txID, err := m.Commit(ctx, &Proposal{
		Inputs:      []StateRef{{Table: old.TableName(), RefID: old.RefID}},
		Outputs:     []interface{}{next},
		TxType:      "TEST",
		PerformedBy: "tester",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txID)

	assert.True(t, m.Consumed(old.TableName(), old.RefID))
	assert.Equal(t, 1, m.CommitCount())

	live := m.Unconsumed(next.TableName())
	require.Len(t, live, 1)
	assert.Equal(t, 2, live[0].(*counterRow).Value)
}

func TestCommitRejectsConsumedInput(t *testing.T) {
	m := NewMemoryCommitter()
	ctx := context.Background()
	old := seedCounter(m, 1)

	spend := func() error {
		_, err := m.Commit(ctx, &Proposal{
			Inputs:      []StateRef{{Table: old.TableName(), RefID: old.RefID}},
			Outputs:     []interface{}{&counterRow{RefID: uuid.NewString(), Value: 2}},
			TxType:      "TEST",
			PerformedBy: "tester",
		})
		return err
	}

	require.NoError(t, spend())
	assert.ErrorIs(t, spend(), ErrInputConsumed)
	assert.Equal(t, 1, m.CommitCount())
}

func TestCommitRejectsUnknownInput(t *testing.T) {
	m := NewMemoryCommitter()

	_, err := m.Commit(context.Background(), &Proposal{
		Inputs:      []StateRef{{Table: "counter_rows", RefID: uuid.NewString()}},
		Outputs:     []interface{}{&counterRow{RefID: uuid.NewString()}},
		TxType:      "TEST",
		PerformedBy: "tester",
	})
	assert.ErrorIs(t, err, ErrInputConsumed)
}

func TestCommitRejectsEmptyProposal(t *testing.T) {
	m := NewMemoryCommitter()

	_, err := m.Commit(context.Background(), &Proposal{TxType: "TEST"})
	assert.ErrorIs(t, err, ErrEmptyProposal)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	m := NewMemoryCommitter()
	ctx := context.Background()
	a := seedCounter(m, 1)
	b := seedCounter(m, 2)

	// spend b on its own
	_, err := m.Commit(ctx, &Proposal{
		Inputs:      []StateRef{{Table: b.TableName(), RefID: b.RefID}},
		Outputs:     []interface{}{&counterRow{RefID: uuid.NewString(), Value: 3}},
		TxType:      "TEST",
		PerformedBy: "tester",
	})
	require.NoError(t, err)

	// a proposal touching both a and the spent b must leave a untouched
	_, err = m.Commit(ctx, &Proposal{
		Inputs: []StateRef{
			{Table: a.TableName(), RefID: a.RefID},
			{Table: b.TableName(), RefID: b.RefID},
		},
		Outputs:     []interface{}{&counterRow{RefID: uuid.NewString(), Value: 4}},
		TxType:      "TEST",
		PerformedBy: "tester",
	})
	assert.ErrorIs(t, err, ErrInputConsumed)
	assert.False(t, m.Consumed(a.TableName(), a.RefID))
}

func TestConcurrentCommitsSpendOnce(t *testing.T) {
	m := NewMemoryCommitter()
	ctx := context.Background()
	old := seedCounter(m, 1)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Commit(ctx, &Proposal{
				Inputs:      []StateRef{{Table: old.TableName(), RefID: old.RefID}},
				Outputs:     []interface{}{&counterRow{RefID: uuid.NewString(), Value: 2}},
				TxType:      "TEST",
				PerformedBy: "tester",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrInputConsumed)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, m.CommitCount())
}
