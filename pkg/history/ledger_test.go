package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contestEntry(contest string, div, oldRating, newRating, tasks int, unofficial bool) Entry {
	return Entry{
		Contest:         contest,
		Division:        div,
		Position:        1,
		OldRating:       oldRating,
		NewRating:       newRating,
		Change:          newRating - oldRating,
		TasksSolved:     tasks,
		Unofficial:      unofficial,
		AllowedDivision: div,
		Date:            "2026-08-01",
		Kind:            KindContest,
	}
}

func TestSequence(t *testing.T) {
	assert.Equal(t, 12, Sequence("contest_0012"))
	assert.Equal(t, 3, Sequence("training_3"))
	assert.Equal(t, 0, Sequence("legacy"))
}

func TestAppend(t *testing.T) {
	t.Run("official entry moves rating and task score", func(t *testing.T) {
		l := NewLedger()
		l.Append("alice", contestEntry("contest_0001", 4, 0, 200, 3, false))

		assert.Equal(t, 200, l.Rating("alice"))
		assert.Equal(t, 3, l.TasksScore("alice"))
		assert.Len(t, l.ContestHistory("alice"), 1)
	})

	t.Run("unofficial entry moves nothing but history", func(t *testing.T) {
		l := NewLedger()
		l.Append("bob", contestEntry("contest_0001", 4, 1500, 1500, 5, true))

		assert.Zero(t, l.Rating("bob"))
		assert.Zero(t, l.TasksScore("bob"))
		assert.Len(t, l.ContestHistory("bob"), 1)
	})

	t.Run("training entry moves task score only", func(t *testing.T) {
		l := NewLedger()
		e := contestEntry("training_0001", 0, 0, 0, 4, false)
		e.Kind = KindTraining
		l.Append("carol", e)

		assert.Zero(t, l.Rating("carol"))
		assert.Equal(t, 4, l.TasksScore("carol"))
		assert.Len(t, l.TrainingHistory("carol"), 1)
		assert.Empty(t, l.ContestHistory("carol"))
	})

	t.Run("user is created on first appearance with zero rating", func(t *testing.T) {
		l := NewLedger()
		assert.False(t, l.Known("dave"))
		l.Append("dave", contestEntry("contest_0001", 4, 0, 150, 0, false))
		assert.True(t, l.Known("dave"))
	})
}

func TestProcessed(t *testing.T) {
	l := NewLedger()
	l.Append("alice", contestEntry("contest_0002", 3, 1000, 1100, 2, false))

	assert.True(t, l.Processed("alice", "contest_0002", 3))
	assert.False(t, l.Processed("alice", "contest_0002", 4))
	assert.False(t, l.Processed("alice", "contest_0003", 3))
	assert.False(t, l.Processed("bob", "contest_0002", 3))

	assert.True(t, l.AnyProcessed("contest_0002", 3))
	assert.False(t, l.AnyProcessed("contest_0002", 2))
}

func TestUsersOrder(t *testing.T) {
	l := NewLedger()
	l.Append("low", contestEntry("contest_0001", 4, 0, 150, 0, false))
	l.Append("high", contestEntry("contest_0001", 4, 0, 400, 0, false))
	l.Append("mid", contestEntry("contest_0001", 4, 0, 300, 0, false))

	assert.Equal(t, []string{"high", "mid", "low"}, l.Users())
}

func TestRebuildAggregates(t *testing.T) {
	build := func() *Ledger {
		l := NewLedger()
		// Appended out of sequence order on purpose: the replay must sort.
		l.Record("alice", contestEntry("contest_0003", 3, 1100, 1250, 2, false))
		l.Record("alice", contestEntry("contest_0001", 4, 0, 900, 4, false))
		l.Record("alice", contestEntry("contest_0002", 4, 900, 1100, 3, false))
		l.Record("alice", contestEntry("contest_0004", 4, 1250, 1250, 6, true))
		tr := contestEntry("training_0001", 0, 0, 0, 5, false)
		tr.Kind = KindTraining
		l.Record("alice", tr)
		return l
	}

	t.Run("replay follows contest sequence and skips unofficial", func(t *testing.T) {
		l := build()
		l.RebuildAggregates()

		// Rating from the official entry with the highest sequence.
		assert.Equal(t, 1250, l.Rating("alice"))
		// Official tasks 4+3+2 plus training 5; the unofficial 6 is skipped.
		assert.Equal(t, 14, l.TasksScore("alice"))
	})

	t.Run("rebuild is idempotent", func(t *testing.T) {
		l := build()
		l.RebuildAggregates()
		first := *l.users["alice"]
		l.RebuildAggregates()
		second := *l.users["alice"]

		assert.Equal(t, first, second)
	})

	t.Run("user with no official entries rebuilds to zero", func(t *testing.T) {
		l := NewLedger()
		l.Record("bob", contestEntry("contest_0001", 4, 1500, 1500, 3, true))
		l.RebuildAggregates()

		assert.Zero(t, l.Rating("bob"))
		assert.Zero(t, l.TasksScore("bob"))
	})
}

func TestRecordDoesNotTouchAggregate(t *testing.T) {
	l := NewLedger()
	l.Record("alice", contestEntry("contest_0001", 4, 0, 500, 3, false))

	assert.Zero(t, l.Rating("alice"))
	assert.Zero(t, l.TasksScore("alice"))
	require.Len(t, l.ContestHistory("alice"), 1)
}
