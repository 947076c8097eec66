package history

import (
	"sort"
)

// Aggregate is the derived per-user cache: the current rating and the
// cumulative solved-task score. It is never patched directly; every change
// goes through an appended entry or a full rebuild.
type Aggregate struct {
	Rating     int `json:"rating"`
	TasksScore int `json:"tasks_score"`
}

// Ledger holds every user's aggregate and append-only histories. It is not
// goroutine-safe on its own; the owning engine serializes access.
type Ledger struct {
	users     map[string]*Aggregate
	contests  map[string][]Entry // per-user contest entries
	trainings map[string][]Entry // per-user training entries
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		users:     make(map[string]*Aggregate),
		contests:  make(map[string][]Entry),
		trainings: make(map[string][]Entry),
	}
}

// ensureUser creates the zeroed aggregate on a user's first appearance.
func (l *Ledger) ensureUser(nickname string) *Aggregate {
	if agg, ok := l.users[nickname]; ok {
		return agg
	}
	agg := &Aggregate{}
	l.users[nickname] = agg
	return agg
}

// Append adds one entry to a user's history and applies its effect to the
// aggregate: official contest entries move rating and task score, trainings
// move task score only, unofficial entries move nothing but the history.
func (l *Ledger) Append(nickname string, e Entry) {
	agg := l.ensureUser(nickname)

	switch e.Kind {
	case KindTraining:
		l.trainings[nickname] = append(l.trainings[nickname], e)
		agg.TasksScore += e.TasksSolved
	default:
		l.contests[nickname] = append(l.contests[nickname], e)
		if !e.Unofficial {
			agg.Rating = e.NewRating
			agg.TasksScore += e.TasksSolved
		}
	}
}

// Record adds one entry to the history without touching the aggregate. Used
// when restoring from persisted records before a rebuild.
func (l *Ledger) Record(nickname string, e Entry) {
	l.ensureUser(nickname)
	if e.Kind == KindTraining {
		l.trainings[nickname] = append(l.trainings[nickname], e)
		return
	}
	l.contests[nickname] = append(l.contests[nickname], e)
}

// Processed reports whether a user already has an entry for the unit. The
// idempotency invariant: reprocessing a (contest, division) pair must not
// duplicate or mutate an existing entry.
func (l *Ledger) Processed(nickname, unitID string, div int) bool {
	entries := l.contests[nickname]
	if Kind(unitKind(unitID)) == KindTraining {
		entries = l.trainings[nickname]
	}
	for _, e := range entries {
		if e.Contest == unitID && e.Division == div {
			return true
		}
	}
	return false
}

// AnyProcessed reports whether any user carries an entry for the unit.
func (l *Ledger) AnyProcessed(unitID string, div int) bool {
	histories := l.contests
	if Kind(unitKind(unitID)) == KindTraining {
		histories = l.trainings
	}
	for _, entries := range histories {
		for _, e := range entries {
			if e.Contest == unitID && e.Division == div {
				return true
			}
		}
	}
	return false
}

// Rating returns a user's current aggregate rating, 0 for unknown users.
func (l *Ledger) Rating(nickname string) int {
	if agg, ok := l.users[nickname]; ok {
		return agg.Rating
	}
	return 0
}

// TasksScore returns a user's cumulative task score, 0 for unknown users.
func (l *Ledger) TasksScore(nickname string) int {
	if agg, ok := l.users[nickname]; ok {
		return agg.TasksScore
	}
	return 0
}

// Known reports whether the user has ever appeared in the ledger.
func (l *Ledger) Known(nickname string) bool {
	_, ok := l.users[nickname]
	return ok
}

// ContestHistory returns a copy of the user's contest entries.
func (l *Ledger) ContestHistory(nickname string) []Entry {
	return append([]Entry(nil), l.contests[nickname]...)
}

// TrainingHistory returns a copy of the user's training entries.
func (l *Ledger) TrainingHistory(nickname string) []Entry {
	return append([]Entry(nil), l.trainings[nickname]...)
}

// Users returns all known nicknames sorted by descending rating, ties by
// nickname. This is the order the aggregate cache file is written in.
func (l *Ledger) Users() []string {
	names := make([]string, 0, len(l.users))
	for name := range l.users {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := l.users[names[i]].Rating, l.users[names[j]].Rating
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})
	return names
}

// RebuildAggregates resets every aggregate to zero and replays each user's
// history in ascending contest-sequence order. Official contest entries set
// the rating and accumulate task score; unofficial entries are skipped;
// trainings accumulate task score only. Safe to call at any time and
// idempotent: a second run reproduces the same state bit for bit.
func (l *Ledger) RebuildAggregates() {
	for name := range l.users {
		l.users[name] = &Aggregate{}
	}

	for name, entries := range l.contests {
		agg := l.ensureUser(name)

		sorted := append([]Entry(nil), entries...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return Sequence(sorted[i].Contest) < Sequence(sorted[j].Contest)
		})

		for _, e := range sorted {
			if e.Unofficial {
				continue
			}
			agg.Rating = e.NewRating
			agg.TasksScore += e.TasksSolved
		}
	}

	for name, entries := range l.trainings {
		agg := l.ensureUser(name)
		for _, e := range entries {
			agg.TasksScore += e.TasksSolved
		}
	}
}

// unitKind guesses the entry kind from a unit id prefix.
func unitKind(unitID string) string {
	if len(unitID) >= 8 && unitID[:8] == "training" {
		return string(KindTraining)
	}
	return string(KindContest)
}
