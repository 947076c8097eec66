// Package history is the append-oriented ledger of processed results. Each
// user accumulates one entry per processed contest division (or training),
// and the derived aggregate (current rating, cumulative task score) is always
// reconstructible by replaying those entries in contest-sequence order.
package history

import (
	"regexp"
	"strconv"
)

// Kind distinguishes rated contest entries from rating-neutral trainings.
type Kind string

const (
	KindContest  Kind = "contest"
	KindTraining Kind = "training"
)

// Entry is one ledger record: a user's result in one processed unit.
// Entries are append-only and never edited.
type Entry struct {
	Contest         string `json:"contest"`          // Unit id, e.g. contest_0012 or training_0003
	Division        int    `json:"division"`         // 1..4 for contests, 0 for trainings
	Position        int    `json:"position"`         // Final rank among all rows, 1-based
	OldRating       int    `json:"old_rating"`       // Aggregate rating before the unit
	NewRating       int    `json:"new_rating"`       // Aggregate rating after the unit
	Change          int    `json:"change"`           // NewRating - OldRating (0 for unofficial)
	TasksSolved     int    `json:"tasks_solved"`     // Solved task count in this unit
	Unofficial      bool   `json:"unofficial"`       // True when division != AllowedDivision
	AllowedDivision int    `json:"allowed_division"` // Division implied by the rating at processing time
	Date            string `json:"date"`             // Processing date, YYYY-MM-DD
	Kind            Kind   `json:"type"`             // contest or training
}

var sequenceRe = regexp.MustCompile(`_(\d+)$`)

// Sequence extracts the numeric ordering key from a unit id. Ids without a
// numeric suffix sort first.
func Sequence(unitID string) int {
	m := sequenceRe.FindStringSubmatch(unitID)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
