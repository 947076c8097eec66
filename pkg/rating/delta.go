// Package rating computes bounded rating deltas from contest placement and
// owns the engine that turns monitor tables into ledger entries. The delta
// function is pure; all state lives behind the Engine service object.
package rating

import "math"

// Delta bounds and placement floors. A single contest can never move a
// rating by more than MaxDelta in either direction, and podium places carry
// guaranteed minimum gains.
const (
	MaxDelta = 400

	firstPlaceFloor = 150
	podiumFloor     = 100
	topTierFloor    = 50
	bottomTierCeil  = -50
	lastPlaceCeil   = -100

	taskBonusPerTask = 25
	bootstrapBase    = 1000
	bootstrapFactor  = 0.5
	pullFactor       = 0.2
)

// perfStep maps a minimum placement percentile to the rating a participant
// at that percentile is expected to perform at.
type perfStep struct {
	minPercentile float64
	performance   int
}

// perfTable is ordered from the strongest percentile down; the first
// matching step wins.
var perfTable = []perfStep{
	{99, 2400},
	{90, 2100},
	{80, 1900},
	{70, 1700},
	{60, 1500},
	{50, 1350},
	{40, 1200},
	{30, 1050},
	{20, 900},
	{10, 750},
}

const basePerformance = 600

// expectedPerformance maps a placement percentile onto the step table.
func expectedPerformance(percentile float64) int {
	for _, s := range perfTable {
		if percentile >= s.minPercentile {
			return s.performance
		}
	}
	return basePerformance
}

// ComputeDelta returns the rating change for one official participant.
// place is the 1-based rank among official participants, totalOfficial the
// official participant count. Deterministic: the same inputs always produce
// the same delta, no external state is read.
//
// Unrated users (oldRating 0) bootstrap aggressively toward their expected
// performance; rated users are pulled toward it with damping. The result is
// clamped to ±MaxDelta, then placement floors apply: winners always gain,
// the tail always loses.
func ComputeDelta(place, totalOfficial, oldRating, tasksSolved int) int {
	if totalOfficial <= 1 {
		return 0
	}

	percentile := 100 * float64(totalOfficial-place) / float64(totalOfficial)
	performance := expectedPerformance(percentile)
	taskBonus := tasksSolved * taskBonusPerTask

	var delta float64
	if oldRating == 0 {
		delta = bootstrapFactor * float64(performance+taskBonus-bootstrapBase)
	} else {
		delta = pullFactor * float64(performance+taskBonus-oldRating)
	}

	if delta > MaxDelta {
		delta = MaxDelta
	} else if delta < -MaxDelta {
		delta = -MaxDelta
	}

	switch {
	case place == 1 && delta < firstPlaceFloor:
		delta = firstPlaceFloor
	case place <= 3 && delta < podiumFloor:
		delta = podiumFloor
	case float64(place) <= float64(totalOfficial)*0.1 && delta < topTierFloor:
		delta = topTierFloor
	}

	if place == totalOfficial && delta > lastPlaceCeil {
		delta = lastPlaceCeil
	} else if float64(place) >= float64(totalOfficial)*0.9 && delta > bottomTierCeil {
		delta = bottomTierCeil
	}

	return int(math.Round(delta))
}
