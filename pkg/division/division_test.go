package division

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		rating   int
		expected int
	}{
		{"zero rating is weakest division", 0, 4},
		{"top of division 4", 999, 4},
		{"bottom of division 3", 1000, 3},
		{"top of division 3", 1999, 3},
		{"bottom of division 2", 2000, 2},
		{"top of division 2", 2999, 2},
		{"bottom of division 1", 3000, 1},
		{"top of division 1", 4000, 1},
		{"above maximum clamps to division 1", 4500, 1},
		{"negative clamps to division 4", -100, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.rating))
		})
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	// A lower rating must never map to a stronger (lower-numbered) division
	// than a higher rating.
	prev := Classify(-500)
	for rating := -499; rating <= 4500; rating++ {
		cur := Classify(rating)
		assert.LessOrEqual(t, cur, prev, "rating %d", rating)
		prev = cur
	}
}

func TestInDivision(t *testing.T) {
	assert.True(t, InDivision(1500, 3))
	assert.False(t, InDivision(1500, 4))
	assert.True(t, InDivision(0, 4))
	assert.True(t, InDivision(4000, 1))
	assert.False(t, InDivision(4001, 1), "above-band ratings are outside every band")
	assert.False(t, InDivision(1500, 0), "unknown division never matches")
	assert.False(t, InDivision(1500, 5))
}

func TestValid(t *testing.T) {
	for div := 1; div <= 4; div++ {
		assert.True(t, Valid(div))
	}
	assert.False(t, Valid(0))
	assert.False(t, Valid(5))
}

func TestRankTitle(t *testing.T) {
	testCases := []struct {
		rating   int
		expected string
	}{
		{0, "Novice"},
		{399, "Novice"},
		{400, "Pupil"},
		{1100, "Practitioner"},
		{1500, "Specialist"},
		{1999, "Expert"},
		{2350, "Candidate Master"},
		{2799, "Master"},
		{3100, "Grandmaster"},
		{3599, "Legendary Master"},
		{3600, "Absolute Master"},
		{4200, "Absolute Master"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, RankTitle(tc.rating), "rating %d", tc.rating)
	}
}

func TestRankColorMatchesTitleThresholds(t *testing.T) {
	// Colors follow the same thresholds as titles; spot-check the edges.
	assert.Equal(t, "#804000", RankColor(0))
	assert.Equal(t, "#808080", RankColor(400))
	assert.Equal(t, "#FF0000", RankColor(3599))
	assert.Equal(t, "#FF0066", RankColor(3600))
}
