// Package division maps rating values onto the four fixed competition
// divisions and onto human-facing rank titles. All functions are pure and
// total: any integer rating classifies to exactly one division.
package division

// Division numbering: 1 is the strongest band, 4 the weakest.
const (
	Strongest = 1
	Weakest   = 4

	// MaxRating is the upper bound of the division 1 band. Ratings above it
	// still classify as division 1.
	MaxRating = 4000
)

// band is an inclusive rating range owned by one division.
type band struct {
	division int
	min, max int
}

// bands are ordered strongest first and cover [0, MaxRating] contiguously.
var bands = []band{
	{1, 3000, 4000},
	{2, 2000, 2999},
	{3, 1000, 1999},
	{4, 0, 999},
}

// Classify returns the division for a rating. Ratings above MaxRating clamp
// to the strongest division, negative ratings to the weakest.
func Classify(rating int) int {
	for _, b := range bands {
		if rating >= b.min && rating <= b.max {
			return b.division
		}
	}
	if rating > MaxRating {
		return Strongest
	}
	return Weakest
}

// InDivision reports whether a rating falls inside the given division's band.
// Unknown division numbers are never matched.
func InDivision(rating, div int) bool {
	for _, b := range bands {
		if b.division == div {
			return rating >= b.min && rating <= b.max
		}
	}
	return false
}

// Valid reports whether div is one of the four known divisions.
func Valid(div int) bool {
	return div >= Strongest && div <= Weakest
}

// rankStep pairs a rating threshold with the title and color awarded below it.
type rankStep struct {
	below int
	title string
	color string
}

var rankSteps = []rankStep{
	{400, "Novice", "#804000"},
	{800, "Pupil", "#808080"},
	{1200, "Practitioner", "#008000"},
	{1600, "Specialist", "#00C0C0"},
	{2000, "Expert", "#0000FF"},
	{2400, "Candidate Master", "#AA00AA"},
	{2800, "Master", "#C0C000"},
	{3200, "Grandmaster", "#FF8000"},
	{3600, "Legendary Master", "#FF0000"},
}

// RankTitle returns the display title for a rating. Titles are embedded in
// ledger report lines, so they are part of the engine contract.
func RankTitle(rating int) string {
	for _, s := range rankSteps {
		if rating < s.below {
			return s.title
		}
	}
	return "Absolute Master"
}

// RankColor returns the hex color associated with a rating's rank title.
func RankColor(rating int) string {
	for _, s := range rankSteps {
		if rating < s.below {
			return s.color
		}
	}
	return "#FF0066"
}
