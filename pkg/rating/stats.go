package rating

import (
	"sort"

	"github.com/olympboard/divrank/pkg/division"
	"github.com/olympboard/divrank/pkg/history"
)

// UserStats is the full profile view over one user's ledger state.
type UserStats struct {
	Nickname           string
	Rating             int
	Division           int
	RankTitle          string
	RankColor          string
	TasksScore         int
	BestRating         int
	Contests           int
	UnofficialContests int
	LastContest        string
	ContestHistory     []history.Entry // newest first
	TrainingHistory    []history.Entry // newest first
}

// GetUserStats assembles a user's profile. The second return is false for
// users the ledger has never seen.
func (e *Engine) GetUserStats(nickname string) (*UserStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ledger.Known(nickname) {
		return nil, false
	}

	contests := e.ledger.ContestHistory(nickname)
	sort.SliceStable(contests, func(i, j int) bool {
		return history.Sequence(contests[i].Contest) > history.Sequence(contests[j].Contest)
	})
	trainings := e.ledger.TrainingHistory(nickname)
	sort.SliceStable(trainings, func(i, j int) bool {
		return history.Sequence(trainings[i].Contest) > history.Sequence(trainings[j].Contest)
	})

	rating := e.ledger.Rating(nickname)
	stats := &UserStats{
		Nickname:        nickname,
		Rating:          rating,
		Division:        division.Classify(rating),
		RankTitle:       division.RankTitle(rating),
		RankColor:       division.RankColor(rating),
		TasksScore:      e.ledger.TasksScore(nickname),
		ContestHistory:  contests,
		TrainingHistory: trainings,
	}

	for _, entry := range contests {
		if entry.Unofficial {
			stats.UnofficialContests++
			continue
		}
		stats.Contests++
		if entry.NewRating > stats.BestRating {
			stats.BestRating = entry.NewRating
		}
	}
	if stats.Rating > stats.BestRating {
		stats.BestRating = stats.Rating
	}
	if len(contests) > 0 {
		stats.LastContest = contests[0].Contest
	}

	return stats, true
}

// StandingsRow is one line of the global rating table.
type StandingsRow struct {
	Rank       int
	Nickname   string
	Rating     int
	Division   int
	RankTitle  string
	RankColor  string
	TasksScore int
	Contests   int
}

// Standings returns every known user in cache order with derived rank data.
func (e *Engine) Standings() []StandingsRow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := e.ledger.Users()
	rows := make([]StandingsRow, 0, len(names))
	for i, name := range names {
		rating := e.ledger.Rating(name)

		contests := 0
		for _, entry := range e.ledger.ContestHistory(name) {
			if !entry.Unofficial {
				contests++
			}
		}

		rows = append(rows, StandingsRow{
			Rank:       i + 1,
			Nickname:   name,
			Rating:     rating,
			Division:   division.Classify(rating),
			RankTitle:  division.RankTitle(rating),
			RankColor:  division.RankColor(rating),
			TasksScore: e.ledger.TasksScore(name),
			Contests:   contests,
		})
	}
	return rows
}
