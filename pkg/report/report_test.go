package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olympboard/divrank/pkg/history"
)

func sampleRecords() []history.Record {
	return []history.Record{
		{
			Nickname: "alice",
			Entry: history.Entry{
				Contest: "contest_0007", Division: 3, Position: 1,
				OldRating: 1200, NewRating: 1350, Change: 150, TasksSolved: 4,
				AllowedDivision: 3, Date: "2026-08-29", Kind: history.KindContest,
			},
		},
		{
			Nickname: "bob the builder",
			Entry: history.Entry{
				Contest: "contest_0007", Division: 3, Position: 2,
				OldRating: 2200, NewRating: 2200, Change: 0, TasksSolved: 5,
				Unofficial: true, AllowedDivision: 2, Date: "2026-08-29", Kind: history.KindContest,
			},
		},
		{
			Nickname: "carol",
			Entry: history.Entry{
				Contest: "contest_0007", Division: 3, Position: 3,
				OldRating: 1000, NewRating: 950, Change: -50, TasksSolved: 0,
				AllowedDivision: 3, Date: "2026-08-29", Kind: history.KindContest,
			},
		},
	}
}

func sampleHeader() Header {
	return Header{
		Unit:        "contest_0007",
		Division:    3,
		Kind:        history.KindContest,
		ProcessedAt: time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
		Total:       3,
		Official:    2,
	}
}

func TestWrite(t *testing.T) {
	text, err := WriteString(sampleHeader(), sampleRecords())
	require.NoError(t, err)

	assert.Contains(t, text, "Contest: contest_0007\n")
	assert.Contains(t, text, "Division: 3\n")
	assert.Contains(t, text, "Processed: 2026-08-29 10:30:00\n")
	assert.Contains(t, text, "Participants: 3\n")
	assert.Contains(t, text, "Official: 2\n")
	assert.Contains(t, text, "Unofficial: 1\n")

	assert.Contains(t, text, "  1. alice: 1200 (Specialist) → 1350 (Specialist) (+150) RATED (tasks: 4)\n")
	assert.Contains(t, text, "  2. bob the builder: 2200 (Candidate Master) → 2200 (Candidate Master) (+0) UNRATED (tasks: 5) [unofficial: allowed_div=2, current_div=3]\n")
	// Zero tasks omit the annotation.
	assert.Contains(t, text, "  3. carol: 1000 (Practitioner) →  950 (Practitioner) (-50) RATED\n")
}

func TestWriteTrainingHeader(t *testing.T) {
	h := sampleHeader()
	h.Unit = "training_0002"
	h.Kind = history.KindTraining
	h.Division = 0

	text, err := WriteString(h, nil)
	require.NoError(t, err)

	assert.Contains(t, text, "Training: training_0002\n")
	assert.NotContains(t, text, "Division:")
}

func TestRoundTrip(t *testing.T) {
	records := sampleRecords()
	text, err := WriteString(sampleHeader(), records)
	require.NoError(t, err)

	result, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, result.Entries, len(records))
	assert.Zero(t, result.Skipped)

	for i, got := range result.Entries {
		want := records[i]
		assert.Equal(t, want.Nickname, got.Nickname)
		assert.Equal(t, want.Position, got.Position)
		assert.Equal(t, want.OldRating, got.OldRating)
		assert.Equal(t, want.NewRating, got.NewRating)
		assert.Equal(t, want.Change, got.Change)
		assert.Equal(t, want.Unofficial, got.Unofficial)
		assert.Equal(t, want.TasksSolved, got.TasksSolved)
		assert.Equal(t, want.AllowedDivision, got.AllowedDivision)
		assert.Equal(t, want.Contest, got.Contest)
		assert.Equal(t, want.Division, got.Division)
		assert.Equal(t, want.Date, got.Date)
		assert.Equal(t, want.Kind, got.Kind)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	text := "Contest: contest_0001\n" +
		"Division: 4\n" +
		"Processed: 2026-08-29 10:30:00\n" +
		"Participants: 1\n" +
		"Official: 1\n" +
		"Unofficial: 0\n" +
		"============================================================\n" +
		"  1. alice: 1200 (Specialist) → 1350 (Specialist) (+150) RATED\n" +
		"this line matches nothing\n" +
		"  2. broken line without ratings RATED\n"

	result, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.Equal(t, 2, result.Skipped)
}

func TestParseTrainingReport(t *testing.T) {
	text := "Training: training_0004\n" +
		"Processed: 2026-08-20 18:00:00\n" +
		"Participants: 1\n" +
		"Official: 1\n" +
		"Unofficial: 0\n" +
		"============================================================\n" +
		"  1. dave:  300 (Novice) →  300 (Novice) (+0) RATED (tasks: 6)\n"

	result, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, "training_0004", entry.Contest)
	assert.Equal(t, history.KindTraining, entry.Kind)
	assert.Equal(t, 6, entry.TasksSolved)
	assert.Equal(t, "2026-08-20", entry.Date)
	assert.Zero(t, entry.Division)
}

func TestParseEmptyInput(t *testing.T) {
	result, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.Skipped)
}
