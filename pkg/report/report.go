// Package report writes the human-readable per-division result report and
// re-parses it back into ledger entries. The text format is stable: people
// read these files, and directories that predate the structured record files
// have nothing else to recover history from.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olympboard/divrank/pkg/division"
	"github.com/olympboard/divrank/pkg/history"
)

// ReportFile is the human report written next to each processed monitor.
const ReportFile = "change.txt"

// Error types for report generation
var ErrReportWrite = errors.New("report write failed")

// separator ends the header block and starts the participant lines.
const separator = "============================================================"

// Header is the metadata block at the top of every report.
type Header struct {
	Unit        string       // contest_NNNN or training_NNNN
	Division    int          // 0 for trainings
	Kind        history.Kind // contest or training
	ProcessedAt time.Time
	Total       int // All participant lines
	Official    int // Rated lines
}

// Write renders the header block and one line per record in final rank
// order. The line shape is load-bearing: Parse matches it exactly.
func Write(w io.Writer, h Header, records []history.Record) error {
	label := "Contest"
	if h.Kind == history.KindTraining {
		label = "Training"
	}

	if _, err := fmt.Fprintf(w, "%s: %s\n", label, h.Unit); err != nil {
		return fmt.Errorf("%w: %v", ErrReportWrite, err)
	}
	if h.Kind != history.KindTraining {
		if _, err := fmt.Fprintf(w, "Division: %d\n", h.Division); err != nil {
			return fmt.Errorf("%w: %v", ErrReportWrite, err)
		}
	}
	_, err := fmt.Fprintf(w, "Processed: %s\nParticipants: %d\nOfficial: %d\nUnofficial: %d\n%s\n",
		h.ProcessedAt.Format("2006-01-02 15:04:05"), h.Total, h.Official, h.Total-h.Official, separator)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	for _, rec := range records {
		status := "RATED"
		if rec.Unofficial {
			status = "UNRATED"
		}

		tasksInfo := ""
		if rec.TasksSolved > 0 {
			tasksInfo = fmt.Sprintf(" (tasks: %d)", rec.TasksSolved)
		}

		unofficialInfo := ""
		if rec.Unofficial {
			unofficialInfo = fmt.Sprintf(" [unofficial: allowed_div=%d, current_div=%d]",
				rec.AllowedDivision, rec.Division)
		}

		_, err := fmt.Fprintf(w, "%3d. %s: %4d (%s) → %4d (%s) (%+d) %s%s%s\n",
			rec.Position, rec.Nickname,
			rec.OldRating, division.RankTitle(rec.OldRating),
			rec.NewRating, division.RankTitle(rec.NewRating),
			rec.Change, status, tasksInfo, unofficialInfo)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReportWrite, err)
		}
	}

	return nil
}

// WriteString renders a report to a string.
func WriteString(h Header, records []history.Record) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, h, records); err != nil {
		return "", err
	}
	return sb.String(), nil
}
