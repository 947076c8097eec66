package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/olympboard/divrank/pkg/history"
)

// Participant line shape, as produced by Write. Rank titles are matched
// loosely so renaming a title does not orphan old reports.
var lineRe = regexp.MustCompile(`^(\d+)\.\s+(.+?):\s+(-?\d+)\s+\([^)]+\)\s+→\s+(-?\d+)\s+\([^)]+\)\s+\(([+-]\d+)\)\s+(RATED|UNRATED)`)

var (
	tasksRe      = regexp.MustCompile(`\(tasks:\s*(\d+)\)`)
	allowedDivRe = regexp.MustCompile(`allowed_div=(\d+)`)
	processedRe  = regexp.MustCompile(`^Processed:\s*(\d{4}-\d{2}-\d{2})`)
)

// ParseResult carries the recovered entries plus the count of lines that did
// not match the expected shape. Non-matching lines are skipped silently by
// policy: a half-readable report is worth more than none.
type ParseResult struct {
	Entries []history.Record
	Skipped int
}

// Parse recovers ledger entries from a report. The header block supplies the
// unit id, division, kind and date; each participant line supplies position,
// nickname, ratings, delta and official status.
func Parse(r io.Reader) (*ParseResult, error) {
	result := &ParseResult{}

	var (
		unit   string
		div    int
		kind   = history.KindContest
		date   string
		inBody bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !inBody {
			switch {
			case strings.HasPrefix(line, "Contest:"):
				unit = strings.TrimSpace(strings.TrimPrefix(line, "Contest:"))
			case strings.HasPrefix(line, "Training:"):
				unit = strings.TrimSpace(strings.TrimPrefix(line, "Training:"))
				kind = history.KindTraining
			case strings.HasPrefix(line, "Division:"):
				if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Division:"))); err == nil {
					div = n
				}
			case strings.Contains(line, "====="):
				inBody = true
			default:
				if m := processedRe.FindStringSubmatch(line); m != nil {
					date = m[1]
				}
			}
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			result.Skipped++
			continue
		}

		// The regex guarantees these parse.
		position, _ := strconv.Atoi(m[1])
		oldRating, _ := strconv.Atoi(m[3])
		newRating, _ := strconv.Atoi(m[4])
		change, _ := strconv.Atoi(m[5])
		unofficial := m[6] == "UNRATED"

		tasksSolved := 0
		if tm := tasksRe.FindStringSubmatch(line); tm != nil {
			tasksSolved, _ = strconv.Atoi(tm[1])
		}

		allowedDiv := div
		if am := allowedDivRe.FindStringSubmatch(line); am != nil {
			allowedDiv, _ = strconv.Atoi(am[1])
		}

		result.Entries = append(result.Entries, history.Record{
			Nickname: strings.TrimSpace(m[2]),
			Entry: history.Entry{
				Contest:         unit,
				Division:        div,
				Position:        position,
				OldRating:       oldRating,
				NewRating:       newRating,
				Change:          change,
				TasksSolved:     tasksSolved,
				Unofficial:      unofficial,
				AllowedDivision: allowedDiv,
				Date:            date,
				Kind:            kind,
			},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading report: %w", err)
	}
	return result, nil
}

// ParseFile parses the report at path.
func ParseFile(path string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open report %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return Parse(file)
}
