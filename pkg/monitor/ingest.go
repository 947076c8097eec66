package monitor

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParticipantRow is one normalized monitor row.
type ParticipantRow struct {
	Nickname    string  // Participant identity, trimmed
	Score       float64 // Raw contest score, 0 when the score column is absent or unparsable
	TasksSolved int     // Count of task cells marked solved
}

// ParseResult carries the parsed rows together with accounting for what was
// dropped. Malformed rows are skipped and counted rather than failing the
// whole table.
type ParseResult struct {
	Rows    []ParticipantRow
	Skipped int // Rows dropped for a blank identity or short record
	Schema  Schema
}

// CellState classifies one task cell.
type CellState int

const (
	CellPending CellState = iota
	CellSolved
	CellAttempted
)

// ClassifyCell maps a raw task cell value onto solved/attempted/pending.
// A '+' marker or a positive integer counts as solved, a '-' marker as
// attempted, anything else as pending.
func ClassifyCell(value string) CellState {
	v := strings.TrimSpace(value)
	if v == "" {
		return CellPending
	}
	if strings.Contains(v, "+") {
		return CellSolved
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return CellSolved
	}
	if strings.Contains(v, "-") {
		return CellAttempted
	}
	return CellPending
}

// Ingest parses a monitor table from r. The delimiter is sniffed from the
// header line against the configured candidates. Headerless or empty input
// yields zero rows and no error: zero rows means "no data", a non-nil error
// means the table could not be read at all.
func Ingest(r io.Reader, cfg SchemaConfig) (*ParseResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	buffered := bufio.NewReader(r)
	headerLine, err := buffered.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrMonitorFormat, err)
	}
	if strings.TrimSpace(headerLine) == "" {
		return &ParseResult{}, nil
	}

	delimiter := sniffDelimiter(headerLine, cfg.Delimiters)

	csvReader := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), buffered))
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse monitor: %v", ErrMonitorFormat, err)
	}
	if len(records) < 2 {
		// Header only, or nothing recognizable.
		return &ParseResult{}, nil
	}

	schema, err := ResolveSchema(records[0], cfg)
	if err != nil {
		// No identity column means the table is unusable, not unreadable.
		return &ParseResult{}, nil
	}

	result := &ParseResult{Schema: schema}
	for _, row := range records[1:] {
		if isEmptyRow(row) {
			continue
		}
		participant, ok := parseRow(row, schema)
		if !ok {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, participant)
	}

	return result, nil
}

// IngestFile parses the monitor table at path. A missing or unreadable file
// is a hard failure, distinct from a readable table with zero usable rows.
func IngestFile(path string, cfg SchemaConfig) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open monitor %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return Ingest(file, cfg)
}

// sniffDelimiter picks the first configured delimiter present in the header
// line, defaulting to the first candidate.
func sniffDelimiter(header string, candidates []string) rune {
	for _, c := range candidates {
		if strings.Contains(header, c) {
			return rune(c[0])
		}
	}
	return rune(candidates[0][0])
}

func parseRow(row []string, schema Schema) (ParticipantRow, bool) {
	if schema.NicknameCol >= len(row) {
		return ParticipantRow{}, false
	}
	nickname := strings.TrimSpace(row[schema.NicknameCol])
	if nickname == "" {
		return ParticipantRow{}, false
	}

	var score float64
	if schema.ScoreCol >= 0 && schema.ScoreCol < len(row) {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(row[schema.ScoreCol]), 64); err == nil {
			score = parsed
		}
	}

	solved := 0
	for _, col := range schema.TaskCols {
		if col < len(row) && ClassifyCell(row[col]) == CellSolved {
			solved++
		}
	}

	return ParticipantRow{
		Nickname:    nickname,
		Score:       score,
		TasksSolved: solved,
	}, true
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
