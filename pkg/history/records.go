package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// RecordsFile is the structured per-division ledger file written alongside
// the human report. It is the canonical machine record: missing-cache
// recovery reads these files, never the human-facing text.
const RecordsFile = "change.jsonl"

// recordVersion tags every line so the format can evolve without breaking
// old directories.
const recordVersion = 1

// Error types for record files
var ErrRecordWrite = errors.New("ledger record write failed")

// Record is one JSON Lines entry: a ledger entry tagged with its owner.
type Record struct {
	Version  int    `json:"v"`
	Nickname string `json:"nickname"`
	Entry
}

// RecordsResult carries parsed records plus the count of malformed lines
// that were skipped. Skipping is a stated policy, not an accident: partial
// results beat a hard failure on one bad line.
type RecordsResult struct {
	Records []Record
	Skipped int
}

// WriteRecords writes one JSON line per record to path. The file is written
// wholesale; a processed division is never appended to twice thanks to the
// idempotency guard upstream.
func WriteRecords(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: cannot create %s: %v", ErrRecordWrite, path, err)
	}

	writer := bufio.NewWriter(file)
	for i := range records {
		records[i].Version = recordVersion
		data, err := json.Marshal(records[i])
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("%w: cannot encode record for %s: %v", ErrRecordWrite, records[i].Nickname, err)
		}
		if _, err := writer.Write(append(data, '\n')); err != nil {
			_ = file.Close()
			return fmt.Errorf("%w: %v", ErrRecordWrite, err)
		}
	}

	if err := writer.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %v", ErrRecordWrite, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: sync failed: %v", ErrRecordWrite, err)
	}
	return file.Close()
}

// ReadRecords parses a record file. Blank and malformed lines are skipped
// and counted; only an unreadable file is an error.
func ReadRecords(path string) (*RecordsResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open record file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	result := &RecordsResult{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Nickname == "" {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading record file %s: %w", path, err)
	}
	return result, nil
}
