package rating

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olympboard/divrank/pkg/history"
	"github.com/olympboard/divrank/pkg/report"
)

const reportFileName = report.ReportFile

// parseReportFile recovers ledger records from a legacy human report.
func parseReportFile(path string) ([]history.Record, error) {
	result, err := report.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// persistUnit writes the structured record file and the human report for one
// processed unit. The record file goes first; it is the canonical copy the
// recovery path reads.
func (e *Engine) persistUnit(dir, unitID string, div int, kind history.Kind, records []history.Record, official int) error {
	if err := history.WriteRecords(filepath.Join(dir, history.RecordsFile), records); err != nil {
		return err
	}

	h := report.Header{
		Unit:        unitID,
		Division:    div,
		Kind:        kind,
		ProcessedAt: time.Now(),
		Total:       len(records),
		Official:    official,
	}

	file, err := os.Create(filepath.Join(dir, reportFileName))
	if err != nil {
		return fmt.Errorf("cannot create report: %w", err)
	}
	if err := report.Write(file, h, records); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("report sync failed: %w", err)
	}
	return file.Close()
}
