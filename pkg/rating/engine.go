package rating

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olympboard/divrank/pkg/config"
	"github.com/olympboard/divrank/pkg/division"
	"github.com/olympboard/divrank/pkg/history"
	"github.com/olympboard/divrank/pkg/monitor"
)

// Directory layout under the base path.
const (
	contestsDir    = "contests"
	trainingsDir   = "trainings"
	contestantsDir = "contestants"

	monitorFile = "monitor.csv"
	cacheFile   = "all_ratings.txt"
)

// Engine owns the ledger and exposes the engine operations. One Engine is
// constructed per process and handed to callers by reference; there is no
// package-level state. Work on the same contest division is serialized
// through a per-key mutex so concurrent requests cannot break the
// idempotency invariant.
type Engine struct {
	basePath string
	schema   monitor.SchemaConfig

	mu     sync.RWMutex // guards ledger
	ledger *history.Ledger

	keysMu sync.Mutex
	keys   map[string]*sync.Mutex
}

// New constructs an engine over the configured base path and loads state:
// from the aggregate cache when it is usable, otherwise by scanning every
// processed unit's ledger records and rebuilding.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		basePath: cfg.BasePath,
		schema:   cfg.Schema,
		ledger:   history.NewLedger(),
		keys:     make(map[string]*sync.Mutex),
	}

	for _, dir := range []string{contestsDir, trainingsDir, contestantsDir} {
		if err := os.MkdirAll(filepath.Join(cfg.BasePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s directory: %w", dir, err)
		}
	}

	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// cachePath is the aggregate cache file location.
func (e *Engine) cachePath() string {
	return filepath.Join(e.basePath, contestantsDir, cacheFile)
}

// load restores engine state. The cache file wins when present and
// non-empty; otherwise the ledger is rebuilt from the per-unit record files
// and the cache is regenerated.
func (e *Engine) load() error {
	if history.CacheUsable(e.cachePath()) {
		if err := e.ledger.LoadCache(e.cachePath()); err == nil {
			return nil
		}
		// A corrupt cache falls through to the rebuild path.
		e.ledger = history.NewLedger()
	}

	e.restoreFromUnits()
	e.ledger.RebuildAggregates()
	return e.ledger.SaveCache(e.cachePath())
}

// restoreFromUnits walks every contest division and training directory and
// replays their persisted ledger records into the history. The structured
// change.jsonl is preferred; change.txt is parsed as fallback for
// directories written before record files existed.
func (e *Engine) restoreFromUnits() {
	contests, _ := filepath.Glob(filepath.Join(e.basePath, contestsDir, "contest_*"))
	for _, contestDir := range contests {
		for div := division.Strongest; div <= division.Weakest; div++ {
			e.restoreUnit(filepath.Join(contestDir, fmt.Sprintf("div%d", div)))
		}
	}

	trainings, _ := filepath.Glob(filepath.Join(e.basePath, trainingsDir, "training_*"))
	for _, trainingDir := range trainings {
		e.restoreUnit(trainingDir)
	}
}

// restoreUnit replays one directory's records, if any, skipping entries the
// ledger already carries.
func (e *Engine) restoreUnit(dir string) {
	records := e.readUnitRecords(dir)
	for _, rec := range records {
		if e.ledger.Processed(rec.Nickname, rec.Contest, rec.Division) {
			continue
		}
		e.ledger.Record(rec.Nickname, rec.Entry)
	}
}

// readUnitRecords loads records from change.jsonl, falling back to the
// human report. Unreadable units contribute nothing; recovery is best
// effort by design.
func (e *Engine) readUnitRecords(dir string) []history.Record {
	recordsPath := filepath.Join(dir, history.RecordsFile)
	if _, err := os.Stat(recordsPath); err == nil {
		if result, err := history.ReadRecords(recordsPath); err == nil {
			return result.Records
		}
	}

	reportPath := filepath.Join(dir, reportFileName)
	if _, err := os.Stat(reportPath); err == nil {
		if result, err := parseReportFile(reportPath); err == nil {
			return result
		}
	}
	return nil
}

// lockUnit serializes processing per unit key and returns the unlock.
func (e *Engine) lockUnit(key string) func() {
	e.keysMu.Lock()
	m, ok := e.keys[key]
	if !ok {
		m = &sync.Mutex{}
		e.keys[key] = m
	}
	e.keysMu.Unlock()

	m.Lock()
	return m.Unlock
}

// ProcessDivision ingests one contest division's monitor, computes deltas
// for official participants, appends ledger entries, writes the record and
// report files and persists the aggregate cache. All failure modes are
// recoverable and reported as (false, message).
func (e *Engine) ProcessDivision(contestID string, div int) (bool, string) {
	if !division.Valid(div) {
		return false, fmt.Sprintf("division %d is not valid", div)
	}

	unlock := e.lockUnit(fmt.Sprintf("%s/div%d", contestID, div))
	defer unlock()

	contestDir := filepath.Join(e.basePath, contestsDir, contestID)
	if _, err := os.Stat(contestDir); err != nil {
		return false, fmt.Sprintf("contest %s not found", contestID)
	}

	divisionDir := filepath.Join(contestDir, fmt.Sprintf("div%d", div))
	if _, err := os.Stat(divisionDir); err != nil {
		return false, fmt.Sprintf("division folder div%d not found", div)
	}

	monitorPath := filepath.Join(divisionDir, monitorFile)
	if _, err := os.Stat(monitorPath); err != nil {
		return false, fmt.Sprintf("%s not found in div%d", monitorFile, div)
	}

	parsed, err := monitor.IngestFile(monitorPath, e.schema)
	if err != nil {
		return false, fmt.Sprintf("cannot read %s: %v", monitorFile, err)
	}
	if len(parsed.Rows) == 0 {
		return false, fmt.Sprintf("no participants in %s for div%d", monitorFile, div)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	records := e.buildDivisionRecords(contestID, div, parsed.Rows)

	appended := 0
	for _, rec := range records {
		if e.ledger.Processed(rec.Nickname, contestID, div) {
			continue
		}
		e.ledger.Append(rec.Nickname, rec.Entry)
		appended++
	}
	if appended == 0 {
		return true, fmt.Sprintf("%s div%d already processed, ledger unchanged", contestID, div)
	}

	official := 0
	for _, rec := range records {
		if !rec.Unofficial {
			official++
		}
	}

	msg := fmt.Sprintf("processed %s div%d: %d participants, %d official", contestID, div, len(records), official)
	if err := e.persistUnit(divisionDir, contestID, div, history.KindContest, records, official); err != nil {
		msg += fmt.Sprintf(" (warning: %v)", err)
	}
	if err := e.ledger.SaveCache(e.cachePath()); err != nil {
		// Computation stands even when the cache write fails; the ledger
		// records on disk are enough to rebuild.
		msg += fmt.Sprintf(" (warning: %v)", err)
	}
	return true, msg
}

// buildDivisionRecords ranks the rows and computes per-participant outcomes.
// Ranks cover every row; deltas are computed only for official rows, over a
// running official-only counter. The official/unofficial split follows the
// participant's aggregate rating, not the division they sat in.
func (e *Engine) buildDivisionRecords(contestID string, div int, rows []monitor.ParticipantRow) []history.Record {
	sorted := append([]monitor.ParticipantRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	totalOfficial := 0
	for _, row := range sorted {
		if division.Classify(e.ledger.Rating(row.Nickname)) == div {
			totalOfficial++
		}
	}

	date := time.Now().Format("2006-01-02")
	records := make([]history.Record, 0, len(sorted))
	officialCounter := 0
	for i, row := range sorted {
		oldRating := e.ledger.Rating(row.Nickname)
		allowed := division.Classify(oldRating)
		unofficial := div != allowed

		delta := 0
		newRating := oldRating
		if !unofficial {
			officialCounter++
			delta = ComputeDelta(officialCounter, totalOfficial, oldRating, row.TasksSolved)
			newRating = oldRating + delta
			if newRating < 0 {
				newRating = 0
			}
		}

		records = append(records, history.Record{
			Nickname: row.Nickname,
			Entry: history.Entry{
				Contest:         contestID,
				Division:        div,
				Position:        i + 1,
				OldRating:       oldRating,
				NewRating:       newRating,
				Change:          delta,
				TasksSolved:     row.TasksSolved,
				Unofficial:      unofficial,
				AllowedDivision: allowed,
				Date:            date,
				Kind:            history.KindContest,
			},
		})
	}

	return records
}

// ProcessAllDivisions processes every division of a contest that has a
// monitor present. A wholly empty contest is a failure; partial success is
// overall success with per-division detail.
func (e *Engine) ProcessAllDivisions(contestID string) (bool, string) {
	contestDir := filepath.Join(e.basePath, contestsDir, contestID)
	if _, err := os.Stat(contestDir); err != nil {
		return false, fmt.Sprintf("contest %s not found", contestID)
	}

	var results []string
	for div := division.Strongest; div <= division.Weakest; div++ {
		monitorPath := filepath.Join(contestDir, fmt.Sprintf("div%d", div), monitorFile)
		if _, err := os.Stat(monitorPath); err != nil {
			continue
		}

		ok, msg := e.ProcessDivision(contestID, div)
		if ok {
			results = append(results, fmt.Sprintf("div%d: %s", div, msg))
		} else {
			results = append(results, fmt.Sprintf("div%d: failed: %s", div, msg))
		}
	}

	if len(results) == 0 {
		return false, fmt.Sprintf("nothing to process for %s", contestID)
	}
	return true, strings.Join(results, "\n")
}

// ProcessTraining ingests a training monitor. Trainings are rating-neutral:
// every entry keeps the participant's rating and only the solved-task count
// accumulates.
func (e *Engine) ProcessTraining(trainingID string) (bool, string) {
	unlock := e.lockUnit(trainingID)
	defer unlock()

	trainingDir := filepath.Join(e.basePath, trainingsDir, trainingID)
	if _, err := os.Stat(trainingDir); err != nil {
		return false, fmt.Sprintf("training %s not found", trainingID)
	}

	monitorPath := filepath.Join(trainingDir, monitorFile)
	if _, err := os.Stat(monitorPath); err != nil {
		return false, fmt.Sprintf("%s not found in %s", monitorFile, trainingID)
	}

	parsed, err := monitor.IngestFile(monitorPath, e.schema)
	if err != nil {
		return false, fmt.Sprintf("cannot read %s: %v", monitorFile, err)
	}
	if len(parsed.Rows) == 0 {
		return false, fmt.Sprintf("no participants in %s for %s", monitorFile, trainingID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sorted := append([]monitor.ParticipantRow(nil), parsed.Rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	date := time.Now().Format("2006-01-02")
	records := make([]history.Record, 0, len(sorted))
	for i, row := range sorted {
		oldRating := e.ledger.Rating(row.Nickname)
		records = append(records, history.Record{
			Nickname: row.Nickname,
			Entry: history.Entry{
				Contest:         trainingID,
				Position:        i + 1,
				OldRating:       oldRating,
				NewRating:       oldRating,
				TasksSolved:     row.TasksSolved,
				AllowedDivision: division.Classify(oldRating),
				Date:            date,
				Kind:            history.KindTraining,
			},
		})
	}

	appended := 0
	for _, rec := range records {
		if e.ledger.Processed(rec.Nickname, trainingID, 0) {
			continue
		}
		e.ledger.Append(rec.Nickname, rec.Entry)
		appended++
	}
	if appended == 0 {
		return true, fmt.Sprintf("%s already processed, ledger unchanged", trainingID)
	}

	msg := fmt.Sprintf("processed %s: %d participants", trainingID, len(records))
	if err := e.persistUnit(trainingDir, trainingID, 0, history.KindTraining, records, len(records)); err != nil {
		msg += fmt.Sprintf(" (warning: %v)", err)
	}
	if err := e.ledger.SaveCache(e.cachePath()); err != nil {
		msg += fmt.Sprintf(" (warning: %v)", err)
	}
	return true, msg
}

// RebuildAggregates resets and replays every user's history, then persists
// the regenerated cache. Safe to call at any time; the recovery path when
// the cache is lost or suspect.
func (e *Engine) RebuildAggregates() (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.RebuildAggregates()
	if err := e.ledger.SaveCache(e.cachePath()); err != nil {
		return true, fmt.Sprintf("aggregates rebuilt (warning: %v)", err)
	}
	return true, "aggregates rebuilt"
}

// GetUserRating returns a user's current aggregate rating, 0 when unknown.
func (e *Engine) GetUserRating(nickname string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Rating(nickname)
}

// GetUserDivision returns the division implied by a user's current rating.
func (e *Engine) GetUserDivision(nickname string) int {
	return division.Classify(e.GetUserRating(nickname))
}
