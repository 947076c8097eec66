package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error types for cache persistence
var (
	ErrCacheWrite = errors.New("aggregate cache write failed")
	ErrCacheRead  = errors.New("aggregate cache read failed")
)

// cacheRecord is the per-user value serialized into the aggregate cache file.
type cacheRecord struct {
	Rating          int     `json:"rating"`
	TasksScore      int     `json:"tasks_score"`
	ContestHistory  []Entry `json:"contest_history"`
	TrainingHistory []Entry `json:"training_history"`
}

// SaveCache writes the whole ledger to the aggregate cache file at path, one
// `nickname: {json}` line per user in descending rating order. The write goes
// through a temp file and an atomic rename so a crash never leaves a partial
// cache behind.
func (l *Ledger) SaveCache(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: cannot create cache directory: %v", ErrCacheWrite, err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("%w: cannot create temp file: %v", ErrCacheWrite, err)
	}

	writer := bufio.NewWriter(file)
	for _, nickname := range l.Users() {
		rec := cacheRecord{
			Rating:          l.users[nickname].Rating,
			TasksScore:      l.users[nickname].TasksScore,
			ContestHistory:  l.contests[nickname],
			TrainingHistory: l.trainings[nickname],
		}
		if rec.ContestHistory == nil {
			rec.ContestHistory = []Entry{}
		}
		if rec.TrainingHistory == nil {
			rec.TrainingHistory = []Entry{}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tempPath)
			return fmt.Errorf("%w: cannot encode user %s: %v", ErrCacheWrite, nickname, err)
		}
		if _, err := fmt.Fprintf(writer, "%s: %s\n", nickname, data); err != nil {
			_ = file.Close()
			_ = os.Remove(tempPath)
			return fmt.Errorf("%w: %v", ErrCacheWrite, err)
		}
	}

	if err := writer.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: sync failed: %v", ErrCacheWrite, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: atomic rename failed: %v", ErrCacheWrite, err)
	}

	return nil
}

// LoadCache replaces the ledger's state with the contents of the aggregate
// cache file. The loader is lenient: a line without a colon is skipped, a
// line whose value is not valid JSON yields a zeroed user. Only an unreadable
// file is an error.
func (l *Ledger) LoadCache(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheRead, err)
	}
	defer func() { _ = file.Close() }()

	l.users = make(map[string]*Aggregate)
	l.contests = make(map[string][]Entry)
	l.trainings = make(map[string][]Entry)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, ":") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		nickname := strings.TrimSpace(parts[0])
		if nickname == "" {
			continue
		}

		var rec cacheRecord
		if err := json.Unmarshal([]byte(strings.TrimSpace(parts[1])), &rec); err != nil {
			l.users[nickname] = &Aggregate{}
			continue
		}

		l.users[nickname] = &Aggregate{Rating: rec.Rating, TasksScore: rec.TasksScore}
		l.contests[nickname] = rec.ContestHistory
		l.trainings[nickname] = rec.TrainingHistory
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheRead, err)
	}
	return nil
}

// CacheUsable reports whether the cache file at path exists and is non-empty.
// An empty or missing cache triggers the rebuild-from-records boot path.
func CacheUsable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Size() == 0 {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) != ""
}
