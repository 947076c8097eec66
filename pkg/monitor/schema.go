// Package monitor parses per-contest results tables ("monitors") into
// normalized participant rows. Monitors come from several generations of
// judging tools, so the delimiter and the column names vary; column
// identification runs over configurable alias lists instead of fixed names.
package monitor

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for schema resolution and parsing
var (
	ErrNoIdentityColumn = errors.New("no identity column found in header")
	ErrMonitorFormat    = errors.New("monitor format error")
)

// SchemaConfig carries the alias lists used to classify monitor columns.
// Alias matching is case-insensitive after trimming.
type SchemaConfig struct {
	NicknameAliases []string `yaml:"nickname_aliases" json:"nickname_aliases"` // Identity column candidates, in priority order
	ScoreAliases    []string `yaml:"score_aliases" json:"score_aliases"`       // Raw score column candidates
	ExcludedAliases []string `yaml:"excluded_aliases" json:"excluded_aliases"` // Columns that are never task columns
	Delimiters      []string `yaml:"delimiters" json:"delimiters"`             // Candidate field separators, in sniff order
}

// DefaultSchemaConfig returns the alias lists covering the known monitor
// generations, including the legacy localized headers.
func DefaultSchemaConfig() SchemaConfig {
	return SchemaConfig{
		NicknameAliases: []string{"user_name", "login", "Участник", "участник", "user", "handle", "nickname"},
		ScoreAliases:    []string{"Score", "score", "Баллы", "баллы", "points"},
		ExcludedAliases: []string{"place", "rank", "Penalty", "penalty", "фио", "ФИО", "№", "#"},
		Delimiters:      []string{",", ";", "\t"},
	}
}

// Validate checks that the schema configuration is usable.
func (c *SchemaConfig) Validate() error {
	if len(c.NicknameAliases) == 0 {
		return fmt.Errorf("%w: nickname_aliases cannot be empty", ErrMonitorFormat)
	}
	if len(c.Delimiters) == 0 {
		return fmt.Errorf("%w: delimiters cannot be empty", ErrMonitorFormat)
	}
	for _, d := range c.Delimiters {
		if len(d) != 1 {
			return fmt.Errorf("%w: delimiter %q must be a single character", ErrMonitorFormat, d)
		}
	}
	return nil
}

// Schema is the resolved column layout of one monitor table.
type Schema struct {
	NicknameCol int   // Index of the identity column
	ScoreCol    int   // Index of the raw score column, -1 when absent
	TaskCols    []int // Indices of task columns, in header order
	Headers     []string
}

// ResolveSchema classifies the header row into identity, score and task
// columns. The identity column is required; everything else degrades
// gracefully. Alias lookups prefer exact matches over case-insensitive ones
// so that localized headers with case-distinct variants resolve predictably.
func ResolveSchema(headers []string, cfg SchemaConfig) (Schema, error) {
	s := Schema{
		NicknameCol: -1,
		ScoreCol:    -1,
		Headers:     headers,
	}

	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	s.NicknameCol = findAlias(trimmed, cfg.NicknameAliases)
	if s.NicknameCol == -1 {
		return Schema{}, fmt.Errorf("%w: tried aliases %v", ErrNoIdentityColumn, cfg.NicknameAliases)
	}

	s.ScoreCol = findAlias(trimmed, cfg.ScoreAliases)

	// Any remaining named column that is not excluded is a task column.
	excluded := make(map[string]bool)
	for _, a := range cfg.ExcludedAliases {
		excluded[strings.ToLower(a)] = true
	}
	for _, a := range cfg.NicknameAliases {
		excluded[strings.ToLower(a)] = true
	}
	for _, a := range cfg.ScoreAliases {
		excluded[strings.ToLower(a)] = true
	}

	for i, h := range trimmed {
		if i == s.NicknameCol || i == s.ScoreCol {
			continue
		}
		if h == "" || excluded[strings.ToLower(h)] {
			continue
		}
		s.TaskCols = append(s.TaskCols, i)
	}

	return s, nil
}

// findAlias returns the index of the first header matching any alias,
// preferring exact matches over case-insensitive ones.
func findAlias(headers, aliases []string) int {
	for _, a := range aliases {
		for i, h := range headers {
			if h == a {
				return i
			}
		}
	}
	for _, a := range aliases {
		lower := strings.ToLower(a)
		for i, h := range headers {
			if strings.ToLower(h) == lower {
				return i
			}
		}
	}
	return -1
}
