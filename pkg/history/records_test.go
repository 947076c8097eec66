package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordsFile)

	records := []Record{
		{Nickname: "alice", Entry: contestEntry("contest_0005", 2, 2100, 2250, 4, false)},
		{Nickname: "bob", Entry: contestEntry("contest_0005", 2, 2400, 2400, 2, true)},
	}
	require.NoError(t, WriteRecords(path, records))

	result, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Zero(t, result.Skipped)

	assert.Equal(t, 1, result.Records[0].Version)
	assert.Equal(t, "alice", result.Records[0].Nickname)
	assert.Equal(t, records[0].Entry, result.Records[0].Entry)
	assert.True(t, result.Records[1].Unofficial)
}

func TestReadRecordsSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), RecordsFile)
	content := `{"v":1,"nickname":"alice","contest":"contest_0001","division":4,"position":1,"old_rating":0,"new_rating":150,"change":150,"tasks_solved":1,"unofficial":false,"allowed_division":4,"date":"2026-08-01","type":"contest"}` + "\n" +
		"not json at all\n" +
		`{"v":1,"contest":"contest_0001"}` + "\n" + // missing nickname
		"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	result, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 2, result.Skipped)
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
