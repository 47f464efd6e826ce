package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/heliraid/heliraid/internal/storage"
	sqlitestorage "github.com/heliraid/heliraid/internal/storage/sqlite"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, storage.Summary{
		Counts: map[string]int{core.EventHostageRescue: 4},
		Cannons: map[int]storage.CannonSummary{
			1: {Fired: 3, Reloads: 1, Crossings: 2},
			0: {Fired: 7, Skipped: 1},
		},
		Outcome: "defeat",
	})

	want := "Outcome: defeat\n" +
		"Hostages rescued: 4\n" +
		"Cannon 0: fired 7, skipped 1, reloads 0, crossings 0\n" +
		"Cannon 1: fired 3, skipped 0, reloads 1, crossings 2\n"
	assert.Equal(t, want, buf.String())
}

func TestSummarizeJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heliraid.db")
	b, err := sqlitestorage.New(sqlitestorage.Config{DumpPath: path}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Record(storage.Record{Seq: 1, Kind: core.EventMissileFired, Source: 0}))
	require.NoError(t, b.Record(storage.Record{Seq: 2, Kind: core.EventVictory, Source: core.NoSource}))
	require.NoError(t, b.Close())

	var buf bytes.Buffer
	require.NoError(t, summarizeJournal(&buf, path))
	assert.Contains(t, buf.String(), "Outcome: victory")
	assert.Contains(t, buf.String(), "Cannon 0: fired 1")

	assert.Error(t, summarizeJournal(&buf, filepath.Join(t.TempDir(), "nope.db")))
}

func TestRunCommand_Usage(t *testing.T) {
	assert.Equal(t, 2, runCommand([]string{"summary"}))
	assert.Equal(t, 2, runCommand([]string{"replay"}))
}
