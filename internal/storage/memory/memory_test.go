package memory

import (
	"sync"
	"testing"

	"github.com/heliraid/heliraid/internal/storage"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInitClose(t *testing.T) {
	b := New(Config{})
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
}

func TestRecord_CopiesAttrs(t *testing.T) {
	b := New(Config{})
	attrs := map[string]any{"slot": 1}
	require.NoError(t, b.Record(storage.Record{Seq: 1, Kind: core.EventMissileFired, Attrs: attrs}))
	attrs["slot"] = 9

	recs, err := b.Records(core.EventMissileFired)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Attrs["slot"])
}

func TestRecords_SortedBySeq(t *testing.T) {
	b := New(Config{})
	for _, seq := range []uint64{3, 1, 2} {
		require.NoError(t, b.Record(storage.Record{Seq: seq, Kind: core.EventDepotEmpty, Source: 0}))
	}
	require.NoError(t, b.Record(storage.Record{Seq: 4, Kind: core.EventVictory, Source: core.NoSource}))

	all, err := b.Records("")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, r := range all {
		assert.Equal(t, uint64(i+1), r.Seq)
	}

	bySource, err := b.BySource(0)
	require.NoError(t, err)
	assert.Len(t, bySource, 3)
}

func TestRecord_ConcurrentWriters(t *testing.T) {
	b := New(Config{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Record(storage.Record{Seq: uint64(w*100 + i), Kind: core.EventMissileFired, Source: w})
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 800, b.Len())
}
