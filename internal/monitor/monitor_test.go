package monitor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heliraid/heliraid/internal/logging"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource core.Snapshot

func (f fixedSource) Snapshot() core.Snapshot { return core.Snapshot(f) }

type fixedWrite time.Duration

func (f fixedWrite) GetLastDBWriteDuration() time.Duration { return time.Duration(f) }

var testSnapshot = core.Snapshot{
	Tick: 42,
	Cannons: []core.CannonView{
		{ID: 0, Rect: core.Rect{X: 425}, Ammo: 3, Capacity: 10, Phase: core.PhasePatrol},
		{ID: 1, Rect: core.Rect{X: 20}, Ammo: 0, Capacity: 10, Phase: core.PhaseReloading},
	},
	Missiles: []core.Rect{{X: 1}, {X: 2}},
	Captured: 7,
	Rescued:  2,
	Total:    10,
}

func newTestService(t *testing.T, buf *bytes.Buffer, statusPath string) *Service {
	t.Helper()
	lm := logging.NewSlogManager()
	lm.Setup(buf, "debug", nil)
	return NewService(Dependencies{
		Source:     fixedSource(testSnapshot),
		Journal:    fixedWrite(1500 * time.Microsecond),
		LogManager: lm,
		Interval:   5 * time.Millisecond,
		StatusPath: statusPath,
	})
}

func TestGetProgramStatus(t *testing.T) {
	s := newTestService(t, &bytes.Buffer{}, "")

	out, status := s.GetProgramStatus()
	require.Len(t, out, 1)

	assert.Equal(t, uint64(42), status.Tick)
	assert.Equal(t, "running", status.Outcome)
	assert.Equal(t, 2, status.ActiveMissiles)
	assert.Equal(t, float32(1.5), status.LastWriteDurationMs)
	require.Len(t, status.Cannons, 2)
	assert.Equal(t, "reloading", status.Cannons[1].Phase)

	var decoded Status
	require.NoError(t, json.Unmarshal([]byte(out[0]), &decoded))
	assert.Equal(t, 7, decoded.Captured)
}

func TestGetProgramStatus_NoJournal(t *testing.T) {
	s := newTestService(t, &bytes.Buffer{}, "")
	s.deps.Journal = nil

	_, status := s.GetProgramStatus()
	assert.Equal(t, float32(0), status.LastWriteDurationMs)
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	s := newTestService(t, &bytes.Buffer{}, path)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && bytes.Contains(data, []byte(`"tick": 42`))
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
