// Package monitor periodically reports session health: unit states, hostage
// counters and journal write latency.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/heliraid/heliraid/internal/logging"
	"github.com/heliraid/heliraid/pkg/core"
)

// SnapshotSource provides the state being monitored.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

// WriteDurationSource reports the journal's last write latency.
type WriteDurationSource interface {
	GetLastDBWriteDuration() time.Duration
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source     SnapshotSource
	Journal    WriteDurationSource
	LogManager *logging.SlogManager
	Interval   time.Duration
	StatusPath string // optional file rewritten on every report
}

// CannonStatus is one cannon's line in the report.
type CannonStatus struct {
	ID       int    `json:"id"`
	X        int    `json:"x"`
	Phase    string `json:"phase"`
	Ammo     int    `json:"ammo"`
	Capacity int    `json:"capacity"`
}

// Status is one report.
type Status struct {
	Time                time.Time      `json:"time"`
	Tick                uint64         `json:"tick"`
	Outcome             string         `json:"outcome"`
	Captured            int            `json:"captured"`
	Rescued             int            `json:"rescued"`
	ActiveMissiles      int            `json:"activeMissiles"`
	Cannons             []CannonStatus `json:"cannons"`
	LastWriteDurationMs float32        `json:"lastWriteDurationMs"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	stopped   chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus builds the current report and its JSON rendering.
func (s *Service) GetProgramStatus() (output []string, status Status) {
	snap := s.deps.Source.Snapshot()

	status = Status{
		Time:           time.Now(),
		Tick:           snap.Tick,
		Outcome:        snap.Outcome.String(),
		Captured:       snap.Captured,
		Rescued:        snap.Rescued,
		ActiveMissiles: len(snap.Missiles),
		Cannons:        make([]CannonStatus, 0, len(snap.Cannons)),
	}
	for _, c := range snap.Cannons {
		status.Cannons = append(status.Cannons, CannonStatus{
			ID:       c.ID,
			X:        c.Rect.X,
			Phase:    c.Phase.String(),
			Ammo:     c.Ammo,
			Capacity: c.Capacity,
		})
	}
	if s.deps.Journal != nil {
		status.LastWriteDurationMs = float32(s.deps.Journal.GetLastDBWriteDuration().Microseconds()) / 1000
	}

	statusStr, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		statusStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(statusStr))

	return output, status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.stopped = make(chan struct{})
	stop, stopped := s.stopChan, s.stopped
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(stopped)
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		var statusFile *os.File
		if s.deps.StatusPath != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusPath)
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				statusStr, status := s.GetProgramStatus()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				logger.Debug("Session status",
					"tick", status.Tick,
					"outcome", status.Outcome,
					"captured", status.Captured,
					"rescued", status.Rescued,
					"missiles", status.ActiveMissiles,
					"lastWriteMs", status.LastWriteDurationMs,
				)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	stopped := s.stopped
	s.mu.Unlock()
	<-stopped
}
