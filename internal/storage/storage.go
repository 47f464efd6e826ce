// Package storage defines the session journal: every published event is
// kept as a Record by a Backend so the session can be summarized and
// inspected after it ends.
package storage

import (
	"time"

	"github.com/heliraid/heliraid/pkg/core"
)

// Record is one journaled event.
type Record struct {
	Seq       uint64
	Kind      string
	Source    int
	Attrs     map[string]any
	Timestamp time.Time
}

// Backend is the interface all journal implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Record(r Record) error

	// Records returns entries of the given kind in sequence order, or all
	// entries when kind is empty.
	Records(kind string) ([]Record, error)
	// BySource returns entries published by one cannon (or core.NoSource)
	// in sequence order.
	BySource(source int) ([]Record, error)
}

// CannonSummary aggregates one cannon's activity.
type CannonSummary struct {
	Fired     int
	Skipped   int
	Reloads   int
	Crossings int
}

// Summary aggregates a whole session.
type Summary struct {
	Counts  map[string]int
	Cannons map[int]CannonSummary
	Outcome string
}

// Summarize reads every record from b and tallies it.
func Summarize(b Backend) (Summary, error) {
	recs, err := b.Records("")
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Counts:  make(map[string]int),
		Cannons: make(map[int]CannonSummary),
		Outcome: core.OutcomeRunning.String(),
	}
	for _, r := range recs {
		s.Counts[r.Kind]++

		if r.Source != core.NoSource {
			cs := s.Cannons[r.Source]
			switch r.Kind {
			case core.EventMissileFired:
				cs.Fired++
			case core.EventMissileSkipped:
				cs.Skipped++
			case core.EventDepotFull:
				cs.Reloads++
			case core.EventGateAcquire:
				cs.Crossings++
			}
			s.Cannons[r.Source] = cs
		}

		switch r.Kind {
		case core.EventVictory:
			s.Outcome = core.OutcomeVictory.String()
		case core.EventDefeat:
			s.Outcome = core.OutcomeDefeat.String()
		}
	}
	return s, nil
}

// Kinds filters recs down to the given kinds, keeping order.
func Kinds(recs []Record, kinds ...string) []Record {
	var out []Record
	for _, r := range recs {
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
