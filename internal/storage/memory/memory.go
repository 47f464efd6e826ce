// Package memory keeps the session journal in process memory.
package memory

import (
	"maps"
	"sort"
	"time"

	"github.com/heliraid/heliraid/internal/queue"
	"github.com/heliraid/heliraid/internal/storage"
)

// Config controls the export written on Close. An empty OutputDir skips it.
type Config struct {
	OutputDir      string
	CompressOutput bool
}

// Backend stores journal records in memory and exports them to JSON.
type Backend struct {
	cfg       Config
	startTime time.Time
	records   *queue.Queue[storage.Record]

	lastExportPath string
}

// New creates a new memory backend
func New(cfg Config) *Backend {
	return &Backend{
		cfg:       cfg,
		startTime: time.Now(),
		records:   queue.New[storage.Record](),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close writes the export when an output directory is configured.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// GetExportedFilePath returns the path of the last export, if any.
func (b *Backend) GetExportedFilePath() string {
	return b.lastExportPath
}

// Record appends r. Attributes are copied so the publisher may reuse its map.
func (b *Backend) Record(r storage.Record) error {
	r.Attrs = maps.Clone(r.Attrs)
	b.records.Push(r)
	return nil
}

// Records returns entries of kind, or all of them when kind is empty.
func (b *Backend) Records(kind string) ([]storage.Record, error) {
	if kind == "" {
		return sorted(b.records.Items()), nil
	}
	return sorted(b.records.Filter(func(r storage.Record) bool { return r.Kind == kind })), nil
}

// BySource returns entries published by source.
func (b *Backend) BySource(source int) ([]storage.Record, error) {
	return sorted(b.records.Filter(func(r storage.Record) bool { return r.Source == source })), nil
}

// Len returns the number of journaled records.
func (b *Backend) Len() int {
	return b.records.Len()
}

// Buffered handlers deliver out of publish order, so reads sort by Seq.
func sorted(recs []storage.Record) []storage.Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	return recs
}
