// Package sqlitestorage implements the journal on an in-memory SQLite
// database with optional periodic disk dumps via VACUUM INTO.
package sqlitestorage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heliraid/heliraid/internal/database"
	"github.com/heliraid/heliraid/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// EventRow is the table layout of one journal record.
type EventRow struct {
	ID        uint           `gorm:"primarykey"`
	Seq       uint64         `gorm:"index"`
	Kind      string         `gorm:"index;size:32"`
	Source    int            `gorm:"index"`
	Attrs     datatypes.JSON `gorm:"type:json"`
	Timestamp time.Time
}

// TableName implements gorm's tabler.
func (EventRow) TableName() string { return "events" }

// Backend journals records into SQLite.
type Backend struct {
	db     *gorm.DB
	cfg    Config
	logger zerolog.Logger

	lastWrite atomic.Int64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	return &Backend{
		db:       db,
		cfg:      cfg,
		logger:   logger.With().Str("component", "journal").Logger(),
		stopChan: make(chan struct{}),
	}, nil
}

// Open attaches to a journal previously dumped to path, for reading.
// Nothing is dumped on Close.
func Open(path string, logger zerolog.Logger) (*Backend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	db, err := database.GetSqliteDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite journal %s: %w", path, err)
	}
	return &Backend{
		db:       db,
		logger:   logger.With().Str("component", "journal").Logger(),
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(&EventRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.logger.Debug().Msg("Journal schema migrated")

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the DB.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()

	if b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			b.logger.Error().Err(err).Msg("Final dump failed")
		} else {
			b.logger.Info().Str("path", b.cfg.DumpPath).Msg("Journal written to disk")
		}
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts r.
func (b *Backend) Record(r storage.Record) error {
	attrs, err := json.Marshal(r.Attrs)
	if err != nil {
		return fmt.Errorf("encoding attrs of %s: %w", r.Kind, err)
	}

	start := time.Now()
	err = b.db.Create(&EventRow{
		Seq:       r.Seq,
		Kind:      r.Kind,
		Source:    r.Source,
		Attrs:     datatypes.JSON(attrs),
		Timestamp: r.Timestamp,
	}).Error
	b.lastWrite.Store(int64(time.Since(start)))
	if err != nil {
		return fmt.Errorf("inserting %s: %w", r.Kind, err)
	}
	return nil
}

// Records returns entries of kind, or all entries when kind is empty.
func (b *Backend) Records(kind string) ([]storage.Record, error) {
	q := b.db.Order("seq")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	return b.find(q)
}

// BySource returns entries published by source.
func (b *Backend) BySource(source int) ([]storage.Record, error) {
	return b.find(b.db.Order("seq").Where("source = ?", source))
}

// GetLastDBWriteDuration returns how long the most recent insert took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

func (b *Backend) find(q *gorm.DB) ([]storage.Record, error) {
	var rows []EventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]storage.Record, 0, len(rows))
	for _, row := range rows {
		var attrs map[string]any
		if len(row.Attrs) > 0 {
			if err := json.Unmarshal(row.Attrs, &attrs); err != nil {
				return nil, fmt.Errorf("decoding attrs of row %d: %w", row.ID, err)
			}
		}
		out = append(out, storage.Record{
			Seq:       row.Seq,
			Kind:      row.Kind,
			Source:    row.Source,
			Attrs:     attrs,
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.logger.Error().Err(err).Msg("Error dumping to disk")
			} else {
				b.logger.Debug().Dur("duration", time.Since(start)).Msg("Dumped to disk")
			}
		}
	}
}
