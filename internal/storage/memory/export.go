package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/heliraid/heliraid/internal/storage"
)

// JournalExport is the root JSON structure
type JournalExport struct {
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
	Outcome   string             `json:"outcome"`
	Counts    map[string]int     `json:"counts"`
	Cannons   map[int]CannonJSON `json:"cannons"`
	Events    []EventJSON        `json:"events"`
}

// CannonJSON is the per-cannon tally.
type CannonJSON struct {
	Fired     int `json:"fired"`
	Skipped   int `json:"skipped"`
	Reloads   int `json:"reloads"`
	Crossings int `json:"crossings"`
}

// EventJSON is one journaled event.
type EventJSON struct {
	Seq    uint64         `json:"seq"`
	Kind   string         `json:"kind"`
	Source int            `json:"source"`
	Time   time.Time      `json:"time"`
	Attrs  map[string]any `json:"attrs,omitempty"`
}

// exportJSON writes the journal to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export, err := b.buildExport()
	if err != nil {
		return err
	}

	timestamp := b.startTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("heliraid_%s.json.gz", timestamp)
	} else {
		filename = fmt.Sprintf("heliraid_%s.json", timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		err = b.writeGzipJSON(outputPath, export)
	} else {
		err = b.writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() (JournalExport, error) {
	summary, err := storage.Summarize(b)
	if err != nil {
		return JournalExport{}, err
	}
	recs, err := b.Records("")
	if err != nil {
		return JournalExport{}, err
	}

	export := JournalExport{
		StartTime: b.startTime,
		EndTime:   time.Now(),
		Outcome:   summary.Outcome,
		Counts:    summary.Counts,
		Cannons:   make(map[int]CannonJSON, len(summary.Cannons)),
		Events:    make([]EventJSON, 0, len(recs)),
	}
	for id, c := range summary.Cannons {
		export.Cannons[id] = CannonJSON(c)
	}
	for _, r := range recs {
		export.Events = append(export.Events, EventJSON{
			Seq:    r.Seq,
			Kind:   r.Kind,
			Source: r.Source,
			Time:   r.Timestamp,
			Attrs:  r.Attrs,
		})
	}
	return export, nil
}

func (b *Backend) writeJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
