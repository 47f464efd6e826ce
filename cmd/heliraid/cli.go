package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/heliraid/heliraid/internal/storage"
	sqlitestorage "github.com/heliraid/heliraid/internal/storage/sqlite"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/rs/zerolog"
)

// runCommand handles the non-interactive subcommands.
func runCommand(args []string) int {
	switch strings.ToLower(args[0]) {
	case "summary":
		paths := args[1:]
		if len(paths) == 0 {
			fmt.Fprintln(os.Stderr, "No journal files provided.")
			return 2
		}
		for _, path := range paths {
			if err := summarizeJournal(os.Stdout, path); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				return 1
			}
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q. Usage: %s [flags] [summary <journal.db>...]\n", args[0], AppName)
		return 2
	}
}

// summarizeJournal prints the summary of a SQLite journal dump.
func summarizeJournal(w io.Writer, path string) error {
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	backend, err := sqlitestorage.Open(path, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	summary, err := storage.Summarize(backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Journal %s\n", path)
	printSummary(w, summary)
	return nil
}

func printSummary(w io.Writer, s storage.Summary) {
	fmt.Fprintf(w, "Outcome: %s\n", s.Outcome)
	fmt.Fprintf(w, "Hostages rescued: %d\n", s.Counts[core.EventHostageRescue])

	ids := make([]int, 0, len(s.Cannons))
	for id := range s.Cannons {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		c := s.Cannons[id]
		fmt.Fprintf(w, "Cannon %d: fired %d, skipped %d, reloads %d, crossings %d\n",
			id, c.Fired, c.Skipped, c.Reloads, c.Crossings)
	}
}
