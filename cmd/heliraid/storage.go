package main

import (
	"fmt"

	"github.com/heliraid/heliraid/internal/config"
	"github.com/heliraid/heliraid/internal/dispatcher"
	"github.com/heliraid/heliraid/internal/logging"
	"github.com/heliraid/heliraid/internal/storage"
	"github.com/heliraid/heliraid/internal/storage/memory"
	sqlitestorage "github.com/heliraid/heliraid/internal/storage/sqlite"
	"github.com/heliraid/heliraid/internal/worker"
)

func initStorage(d *dispatcher.Dispatcher) (storage.Backend, *worker.Manager, error) {
	Logger.Debug("Initializing journal")

	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return nil, nil, err
	}

	workerManager := worker.NewManager(worker.Dependencies{Logger: Logger}, backend)
	workerManager.RegisterHandlers(d)
	Logger.Info("Journal handlers registered with dispatcher", "backend", storageCfg.Type)

	return backend, workerManager, nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" {
			dumpPath = logging.JournalFilePath(config.GetString("logsDir"), AppName, SessionStartTime)
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, SlogManager.ZeroLogger())
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", dumpPath)
		return backend, nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized")
		return memory.New(memory.Config{
			OutputDir:      storageCfg.Memory.OutputDir,
			CompressOutput: storageCfg.Memory.CompressOutput,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
