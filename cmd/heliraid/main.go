package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/heliraid/heliraid/internal/config"
	"github.com/heliraid/heliraid/internal/dispatcher"
	"github.com/heliraid/heliraid/internal/input"
	"github.com/heliraid/heliraid/internal/logging"
	"github.com/heliraid/heliraid/internal/monitor"
	intOtel "github.com/heliraid/heliraid/internal/otel"
	"github.com/heliraid/heliraid/internal/render"
	"github.com/heliraid/heliraid/internal/session"
	"github.com/heliraid/heliraid/internal/storage"
	"github.com/heliraid/heliraid/pkg/core"
	"github.com/spf13/pflag"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"

	AppName string = "heliraid"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	LogFilePath string
	LogFile     *os.File

	current atomic.Pointer[session.Session]
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := config.Flags()
	fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return 0
	}

	configDir, _ := fs.GetString("config-dir")
	cfgErr := config.Load(configDir)
	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if fs.NArg() > 0 {
		return runCommand(fs.Args())
	}

	setupLogging()
	defer shutdownTelemetry()

	if cfgErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}

	if err := play(); err != nil {
		Logger.Error("Session ended with error", "error", err)
		fmt.Fprintln(os.Stderr, "heliraid:", err)
		return 1
	}
	return 0
}

// setupLogging opens the session log file, starts OTel if enabled and
// points every logger at the file.
func setupLogging() {
	SlogManager = logging.NewSlogManager()
	SlogManager.SetContextProvider(func() []slog.Attr {
		s := current.Load()
		if s == nil {
			return nil
		}
		obj := s.Objective()
		return []slog.Attr{
			slog.String("outcome", obj.Outcome().String()),
			slog.Int("rescued", obj.Rescued()),
		}
	})

	logsDir := config.GetString("logsDir")
	var out io.Writer = io.Discard
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logs directory %s: %v\n", logsDir, err)
	} else {
		LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
		if _, err := os.Stat(LogFilePath); err == nil {
			os.Rename(LogFilePath, LogFilePath+".old")
		}
		LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create/open log file %s: %v\n", LogFilePath, err)
		} else {
			out = LogFile
		}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var err error
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      out,
			MetricWriter:   out,
			MetricInterval: otelCfg.MetricInterval,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
			OTelProvider = nil
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(out, config.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Starting", "version", Version, "build", BuildDate, "log", LogFilePath)
}

func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down OTel: %v\n", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

// play runs one session in the terminal and prints the journal summary.
func play() (err error) {
	scfg, err := session.FromSettings(config.GetDifficulty(), config.GetSimulationConfig())
	if err != nil {
		return err
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(SlogManager.ZeroLogger()))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	backend, workerManager, err := initStorage(eventDispatcher)
	if err != nil {
		return err
	}

	keys := input.NewKeys(nil)
	sess, err := session.New(scfg, session.Dependencies{
		Input:     keys,
		Logger:    Logger,
		Publisher: eventDispatcher,
	})
	if err != nil {
		backend.Close()
		return err
	}
	current.Store(sess)

	var monitorService *monitor.Service
	if mc := config.GetMonitorConfig(); mc.Enabled {
		monitorService = monitor.NewService(monitor.Dependencies{
			Source:     sess,
			Journal:    workerManager,
			LogManager: SlogManager,
			Interval:   mc.Interval,
			StatusPath: logging.SessionFilePath(config.GetString("logsDir"), AppName, "status.json", SessionStartTime),
		})
		monitorService.Start()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		backend.Close()
		return fmt.Errorf("failed to initialize screen: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			Logger.Error("Crashed", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("crashed: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	frame := scfg.Tick
	if fi := config.GetSimulationConfig().FrameInterval; fi > 0 {
		frame = fi
	}
	loopErr := uiLoop(ctx, screen, render.New(screen, sess.Store().Scenario()), sess, keys, frame, stop, runErr)
	screen.Fini()

	if monitorService != nil {
		monitorService.Stop()
	}
	eventDispatcher.Close()

	summary, sumErr := storage.Summarize(backend)
	if closeErr := backend.Close(); closeErr != nil {
		Logger.Error("Failed to close journal", "error", closeErr)
	}
	if sumErr != nil {
		Logger.Error("Failed to summarize journal", "error", sumErr)
	} else {
		printSummary(os.Stdout, summary)
	}

	return loopErr
}

// snapshotter is the part of the session the UI reads.
type snapshotter interface {
	Snapshot() core.Snapshot
}

// uiLoop draws frames and feeds keys until the player quits. The session
// may end first; its final frame stays up until q or Esc, and held keys
// are dropped.
func uiLoop(
	ctx context.Context,
	screen tcell.Screen,
	r *render.Renderer,
	sess snapshotter,
	keys *input.Keys,
	frame time.Duration,
	stop context.CancelFunc,
	runErr <-chan error,
) error {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var (
		sessionErr error
		finished   bool
	)
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					stop()
					if !finished {
						return <-runErr
					}
					return sessionErr
				}
				keys.HandleKey(ev)
			case *tcell.EventResize:
				screen.Sync()
			}

		case err := <-runErr:
			finished = true
			sessionErr = err
			runErr = nil
			keys.Release()
			r.Draw(sess.Snapshot())
			if err != nil || ctx.Err() != nil {
				return err
			}

		case <-ticker.C:
			r.Draw(sess.Snapshot())
		}
	}
}
