package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/encodenode/internal/config"
	"github.com/smazurov/encodenode/internal/engine"
	"github.com/smazurov/encodenode/internal/events"
	"github.com/smazurov/encodenode/internal/logging"
	"github.com/smazurov/encodenode/internal/metrics"
	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/resolver"
	"github.com/smazurov/encodenode/internal/supervisor"
	"github.com/smazurov/encodenode/internal/systemd"
	"github.com/spf13/cobra"
)

// drainTimeout bounds how long the command waits for event subscribers after the run.
const drainTimeout = 2 * time.Second

func runEncode(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	s, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return &ExitError{Code: 1}
	}
	reg := options.NewRegistry(s.Capabilities())

	if len(args) == 0 {
		writeUsage(stderr, reg)
		return &ExitError{Code: 1}
	}

	logging.SetOutput(stderr)
	logging.Initialize(s.Logging())
	logger := logging.GetLogger("main")

	cfg, err := resolver.Resolve(args, reg)
	if errors.Is(err, resolver.ErrHelpRequested) {
		writeUsage(stdout, reg)
		return nil
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		logger.Debug("Configuration rejected", "error", err)
		return &ExitError{Code: 1}
	}
	for _, adj := range cfg.Adjustments() {
		logger.Warn("Option disabled", "option", adj.Option, "reason", adj.Reason)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	code := supervise(ctx, s, cfg, stdout, logger)
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// supervise runs one supervised encode of cfg and returns the exit code.
func supervise(ctx context.Context, s config.Settings, cfg resolver.Config, info io.Writer, logger *slog.Logger) int {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	bus := events.New()

	recorder := metrics.NewRecorder(logging.GetLogger("metrics"))
	recorder.Subscribe(bus)
	defer recorder.Close()

	if s.MetricsListen != "" {
		ln, err := net.Listen("tcp", s.MetricsListen)
		if err != nil {
			logger.Error("Failed to start metrics listener", "listen", s.MetricsListen, "error", err)
			return 1
		}
		serveCtx, stopServing := context.WithCancel(ctx)
		defer stopServing()
		go func() {
			if err := recorder.Serve(serveCtx, ln); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", ln.Addr().String())
	}

	var notifier *systemd.Notifier
	if s.SystemdNotify {
		notifier = systemd.NewNotifier(logging.GetLogger("systemd"))
		notifier.Subscribe(bus)
		defer notifier.Close()
	}

	factory := engine.NewFactory(ctx, engine.Settings{
		Binary:           s.EngineBinary,
		HWDevice:         s.EngineHWDevice,
		ShutdownTimeout:  s.EngineShutdownTimeout,
		SkipEncoderCheck: s.EngineSkipEncoderCheck,
		OnProgress:       recorder.ObserveProgress,
	}, logging.GetLogger("engine").With("run_id", runID), logging.GetLogger("ffmpeg").With("run_id", runID))

	variant, p := pipeline.Build(factory, cfg)
	sup := supervisor.New(p, variant, supervisor.Options{
		Logger: logging.GetLogger("supervisor").With("run_id", runID),
		Bus:    bus,
		RunID:  runID,
	})

	logger.Info("Starting encode", "codec", cfg.Codec(), "variant", variant)
	err := sup.Execute(cfg, info)
	code := supervisor.ExitCode(err)
	switch {
	case err == nil:
		logger.Info("Encode finished", "recoveries", sup.Stats().Recoveries)
	case code == 0:
		logger.Warn("Encode ended early", "error", err)
	default:
		logger.Error("Encode failed", "error", err)
	}

	recorder.Wait(drainTimeout)
	if notifier != nil {
		select {
		case <-notifier.Stopped():
		case <-time.After(drainTimeout):
		}
	}
	if s.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(s.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", s.MetricsTextfile, "error", err)
		}
	}
	return code
}
