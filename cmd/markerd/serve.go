package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/markerscan/markerd/internal/api"
	"github.com/markerscan/markerd/internal/cache"
	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/detect"
	"github.com/markerscan/markerd/internal/dictionary"
	"github.com/markerscan/markerd/internal/influx"
	"github.com/markerscan/markerd/internal/logging"
	"github.com/markerscan/markerd/internal/markers"
	"github.com/markerscan/markerd/internal/monitor"
	markerotel "github.com/markerscan/markerd/internal/otel"
	"github.com/markerscan/markerd/internal/server"
	"github.com/markerscan/markerd/internal/session"
	"github.com/markerscan/markerd/internal/storage"
	"github.com/markerscan/markerd/pkg/aruco"
	"github.com/markerscan/markerd/pkg/core"
)

func newServeCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scanner server",
		Long: `Load the marker definitions, build the detection dictionary, and
serve camera frame streams over WebSocket. The server refuses to start
when the marker file is malformed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configDir)
		},
	}
}

func runServe(cmdCtx context.Context, configDir string) error {
	if err := config.Load(configDir); err != nil {
		return err
	}

	start := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	logFile, err := os.Create(logging.LogFilePath(logsDir, "markerd", start))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	otelProvider, err := markerotel.New(markerotel.Config{
		Enabled:      config.GetBool("otel.enabled"),
		ServiceName:  "markerd",
		BatchTimeout: 5 * time.Second,
		LogWriter:    logFile,
		Endpoint:     config.GetString("otel.endpoint"),
		Insecure:     config.GetBool("otel.insecure"),
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelProvider.Shutdown(ctx)
	}()

	logMgr := logging.NewSlogManager()
	var extraHandlers []slog.Handler
	if addr := config.GetString("graylogAddr"); addr != "" {
		gelfHandler, gerr := logging.NewGelfHandler(addr, &slog.HandlerOptions{
			Level: logging.ParseLevel(config.GetString("logLevel")),
		})
		if gerr != nil {
			return fmt.Errorf("connecting to graylog: %w", gerr)
		}
		extraHandlers = append(extraHandlers, gelfHandler)
	}
	logMgr.Setup(logFile, config.GetString("logLevel"), otelProvider.LoggerProvider(), extraHandlers...)
	logger := logMgr.Logger()

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	markersCfg := config.Markers()

	// A malformed marker file is a configuration error: refuse to start.
	parser := markers.NewParser(logger)
	set, err := parser.ParseFile(markersCfg.File)
	if err != nil {
		return fmt.Errorf("invalid marker definitions: %w", err)
	}

	encoder := dictionary.NewEncoder(logger, aruco.Predefined6x6(markersCfg.DictionarySize))
	dict, err := encoder.Build(set)
	if err != nil {
		return fmt.Errorf("building dictionary: %w", err)
	}
	logger.Info("Dictionary built", "markers", len(set), "capacity", dict.Capacity())

	storageCfg := config.Storage()
	store, err := storage.NewBackend(storageCfg, zlog)
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	sess := core.Session{
		StartTime:      start,
		MarkersFile:    markersCfg.File,
		MarkerCount:    len(set),
		DictionarySize: dict.Capacity(),
		ServerVersion:  core.Version,
	}
	if err := store.StartSession(&sess); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	sessCtx := session.NewContext(sess)

	detCache := cache.NewDetectionCache()
	frames := &cache.SafeCounter{}
	processingCfg := config.Processing()

	var influxMgr *influx.Manager
	if config.GetBool("influx.enabled") {
		influxMgr = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxMgr.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
			influxMgr = nil
		} else {
			mon := monitor.NewService(monitor.Dependencies{
				Influx:        influxMgr,
				Cache:         detCache,
				Frames:        frames,
				MarkerTimeout: processingCfg.MarkerTimeout(),
				Interval:      time.Second,
				Logger:        zlog,
			})
			if err := mon.Start(); err != nil {
				logger.Warn("Health monitor failed to start", "error", err)
			} else {
				defer mon.Stop()
			}
		}
	}

	srv := server.New(server.Options{
		Server:     config.Server(),
		Markers:    markersCfg,
		Processing: processingCfg,
		Holder:     dictionary.NewHolder(dict),
		Detector:   detect.NewGridSampler(),
		Parser:     parser,
		Encoder:    encoder,
		Cache:      detCache,
		Store:      store,
		Influx:     influxMgr,
		Session:    sessCtx,
		Frames:     frames,
		Logger:     logger,
	})

	signalCtx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := srv.Run(signalCtx)
	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		logger.Error("Server stopped", "error", runErr)
	}

	if err := store.EndSession(); err != nil {
		logger.Error("Failed to end session", "error", err)
	}

	uploadSessionExport(store, sessCtx.Get(), logger)

	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage backend", "error", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	_ = otelProvider.Flush(flushCtx)
	_ = logMgr.Flush(flushCtx)

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return runErr
	}
	return nil
}

// uploadSessionExport sends the exported session summary to the review
// frontend when one is configured and the backend produced a file.
func uploadSessionExport(store storage.Backend, sess core.Session, logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}) {
	apiURL := config.GetString("api.url")
	if apiURL == "" {
		return
	}

	exportable, ok := store.(storage.Exportable)
	if !ok || exportable.GetExportedFilePath() == "" {
		return
	}

	client := api.New(apiURL, config.GetString("api.key"))
	meta := core.UploadMetadata{
		MarkersFile:     sess.MarkersFile,
		SessionDuration: time.Since(sess.StartTime).Seconds(),
		MarkerCount:     sess.MarkerCount,
	}
	if err := client.Upload(exportable.GetExportedFilePath(), meta); err != nil {
		logger.Warn("Failed to upload session export", "error", err)
		return
	}
	logger.Info("Session export uploaded", "file", exportable.GetExportedFilePath())
}
