package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "ud18_logger/docs"
	"ud18_logger/internal/config"
	"ud18_logger/internal/device"
	"ud18_logger/internal/device/blelinux"
	"ud18_logger/internal/device/simulator"
	"ud18_logger/internal/handlers"
	"ud18_logger/internal/logger"
	"ud18_logger/internal/metrics"
	"ud18_logger/internal/repository"
	"ud18_logger/internal/repository/db"
	"ud18_logger/internal/server"
	"ud18_logger/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file (default configs/config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warnw("failed to close sqlite", "err", err)
		}
	}()

	repos := repository.NewRepository(sqlDB, cfg.Store.Driver, cfg.Store.CSVPath)
	if c, ok := repos.Records.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	adapter, closeAdapter, err := openAdapter(cfg, log)
	if err != nil {
		log.Fatalw("failed to open device backend", "backend", cfg.Device.Backend, "err", err)
	}
	defer closeAdapter()

	pipeline := metrics.New()
	services := service.NewService(repos, service.Deps{
		Adapter: adapter,
		Capture: service.CaptureConfig{
			Session: device.Config{
				NameFilter:     cfg.Device.NameFilter,
				Characteristic: cfg.Device.NotifyUUID,
				ScanTimeout:    cfg.Device.ScanTimeout,
				FrameBuffer:    cfg.Device.FrameBuffer,
			},
			RecorderInterval: cfg.Recorder.Interval,
		},
		Auth: service.AuthConfig{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
		Metrics: pipeline,
		Logger:  log,
	})

	if cfg.Mode == config.ModeStandalone {
		return runStandalone(services, log)
	}

	apiHandler := handlers.NewHandler(services, log, pipeline.Registry)
	srv := &server.Server{}
	runHTTPServer(srv, cfg.HTTP.Port, apiHandler, log)

	if cfg.HTTP.Autostart {
		if _, err := services.Capture.Start(context.Background()); err != nil {
			log.Errorw("autostart capture failed", "err", err)
		}
	}

	waitForShutdown(services, srv, log)
	return 0
}

// openAdapter picks the device backend and returns its release func.
func openAdapter(cfg *config.Config, log *logger.Logger) (device.Adapter, func(), error) {
	if cfg.Device.Backend == config.BackendSimulator {
		log.Infow("using simulated meter", "name", cfg.Simulator.Name, "period", cfg.Simulator.Period)
		return simulator.New(cfg.Simulator.Name, cfg.Simulator.Period), func() {}, nil
	}

	a, err := blelinux.Open(cfg.Device.HCIID)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("bluetooth adapter ready", "hci_id", cfg.Device.HCIID)
	return a, func() {
		if err := a.Close(); err != nil {
			log.Warnw("close bluetooth adapter", "err", err)
		}
	}, nil
}

// runStandalone captures until the session ends or a signal arrives and
// returns the process exit code.
func runStandalone(services *service.Service, log *logger.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := services.Capture.Start(ctx); err != nil {
		log.Errorw("failed to start capture", "err", err)
		return 1
	}

	err := services.Capture.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		log.Infow("interrupt received, stopping capture")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if _, serr := services.Capture.Stop(stopCtx); serr != nil && !errors.Is(serr, service.ErrCaptureNotRunning) {
			log.Errorw("capture did not stop cleanly", "err", serr)
			return 1
		}
		err = services.Capture.Wait(stopCtx)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, device.ErrDiscoveryTimeout):
		log.Warnw("no device found", "err", err)
		return 0
	default:
		log.Errorw("capture ended with error", "err", err)
		return 1
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, stops the capture
// session and drains in-flight requests.
func waitForShutdown(services *service.Service, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if _, err := services.Capture.Stop(ctx); err != nil && !errors.Is(err, service.ErrCaptureNotRunning) {
		log.Errorw("capture did not stop cleanly", "err", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
