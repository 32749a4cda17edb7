package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/internal/bootstrap"
	"github.com/jacksonlee411/provider-portal/internal/server"
	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/configuration"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
	"github.com/jacksonlee411/provider-portal/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	// Set up OpenTelemetry if enabled
	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, conf, bootstrap.Options{WithHTTP: true})
	if err != nil {
		log.Fatalf("failed to bootstrap: %v", err)
	}

	if conf.MigrateOnStart {
		if err := rt.Migrate(ctx); err != nil {
			_ = rt.Close(context.Background())
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	var scheduler *services.Scheduler
	if conf.Sync.SchedulerEnabled {
		scheduler, err = services.NewScheduler(rt.Sync, services.SchedulerOptions{
			Spec:         conf.Sync.Cron,
			RunOnStartup: conf.Sync.RunOnStartup,
			Logger:       logger.WithField("component", "scheduler"),
		})
		if err != nil {
			_ = rt.Close(context.Background())
			log.Fatalf("failed to create scheduler: %v", err)
		}
		scheduler.Start()
		logger.WithFields(logrus.Fields{
			"cron": conf.Sync.Cron,
			"next": scheduler.Next(),
		}).Info("provider sync scheduler started")
	}

	if conf.Prometheus.Enabled {
		rt.App.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, nil))
	}
	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   rt.App,
		LimitStore:    rt.LimitStore,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	log.Printf("Listening on: %s\n", conf.Origin)
	serveErr := serverInstance.Start(ctx, conf.SocketAddress)
	if serveErr != nil {
		logger.WithError(serveErr).Error("http server stopped")
	}

	var sched stopper
	if scheduler != nil {
		sched = scheduler
	}
	shutdown(sched, rt, conf.Lane.ShutdownTimeout, logger)
	if serveErr != nil {
		os.Exit(1)
	}
}
