package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/hrflow/hrflow-backend/internal/attendance/consumers"
	"github.com/hrflow/hrflow-backend/internal/attendance/events"
	"github.com/hrflow/hrflow-backend/internal/attendance/handler"
	"github.com/hrflow/hrflow-backend/internal/attendance/metrics"
	"github.com/hrflow/hrflow-backend/internal/attendance/repository"
	"github.com/hrflow/hrflow-backend/internal/attendance/scheduler"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/config"
	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/hrflow/hrflow-backend/pkg/httputil"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/hrflow/hrflow-backend/pkg/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "attendance-service"

func main() {
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Attendance Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	publisher, err := events.NewAttendanceEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	store := repository.NewStore(db)
	reconciliationService := service.NewReconciliationService(store, log,
		service.WithPublisher(publisher),
		service.WithObserver(collector),
	)

	attendanceHandler := handler.NewAttendanceHandler(reconciliationService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Attendance.PunchConsumer {
		punchConsumer, err := consumers.NewPunchEventConsumer(rmq, reconciliationService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create punch event consumer")
		}
		if err := punchConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start punch event consumer")
		}
		go rmq.Watch(ctx, punchConsumer.Start)
	} else {
		go rmq.Watch(ctx, nil)
	}

	var dailyJob *scheduler.Scheduler
	if cfg.Attendance.DailyJobEnabled {
		dailyJob, err = scheduler.New(reconciliationService, cfg.Attendance, log,
			scheduler.WithPublisher(publisher),
			scheduler.WithObserver(collector),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create daily attendance job")
		}
		dailyJob.Start(ctx)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Email"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":          "healthy",
			"service":         serviceName,
			"database":        db.Health(r.Context()),
			"rabbitmq":        rmq.Health(),
			"reconciling_now": reconciliationService.Running(),
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Route("/api/v1/attendance", func(r chi.Router) {
		r.Use(httputil.ActorFromHeaders)
		attendanceHandler.Routes(r, httprate.LimitByIP(cfg.Server.ReconcileRateLimit, time.Minute))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// In-flight runs see the cancellation between days; each day commits or rolls back on its own.
	cancel()
	if dailyJob != nil {
		dailyJob.Wait()
	}

	log.Info().Msg("server stopped")
}
