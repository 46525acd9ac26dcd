package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"roomly/internal/bus"
	"roomly/internal/calendar"
	"roomly/internal/config"
	"roomly/internal/database"
	"roomly/internal/dispatch"
	"roomly/internal/httpapi"
	"roomly/internal/models"
	"roomly/internal/notify"
	"roomly/internal/service"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("ROOMLY_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := notify.NewMetrics("roomly")

	var mail notify.MailSender
	if cfg.Notifications.Mail.Host != "" {
		mail = notify.NewSMTPSender(notify.SMTPConfig{
			From:     cfg.Notifications.Mail.From,
			Host:     cfg.Notifications.Mail.Host,
			Port:     cfg.Notifications.Mail.Port,
			Username: cfg.Notifications.Mail.Username,
			Password: cfg.Notifications.Mail.Password,
		}, logger)
	}
	push := notify.NewWebPushSender(cfg.Notifications.PushRatePerSecond, cfg.Notifications.PushBurst, metrics, logger)

	handler := notify.NewHandler(db, mail, push, metrics, logger)

	// Redis keeps scheduled tasks across restarts; without it the in-memory
	// dispatcher plus the startup rearm pass covers the same ground.
	var (
		dispatcher dispatch.Dispatcher
		rdb        *redis.Client
	)
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rd := dispatch.NewRedisDispatcher(rdb, handler.Handle, cfg.PollInterval(), logger)
		rd.Start(ctx)
		defer rd.Stop()
		dispatcher = rd
	} else {
		md := dispatch.NewMemoryDispatcher(handler.Handle, logger)
		defer md.Close()
		dispatcher = md
	}

	scheduler := notify.NewScheduler(dispatcher, cfg.Notifications.LeadMinutes, metrics, logger)

	b := bus.New(logger)
	if cfg.Calendar.Enabled && cfg.Calendar.BaseURL != "" {
		client := calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.Username, cfg.Calendar.Password, logger)
		calendar.NewSync(b, client, db, logger)
	}

	events := service.NewEventService(db, scheduler, b, logger)
	rooms := service.NewRoomService(db, logger)
	directory := service.NewDirectoryService(db, logger)

	rearmUpcoming(ctx, db, scheduler, rearmPageSize, &logger)

	c := cron.New()
	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		if _, err := c.AddFunc(cfg.Backup.Schedule, backup.Run); err != nil {
			logger.Fatal().Err(err).Msg("invalid backup schedule")
		}
	}
	c.Start()
	defer c.Stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	api := httpapi.New(events, rooms, directory, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("Server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

const rearmPageSize = 1000

// rearmUpcoming re-schedules notification tasks for every non-archived event,
// walking the full listing page by page. The scheduler's cancel-then-schedule
// contract makes this safe to run alongside tasks that survived in Redis.
func rearmUpcoming(ctx context.Context, db *database.DB, scheduler *notify.Scheduler, pageSize int, logger *zerolog.Logger) {
	archived := false
	total := 0
	for pageNum := 1; ; pageNum++ {
		page, err := db.ListEvents(ctx, models.EventFilter{Archived: &archived, Page: pageNum, Limit: pageSize})
		if err != nil {
			logger.Error().Err(err).Msg("failed to load upcoming events for rearm")
			return
		}
		for i := range page.Events {
			if err := scheduler.ScheduleEvent(ctx, &page.Events[i]); err != nil {
				logger.Warn().Err(err).Int64("event_id", page.Events[i].ID).Msg("rearm failed")
			}
		}
		total += len(page.Events)
		if len(page.Events) == 0 || pageNum >= page.TotalPages {
			break
		}
	}
	logger.Info().Int("events", total).Msg("Upcoming events rearmed")
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	if port == 0 {
		port = 8090
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	if port == 0 {
		port = 9090
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
