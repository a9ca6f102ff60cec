package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/internal/email"
	"github.com/healthsync/healthsync-api/internal/handler"
	authhandler "github.com/healthsync/healthsync-api/internal/handler/authentication"
	bookinghandler "github.com/healthsync/healthsync-api/internal/handler/booking"
	doctorhandler "github.com/healthsync/healthsync-api/internal/handler/doctor"
	"github.com/healthsync/healthsync-api/internal/handler/health"
	hospitalhandler "github.com/healthsync/healthsync-api/internal/handler/hospital"
	patienthandler "github.com/healthsync/healthsync-api/internal/handler/patient"
	promhandler "github.com/healthsync/healthsync-api/internal/handler/prometheus"
	timeslothandler "github.com/healthsync/healthsync-api/internal/handler/timeslot"
	"github.com/healthsync/healthsync-api/internal/middleware"
	"github.com/healthsync/healthsync-api/internal/repository"
	"github.com/healthsync/healthsync-api/internal/repository/memory"
	"github.com/healthsync/healthsync-api/internal/repository/postgres"
	"github.com/healthsync/healthsync-api/internal/router"
	"github.com/healthsync/healthsync-api/internal/service/authentication"
	"github.com/healthsync/healthsync-api/internal/service/booking"
	"github.com/healthsync/healthsync-api/internal/service/doctor"
	"github.com/healthsync/healthsync-api/internal/service/hospital"
	"github.com/healthsync/healthsync-api/internal/service/notification"
	"github.com/healthsync/healthsync-api/internal/service/patient"
	"github.com/healthsync/healthsync-api/internal/service/timeslot"
	"github.com/healthsync/healthsync-api/internal/validation"
	"github.com/healthsync/healthsync-api/pkg/auth"
	"github.com/healthsync/healthsync-api/pkg/lock"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/messaging"
	"github.com/healthsync/healthsync-api/pkg/messaging/rabbitmq"
	"github.com/healthsync/healthsync-api/pkg/messaging/redis"
	"github.com/healthsync/healthsync-api/pkg/metrics"
	"github.com/healthsync/healthsync-api/pkg/security"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	appLog.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Fatal(err, "server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repos, pinger, closeStore, err := openStore(ctx, cfg.Database, appLog)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *goredis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Booking.Locker == config.LockerRedis {
		locker = lock.NewRedisLocker(redisClient, lock.RedisConfig{
			Prefix: "healthsync:lock:",
			TTL:    cfg.Booking.LockTTL,
		})
	}

	broker, err := openBroker(cfg, redisClient, appLog)
	if err != nil {
		return err
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Monitoring.MetricsNamespace, reg)

	dispatcher := notification.NewDispatcher(cfg.Notification, appLog, m)
	notifier := notification.NewService(email.NewSender(cfg.Mail, appLog), broker, dispatcher, m)
	v := validation.New()

	patients := patient.NewService(repos.Patients, repos.Authentication, notifier, v, appLog, nil)
	doctors := doctor.NewService(repos.Doctors, notifier, v, cfg.Cache.SummaryTTL, cfg.Cache.CleanupInterval, appLog, nil)
	hospitals := hospital.NewService(repos.Hospitals, v, appLog)
	slots := timeslot.NewService(repos.TimeSlots, v, appLog)
	bookings := booking.NewService(booking.Repositories{
		Bookings:       repos.Bookings,
		TimeSlots:      repos.TimeSlots,
		Patients:       repos.Patients,
		Doctors:        repos.Doctors,
		Authentication: repos.Authentication,
	}, locker, notifier, v, m, appLog, booking.Config{
		Duration:     cfg.Booking.Duration,
		LockWait:     cfg.Booking.LockWait,
		MaxIDRetries: cfg.Booking.MaxIDRetries,
		Location:     loc,
	}, nil)
	authn := authentication.NewService(
		repos.Authentication, repos.Patients, repos.Doctors,
		security.NewBcryptHasher(cfg.Security.BcryptCost),
		auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		notifier, v, appLog,
	)

	routerCfg := router.Config{
		Mode:           cfg.Server.Mode,
		BasePath:       cfg.Server.BasePath,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		CORS:           middleware.DefaultCORSConfig(),
		Security:       middleware.DefaultSecurityConfig(),
	}
	if len(cfg.CORS.AllowOrigins) > 0 {
		routerCfg.CORS.AllowOrigins = cfg.CORS.AllowOrigins
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		}
	}
	r := router.NewRouter(routerCfg, m,
		[]handler.Routes{health.NewHandler(pinger), promhandler.New(reg)},
		[]handler.Routes{
			patienthandler.NewHandler(patients),
			doctorhandler.NewHandler(doctors),
			hospitalhandler.NewHandler(hospitals),
			timeslothandler.NewHandler(slots),
			bookinghandler.NewHandler(bookings),
			authhandler.NewHandler(authn),
		},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		appLog.Warn("pending notifications abandoned", "error", err.Error())
	}
	appLog.Info("server exited")
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, appLog *logger.Logger) (*repository.Repositories, repository.Pinger, func(), error) {
	if cfg.Driver == config.DriverMemory {
		appLog.Warn("using the in-memory store; records are lost on exit")
		store := memory.NewStore()
		return store.Repositories(), store, func() {}, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}
	return postgres.NewRepositories(db), db, func() { db.Close() }, nil
}

func openBroker(cfg *config.Config, client *goredis.Client, appLog *logger.Logger) (messaging.Broker, error) {
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		return redis.NewRedisBroker(client, cfg.Broker.ChannelPrefix, appLog.Zerolog()), nil
	case config.BrokerRabbitMQ:
		return rabbitmq.NewPublisher(rabbitmq.Config{
			URL:      cfg.Broker.RabbitMQURL,
			Exchange: cfg.Broker.Exchange,
		}, appLog.Zerolog())
	}
	return messaging.NopBroker{}, nil
}
