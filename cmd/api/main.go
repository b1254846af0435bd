// @title Corporate Events API
// @version 1.0
// @description Attendee registration and capacity accounting for corporate events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"

	"corporateevents/config"
	_ "corporateevents/docs"
	"corporateevents/internal/adapters/auth"
	"corporateevents/internal/adapters/discord"
	"corporateevents/internal/adapters/email"
	"corporateevents/internal/adapters/queue"
	deliveryhttp "corporateevents/internal/delivery/http"
	"corporateevents/internal/delivery/http/controllers"
	"corporateevents/internal/domain"
	"corporateevents/internal/repository/postgres"
	"corporateevents/internal/services"
)

// taskQueue is a domain.TaskQueue with a lifecycle.
type taskQueue interface {
	domain.TaskQueue
	Stop()
}

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}
	logger.Info("connected to database")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	loginCodeRepo := postgres.NewLoginCodeRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	// Services
	auditLogger := services.NewAuditLogger(auditRepo, logger)
	emailService := services.NewEmailService(mailer, renderer, logger)
	taskHandler := services.NewRegistrationTaskHandler(emailService, notifier, cfg.Registration.Timezone, logger)

	tasks, err := newTaskQueue(ctx, cfg, taskHandler, logger)
	if err != nil {
		return err
	}
	defer tasks.Stop()

	userService := services.NewUserService(userRepo, roleRepo, loginCodeRepo,
		auth.NewBcryptHasher(0), auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry, emailService, auditLogger)
	eventService := services.NewEventService(eventRepo, attendanceRepo, auditLogger, cfg.RequestTimeout)
	registrationService := services.NewRegistrationService(eventRepo, attendanceRepo, tasks, auditLogger, logger,
		services.RegistrationOptions{
			Cutoff:   domain.CutoffPolicy(cfg.Registration.Cutoff),
			Location: cfg.Registration.Timezone,
		})
	auditService := services.NewAuditService(auditRepo)

	// HTTP
	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		User:     controllers.NewUserController(logger, userService),
		Event:    controllers.NewEventController(logger, eventService, cfg.Registration.Timezone),
		Attendee: controllers.NewAttendeeController(logger, registrationService),
		Audit:    controllers.NewAuditController(logger, auditService),
	}, auth.NewJWTVerifier(cfg.JWTSecret), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
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

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func newTaskQueue(ctx context.Context, cfg *config.Config, handler domain.TaskHandler, logger *slog.Logger) (taskQueue, error) {
	opts := queue.Options{
		Workers:      cfg.Tasks.Workers,
		Buffer:       cfg.Tasks.Buffer,
		MaxAttempts:  cfg.Tasks.MaxAttempts,
		RetryBackoff: cfg.Tasks.RetryBackoff,
	}
	if cfg.Tasks.Backend == "rabbitmq" {
		q, err := queue.NewRabbitMQQueue(cfg.Tasks.AMQPURL, cfg.Tasks.AMQPQueue, handler, opts, logger)
		if err != nil {
			return nil, err
		}
		if err := q.Start(ctx); err != nil {
			q.Stop()
			return nil, err
		}
		return q, nil
	}
	q := queue.NewMemoryQueue(handler, opts, logger)
	q.Start(ctx)
	return q, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (domain.OrganizerNotifier, error) {
	if cfg.Discord.BotToken == "" {
		logger.Info("discord notifier disabled")
		return discord.NoopNotifier{Logger: logger}, nil
	}
	session, err := discord.NewSession(cfg.Discord.BotToken)
	if err != nil {
		return nil, err
	}
	return discord.NewNotifier(session, cfg.Discord.ChannelID, cfg.Registration.Timezone), nil
}
