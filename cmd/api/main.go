package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/medical_consult/clients"
	config "github.com/anjiri1684/medical_consult/configs"
	"github.com/anjiri1684/medical_consult/database"
	"github.com/anjiri1684/medical_consult/events"
	"github.com/anjiri1684/medical_consult/handlers"
	"github.com/anjiri1684/medical_consult/jobs"
	"github.com/anjiri1684/medical_consult/notifications"
	"github.com/anjiri1684/medical_consult/payments"
	"github.com/anjiri1684/medical_consult/repository"
	"github.com/anjiri1684/medical_consult/routes"
	"github.com/anjiri1684/medical_consult/services"
	"github.com/anjiri1684/medical_consult/utils"
	"github.com/anjiri1684/medical_consult/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := utils.NewLogger(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped cleanly")
}

type storage struct {
	db            *gorm.DB
	consultations repository.ConsultationRepository
	payments      repository.PaymentRepository
	reviews       repository.ReviewRepository
}

func openStorage(cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return &storage{
			consultations: store.Consultations(),
			payments:      store.Payments(),
			reviews:       store.Reviews(),
		}, nil
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}
	return &storage{
		db:            db,
		consultations: repository.NewConsultationRepository(db),
		payments:      repository.NewPaymentRepository(db),
		reviews:       repository.NewReviewRepository(db),
	}, nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer func() { _ = database.Close(store.db) }()
	}

	policy := events.DefaultDeliveryPolicy()
	policy.MaxAttempts = cfg.EventMaxAttempts

	var (
		broker events.Broker
		purger jobs.EventPurger
	)
	if cfg.EventBroker == "postgres" {
		durable := events.NewGormBroker(store.db, policy, cfg.EventPollInterval, cfg.EventBatchSize, log)
		broker, purger = durable, durable
	} else {
		broker = events.NewMemoryBroker(policy, log)
	}

	var profiles services.ProfileLookup
	if cfg.UserServiceURL != "" {
		profiles = clients.NewUserClient(cfg.UserServiceURL, cfg.UserLookupTimeout)
	}
	consultations := services.NewConsultationService(store.consultations,
		services.NewFeeResolver(profiles, cfg.DefaultConsultationFee, log.Named("fees")), log)
	reviews := services.NewReviewService(store.reviews, store.consultations, log)

	var notifier services.ConsultationNotifier = services.NewLocalConsultationNotifier(consultations)
	if cfg.ConsultationServiceURL != "" {
		notifier = clients.NewConsultationClient(cfg.ConsultationServiceURL, cfg.InternalAPIKey, cfg.GatewayTimeout)
	}

	background := jobs.NewDispatcher(cfg.BackgroundWorkers, cfg.BackgroundQueueSize, cfg.BackgroundTaskTimeout, log)
	paymentSvc := services.NewPaymentService(
		payments.NewRazorpayGateway(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout),
		payments.NewSignatureVerifier(cfg.RazorpayKeySecret),
		store.payments,
		broker,
		notifier,
		background,
		services.PaymentConfig{Currency: cfg.PaymentCurrency, GatewayTimeout: cfg.GatewayTimeout},
		log,
	)

	hub := websocket.NewHub(log)
	reconciler := services.NewConsultationReconciler(consultations, log)
	paymentNotifier := notifications.NewPaymentNotifier(hub, log)
	if err := broker.Subscribe(ctx, events.PaymentSuccessTopic, cfg.ConsultationGroup, reconciler.Handle); err != nil {
		return fmt.Errorf("failed to start consultation reconciler: %w", err)
	}
	if err := broker.Subscribe(ctx, events.PaymentSuccessTopic, cfg.NotificationGroup, paymentNotifier.Handle); err != nil {
		return fmt.Errorf("failed to start notification dispatcher: %w", err)
	}

	scheduler, err := jobs.NewScheduler(store.payments, cfg.StaleOrderTTL, purger, cfg.EventRetention, log)
	if err != nil {
		return err
	}
	scheduler.Start()

	app := routes.NewApp(routes.Handlers{
		Consultations: handlers.NewConsultationHandler(consultations),
		Reviews:       handlers.NewReviewHandler(reviews),
		Payments:      handlers.NewPaymentHandler(paymentSvc),
		Internal:      handlers.NewInternalHandler(consultations),
		PaymentSocket: handlers.NewPaymentSocketHandler(hub, cfg.JWTSecret, log),
	}, routes.Config{
		JWTSecret:      cfg.JWTSecret,
		InternalAPIKey: cfg.InternalAPIKey,
		AccessLog:      true,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		<-scheduler.Stop().Done()
		if err := background.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("background tasks: %w", err))
		}
		if err := broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event broker: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
