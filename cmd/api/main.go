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

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/activity"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/clinicapi"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
	httpapi "github.com/WailSalutem-Health-Care/clinic-gateway/internal/http"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/logging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/submitlock"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	logger, err := logging.New(logging.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("clinic-gateway stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telCfg := telemetry.LoadConfig()
	provider, err := telemetry.InitProvider(ctx, telCfg, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		provider.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	authCfg := auth.LoadConfig()
	verifier, err := auth.NewVerifier(authCfg)
	if err != nil {
		return fmt.Errorf("session verifier: %w", err)
	}
	perms, err := auth.LoadPermissions(authCfg.PermissionsFile)
	if err != nil {
		return fmt.Errorf("load permissions from %s: %w", authCfg.PermissionsFile, err)
	}

	api, err := clinicapi.New(clinicapi.LoadConfig(), logger)
	if err != nil {
		return fmt.Errorf("clinic api client: %w", err)
	}

	var publisher messaging.PublisherInterface = messaging.NopPublisher{}
	if mqCfg := messaging.LoadConfig(); mqCfg.URL != "" {
		p, err := messaging.NewPublisher(mqCfg, logger)
		if err != nil {
			logger.Warn("continuing without event publishing", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	var locker *submitlock.Locker
	if lockCfg := submitlock.LoadConfig(); lockCfg.RedisURL != "" {
		client, err := submitlock.Connect(ctx, lockCfg)
		if err != nil {
			logger.Warn("continuing without submission lock", zap.Error(err))
		} else {
			defer client.Close()
			locker = submitlock.New(client, lockCfg.TTL, logger)
		}
	}

	consultations := consultation.NewService(api, publisher, logger).WithMetrics(metrics)
	router := httpapi.SetupRouter(httpapi.Dependencies{
		ServiceName:  telCfg.ServiceName,
		Verifier:     verifier,
		Permissions:  perms,
		Locker:       locker,
		Metrics:      metrics,
		Logger:       logger,
		Auth:         auth.NewHandler(api, verifier, logger),
		Appointments: appointment.NewHandler(appointment.NewService(api, api, publisher, logger)),
		Consultation: consultation.NewHandler(consultations, logger),
		Patients:     patient.NewHandler(patient.NewService(api, logger)),
		Activity:     activity.NewHandler(activity.NewService(api, logger)),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.CORSMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("clinic-gateway listening", zap.String("addr", srv.Addr))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
