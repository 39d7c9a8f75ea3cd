// Command worker runs the settlement executor. It binds payment
// authorizations from the backend to registered recipients and settles them
// through the facilitator.
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

	"social-reward-engine/infrastructure/clients/facilitator"
	"social-reward-engine/infrastructure/clients/registry"
	"social-reward-engine/infrastructure/configuration"
	"social-reward-engine/infrastructure/logger"
	httpHandler "social-reward-engine/interfaces/http"
	"social-reward-engine/server"
	"social-reward-engine/usecase"

	"golang.org/x/sync/errgroup"
)

const walletLookupTimeout = 10 * time.Second

func main() {
	configuration.LoadEnvFromFile("config.env", ".env")
	configuration.Reload()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	cfg := configuration.C.Worker
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	facilitatorClient, err := facilitator.NewClient(facilitator.Config{
		SettleURL: cfg.FacilitatorURL,
		KeyID:     cfg.CDPKeyID,
		KeySecret: cfg.CDPKeySecret,
		Timeout:   timeout,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Facilitator client initialization failed")
	}
	registryClient := registry.NewClient(cfg.BackendURL, cfg.BackendAPIKey, walletLookupTimeout)

	executor := usecase.NewSettlementExecutor(registryClient, facilitatorClient, registryClient, usecase.SettlementConfig{
		Network:    configuration.C.Payment.Network,
		Asset:      configuration.C.Payment.TokenAddress,
		LogTimeout: walletLookupTimeout,
	})

	router := server.InitiateWorkerRouter(cfg.APIKey, httpHandler.NewHealthHandler("x402-worker"), httpHandler.NewRewardHandler(executor))
	if cfg.APIKey == "" {
		logger.GetLogger().Warn("API_KEY not set; reward endpoint accepts unauthenticated requests")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"backend": cfg.BackendURL,
		"network": configuration.C.Payment.Network,
	}).Info("Starting settlement worker")
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Worker shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	executor.Wait()

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Worker returned an error")
		os.Exit(2)
	}
}
