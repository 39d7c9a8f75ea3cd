package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/cache"
	"social-reward-engine/infrastructure/clients/llm"
	"social-reward-engine/infrastructure/clients/settlement"
	"social-reward-engine/infrastructure/clients/xapi"
	"social-reward-engine/infrastructure/configuration"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/infrastructure/payment"
	"social-reward-engine/infrastructure/persistence"
	"social-reward-engine/infrastructure/pubsub"
	"social-reward-engine/infrastructure/realtime"
	"social-reward-engine/infrastructure/scheduler"
	"social-reward-engine/infrastructure/servicebus"
	"social-reward-engine/infrastructure/utils"
	httpHandler "social-reward-engine/interfaces/http"
	"social-reward-engine/server"
	"social-reward-engine/usecase"

	"golang.org/x/sync/errgroup"
)

const (
	policyLocalTTL  = 30 * time.Second
	policySharedTTL = 5 * time.Minute
	ingestMaxPages  = 50
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	configuration.Reload()

	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(os.Args[2:]))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App
	jobs := configuration.C.Jobs
	passTimeout := time.Duration(jobs.PassTimeoutSec) * time.Second

	mongoCfg := configuration.C.Database.Mongo
	mongoClient, err := persistence.NewMongoDb(mongoCfg.URI, mongoCfg.Host, mongoCfg.Port, mongoCfg.User, mongoCfg.Password)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("MongoDB initialization failed")
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Fatal("MongoDB ping failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	mongoDb := mongoClient.Database(mongoCfg.Name)
	if err := persistence.EnsureIndexes(ctx, mongoDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring mongo indexes")
	}
	logger.GetLogger().WithField("database", mongoCfg.Name).Info("MongoDB connected successfully")

	postRepository := persistence.NewPostRepository(mongoDb)
	payoutRepository := persistence.NewPayoutRepository(mongoDb)
	walletRepository := persistence.NewUserWalletRepository(mongoDb)
	// A lease is stale only after the longest a live pass can hold it: the
	// pass deadline plus one settlement started just before it.
	jobStateRepository := persistence.NewJobStateRepository(mongoDb, 2*passTimeout+usecase.DefaultSettleTimeout)
	policyRepository := persistence.NewRewardPolicyRepository(mongoDb)

	var paymentLogUsecase usecase.IPaymentLogUsecase
	if paymentLogRepository := initiatePaymentLogRepository(); paymentLogRepository != nil {
		paymentLogUsecase = usecase.NewPaymentLogUsecase(paymentLogRepository)
	} else {
		logger.GetLogger().Info("No SQL database available; payment log endpoint disabled")
	}

	var policyCache repository.IRewardPolicyCache
	redisCfg := configuration.C.RedisClient
	if redisCfg.Host != "" {
		redisClient, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port), redisCfg.Username, redisCfg.Password)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available - reward policy cached per process only")
		} else {
			defer redisClient.Close()
			policyCache = cache.NewPolicyCache(redisClient, policySharedTTL)
		}
	}

	publisher, closePublisher := initiatePublisher(ctx)
	defer closePublisher()

	xapiCfg := configuration.C.XAPI
	mentionsClient := xapi.NewClient(xapi.Config{
		BaseURL:           xapiCfg.BaseURL,
		BearerToken:       xapiCfg.BearerToken,
		UserID:            xapiCfg.UserID,
		RequestsPerMinute: xapiCfg.RequestsPerMinute,
		Timeout:           30 * time.Second,
	})
	llmCfg := configuration.C.LLM
	scoringClient := llm.NewClient(llm.Config{
		BaseURL:      llmCfg.BaseURL,
		APIKey:       llmCfg.APIKey,
		Provider:     llmCfg.Provider,
		TemplateName: llmCfg.TemplateName,
		Timeout:      time.Duration(llmCfg.TimeoutSeconds) * time.Second,
	})

	payCfg := configuration.C.Payment
	// builder and settler stay untyped nil when unconfigured so the payout
	// use case reports itself as not configured.
	var builder repository.IAuthorizationBuilder
	if payCfg.PayerPrivateKey != "" {
		b, err := payment.NewAuthorizationBuilder(payment.Config{
			Network:            payCfg.Network,
			ChainID:            payCfg.ChainID,
			TokenAddress:       payCfg.TokenAddress,
			TokenDecimals:      payCfg.TokenDecimals,
			PayerPrivateKey:    payCfg.PayerPrivateKey,
			FacilitatorAddress: payCfg.FacilitatorAddress,
			DomainName:         payCfg.DomainName,
			DomainVersion:      payCfg.DomainVersion,
		})
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Payment authorization builder disabled")
		} else {
			builder = b
			logger.GetLogger().WithField("payer", b.PayerAddress()).Info("Payment authorization builder ready")
		}
	}
	var settler repository.ISettlement
	if payCfg.WorkerURL != "" {
		settler = settlement.NewClient(payCfg.WorkerURL, payCfg.WorkerAPIKey, time.Duration(payCfg.TimeoutSeconds)*time.Second)
	}

	hub := realtime.NewPayoutHub()

	policyUsecase := usecase.NewRewardPolicyUsecase(policyRepository, policyCache, policyLocalTTL)
	postUsecase := usecase.NewPostUsecase(postRepository)
	walletUsecase := usecase.NewWalletUsecase(walletRepository, postRepository, payCfg.Network)
	ingestUsecase := usecase.NewIngestUsecase(mentionsClient, postRepository, jobStateRepository, usecase.IngestConfig{
		PageSize:         xapiCfg.PageSize,
		MaxPages:         ingestMaxPages,
		Retention:        time.Duration(jobs.RetentionDays) * 24 * time.Hour,
		RateLimitBackoff: time.Duration(jobs.RateLimitBackoffMin) * time.Minute,
	})
	scoringUsecase := usecase.NewScoringUsecase(scoringClient, postRepository, jobStateRepository, jobs.ScorerBatchSize)
	payoutUsecase := usecase.NewPayoutUsecase(
		postRepository,
		payoutRepository,
		walletRepository,
		jobStateRepository,
		policyUsecase,
		builder,
		settler,
		publisher,
		usecase.PayoutConfig{BatchSize: jobs.PayoutBatchSize, Network: payCfg.Network},
	).WithBroadcaster(func(rec *model.PayoutRecord) { hub.BroadcastPayoutStatus(rec) })
	claimUsecase := usecase.NewClaimUsecase(postRepository, payoutRepository, walletRepository, policyUsecase, payoutUsecase)

	logger.GetLogger().WithFields(map[string]interface{}{
		"ingest":  ingestUsecase.Configured(),
		"scoring": scoringUsecase.Configured(),
		"payout":  payoutUsecase.Configured(),
		"network": payCfg.Network,
	}).Info("Job configuration summary")

	router := server.InitiateRouter(
		server.RouterConfig{AllowOrigins: app.AllowOrigins, SecretKey: app.SecretKey, ServiceAPIKey: app.ServiceAPIKey},
		httpHandler.NewHealthHandler("social-reward-engine"),
		httpHandler.NewFetcherHandler(ingestUsecase, postUsecase, passTimeout),
		httpHandler.NewScorerHandler(scoringUsecase, passTimeout),
		httpHandler.NewPayoutHandler(payoutUsecase, passTimeout),
		httpHandler.NewConfigHandler(policyUsecase),
		httpHandler.NewPostHandler(postUsecase),
		httpHandler.NewClaimHandler(claimUsecase),
		httpHandler.NewX402Handler(walletUsecase, paymentLogUsecase),
		hub.Serve,
	)

	if jobs.Enabled {
		scheduler.Start(ctx, g,
			scheduler.Entry{Job: ingestUsecase, Interval: time.Duration(jobs.IngestIntervalSec) * time.Second, PassTimeout: passTimeout},
			scheduler.Entry{Job: scoringUsecase, Interval: time.Duration(jobs.ScoringIntervalSec) * time.Second, PassTimeout: passTimeout},
			scheduler.Entry{Job: payoutUsecase, Interval: time.Duration(jobs.PayoutIntervalSec) * time.Second, PassTimeout: passTimeout},
		)
	} else {
		logger.GetLogger().Info("Background jobs disabled; use the trigger endpoints")
	}

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
			if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if app.TLSEnabled {
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
	logger.GetLogger().Info("Application stopped")
}

// InitiateDatabase opens the SQL store for payment logs: MSSQL in
// production or when DB_VENDOR=mssql, PostgreSQL otherwise.
func InitiateDatabase() (mssqlDb *sql.DB, psqlDb *sql.DB, err error) {
	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod" {
		mssqlDb, err = persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, nil, err
		}
		return mssqlDb, nil, nil
	}

	psqlDb, err = persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	return nil, psqlDb, nil
}

func initiatePaymentLogRepository() repository.IPaymentLog {
	mssqlDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		return nil
	}
	if mssqlDb != nil {
		if err := persistence.EnsurePaymentLogSchemaMSSQL(mssqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring payment log schema (mssql)")
		}
		return persistence.NewPaymentLogRepositoryMSSQL(mssqlDb)
	}
	if err := persistence.EnsurePaymentLogSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring payment log schema")
	}
	return persistence.NewPaymentLogRepository(psqlDb)
}

// initiatePublisher picks the payout event sink. The returned close func is
// always safe to call.
func initiatePublisher(ctx context.Context) (repository.IPayoutEventPublisher, func()) {
	switch configuration.C.Events.Sink {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			return nil, func() {}
		}
		p := pubsub.NewPayoutPublisher(client, configuration.C.Pubsub.Topic)
		return p, func() {
			p.Stop()
			_ = client.Close()
		}
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - payout events disabled")
			return nil, func() {}
		}
		p := servicebus.NewPayoutPublisher(client, configuration.C.ServiceBus.Queue)
		return p, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			p.Close(closeCtx)
			_ = client.Close(closeCtx)
		}
	case "":
		return nil, func() {}
	default:
		logger.GetLogger().WithField("sink", configuration.C.Events.Sink).Warn("Unknown events sink - payout events disabled")
		return nil, func() {}
	}
}

// issueToken prints an admin token: token [subject] [ttl].
func issueToken(args []string) int {
	subject := "admin"
	ttl := 24 * time.Hour
	if len(args) > 0 {
		subject = args[0]
	}
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid ttl %q: %v\n", args[1], err)
			return 1
		}
		ttl = d
	}
	if configuration.C.App.SecretKey == "" {
		fmt.Fprintln(os.Stderr, "SECRET_KEY is not set")
		return 1
	}
	token, err := utils.GenerateToken(map[string]interface{}{"sub": subject}, configuration.C.App.SecretKey, ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(token)
	return 0
}
