package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/config"
	"github.com/cayden6ix/certidoes-app-sub002/internal/database"
	httpapi "github.com/cayden6ix/certidoes-app-sub002/internal/http"
	"github.com/cayden6ix/certidoes-app-sub002/internal/logger"
	"github.com/cayden6ix/certidoes-app-sub002/internal/metrics"
	"github.com/cayden6ix/certidoes-app-sub002/internal/notify"
	"github.com/cayden6ix/certidoes-app-sub002/internal/repository"
	"github.com/cayden6ix/certidoes-app-sub002/internal/service"
	"github.com/cayden6ix/certidoes-app-sub002/internal/store"
)

const serviceName = "certidoes-api"

// opsSink 把仓储层运维事件同时送到webhook和Prometheus计数器
type opsSink struct {
	webhook *notify.WebhookNotifier
	metrics *metrics.Metrics
}

func (s *opsSink) Notify(ctx context.Context, event string, fields map[string]any) {
	if event == "status_filter_dropped" {
		s.metrics.IncrementStatusFilterDropped()
	}
	s.webhook.Notify(ctx, event, fields)
}

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	m := metrics.New()
	ops := &opsSink{
		webhook: notify.NewWebhookNotifier(cfg.Ops.WebhookURL, serviceName, log),
		metrics: m,
	}

	// cert_types 是历史遗留的类型表，部分库里存在，作为候选回退
	typeResolver := repository.NewTypeResolver(db, log, "certificate_types", "cert_types")
	statusResolver := repository.NewStatusResolver(db, log)
	certsRepo := repository.NewPostgresCertificatesRepository(db, log, typeResolver, statusResolver, ops)
	usersRepo := repository.NewPostgresUsersRepository(db)
	tagsRepo := repository.NewPostgresTagsRepository(db)
	paymentTypesRepo := repository.NewPostgresPaymentTypesRepository(db)

	tokens := service.NewTokenManager(cfg.Auth.JWTSecret, serviceName)
	authService := service.NewAuthService(usersRepo, tokens, kv, log, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	certService := service.NewCertificateService(certsRepo, m, log)
	lookupService := service.NewLookupService(typeResolver, statusResolver, paymentTypesRepo, tagsRepo, log)

	auth := httpapi.NewAuthMiddleware(tokens)
	router := httpapi.NewRouter(log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authService, log), auth)
	router.RegisterCertificateRoutes(httpapi.NewCertificatesHandler(certService, log), auth)
	router.RegisterLookupRoutes(httpapi.NewLookupHandler(lookupService, log), auth)
	router.RegisterOpsRoutes(metrics.Handler())

	handler := httpapi.RequestLogger(log, m, router)
	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	_ = db.Close()
}
