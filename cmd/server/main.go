package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"identity-service/internal/auth"
	"identity-service/internal/config"
	apphttp "identity-service/internal/http"
	"identity-service/internal/registry"
	"identity-service/internal/repository/sqlite"
	"identity-service/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if cfg.Auth.Secret == config.DefaultSecret {
		logger.Warn("auth secret is the insecure default; set IDENTITY_AUTH_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	identityRepo := sqlite.NewIdentityRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := identityRepo.Init(ctx); err != nil {
		logger.Fatalf("init identity repository: %v", err)
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.Secret)

	publisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup registry publisher: %v", err)
	}

	registryTo := registry.PublishOptions{
		Bucket:    cfg.Registry.Bucket,
		KeyPrefix: cfg.Registry.KeyPrefix,
	}
	identities := service.NewIdentityService(
		userRepo,
		identityRepo,
		hasher,
		tokens,
		publisher,
		registryTo,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(identities, tokens, publisher, registryTo)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildPublisher returns nil when no registry bucket is configured; DID
// document publication is optional.
func buildPublisher(ctx context.Context, cfg config.Config, logger *logrus.Logger) (registry.Publisher, error) {
	if cfg.Registry.Bucket == "" {
		logger.Info("did document registry disabled (no bucket configured)")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Registry.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Registry.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Registry.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("publishing did documents to s3 bucket %s (region %s)", cfg.Registry.Bucket, cfg.Registry.Region)
	return registry.NewS3Publisher(client), nil
}
