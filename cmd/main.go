package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/propsight/propsight-server/internal/api/http/router"
	httpServer "github.com/propsight/propsight-server/internal/api/http/server"
	"github.com/propsight/propsight-server/internal/config"
	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/model"
	"github.com/propsight/propsight-server/internal/password"
	"github.com/propsight/propsight-server/internal/repository/postgres"
	"github.com/propsight/propsight-server/internal/server"
	"github.com/propsight/propsight-server/internal/service"
	storage "github.com/propsight/propsight-server/internal/storage/minio"
	"github.com/propsight/propsight-server/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// tokenSweepInterval is how often expired refresh tokens are purged.
const tokenSweepInterval = time.Hour

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	// Optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	codec, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		logger.Fatal("failed to initialize token codec", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)

	sessionService := service.NewSession(
		userRepo,
		refreshTokenRepo,
		password.NewBcrypt(bcrypt.DefaultCost),
		token.NewOpaque(),
		codec,
		cfg.JWT.AccessTTL(),
		cfg.JWT.RefreshTTL(),
		logger,
	)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}
	documentService := service.NewDocument(documentRepo, storageClient, logger)

	r := router.New(
		sessionService,
		documentService,
		cfg.IsProduction(),
		int(cfg.JWT.RefreshTTL().Seconds()),
		logger,
	)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	go sessionService.RunGC(ctx, tokenSweepInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
