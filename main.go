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

	"civicsync-web/browsers"
	"civicsync-web/chat"
	"civicsync-web/config"
	"civicsync-web/controllers"
	"civicsync-web/i18n"
	"civicsync-web/middlewares"
	"civicsync-web/reports"
	"civicsync-web/routes"
	"civicsync-web/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.InitLogger(cfg.LogLevel, cfg.GoEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		redisClient, err = config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info().Msg("Redis connection established successfully!")
	}

	backend, err := newBackend(ctx, cfg, redisClient)
	if err != nil {
		return err
	}

	var source i18n.Source = i18n.EmbeddedSource()
	if cfg.LocalesBaseURL != "" {
		source = i18n.NewHTTPSource(cfg.LocalesBaseURL, 10*time.Second)
	}
	catalog := i18n.NewCatalog(source)
	if err := catalog.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("English translations unavailable, keys will be shown")
	}

	deps, err := newReportDeps(ctx, cfg, redisClient)
	if err != nil {
		return err
	}

	var mayor chat.Opener
	if cfg.APIKey != "" {
		if mayor, err = chat.NewMayor(ctx, cfg.APIKey, cfg.ChatModel); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("API_KEY not set, chat messages will get no reply")
	}

	registry := browsers.NewRegistry(browsers.Options{
		Backend:   backend,
		Catalog:   catalog,
		AuthDelay: cfg.AuthDelay,
		Reports:   deps,
		Mayor:     mayor,
	})
	go registry.Run(ctx, time.Minute, cfg.BrowserIdleTTL)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, registry, redisClient),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		return err
	}
}

func newBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case "redis":
		return storage.NewRedisBackend(redisClient, "civicsync:kv"), nil
	case "mongo":
		db, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("MongoDB connection established successfully!")
		return storage.NewMongoBackend(db, "kv")
	}
	return storage.NewMemoryBackend(), nil
}

func newReportDeps(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (reports.Deps, error) {
	maxVideo := time.Duration(cfg.MaxVideoSeconds * float64(time.Second))
	deps := reports.Deps{
		Acceptor: reports.NewAcceptor(reports.DefaultProbers(), maxVideo, cfg.MaxUploadBytes),
		Media:    reports.DataURLStore{},
	}

	if cfg.APIKey != "" {
		annotator, err := reports.NewGenAIAnnotator(ctx, cfg.APIKey, cfg.ImageModel)
		if err != nil {
			return reports.Deps{}, err
		}
		deps.Annotator = annotator
	} else {
		log.Warn().Msg("API_KEY not set, image annotation will fail")
		deps.Annotator = reports.UnconfiguredAnnotator{}
	}

	if cfg.MediaStore == "minio" {
		store, err := reports.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL, cfg.MediaURLTTL)
		if err != nil {
			return reports.Deps{}, err
		}
		deps.Media = store
	}

	if cfg.StatusDriver == "redis" {
		feed := reports.NewRedisFeed(redisClient, cfg.StatusChannel)
		go func() {
			if err := feed.Run(ctx); err != nil {
				log.Error().Err(err).Msg("report status feed stopped")
			}
		}()
		deps.Driver = feed
	} else {
		deps.Driver = reports.NewTimerDriver(cfg.StatusReviewAfter, cfg.StatusActionAfter)
	}
	return deps, nil
}

func newRouter(cfg *config.Config, registry *browsers.Registry, redisClient *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(gin.Recovery(), middlewares.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Accept-Language")
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return !cfg.IsProduction() }
	}
	r.Use(cors.New(corsConfig))

	var limiter gin.HandlerFunc
	if redisClient != nil {
		limiter = middlewares.ReportRateLimiter(redisClient, cfg.ReportLimitKey, cfg.ReportLimit)
	}

	identity := middlewares.BrowserMiddleware(middlewares.CookieOptions{
		Secret:     cfg.JWTSecret,
		Domain:     cfg.Domain,
		Production: cfg.IsProduction(),
	}, registry)

	routes.Register(r, controllers.New(cfg.MaxUploadBytes), identity, limiter)
	return r
}
