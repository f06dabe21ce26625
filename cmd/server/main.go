package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/beatstudio/internal/config"
	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/handler"
	"github.com/beatstudio/internal/logging"
	"github.com/beatstudio/internal/router"
	"github.com/beatstudio/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Logger()
	for _, warning := range cfg.Warnings {
		log.Warn().Msg("config: " + warning)
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure admin user")
	}

	pipeline := buildDraftPipeline(cfg)
	api := handler.NewAPI(db.DB, pipeline)

	// 设置并运行 Gin 服务器
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(cfg.SessionSecret, api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func buildDraftPipeline(cfg config.AppConfig) *service.DraftPipeline {
	settings := service.NewSystemSettingService(db.DB)
	categories := service.NewCategoryService(db.DB)
	media := service.NewMediaService(db.DB)

	sources := make([]service.FeedSource, 0, len(cfg.Feeds.Sources))
	for _, src := range cfg.Feeds.Sources {
		sources = append(sources, service.FeedSource{
			Community: strings.TrimSpace(src.Community),
			Limit:     src.Limit,
			Channel:   strings.TrimSpace(src.Channel),
		})
	}

	return service.NewDraftPipeline(service.DraftPipelineDeps{
		Collector: service.NewFeedCollector(cfg.Feeds.BaseURL, cfg.Feeds.Timeout),
		Generator: service.NewDraftGenerator(settings),
		Publisher: service.NewDraftPublisher(db.DB, categories, media, nil),
		Sources:   sources,
	})
}
