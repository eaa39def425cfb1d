package main

import (
	"Cookbook/internal/config"
	"Cookbook/internal/handlers"
	"Cookbook/internal/middleware"
	"Cookbook/internal/nutrition"
	"Cookbook/internal/repo"
	"Cookbook/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	draftRepo := repo.NewDraftRepository(gormDB)
	recipeRepo := repo.NewRecipeRepository(gormDB)
	blobRepo := repo.NewBlobRepository(gormDB)

	// кэш пищевой ценности необязателен: без redis каждый расчёт идёт во внешний API
	var cache nutrition.Cache
	if cfg.RedisURL != "" {
		rc, err := nutrition.NewRedisCache(ctx, cfg.RedisURL, cfg.NutritionCacheTTL)
		if err != nil {
			sugar.Warnw("redis unavailable, nutrition cache disabled", "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	provider := nutrition.NewEdamamClient(cfg.NutritionAPIURL, cfg.NutritionAppID, cfg.NutritionAppKey,
		cfg.NutritionTimeout, cfg.NutritionRPS)
	engine := nutrition.NewEngine(provider, cache, sugar)

	mediaService := service.NewMediaService(blobRepo, cfg.PublicURL, cfg.StorageTimeout, sugar)
	services := handlers.Services{
		Drafts:  service.NewDraftService(draftRepo, mediaService, sugar),
		Publish: service.NewPublishService(draftRepo, recipeRepo, engine, mediaService, sugar),
		Recipes: service.NewRecipeService(recipeRepo, engine, sugar),
		Media:   mediaService,
	}

	sweeper := service.NewSweeper(mediaService, draftRepo, cfg.TempMaxAge, cfg.SweepInterval, sugar)
	go sweeper.Run(ctx)

	h := handlers.NewHandler(services, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	sugar.Infow("Starting server",
		"addr", srv.Addr,
		"version", version,
		"build_date", buildDate,
	)
	sugar.Infow("Config",
		"PublicURL", cfg.PublicURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"NutritionAPI", cfg.NutritionAPIURL,
		"NutritionCache", cache != nil,
		"TempMaxAge", cfg.TempMaxAge,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	sugar.Infow("Server stopped")
}
