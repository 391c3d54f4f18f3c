package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/discussboard/internal/config"
	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/logging"
	"github.com/discussboard/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN, logging.GormLogger(logger, cfg.LogLevel)); err != nil {
		logger.Fatal("failed to initialize database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}

	created, err := db.EnsureUser(db.DB, cfg.SeedUserName, cfg.SeedUserPassword)
	if err != nil {
		logger.Fatal("failed to ensure seed user", zap.Error(err))
	}
	if created {
		logger.Info("seed user created", zap.String("username", cfg.SeedUserName))
	}

	// 设置 Gin 路由
	r := router.SetupRouter(db.DB, logger, router.Options{
		SessionSecret:      cfg.SessionSecret,
		TemplateGlob:       cfg.TemplateGlob,
		StaticDir:          cfg.StaticDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Categories:         cfg.Categories,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.MethodOverride(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("driver", cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
