package main

import (
	"context"
	"log"

	"github.com/discussboard/internal/config"
	"github.com/discussboard/internal/db"
	"github.com/discussboard/internal/logging"
	"go.uber.org/zap"
)

// 测试数据生成器
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN, logging.GormLogger(logger, cfg.LogLevel)); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	report, err := seed(context.Background(), db.DB, cfg)
	if err != nil {
		logger.Fatal("failed to seed data", zap.Error(err))
	}

	logger.Info("seed finished",
		zap.Strings("users_created", report.Users),
		zap.Int("discussions_created", report.Discussions),
		zap.Int("comments_created", report.Comments),
	)
}
