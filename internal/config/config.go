package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultCategories 是未配置 DISCUSSION_CATEGORIES 时允许的讨论分类。
var DefaultCategories = []string{"general", "announcements", "help", "showcase"}

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabaseDriver     string
	DatabaseDSN        string
	SessionSecret      string
	GinMode            string
	TemplateGlob       string
	StaticDir          string
	LogLevel           string
	LogPath            string
	LogMaxSizeMB       int
	LogMaxBackups      int
	LogMaxAgeDays      int
	LogCompress        bool
	RateLimitPerMinute int
	Categories         []string
	SeedUserName       string
	SeedUserPassword   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envString("PORT", "8080")

	listenAddr := envString("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		DatabaseDriver:     strings.ToLower(envString("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:        envString("DATABASE_DSN", "discussions.db"),
		SessionSecret:      envString("SESSION_SECRET", "discussboard-dev-secret"),
		GinMode:            envString("GIN_MODE", "release"),
		TemplateGlob:       envString("TEMPLATE_GLOB", "web/template/*/*.html"),
		StaticDir:          envString("STATIC_DIR", "web/static"),
		LogLevel:           strings.ToLower(envString("LOG_LEVEL", "info")),
		LogPath:            envString("LOG_PATH", ""),
		LogMaxSizeMB:       envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:      envInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:      envInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:        envBool("LOG_COMPRESS", false),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),
		Categories:         envList("DISCUSSION_CATEGORIES", DefaultCategories),
		SeedUserName:       envString("SEED_USER_NAME", ""),
		SeedUserPassword:   envString("SEED_USER_PASSWORD", ""),
	}
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	raw := envString(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

// envList 解析逗号分隔的列表，去除空白、统一小写并去重。
func envList(key string, fallback []string) []string {
	raw := envString(key, "")
	if raw == "" {
		return append([]string(nil), fallback...)
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		item := strings.ToLower(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		values = append(values, item)
	}
	if len(values) == 0 {
		return append([]string(nil), fallback...)
	}
	return values
}
