package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	// DiscordToken authenticates the bot with the Discord gateway.
	DiscordToken string
	// DefaultPrefix is used for guilds without a stored prefix row.
	DefaultPrefix string
	// StdoutChannelID is an optional channel that receives the online embed.
	StdoutChannelID string

	// HTTPAddr serves the ops surface (/healthz, /metrics).
	HTTPAddr string

	USGSBaseURL string
	USGSTimeout time.Duration

	// ChartDir is the transient working directory chart PNGs are written to.
	// Relative paths are resolved against the process working directory.
	ChartDir string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	LogSQL                bool
}

func LoadFromEnv() (Config, error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	token := strings.TrimSpace(os.Getenv("DISCORD_TOKEN"))
	if token == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN is required")
	}

	prefix := strings.TrimSpace(os.Getenv("COMMAND_PREFIX"))
	if prefix == "" {
		prefix = "!"
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	usgsBaseURL := strings.TrimSpace(os.Getenv("USGS_BASE_URL"))

	usgsTimeoutStr := strings.TrimSpace(os.Getenv("USGS_TIMEOUT"))
	if usgsTimeoutStr == "" {
		usgsTimeoutStr = "30s"
	}
	usgsTimeout, err := time.ParseDuration(usgsTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid USGS_TIMEOUT %q: %w", usgsTimeoutStr, err)
	}

	chartDir := strings.TrimSpace(os.Getenv("CHART_DIR"))
	if chartDir == "" {
		chartDir = "temp"
	}
	chartDir, err = filepath.Abs(chartDir)
	if err != nil {
		return Config{}, fmt.Errorf("CHART_DIR %q: %w", chartDir, err)
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/discord-cfs.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL := strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_SQL")), "true")

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		DiscordToken:          token,
		DefaultPrefix:         prefix,
		StdoutChannelID:       strings.TrimSpace(os.Getenv("STDOUT_CHANNEL_ID")),
		HTTPAddr:              httpAddr,
		USGSBaseURL:           usgsBaseURL,
		USGSTimeout:           usgsTimeout,
		ChartDir:              chartDir,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		LogSQL:                logSQL,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
