package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"itlend/db"
	"itlend/lending"
	"itlend/mail"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Repo   *db.Repo
	Config Config
	Log    *slog.Logger

	Bookings *lending.Service
	Registry *lending.Registry
	Mailer   *mail.Mailer
}

// Config 从环境变量读取
type Config struct {
	DatabaseURL        string
	RedisAddr          string
	RedisPwd           string
	WebOrigin          string
	Port               string
	LogLevel           slog.Level
	AutoCreateStudents bool
	ReminderSchedule   string
	SMTP               mail.Config
}

func New() (*App, error) {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	// --- DB: Postgres ---
	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	a := Build(cfg, dbConn, logger)
	a.RDB = rdb
	return a, nil
}

// Build wires services and the router around an opened database. Redis is
// optional here; tests build without it.
func Build(cfg Config, dbConn *gorm.DB, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	repo := db.NewRepo(dbConn)
	mailer := mail.New(cfg.SMTP, logger)
	bookings := lending.New(repo, lending.Options{
		AutoCreateStudents: cfg.AutoCreateStudents,
		Notifier:           mailer,
		Logger:             logger,
	})

	// --- Gin ---
	r := gin.Default()
	r.Use(RequestID(), RequestLogger(logger))
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:   r,
		DB:       dbConn,
		Repo:     repo,
		Config:   cfg,
		Log:      logger,
		Bookings: bookings,
		Registry: lending.NewRegistry(repo, bookings.Ledger()),
		Mailer:   mailer,
	}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		return v
	}
	dsn := get("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			get("DB_HOST", "127.0.0.1"),
			get("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			get("DB_NAME", "itlend"),
			get("DB_PORT", "5432"),
		)
	}
	autoCreate, _ := strconv.ParseBool(get("AUTO_CREATE_STUDENTS", "false"))
	return Config{
		DatabaseURL:        dsn,
		RedisAddr:          get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:           os.Getenv("REDIS_PASSWORD"),
		WebOrigin:          get("WEB_ORIGIN", "http://localhost:4200"),
		Port:               get("PORT", "3001"),
		LogLevel:           parseLevel(get("LOG_LEVEL", "info")),
		AutoCreateStudents: autoCreate,
		ReminderSchedule:   get("REMINDER_SCHEDULE", ""),
		SMTP: mail.Config{
			Host:     get("SMTP_HOST", ""),
			Port:     get("SMTP_PORT", "587"),
			Username: get("SMTP_USERNAME", ""),
			Password: get("SMTP_PASSWORD", ""),
			From:     get("SMTP_FROM", ""),
			AppName:  get("APP_NAME", "IT Lend"),
		},
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
