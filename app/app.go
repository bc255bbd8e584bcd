package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"lockerbox/db"

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
	Config Config
}

// Config 从环境变量读取
type Config struct {
	RedisAddr           string
	RedisPwd            string
	WebOrigin           string
	StripeAPIKey        string
	StripeWebhookSecret string
	AdminToken          string
	AdminSessionTTL     time.Duration
	RentalWindow        time.Duration
	SweepInterval       time.Duration
}

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()
	if err := db.SeedLockers(dbConn); err != nil {
		log.Fatalf("seed lockers: %v", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{Router: r, DB: dbConn, RDB: rdb, Config: cfg}
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	getInt := func(k string, def int) int {
		if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
			return n
		}
		return def
	}

	windowHours := getInt("RENTAL_WINDOW_HOURS", 24)
	sweepSec := getInt("SWEEP_INTERVAL_SECONDS", 60)
	adminTTLMin := getInt("ADMIN_SESSION_TTL_MINUTES", 8*60)

	return Config{
		RedisAddr:           get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:            os.Getenv("REDIS_PASSWORD"),
		WebOrigin:           get("WEB_ORIGIN", "http://localhost:3000"),
		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		AdminSessionTTL:     time.Duration(adminTTLMin) * time.Minute,
		RentalWindow:        time.Duration(windowHours) * time.Hour,
		SweepInterval:       time.Duration(sweepSec) * time.Second,
	}
}
