package app

import (
	"context"
	"log/slog"
	"makerhub/audit"
	"makerhub/catalog"
	"makerhub/db"
	"makerhub/ledger"
	"makerhub/memstore"
	"makerhub/reservation"
	"makerhub/rotation"
	"makerhub/session"
	"makerhub/store"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB      // memory 模式下为 nil
	RDB    *redis.Client // memory 模式下为 nil
	Store  store.Store
	Config Config

	Engine    *reservation.Engine
	Catalog   *catalog.Service
	Scheduler *rotation.Scheduler

	sessions session.Resolver
}

// Config 从环境变量读取
type Config struct {
	StoreDriver string // postgres | memory
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	SessionTTL  time.Duration
	DevIdentity string
}

func (a *App) Sessions() session.Resolver { return a.sessions }

func MustNew() *App {
	cfg := loadConfig()

	var (
		st   store.Store
		gdb  *gorm.DB
		rdb  *redis.Client
		sink audit.Sink = audit.Nop{}
		sess session.Resolver
	)

	switch cfg.StoreDriver {
	case "memory":
		// 本地联调：全内存，不依赖 Postgres / Redis
		st = memstore.New()
		mem := session.NewMemory()
		sess = mem
		if cfg.DevIdentity != "" {
			token := uuid.NewString()
			mem.Put(token, cfg.DevIdentity, session.RoleStaff)
			slog.Info("调试身份已生成", "user", cfg.DevIdentity, "token", token)
		}
	default:
		// --- DB: Postgres ---
		gdb = db.ConnectDB()
		st = db.NewRepo(gdb)

		// --- Redis ---
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis 连接失败", "err", err)
			os.Exit(1)
		}
		sink = audit.NewRedisSink(rdb)

		appSess := session.NewAppSessionStore(rdb, cfg.SessionTTL)
		sess = appSess
		if cfg.DevIdentity != "" {
			token := uuid.NewString()
			if err := appSess.Create(context.Background(), token, cfg.DevIdentity, session.RoleStaff); err != nil {
				slog.Warn("调试身份生成失败", "err", err)
			} else {
				slog.Info("调试身份已生成", "user", cfg.DevIdentity, "token", token)
			}
		}
	}

	occ := ledger.NewOccupancy(st)
	qty := ledger.NewQuantity(st)

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:    r,
		DB:        gdb,
		RDB:       rdb,
		Store:     st,
		Config:    cfg,
		Engine:    reservation.NewEngine(st, occ, qty, sink),
		Catalog:   catalog.NewService(st, sink),
		Scheduler: rotation.NewScheduler(st, sink),
		sessions:  sess,
	}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	// 业务会话：1 天 TTL，可通过环境变量覆盖
	ttl := 24 * time.Hour
	if h, err := strconv.Atoi(get("SESSION_TTL_HOURS", "24")); err == nil && h > 0 {
		ttl = time.Duration(h) * time.Hour
	}
	return Config{
		StoreDriver: get("STORE_DRIVER", "postgres"),
		RedisAddr:   get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		WebOrigin:   get("WEB_ORIGIN", "http://localhost:5173"),
		SessionTTL:  ttl,
		DevIdentity: os.Getenv("DEV_IDENTITY"),
	}
}
