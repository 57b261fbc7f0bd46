package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FrankKleiton/vote-app/cache"
	"github.com/FrankKleiton/vote-app/config"
	"github.com/FrankKleiton/vote-app/database"
	"github.com/FrankKleiton/vote-app/graph"
	"github.com/FrankKleiton/vote-app/handlers"
	"github.com/FrankKleiton/vote-app/logging"
	"github.com/FrankKleiton/vote-app/repository"
	"github.com/FrankKleiton/vote-app/routes"
	"github.com/FrankKleiton/vote-app/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	// 初始化数据库
	db, err := database.Open(cfg.Database, log, cfg.IsProduction())
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	var (
		store       repository.Store = repository.NewGormStore(db)
		redisClient *redis.Client
		cachePinger handlers.Pinger
	)
	// 初始化Redis和分布式锁，不可用时退化为直接读库
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedisClient(context.Background(), cfg.Cache)
		if err != nil {
			log.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			locker := cache.NewLockService(redisClient)
			records := cache.NewRecordCache(redisClient, locker, cfg.Cache.TTL, log)
			store = repository.NewCachedStore(store, records)
			cachePinger = redisClient
			log.Info("read-through cache enabled", zap.String("addr", cfg.Cache.Addr), zap.Duration("ttl", cfg.Cache.TTL))
		}
	}

	schema, err := graph.NewSchema(graph.NewResolver(store, log), cfg.GraphQL.MaxParallelism)
	if err != nil {
		log.Fatal("schema init failed", zap.Error(err))
	}

	// 设置路由
	hub := websocket.NewHub(log)
	router := routes.SetupRouter(routes.Deps{
		Config:        cfg,
		GraphQL:       handlers.NewGraphQLHandler(schema, log),
		Health:        handlers.NewHealthHandler(db, cachePinger, hub),
		Subscriptions: websocket.NewHandler(schema, hub, log),
		Log:           log,
	})

	srv := routes.StartServer(router, cfg.Port, log)

	// 等待中断信号优雅关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := srv.Stop(); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	hub.CloseAll()

	if err := database.Close(db); err != nil {
		log.Warn("close database", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
	log.Info("server stopped")
}
