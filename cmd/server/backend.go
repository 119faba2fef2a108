package main

import (
	"context"
	"fmt"
	"log"

	"fundapp/internal/config"
	"fundapp/internal/handlers"
	"fundapp/internal/models"
	"fundapp/internal/repositories"
	"fundapp/internal/repositories/cache"
	"fundapp/internal/repositories/memory"
)

// backend is the storage layer the services run on.
type backend struct {
	store    repositories.Store
	accounts cache.EntityCache[models.Account]
	owners   cache.EntityCache[models.Owner]
	rates    cache.EntityCache[models.ExchangeRate]
	health   map[string]handlers.HealthCheck
	close    func()
}

func openBackend(cfg config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Println("⚠️ Using in-memory store, data is lost on restart")
		return &backend{
			store:    memory.NewStore(),
			accounts: cache.NewLocalCache[models.Account](cfg.Redis.TTL),
			owners:   cache.NewLocalCache[models.Owner](cfg.Redis.TTL),
			rates:    cache.NewLocalCache[models.ExchangeRate](cfg.Redis.TTL),
			health:   map[string]handlers.HealthCheck{},
			close:    func() {},
		}, nil
	case "postgres":
		return openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openPostgres(cfg config.Config) (*backend, error) {
	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := repositories.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			repositories.CloseDB(db)
			return nil, err
		}
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewCacheService(redisClient, "fundapp", cfg.Redis.TTL)
	if err := cacheService.HealthCheck(context.Background()); err != nil {
		log.Printf("⚠️ Redis unavailable, cache reads will miss: %v", err)
	} else if removed, err := cacheService.Clear(context.Background()); err != nil {
		log.Printf("⚠️ Failed to clear Redis cache: %v", err)
	} else {
		log.Printf("✅ Redis connected, %d cached entries cleared", removed)
	}

	sqlDB, err := db.DB()
	if err != nil {
		repositories.CloseDB(db)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	return &backend{
		store:    repositories.NewStore(db),
		accounts: cache.NewRedisEntityCache[models.Account](cacheService, cache.EntityAccount),
		owners:   cache.NewRedisEntityCache[models.Owner](cacheService, cache.EntityOwner),
		rates:    cache.NewRedisEntityCache[models.ExchangeRate](cacheService, cache.EntityExchangeRate),
		health: map[string]handlers.HealthCheck{
			"database": sqlDB.PingContext,
			"redis":    cacheService.HealthCheck,
		},
		close: func() {
			repositories.CloseDB(db)
			if err := cacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		},
	}, nil
}
