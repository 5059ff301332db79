package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"efuelpos/backend/internal/cache"
	"efuelpos/backend/internal/config"
	"efuelpos/backend/internal/facade"
	"efuelpos/backend/internal/httpapi"
	"efuelpos/backend/internal/service"
	"efuelpos/backend/internal/store"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/store/memory"
	pgstore "efuelpos/backend/internal/store/postgres"
	"efuelpos/backend/internal/syncq"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	localStore, err := local.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("local store unavailable at %s: %v", cfg.LocalDBPath, err)
	}
	closers = append(closers, localStore.Close)
	log.Printf("local store: %s", cfg.LocalDBPath)

	var remote store.Remote
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start local-only", err)
		}
		remote = pg
		closers = append(closers, pg.Close)
		log.Println("remote backend: postgres")
	} else {
		remote = memory.NewSeeded()
		log.Println("remote backend: in-memory (dev)")
	}

	stockCache := cache.StockCache(cache.NoopStockCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisStockCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop stock cache", err)
		} else {
			stockCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("stock cache: redis")
		}
	} else {
		log.Println("stock cache: noop")
	}

	network := syncq.NewPinger(remote, 10*time.Second)
	queue := syncq.New(localStore, remote, network, cfg.SyncMaxRetries, time.Duration(cfg.SyncIntervalSeconds)*time.Second)
	storage := facade.New(remote, localStore, queue, stockCache)

	svc := service.New(storage)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, storage)
	api := httpapi.New(svc, storage, queue, auth, cfg.AllowedOrigin)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go network.Run(runCtx)
	go queue.Run(runCtx)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("fuel POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stopRun()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
