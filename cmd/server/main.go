package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pharmacare/backend/internal/cache"
	"pharmacare/backend/internal/config"
	"pharmacare/backend/internal/httpapi"
	"pharmacare/backend/internal/service"
	"pharmacare/backend/internal/snapshot"
	"pharmacare/backend/internal/store"
	"pharmacare/backend/internal/store/memory"
	pgstore "pharmacare/backend/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	totals := cache.TotalsCache(cache.NoopTotalsCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisTotalsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			totals = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	// Best-effort auto-load of the previous session. Failures only mean the
	// session starts from seed data.
	if snapshot.Exists(cfg.AutosavePath) {
		if snap, err := snapshot.Load(cfg.AutosavePath); err != nil {
			log.Printf("[autosave] previous session not restored: %v", err)
		} else if err := repo.Restore(ctx, snap); err != nil {
			log.Printf("[autosave] previous session not restored: %v", err)
		} else {
			log.Printf("[autosave] restored previous session from %s", cfg.AutosavePath)
		}
	}

	svc := service.New(repo, totals)
	api := httpapi.New(svc, cfg.AllowedOrigin)

	autosaver := snapshot.NewAutosaver(repo, cfg.AutosavePath, cfg.AutosaveInterval)
	autosaveCtx, stopAutosave := context.WithCancel(context.Background())
	var autosaveDone sync.WaitGroup
	autosaveDone.Add(1)
	go func() {
		defer autosaveDone.Done()
		autosaver.Run(autosaveCtx)
	}()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("pharmacare backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// Stopping the autosaver triggers its final save.
	stopAutosave()
	autosaveDone.Wait()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
