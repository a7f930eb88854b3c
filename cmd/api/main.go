package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/1cedrus/squid-chat/internal/app"
	"github.com/1cedrus/squid-chat/internal/config"
	"github.com/1cedrus/squid-chat/internal/directory"
	"github.com/1cedrus/squid-chat/internal/eventlog"
	"github.com/1cedrus/squid-chat/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var dataStore store.Store
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := store.ApplyMigrations(ctx, db); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		dataStore = store.NewPostgresStore(db)
		log.Printf("Using PostgreSQL storage")
	} else {
		dataStore = store.NewMemoryStore()
		log.Printf("DATABASE_URL not set, using in-memory storage")
	}
	defer dataStore.Close()

	hub := app.NewHub([]byte(cfg.JWTSecret))
	go hub.Run()

	sinks := eventlog.Multi{hub}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisSink, err := eventlog.NewRedisSink(cfg.RedisURL, cfg.EventStream)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
		log.Printf("Appending events to Redis stream %s", cfg.EventStream)
	}

	service := directory.New(dataStore, sinks, directory.SystemClock{})
	httpServer := app.NewHTTPServer(service, hub, cfg)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("squid-chat API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
