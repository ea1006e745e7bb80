// Package main boots DatServe: configuration, logging, the live database
// pool manager, optional object storage, and the HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/DatServe/internal/config"
	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/database/drivers"
	"github.com/koustreak/DatServe/internal/filestore"
	"github.com/koustreak/DatServe/internal/filestore/minio"
	"github.com/koustreak/DatServe/internal/logger"
	"github.com/koustreak/DatServe/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Global().Fatalf("load config: %v", err)
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	logger.SetGlobal(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poolCfg := cfg.Database.PoolConfig()
	manager := database.NewManager(drivers.Open, database.ManagerOptions{Logger: log})
	if err := manager.Init(ctx, poolCfg); err != nil {
		log.Fatalf("database initialization failed: %v", err)
	}
	if cfg.Database.ProbeInterval > 0 {
		go manager.Watch(ctx, cfg.Database.ProbeInterval)
	}

	var store filestore.Store
	if cfg.Storage.Enabled {
		st, err := minio.New(ctx, cfg.Storage.StoreConfig())
		if err != nil {
			log.Fatalf("object storage initialization failed: %v", err)
		}
		store = st
	}

	srv := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		QueryTimeout: poolCfg.QueryTimeout,
		Manager:      manager,
		Store:        store,
		Logger:       log,
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}

	// Stop the background prober before retiring the pool.
	cancel()

	if err := manager.Close(shutdownCtx); err != nil {
		log.Errorf("pool close: %v", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			log.Errorf("storage close: %v", err)
		}
	}
	log.Info("shutdown complete")
}
