package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/npezzotti/go-housematch/internal/api"
	"github.com/npezzotti/go-housematch/internal/config"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/logging"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/npezzotti/go-housematch/internal/server"
	"github.com/npezzotti/go-housematch/internal/stats"
)

const statsName = "housematch-stats"

var configPath string

func main() {
	flag.StringVar(&configPath, "config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	// a missing .env is fine, the environment may already be populated
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalln("load .env:", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln("config:", err)
	}

	logger, logCloser := logging.New(cfg.Log)
	defer logCloser.Close()

	dbConn, err := database.NewPgHouseMatchRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalln("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if cfg.AutoMigrate {
		if err := dbConn.Migrate(); err != nil {
			logger.Fatalln("db migrate:", err)
		}
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Publish(statsName)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	matches := match.NewService(logger, dbConn, statsUpdater, cfg.RequestTimeout)
	swipeServer := server.NewSwipeServer(logger, matches, statsUpdater, cfg.Swipe)
	matches.SetNotifier(swipeServer)

	srv := api.NewHouseMatchApp(mux, logger, swipeServer, dbConn, matches, cfg)

	go swipeServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	logger.Println("closing decks...")
	if err := swipeServer.Shutdown(shutDownCtx); err != nil {
		logger.Println("swipe server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
