// Command mgmtsim serves a simulated edge runtime management API backed by SQLite.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/seantiz/edgemgmt/internal/api"
	"github.com/seantiz/edgemgmt/internal/config"
	"github.com/seantiz/edgemgmt/internal/engine"
	"github.com/seantiz/edgemgmt/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg := config.LoadSim()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	logger.Info("mgmtsim: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"faults", cfg.Faults,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	eng := engine.NewEngine(db, logger)
	srv := api.NewServer(cfg.ListenAddr, eng, logger, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		Faults:      cfg.Faults,
	})

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
