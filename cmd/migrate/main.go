package main

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/trustfreeze/backend/internal/config"
	"github.com/trustfreeze/backend/internal/database"
)

const usage = "Usage: %s <up|down|version|force N>"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to load .env: %v", err)
	}
	if len(os.Args) < 2 {
		log.Fatalf(usage, os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if cfg.Database.Driver != database.DriverPostgres {
		if os.Args[1] != "up" {
			log.Fatalf("%s only supports up; its schema follows the models", cfg.Database.Driver)
		}
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Printf("schema up to date")
		return
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		log.Fatalf("init migrator: %v", err)
	}

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(os.Args) != 3 {
			log.Fatalf(usage, os.Args[0])
		}
		v, perr := strconv.Atoi(os.Args[2])
		if perr != nil {
			log.Fatalf("parse version: %v", perr)
		}
		err = m.Force(v)
	case "version":
	default:
		log.Fatalf(usage, os.Args[0])
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("%s: %v", os.Args[1], err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("read version: %v", err)
	}
	log.Printf("schema version %d (dirty=%t)", v, dirty)
}
