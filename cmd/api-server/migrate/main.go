package main

import (
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/scrtlabs/trading-middleware/pkg/config"
	"github.com/scrtlabs/trading-middleware/pkg/dbutil"
	mghelper "github.com/scrtlabs/trading-middleware/pkg/dbutil/migrations"
	"github.com/scrtlabs/trading-middleware/pkg/migrations/agentdb"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := dbutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for trading agent database (%s)...\n", cfg.Database.Driver)

	migrator := migrate.NewMigrator(db, agentdb.Migrations)

	err = mghelper.RunMigrations(migrator, flag.Args()...)
	if err != nil {
		mghelper.Exitf(err.Error())
	}
}
