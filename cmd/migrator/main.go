package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/config"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/databases/postgres"
)

// Applies the sync run ledger schema. The database comes from -storage-dsn,
// STORAGE_DSN or the postgres section of the config file.
func main() {
	var storageDSN, migrationsPath, configPath string
	var down bool

	flag.StringVar(&storageDSN, "storage-dsn", "", "postgres:// url of the ledger database")
	flag.StringVar(&migrationsPath, "migrations-path", "", "path to migrations")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.BoolVar(&down, "down", false, "roll every migration back")
	flag.Parse()

	if storageDSN == "" {
		storageDSN = os.Getenv("STORAGE_DSN")
	}
	if storageDSN == "" {
		storageDSN = dsnFromConfig(configPath)
	}
	if migrationsPath == "" {
		migrationsPath = os.Getenv("MIGRATIONS_PATH")
		if migrationsPath == "" {
			migrationsPath = "./migrations"
		}
	}

	m, err := migrate.New("file://"+migrationsPath, storageDSN)
	if err != nil {
		panic(err)
	}

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		panic(err)
	}
}

func dsnFromConfig(configPath string) string {
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("empty storage dsn: " + err.Error())
	}
	if !cfg.Postgres.Enabled() {
		panic("postgres is not configured")
	}

	return postgres.Options{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		DBName:   cfg.Postgres.DbName,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Pwd,
		SSLMode:  cfg.Postgres.SslMode,
	}.DSN()
}
