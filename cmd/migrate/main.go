// Command migrate moves the configured database schema up or down using the
// migrations embedded in the storage packages.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/observability"
	"github.com/cory-johannsen/critter/internal/storage/postgres"
	"github.com/cory-johannsen/critter/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up, down or version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewServiceLogger(cfg.Logging, "migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg.Storage.Driver, cfg, *direction, *steps, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}

func run(driver string, cfg config.Config, direction string, steps int, logger *zap.Logger) error {
	start := time.Now()
	m, err := openMigrator(driver, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	switch {
	case direction == "version":
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case direction == "down" && steps > 0:
		err = m.Steps(-steps)
	case direction == "down":
		err = m.Down()
	default:
		return fmt.Errorf("invalid direction %q: must be up, down or version", direction)
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return err
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return verr
	}
	logger.Info("schema ready",
		zap.String("driver", driver),
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("changed", !noChange && direction != "version"),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func openMigrator(driver string, cfg config.Config) (*migrate.Migrate, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.NewMigrator(cfg.Database.DSN())
	case config.DriverSQLite:
		return sqlite.OpenMigrator(cfg.Storage.SQLitePath)
	default:
		return nil, fmt.Errorf("storage driver %q has no schema", driver)
	}
}
