package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/trogers1052/nof0-api/internal/config"
	"github.com/trogers1052/nof0-api/internal/database"
	"github.com/trogers1052/nof0-api/internal/importer"
	"github.com/trogers1052/nof0-api/internal/kafka"
	"github.com/trogers1052/nof0-api/internal/logging"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

type flags struct {
	configPath string
	dsn        string
	dataPath   string
	truncate   bool
	migrate    bool
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to the YAML config file")
	flag.StringVar(&f.dsn, "dsn", "", "PostgreSQL DSN (overrides config)")
	flag.StringVar(&f.dataPath, "data", "", "Snapshot directory (overrides config)")
	flag.BoolVar(&f.truncate, "truncate", false, "Truncate target tables before import")
	flag.BoolVar(&f.migrate, "migrate", false, "Apply schema migrations before import")
	flag.Parse()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		logging.New("info").Fatalf("Failed to load config: %v", err)
	}
	if f.dsn != "" {
		cfg.Database.DSN = f.dsn
	}
	if f.dataPath != "" {
		cfg.DataPath = f.dataPath
	}

	logger := logging.New(cfg.Log.Level)
	if err := run(cfg, f, logger); err != nil {
		logger.WithError(err).Error("import failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, f flags, logger *logrus.Logger) error {
	db, err := database.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	// one sequential writer
	db.SetPoolLimits(1, 1)

	if f.migrate {
		logger.Info("Running database migrations...")
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	var publisher importer.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		logger.WithField("topic", cfg.Kafka.Topic).Info("publishing import events")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("data", cfg.DataPath).Info("importing snapshots")
	imp := importer.New(db, snapshot.NewLoader(cfg.DataPath), publisher, logger, importer.Options{
		Truncate: f.truncate,
	})
	_, err = imp.Run(ctx)
	return err
}
