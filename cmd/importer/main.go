package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sql-research-assistant/internal/constants"
	"sql-research-assistant/internal/importer"
	"sql-research-assistant/internal/observability"
	"sql-research-assistant/pkg/dbmanager"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if os.Getenv("IS_DOCKER") != "true" {
		_ = godotenv.Load()
	}

	flags := pflag.NewFlagSet("importer", pflag.ExitOnError)
	flags.String("csv", "cleaned_retail.csv", "CSV snapshot to import")
	flags.String("database-path", "retail.db", "SQLite database file")
	flags.String("table", constants.DefaultTableName, "table to (re)create")
	flags.Int("batch-size", importer.DefaultBatchSize, "rows per INSERT statement")
	flags.String("log-level", "info", "log level")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	v.SetEnvPrefix("IMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}

	logger, err := observability.NewLogger(v.GetString("log-level"), "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(v, logger); err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
}

func run(v *viper.Viper, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(v.GetString("csv"))
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	db, err := dbmanager.Open(dbmanager.ConnectionConfig{
		Type: constants.DatabaseTypeSQLite,
		Path: v.GetString("database-path"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	_, err = importer.Import(ctx, db, file, importer.Options{
		Table:     v.GetString("table"),
		BatchSize: v.GetInt("batch-size"),
	}, logger)
	return err
}
