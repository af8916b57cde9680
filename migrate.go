package main

import (
	"context"

	"smartpen/config"
	"smartpen/config/database"
	"smartpen/pkg/logger"
	"smartpen/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and unique indexes for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate(ctx context.Context) error {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}

	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURL)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := database.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			return err
		}

	default:
		logger.Sugar.Infof("Store driver %q needs no migration", cfg.StoreDriver)
		return nil
	}

	logger.Sugar.Infof("Migrated %s store", cfg.StoreDriver)
	return nil
}
