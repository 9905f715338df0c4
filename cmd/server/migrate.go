package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Skufu/mealguard/internal/store"
)

var cmdMigrate = &cli.Command{
	Name:  "migrate",
	Usage: "Database migration commands",
	Flags: []cli.Flag{databaseURLFlag()},
	Commands: []*cli.Command{
		{
			Name:   "up",
			Usage:  "Run all pending migrations",
			Action: migrateUp,
		},
		{
			Name:   "down",
			Usage:  "Roll back the last migration",
			Action: migrateDown,
		},
		{
			Name:   "status",
			Usage:  "Show migration status",
			Action: migrateStatus,
		},
		{
			Name:   "version",
			Usage:  "Print the current version of the database",
			Action: migrateVersion,
		},
	},
}

func openMigrationDB(ctx context.Context, cmd *cli.Command) (*sql.DB, error) {
	db, err := store.OpenSQL(cmd.String("database-url"))
	if err != nil {
		return nil, fmt.Errorf("%w (set via --database-url or DATABASE_URL env var)", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func migrateUp(ctx context.Context, cmd *cli.Command) error {
	db, err := openMigrationDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.MigrateUp(ctx, db); err != nil {
		return err
	}
	fmt.Println("Migrations completed successfully")
	return nil
}

func migrateDown(ctx context.Context, cmd *cli.Command) error {
	db, err := openMigrationDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.MigrateDown(ctx, db); err != nil {
		return err
	}
	fmt.Println("Migration rolled back successfully")
	return nil
}

func migrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := openMigrationDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	return store.MigrationStatus(ctx, db)
}

func migrateVersion(ctx context.Context, cmd *cli.Command) error {
	db, err := openMigrationDB(ctx, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := store.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	fmt.Printf("Database version: %d\n", version)
	return nil
}
