package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/padraicbc/racelog/config"
	"github.com/padraicbc/racelog/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

// CreateTables creates all tables in dependency order, then their indexes.
func CreateTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating table for %T: %w", (*models.User)(nil), err)
	}

	_, err := db.NewCreateTable().Model((*models.Race)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id")`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("creating table for %T: %w", (*models.Race)(nil), err)
	}

	indexes := []struct {
		name    string
		columns []string
	}{
		{"races_user_date_idx", []string{"user_id", "date"}},
		{"races_user_status_idx", []string{"user_id", "status"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model((*models.Race)(nil)).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			zap.L().Warn("create index", zap.String("index", idx.name), zap.Error(err))
		}
	}

	return nil
}
