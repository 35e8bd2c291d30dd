// cmd/migrate/main.go
// Copies users and races from a legacy MySQL racelog database into PostgreSQL.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/racelog?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/racelog/config"
	bundb "github.com/padraicbc/racelog/db"
	applog "github.com/padraicbc/racelog/logger"
	"github.com/padraicbc/racelog/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log, err := applog.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/racelog?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal("open mysql", zap.Error(err))
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatal("ping mysql", zap.Error(err))
	}
	log.Info("connected to MySQL")

	pgDB, err := bundb.Setup(ctx, cfg)
	if err != nil {
		log.Fatal("open postgres", zap.Error(err))
	}
	defer pgDB.Close()
	log.Info("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatal("create tables", zap.Error(err))
	}

	// Users go first so race foreign keys resolve.
	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"races", func() (int, error) { return migrateRaces(ctx, myDB, pgDB, log) }},
	}

	for _, s := range steps {
		start := time.Now()
		n, err := s.fn()
		if err != nil {
			log.Fatal("migration failed", zap.String("table", s.name), zap.Error(err))
		}
		log.Info("table migrated", zap.String("table", s.name), zap.Int("rows", n), zap.Duration("took", time.Since(start)))
	}
	log.Info("migration complete")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// batcher flushes rows to PostgreSQL every batchSize rows.
type batcher[T any] struct {
	ctx   context.Context
	db    *bun.DB
	rows  []T
	total int
}

func (b *batcher[T]) add(row T) error {
	b.rows = append(b.rows, row)
	if len(b.rows) < batchSize {
		return nil
	}
	return b.flush()
}

func (b *batcher[T]) flush() error {
	if err := bulkInsert(b.ctx, b.db, b.rows); err != nil {
		return err
	}
	b.total += len(b.rows)
	b.rows = b.rows[:0]
	return nil
}

// legacyUser is one row of the MySQL users table.
type legacyUser struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      sql.NullString
	Avatar    sql.NullString
	GoogleID  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l legacyUser) toModel() (models.User, error) {
	id, err := uuid.Parse(l.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("user %q: %w", l.ID, err)
	}
	role := models.Role(l.Role.String)
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return models.User{
		ID:        id,
		Name:      strings.TrimSpace(l.Name),
		Email:     strings.ToLower(strings.TrimSpace(l.Email)),
		Password:  l.Password,
		Role:      role,
		Avatar:    l.Avatar.String,
		GoogleID:  l.GoogleID.String,
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}, nil
}

func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, name, email, password, role, avatar, google_id, created_at, updated_at FROM users`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := &batcher[models.User]{ctx: ctx, db: pgDB}
	for rows.Next() {
		var l legacyUser
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Password, &l.Role, &l.Avatar, &l.GoogleID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return b.total, err
		}
		u, err := l.toModel()
		if err != nil {
			return b.total, err
		}
		if err := b.add(u); err != nil {
			return b.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return b.total, err
	}
	err = b.flush()
	return b.total, err
}

// legacyRace is one row of the MySQL races table. Date and time arrive
// preformatted as YYYY-MM-DD and HH:MM.
type legacyRace struct {
	ID              string
	UserID          string
	Name            string
	Date            string
	Time            string
	Price           float64
	Distance        float64
	RegistrationURL sql.NullString
	Status          string
	CompletionTime  sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// toModel converts a legacy row. Unknown statuses become undecided and
// reports whether that happened.
func (l legacyRace) toModel() (models.Race, bool, error) {
	id, err := uuid.Parse(l.ID)
	if err != nil {
		return models.Race{}, false, fmt.Errorf("race %q: %w", l.ID, err)
	}
	owner, err := uuid.Parse(l.UserID)
	if err != nil {
		return models.Race{}, false, fmt.Errorf("race %q owner %q: %w", l.ID, l.UserID, err)
	}
	status, coerced := models.Status(strings.TrimSpace(l.Status)), false
	if !status.Valid() {
		status, coerced = models.StatusUndecided, true
	}
	return models.Race{
		ID:              id,
		UserID:          owner,
		Name:            strings.TrimSpace(l.Name),
		Date:            l.Date,
		Time:            l.Time,
		Price:           l.Price,
		Distance:        l.Distance,
		RegistrationURL: strings.TrimSpace(l.RegistrationURL.String),
		Status:          status,
		CompletionTime:  strings.TrimSpace(l.CompletionTime.String),
		CreatedAt:       l.CreatedAt.UTC(),
		UpdatedAt:       l.UpdatedAt.UTC(),
	}, coerced, nil
}

func migrateRaces(ctx context.Context, myDB *sql.DB, pgDB *bun.DB, log *zap.Logger) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, user_id, name, DATE_FORMAT(date, '%Y-%m-%d'), TIME_FORMAT(time, '%H:%i'),
		        price, distance, registration_url, status, completion_time, created_at, updated_at
		 FROM races`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := &batcher[models.Race]{ctx: ctx, db: pgDB}
	for rows.Next() {
		var l legacyRace
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Date, &l.Time, &l.Price, &l.Distance,
			&l.RegistrationURL, &l.Status, &l.CompletionTime, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return b.total, err
		}
		r, coerced, err := l.toModel()
		if err != nil {
			return b.total, err
		}
		if coerced {
			log.Warn("unknown race status, stored as undecided", zap.String("race_id", l.ID), zap.String("status", l.Status))
		}
		if err := b.add(r); err != nil {
			return b.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return b.total, err
	}
	err = b.flush()
	return b.total, err
}
