package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/padraicbc/racelog/models"
)

// PostgresRaceRepository implements RaceRepository with bun.
type PostgresRaceRepository struct {
	db *bun.DB
}

// NewRaceRepository creates a race repository over db.
func NewRaceRepository(db *bun.DB) *PostgresRaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Create inserts a race; id and timestamps are assigned on write.
func (r *PostgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	if _, err := r.db.NewInsert().Model(race).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("creating race: %w", err)
	}
	return nil
}

// CreateBatch inserts races in one statement.
func (r *PostgresRaceRepository) CreateBatch(ctx context.Context, races []*models.Race) error {
	if len(races) == 0 {
		return nil
	}
	if _, err := r.db.NewInsert().Model(&races).Exec(ctx); err != nil {
		return fmt.Errorf("creating %d races: %w", len(races), err)
	}
	return nil
}

// Get returns a race owned by owner, or ErrNotFound.
func (r *PostgresRaceRepository) Get(ctx context.Context, owner, id uuid.UUID) (*models.Race, error) {
	race := &models.Race{}
	err := r.db.NewSelect().Model(race).
		Where("r.id = ?", id).
		Where("r.user_id = ?", owner).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting race %s: %w", id, err)
	}
	return race, nil
}

// Update replaces the set fields of patch on a race owned by owner.
func (r *PostgresRaceRepository) Update(ctx context.Context, owner, id uuid.UUID, patch models.RacePatch) (*models.Race, error) {
	if patch.Empty() {
		return r.Get(ctx, owner, id)
	}

	race := &models.Race{}
	q := r.updateQuery(race, owner, id, patch, time.Now().UTC())
	res, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating race %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrNotFound
	}
	return race, nil
}

func (r *PostgresRaceRepository) updateQuery(race *models.Race, owner, id uuid.UUID, p models.RacePatch, now time.Time) *bun.UpdateQuery {
	q := r.db.NewUpdate().Model(race)
	if p.Name != nil {
		q = q.Set("name = ?", *p.Name)
	}
	if p.Date != nil {
		q = q.Set("date = ?", *p.Date)
	}
	if p.Time != nil {
		q = q.Set("time = ?", *p.Time)
	}
	if p.Price != nil {
		q = q.Set("price = ?", *p.Price)
	}
	if p.Distance != nil {
		q = q.Set("distance = ?", *p.Distance)
	}
	if p.RegistrationURL != nil {
		q = q.Set("registration_url = NULLIF(?, '')", *p.RegistrationURL)
	}
	if p.Status != nil {
		q = q.Set("status = ?", *p.Status)
	}
	if p.CompletionTime != nil {
		q = q.Set("completion_time = NULLIF(?, '')", *p.CompletionTime)
	}
	return q.Set("updated_at = ?", now).
		Where("r.id = ?", id).
		Where("r.user_id = ?", owner).
		Returning("*")
}

// Delete removes a race owned by owner.
func (r *PostgresRaceRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*models.Race)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting race %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns one page of matching races plus the total match count.
func (r *PostgresRaceRepository) List(ctx context.Context, owner uuid.UUID, f RaceFilter, p Page, s Sort) ([]models.Race, int, error) {
	var races []models.Race
	total, err := r.selectQuery(&races, owner, f, s).
		Limit(p.Limit).
		Offset(p.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing races: %w", err)
	}
	if races == nil {
		races = []models.Race{}
	}
	return races, total, nil
}

// Find returns every matching race without pagination.
func (r *PostgresRaceRepository) Find(ctx context.Context, owner uuid.UUID, f RaceFilter, s Sort) ([]models.Race, error) {
	races := []models.Race{}
	if err := r.selectQuery(&races, owner, f, s).Scan(ctx); err != nil {
		return nil, fmt.Errorf("finding races: %w", err)
	}
	return races, nil
}

// Count returns how many races owner has.
func (r *PostgresRaceRepository) Count(ctx context.Context, owner uuid.UUID) (int, error) {
	n, err := r.db.NewSelect().Model((*models.Race)(nil)).
		Where("r.user_id = ?", owner).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting races: %w", err)
	}
	return n, nil
}

// selectQuery builds the owner-scoped, filtered and sorted select.
func (r *PostgresRaceRepository) selectQuery(dest *[]models.Race, owner uuid.UUID, f RaceFilter, s Sort) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).Where("r.user_id = ?", owner)

	if prefix := f.DatePrefix(); prefix != "" {
		q = q.Where("r.date LIKE ?", escapeLike(prefix)+"%")
	}
	if len(f.Statuses) > 0 {
		q = q.Where("r.status IN (?)", bun.In(f.Statuses))
	}
	if f.Search != "" {
		q = q.Where("r.name ILIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	if f.From != "" {
		q = q.Where("r.date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("r.date <= ?", f.To)
	}

	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	q = q.OrderExpr("r.? "+dir, bun.Ident(s.column()))
	if s.column() == "date" {
		q = q.OrderExpr("r.time " + dir)
	}
	return q.OrderExpr("r.id ASC")
}
