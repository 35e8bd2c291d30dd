package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/padraicbc/racelog/models"
)

// RaceRepository stores race records. Every call is scoped to an owner.
type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	CreateBatch(ctx context.Context, races []*models.Race) error
	Get(ctx context.Context, owner, id uuid.UUID) (*models.Race, error)
	Update(ctx context.Context, owner, id uuid.UUID, patch models.RacePatch) (*models.Race, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, f RaceFilter, p Page, s Sort) ([]models.Race, int, error)
	Find(ctx context.Context, owner uuid.UUID, f RaceFilter, s Sort) ([]models.Race, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.UserSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
