package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Race is one race a user registered for, plans to attend or completed.
// Date is kept as a YYYY-MM-DD string so range filters compare lexicographically.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID          uuid.UUID `bun:"user_id,notnull,type:uuid" json:"userId"`
	Name            string    `bun:"name,notnull" json:"name"`
	Date            string    `bun:"date,notnull,type:varchar(10)" json:"date"`
	Time            string    `bun:"time,notnull,type:varchar(5)" json:"time"`
	Price           float64   `bun:"price,notnull" json:"price"`
	Distance        float64   `bun:"distance,notnull" json:"distance"`
	RegistrationURL string    `bun:"registration_url,nullzero" json:"registrationUrl,omitempty"`
	Status          Status    `bun:"status,notnull" json:"status"`
	CompletionTime  string    `bun:"completion_time,nullzero" json:"completionTime,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*Race)(nil)

// BeforeAppendModel stamps identity and timestamps on write.
func (r *Race) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// RacePatch holds the fields of a partial update; nil means unchanged.
type RacePatch struct {
	Name            *string
	Date            *string
	Time            *string
	Price           *float64
	Distance        *float64
	RegistrationURL *string
	Status          *Status
	CompletionTime  *string
}

// Empty reports whether the patch changes nothing.
func (p RacePatch) Empty() bool {
	return p.Name == nil && p.Date == nil && p.Time == nil && p.Price == nil &&
		p.Distance == nil && p.RegistrationURL == nil && p.Status == nil && p.CompletionTime == nil
}

// Apply copies the set fields of p onto r.
func (p RacePatch) Apply(r *Race) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Distance != nil {
		r.Distance = *p.Distance
	}
	if p.RegistrationURL != nil {
		r.RegistrationURL = *p.RegistrationURL
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CompletionTime != nil {
		r.CompletionTime = *p.CompletionTime
	}
}
