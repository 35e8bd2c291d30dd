package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role gates admin-only operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account with a bcrypt-hashed password or a linked Google identity.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Role      Role      `bun:"role,notnull,default:'user'" json:"role"`
	Avatar    string    `bun:"avatar,nullzero" json:"avatar,omitempty"`
	GoogleID  string    `bun:"google_id,nullzero" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

// BeforeAppendModel stamps identity, default role and timestamps on write.
func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if u.Role == "" {
			u.Role = RoleUser
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
	case *bun.UpdateQuery:
		u.UpdatedAt = now
	}
	return nil
}

// IsAdmin reports whether the user may call admin endpoints.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSummary is a user row for the admin listing.
type UserSummary struct {
	ID        uuid.UUID `bun:"id" json:"id"`
	Name      string    `bun:"name" json:"name"`
	Email     string    `bun:"email" json:"email"`
	Role      Role      `bun:"role" json:"role"`
	Avatar    *string   `bun:"avatar" json:"avatar,omitempty"`
	CreatedAt time.Time `bun:"created_at" json:"createdAt"`
	RaceCount int       `bun:"race_count" json:"raceCount"`
}
