package main

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/racelog/models"
)

func TestLegacyUserToModel(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	l := legacyUser{
		ID:        "6f1c2f7e-4c1b-4d7a-9a55-3b6c2d1e0f11",
		Name:      " Ana ",
		Email:     " Ana@Example.COM",
		Password:  "$2a$10$hash",
		Role:      sql.NullString{String: "superuser", Valid: true},
		CreatedAt: created,
		UpdatedAt: created,
	}

	u, err := l.toModel()
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Empty(t, u.Avatar)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.True(t, u.CreatedAt.Equal(created))

	l.Role = sql.NullString{String: "admin", Valid: true}
	u, err = l.toModel()
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	l.ID = "42"
	_, err = l.toModel()
	assert.Error(t, err)
}

func TestLegacyRaceToModel(t *testing.T) {
	l := legacyRace{
		ID:             "0b7d9f9e-1111-4b44-8a2b-5c8e2f0d9a01",
		UserID:         "6f1c2f7e-4c1b-4d7a-9a55-3b6c2d1e0f11",
		Name:           "Harbour 10K ",
		Date:           "2025-06-01",
		Time:           "09:30",
		Price:          25,
		Distance:       10,
		Status:         "completed",
		CompletionTime: sql.NullString{String: "00:48:12", Valid: true},
	}

	r, coerced, err := l.toModel()
	require.NoError(t, err)
	assert.False(t, coerced)
	assert.Equal(t, "Harbour 10K", r.Name)
	assert.Equal(t, models.StatusCompleted, r.Status)
	assert.Equal(t, "00:48:12", r.CompletionTime)
	assert.Empty(t, r.RegistrationURL)

	l.Status = "maybe"
	r, coerced, err = l.toModel()
	require.NoError(t, err)
	assert.True(t, coerced)
	assert.Equal(t, models.StatusUndecided, r.Status)

	l.UserID = ""
	_, _, err = l.toModel()
	assert.Error(t, err)
}
