package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status   Status
		cost     bool
		distance bool
		loss     bool
		upcoming bool
	}{
		{StatusRegistered, true, false, false, true},
		{StatusIntendToGo, false, false, false, true},
		{StatusCompleted, true, true, false, false},
		{StatusUndecided, false, false, false, true},
		{StatusCancelled, false, false, false, false},
		{StatusCouldNotGo, true, false, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.cost, tt.status.IncursCost())
			assert.Equal(t, tt.distance, tt.status.CountsDistance())
			assert.Equal(t, tt.loss, tt.status.IsLoss())
			assert.Equal(t, tt.upcoming, tt.status.IsUpcoming())
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, st)

	_, ok = ParseStatus("concluido")
	assert.False(t, ok)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestAllStatusesComplete(t *testing.T) {
	assert.Len(t, AllStatuses, 6)
	seen := map[Status]bool{}
	for _, s := range AllStatuses {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
}

func TestRacePatchApply(t *testing.T) {
	r := Race{Name: "Night Run", Date: "2025-03-01", Time: "19:00", Price: 80, Distance: 10, Status: StatusRegistered}
	completed := StatusCompleted
	finish := "00:48:12"

	p := RacePatch{Status: &completed, CompletionTime: &finish}
	assert.False(t, p.Empty())
	p.Apply(&r)

	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, "00:48:12", r.CompletionTime)
	assert.Equal(t, "Night Run", r.Name)
	assert.Equal(t, 80.0, r.Price)
	assert.True(t, RacePatch{}.Empty())
}

func TestValidationError(t *testing.T) {
	ve := &ValidationError{}
	assert.NoError(t, ve.OrNil())

	ve.Add("date", "must be YYYY-MM-DD")
	err := ve.OrNil()
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "date: must be YYYY-MM-DD")
	assert.False(t, IsValidation(ErrNotFound))
}
