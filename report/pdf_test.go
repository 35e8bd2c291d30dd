package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/stats"
)

func TestWriteProducesPDF(t *testing.T) {
	races := []models.Race{
		{Name: "Corrida de São Silvestre", Date: "2025-12-31", Time: "17:00", Distance: 15, Price: 180, Status: models.StatusCompleted, CompletionTime: "01:20:00"},
		{Name: "Night Run", Date: "2025-11-02", Time: "20:00", Distance: 5, Price: 90.5, Status: models.StatusCouldNotGo},
	}
	sum := &stats.Summary{Totals: stats.Summarize(races), Races: races}

	var buf bytes.Buffer
	err := Write(&buf, Report{
		Owner:     "Ana",
		StartDate: "2025-01-01",
		EndDate:   "2025-12-31",
		Generated: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Summary:   sum,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteSpansPages(t *testing.T) {
	races := make([]models.Race, 0, 120)
	for i := range 120 {
		races = append(races, models.Race{Name: fmt.Sprintf("Race %d", i), Date: "2025-05-01", Time: "08:00", Distance: 10, Status: models.StatusRegistered})
	}
	var small, large bytes.Buffer
	require.NoError(t, Write(&small, Report{Summary: &stats.Summary{Totals: stats.Summarize(races[:1]), Races: races[:1]}}))
	require.NoError(t, Write(&large, Report{Summary: &stats.Summary{Totals: stats.Summarize(races), Races: races}}))
	assert.Greater(t, large.Len(), small.Len())
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Report{StartDate: "2025-01-01", EndDate: "2025-01-31"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
