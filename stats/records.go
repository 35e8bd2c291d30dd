package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/padraicbc/racelog/models"
)

// PersonalBest is the fastest completion inside a distance band.
type PersonalBest struct {
	Time     string  `json:"time"`
	RaceName string  `json:"raceName"`
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
}

// BestTime returns the fastest completed race with min <= distance < max,
// or nil when none has a parseable completion time.
func BestTime(races []models.Race, minKm, maxKm float64) *PersonalBest {
	var (
		best    *PersonalBest
		bestSec int
	)
	for i := range races {
		r := &races[i]
		if r.Status != models.StatusCompleted || r.Distance < minKm || r.Distance >= maxKm {
			continue
		}
		sec, err := ParseClock(r.CompletionTime)
		if err != nil {
			continue
		}
		if best == nil || sec < bestSec {
			bestSec = sec
			best = &PersonalBest{Time: r.CompletionTime, RaceName: r.Name, Date: r.Date, Distance: r.Distance}
		}
	}
	return best
}

// ParseClock converts H:MM:SS or HH:MM:SS into seconds.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("completion time %q: want HH:MM:SS", s)
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("completion time %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("completion time %q out of range", s)
	}
	return h*3600 + m*60 + sec, nil
}

// Countdown is an upcoming race with the days left until it.
type Countdown struct {
	models.Race
	DaysUntil int `json:"daysUntil"`
}

// Upcoming returns the races on or after today's date whose status keeps
// them on the calendar, soonest first. today is supplied by the caller.
func Upcoming(races []models.Race, today time.Time, limit int) []Countdown {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	todayStr := day.Format(time.DateOnly)

	out := []Countdown{}
	for _, r := range races {
		if !r.Status.IsUpcoming() || r.Date < todayStr {
			continue
		}
		d, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			continue
		}
		out = append(out, Countdown{Race: r, DaysUntil: int(d.Sub(day).Hours() / 24)})
	}
	slices.SortStableFunc(out, func(a, b Countdown) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Time, b.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
