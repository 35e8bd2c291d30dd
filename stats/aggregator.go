package stats

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// RaceFinder is the part of the race repository the aggregator reads from.
type RaceFinder interface {
	Find(ctx context.Context, owner uuid.UUID, f repository.RaceFilter, s repository.Sort) ([]models.Race, error)
}

// Summary is the date-range statistics report.
type Summary struct {
	Totals
	Best5K *PersonalBest `json:"best5k,omitempty"`
	Races  []models.Race `json:"races"`
}

// Range is an inclusive YYYY-MM-DD date range. Start after End is allowed
// and simply matches nothing.
type Range struct {
	Start string
	End   string
}

// ParseRange requires both bounds in YYYY-MM-DD form.
func ParseRange(start, end string) (Range, error) {
	ve := &models.ValidationError{}
	switch {
	case start == "":
		ve.Add("startDate", "start date is required")
	case !isoDate.MatchString(start):
		ve.Add("startDate", "start date must be in YYYY-MM-DD format")
	}
	switch {
	case end == "":
		ve.Add("endDate", "end date is required")
	case !isoDate.MatchString(end):
		ve.Add("endDate", "end date must be in YYYY-MM-DD format")
	}
	if err := ve.OrNil(); err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// Contains reports whether date lies inside the range.
func (r Range) Contains(date string) bool {
	return date >= r.Start && date <= r.End
}

// Aggregator produces statistics for one owner at a time.
type Aggregator struct {
	races RaceFinder
	now   func() time.Time
}

// NewAggregator creates an Aggregator reading from races. now defaults to time.Now.
func NewAggregator(races RaceFinder, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{races: races, now: now}
}

var dateDesc = repository.Sort{Field: "date", Desc: true}

// Statistics summarizes the owner's races dated inside [start, end].
func (a *Aggregator) Statistics(ctx context.Context, owner uuid.UUID, start, end string) (*Summary, error) {
	rng, err := ParseRange(start, end)
	if err != nil {
		return nil, err
	}
	return a.summarize(ctx, owner, repository.RaceFilter{From: rng.Start, To: rng.End})
}

// Report is Statistics narrowed further by status set and name search.
func (a *Aggregator) Report(ctx context.Context, owner uuid.UUID, start, end string, statuses []models.Status, search string) (*Summary, error) {
	rng, err := ParseRange(start, end)
	if err != nil {
		return nil, err
	}
	f := repository.RaceFilter{From: rng.Start, To: rng.End, Statuses: statuses, Search: search}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return a.summarize(ctx, owner, f)
}

func (a *Aggregator) summarize(ctx context.Context, owner uuid.UUID, f repository.RaceFilter) (*Summary, error) {
	races, err := a.races.Find(ctx, owner, f, dateDesc)
	if err != nil {
		return nil, fmt.Errorf("loading races for statistics: %w", err)
	}
	if races == nil {
		races = []models.Race{}
	}

	return &Summary{
		Totals: Summarize(races),
		Best5K: BestTime(races, 5, 6),
		Races:  races,
	}, nil
}

// Overview returns per-status and per-month breakdowns, optionally for one year.
func (a *Aggregator) Overview(ctx context.Context, owner uuid.UUID, year string) (*Overview, error) {
	f := repository.RaceFilter{Year: year}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	races, err := a.races.Find(ctx, owner, f, dateDesc)
	if err != nil {
		return nil, fmt.Errorf("loading races for overview: %w", err)
	}

	return &Overview{
		StatusStats:  StatusBreakdown(races),
		MonthlyStats: MonthlyBreakdown(races),
	}, nil
}

// Upcoming returns the owner's next races relative to the aggregator clock.
func (a *Aggregator) Upcoming(ctx context.Context, owner uuid.UUID, limit int) ([]Countdown, error) {
	now := a.now()
	f := repository.RaceFilter{From: now.Format(time.DateOnly)}
	races, err := a.races.Find(ctx, owner, f, repository.Sort{Field: "date"})
	if err != nil {
		return nil, fmt.Errorf("loading upcoming races: %w", err)
	}
	return Upcoming(races, now, limit), nil
}
