// Package stats aggregates race records into totals, per-status counts and
// monthly breakdowns. Aggregation is pure; the Aggregator only selects the
// records to aggregate.
package stats

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/padraicbc/racelog/models"
)

// Totals is the result of folding a set of races.
type Totals struct {
	TotalRaces    int                   `json:"totalRaces"`
	TotalCost     float64               `json:"totalCost"`
	TotalDistance float64               `json:"totalDistance"`
	ValueLost     float64               `json:"valueLost"`
	StatusCounts  map[models.Status]int `json:"statusCounts"`
}

// NewStatusCounts returns a count map seeded with every status at zero.
func NewStatusCounts() map[models.Status]int {
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	return counts
}

// accumulator sums money and distance exactly and converts once at the end.
type accumulator struct {
	races    int
	cost     decimal.Decimal
	distance decimal.Decimal
	lost     decimal.Decimal
	counts   map[models.Status]int
}

func newAccumulator() *accumulator {
	return &accumulator{counts: NewStatusCounts()}
}

func (a *accumulator) add(r *models.Race) {
	a.races++
	a.counts[r.Status]++
	if r.Status.IncursCost() {
		a.cost = a.cost.Add(decimal.NewFromFloat(r.Price))
	}
	if r.Status.CountsDistance() {
		a.distance = a.distance.Add(decimal.NewFromFloat(r.Distance))
	}
	if r.Status.IsLoss() {
		a.lost = a.lost.Add(decimal.NewFromFloat(r.Price))
	}
}

func (a *accumulator) totals() Totals {
	return Totals{
		TotalRaces:    a.races,
		TotalCost:     a.cost.InexactFloat64(),
		TotalDistance: a.distance.InexactFloat64(),
		ValueLost:     a.lost.InexactFloat64(),
		StatusCounts:  a.counts,
	}
}

// Summarize folds races into totals. Cost counts only cost-incurring
// statuses, distance only completed races, value lost only missed races.
func Summarize(races []models.Race) Totals {
	acc := newAccumulator()
	for i := range races {
		acc.add(&races[i])
	}
	return acc.totals()
}

// StatusStat is the count and summed price of one status.
type StatusStat struct {
	Status     models.Status `json:"_id"`
	Count      int           `json:"count"`
	TotalPrice float64       `json:"totalPrice"`
}

// MonthStatus is the count of one status inside a month.
type MonthStatus struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

// MonthStat is the per-status breakdown of one month, keyed "01".."12".
type MonthStat struct {
	Month    string        `json:"_id"`
	Statuses []MonthStatus `json:"statuses"`
	Total    int           `json:"total"`
}

// Overview holds the year-scoped status and monthly breakdowns.
type Overview struct {
	StatusStats  []StatusStat `json:"statusStats"`
	MonthlyStats []MonthStat  `json:"monthlyStats"`
}

// StatusBreakdown groups races by status. Only statuses present in races
// are returned, in canonical order; TotalPrice sums every price regardless
// of status.
func StatusBreakdown(races []models.Race) []StatusStat {
	counts := NewStatusCounts()
	prices := make(map[models.Status]decimal.Decimal, len(models.AllStatuses))
	for i := range races {
		r := &races[i]
		counts[r.Status]++
		prices[r.Status] = prices[r.Status].Add(decimal.NewFromFloat(r.Price))
	}

	out := []StatusStat{}
	for _, s := range models.AllStatuses {
		if counts[s] == 0 {
			continue
		}
		out = append(out, StatusStat{Status: s, Count: counts[s], TotalPrice: prices[s].InexactFloat64()})
	}
	return out
}

// MonthlyBreakdown groups races by the month part of their date, ascending.
func MonthlyBreakdown(races []models.Race) []MonthStat {
	byMonth := map[string]map[models.Status]int{}
	for i := range races {
		r := &races[i]
		month := monthOf(r.Date)
		if byMonth[month] == nil {
			byMonth[month] = map[models.Status]int{}
		}
		byMonth[month][r.Status]++
	}

	out := make([]MonthStat, 0, len(byMonth))
	for month, counts := range byMonth {
		ms := MonthStat{Month: month, Statuses: []MonthStatus{}}
		for _, s := range models.AllStatuses {
			if n := counts[s]; n > 0 {
				ms.Statuses = append(ms.Statuses, MonthStatus{Status: s, Count: n})
				ms.Total += n
			}
		}
		out = append(out, ms)
	}
	slices.SortFunc(out, func(a, b MonthStat) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

func monthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[5:7]
}
