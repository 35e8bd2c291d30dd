package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository"
)

const (
	defaultUpcoming = 5
	maxUpcoming     = 50
)

type listFilters struct {
	Year   string   `json:"year,omitempty"`
	Month  string   `json:"month,omitempty"`
	Status []string `json:"status,omitempty"`
	Search string   `json:"search,omitempty"`
}

type raceList struct {
	Races      []models.Race         `json:"races"`
	Pagination repository.Pagination `json:"pagination"`
	Filters    listFilters           `json:"filters"`
}

type raceBody struct {
	Race *models.Race `json:"race"`
}

// statusParams collects status, status[] and comma separated values.
func statusParams(c echo.Context) []string {
	qp := c.QueryParams()
	var out []string
	for _, key := range []string{"status", "status[]"} {
		for _, v := range qp[key] {
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func toStatuses(raw []string) []models.Status {
	if len(raw) == 0 {
		return nil
	}
	out := make([]models.Status, len(raw))
	for i, s := range raw {
		out[i] = models.Status(s)
	}
	return out
}

// ListRaces handles GET /races.
func (h *Handler) ListRaces(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	filters := listFilters{
		Year:   strings.TrimSpace(c.QueryParam("year")),
		Month:  strings.TrimSpace(c.QueryParam("month")),
		Status: statusParams(c),
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	f := repository.RaceFilter{
		Year:     filters.Year,
		Month:    filters.Month,
		Statuses: toStatuses(filters.Status),
		Search:   filters.Search,
	}
	if err := f.Validate(); err != nil {
		return err
	}
	page := repository.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	sort := repository.ParseSort(c.QueryParam("sortBy"), c.QueryParam("sortOrder"))

	races, total, err := h.races.List(c.Request().Context(), user.ID, f, page, sort)
	if err != nil {
		return err
	}
	if races == nil {
		races = []models.Race{}
	}

	return respond(c, http.StatusOK, "", raceList{
		Races:      races,
		Pagination: page.Paginate(total),
		Filters:    filters,
	})
}

// GetRace handles GET /races/:id.
func (h *Handler) GetRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	race, err := h.races.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", raceBody{Race: race})
}

// CreateRace handles POST /races.
func (h *Handler) CreateRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req RaceInput
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return err
	}

	race := req.toRace(user.ID)
	if err := h.races.Create(c.Request().Context(), race); err != nil {
		return err
	}
	h.metrics.RaceCreated()

	return respond(c, http.StatusCreated, "race created", raceBody{Race: race})
}

// UpdateRace handles PUT /races/:id. Only the fields present are changed.
func (h *Handler) UpdateRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req raceUpdateRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return err
	}

	race, err := h.races.Update(c.Request().Context(), user.ID, id, req.patch())
	if err != nil {
		return err
	}
	h.metrics.RaceUpdated()

	return respond(c, http.StatusOK, "race updated", raceBody{Race: race})
}

// DeleteRace handles DELETE /races/:id.
func (h *Handler) DeleteRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.races.Delete(c.Request().Context(), user.ID, id); err != nil {
		return err
	}
	h.metrics.RaceDeleted()

	return respond(c, http.StatusOK, "race deleted", nil)
}

// RaceStats handles GET /races/stats: per-status and per-month breakdowns.
func (h *Handler) RaceStats(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	ov, err := h.stats.Overview(c.Request().Context(), user.ID, strings.TrimSpace(c.QueryParam("year")))
	if err != nil {
		return err
	}
	h.metrics.StatisticsServed("overview")

	return respond(c, http.StatusOK, "", ov)
}

// Statistics handles GET /races/statistics for a required date range.
func (h *Handler) Statistics(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	sum, err := h.stats.Statistics(c.Request().Context(), user.ID,
		strings.TrimSpace(c.QueryParam("startDate")),
		strings.TrimSpace(c.QueryParam("endDate")),
	)
	if err != nil {
		return err
	}
	h.metrics.StatisticsServed("range")

	return respond(c, http.StatusOK, "", sum)
}

// Upcoming handles GET /races/upcoming.
func (h *Handler) Upcoming(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	limit := defaultUpcoming
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 {
		limit = min(n, maxUpcoming)
	}

	races, err := h.stats.Upcoming(c.Request().Context(), user.ID, limit)
	if err != nil {
		return err
	}
	h.metrics.StatisticsServed("upcoming")

	return respond(c, http.StatusOK, "", races)
}
