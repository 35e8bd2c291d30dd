package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/report"
)

// Report handles GET /races/report and returns a PDF of the races in
// [startDate, endDate], optionally narrowed by status and search.
func (h *Handler) Report(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	start := strings.TrimSpace(c.QueryParam("startDate"))
	end := strings.TrimSpace(c.QueryParam("endDate"))
	sum, err := h.stats.Report(ctx, caller.ID, start, end,
		toStatuses(statusParams(c)), strings.TrimSpace(c.QueryParam("search")))
	if err != nil {
		return err
	}

	owner := caller.Email
	if u, err := h.users.GetByID(ctx, caller.ID); err == nil {
		owner = fmt.Sprintf("%s <%s>", u.Name, u.Email)
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	var buf bytes.Buffer
	err = report.Write(&buf, report.Report{
		Owner:     owner,
		StartDate: start,
		EndDate:   end,
		Generated: h.now(),
		Summary:   sum,
	})
	if err != nil {
		return err
	}
	h.metrics.StatisticsServed("report")

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="races-%s-%s.pdf"`, start, end))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
