package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/races/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "no") })

	for _, path := range []string{"/races/1", "/races/2", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/races/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/boom", "418")))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.RaceCreated()
	m.RaceCreated()
	m.RaceUpdated()
	m.RaceDeleted()
	m.RacesImported(5)
	m.RacesImported(0)
	m.StatisticsServed("range")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.racesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.racesUpdated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.racesDeleted))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.racesImported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statsRequests.WithLabelValues("range")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RaceCreated()
		m.RaceUpdated()
		m.RaceDeleted()
		m.RacesImported(3)
		m.StatisticsServed("overview")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RaceCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "racelog_races_created_total 1")
}
