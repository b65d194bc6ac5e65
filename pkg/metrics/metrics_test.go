package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware("test"))
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("test", http.MethodGet, "/items/:id", "204"))
	for _, p := range []string{"/items/1", "/items/2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("test", http.MethodGet, "/items/:id", "204"))
	assert.Equal(t, before+2, after)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestsTotal.WithLabelValues("test", http.MethodGet, "/boom", "418")))
}

func TestRecordUpload(t *testing.T) {
	before := testutil.ToFloat64(UploadBytesTotal.WithLabelValues("audio"))
	RecordUpload("audio", "success", 10)
	RecordUpload("audio", "error", 99)
	assert.Equal(t, before+10, testutil.ToFloat64(UploadBytesTotal.WithLabelValues("audio")))
}

func TestHandler_ServesExposition(t *testing.T) {
	RecordAuth("login", "success")

	e := echo.New()
	e.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "worknomads_auth_events_total")
}
