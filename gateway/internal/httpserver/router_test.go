package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/worknomads/pkg/metrics"
)

// fakeService echoes which service answered, plus the path and forwarding
// headers it received.
func fakeService(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", name)
		w.Header().Set("X-Seen-Path", r.URL.Path)
		w.Header().Set("X-Seen-Host", r.Header.Get("X-Forwarded-Host"))
		w.Header().Set("X-Seen-Auth", r.Header.Get("Authorization"))
		w.Header().Set("X-Seen-Proto", r.Header.Get("X-Forwarded-Proto"))
		w.Header().Set("X-Seen-Request-Host", r.Host)
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegister_RoutesByPrefix(t *testing.T) {
	auth := fakeService(t, "auth")
	media := fakeService(t, "media")

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		AuthURL:  auth.URL,
		MediaURL: media.URL,
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}))

	tests := []struct {
		method   string
		path     string
		upstream string
	}{
		{http.MethodPost, "/api/auth/login/", "auth"},
		{http.MethodPost, "/api/auth/login/refresh/", "auth"},
		{http.MethodPost, "/api/media/upload/image/", "media"},
		{http.MethodDelete, "/api/media/delete/3/", "media"},
		{http.MethodGet, "/media/images/2024/01/02/a.png", "media"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusTeapot, rec.Code)
			assert.Equal(t, tt.upstream, rec.Header().Get("X-Upstream"))
			assert.Equal(t, tt.path, rec.Header().Get("X-Seen-Path"))
			assert.Equal(t, "example.com", rec.Header().Get("X-Seen-Host"))
			assert.Equal(t, "Bearer abc", rec.Header().Get("X-Seen-Auth"))
			assert.Equal(t, "example.com", rec.Header().Get("X-Seen-Request-Host"))
		})
	}
}

func TestRegister_UnknownPathIsNotProxied(t *testing.T) {
	e := echo.New()
	require.NoError(t, Register(e, &Deps{AuthURL: "http://127.0.0.1:1", MediaURL: "http://127.0.0.1:1", Logger: slog.Default()}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpstream_StripPrefix(t *testing.T) {
	srv := fakeService(t, "svc")
	h, err := upstream{Name: "svc", Target: srv.URL, StripPrefix: "/api/v1"}.handler()
	require.NoError(t, err)

	e := echo.New()
	e.Any("/*", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/things", nil))
	assert.Equal(t, "/things", rec.Header().Get("X-Seen-Path"))
}

func TestRegister_UpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	e := echo.New()
	require.NoError(t, Register(e, &Deps{AuthURL: deadURL, MediaURL: deadURL, Logger: slog.Default()}))

	before := testutil.ToFloat64(metrics.ProxyRequestsTotal.WithLabelValues("auth", "unavailable"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"detail":"Upstream service unavailable."}`, rec.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProxyRequestsTotal.WithLabelValues("auth", "unavailable")))
}

func TestUpstream_KeepsForwardedProtoAndCounts(t *testing.T) {
	srv := fakeService(t, "media")
	h, err := upstream{Name: "media", Target: srv.URL}.handler()
	require.NoError(t, err)

	e := echo.New()
	e.Any("/*", h)

	before := testutil.ToFloat64(metrics.ProxyRequestsTotal.WithLabelValues("media", "418"))
	req := httptest.NewRequest(http.MethodGet, "/api/media/list/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "https", rec.Header().Get("X-Seen-Proto"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProxyRequestsTotal.WithLabelValues("media", "418")))
}

func TestUpstream_RejectsBadTarget(t *testing.T) {
	for _, target := range []string{"", "auth:8080", "://nope"} {
		_, err := upstream{Name: "auth", Target: target}.handler()
		assert.Error(t, err, target)
	}
}
