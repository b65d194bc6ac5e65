package httpserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
)

const msgUpstreamUnavailable = "Upstream service unavailable."

// upstream is one backend service the gateway forwards to.
type upstream struct {
	Name        string
	Target      string
	StripPrefix string
}

var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 60 * time.Second,
	}).DialContext,
	MaxIdleConns:          200,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// handler forwards to the upstream keeping the client's Host, so services
// that build absolute URLs from the request point back at the gateway.
func (up upstream) handler() (echo.HandlerFunc, error) {
	target, err := url.Parse(up.Target)
	if err != nil {
		return nil, fmt.Errorf("%s upstream url: %w", up.Name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s upstream url %q: scheme and host required", up.Name, up.Target)
	}

	p := &httputil.ReverseProxy{
		Transport:     sharedTransport,
		FlushInterval: 100 * time.Millisecond,
		Rewrite: func(pr *httputil.ProxyRequest) {
			proto := pr.In.Header.Get("X-Forwarded-Proto")
			host := pr.In.Header.Get("X-Forwarded-Host")

			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, up.StripPrefix)
			pr.Out.URL.RawPath = ""
			if up.StripPrefix != "" && pr.In.URL.RawPath != "" {
				pr.Out.URL.RawPath = strings.TrimPrefix(pr.In.URL.RawPath, up.StripPrefix)
			}
			pr.SetURL(target)
			pr.Out.Host = pr.In.Host

			pr.Out.Header["X-Forwarded-For"] = pr.In.Header["X-Forwarded-For"]
			pr.SetXForwarded()
			if proto != "" {
				pr.Out.Header.Set("X-Forwarded-Proto", proto)
			}
			if host != "" {
				pr.Out.Header.Set("X-Forwarded-Host", host)
			}
		},
		ModifyResponse: func(res *http.Response) error {
			metrics.RecordProxy(up.Name, strconv.Itoa(res.StatusCode))
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			metrics.RecordProxy(up.Name, "unavailable")
			logging.FromContext(r.Context()).Error("proxy_failed",
				"upstream", up.Name, "target", target.Host, "path", r.URL.Path, "status", http.StatusBadGateway, "error", err)
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": msgUpstreamUnavailable})
		},
	}

	return func(c echo.Context) error {
		p.ServeHTTP(c.Response(), c.Request())
		return nil
	}, nil
}
