package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/config"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
)

func newTestServer(d deps.Deps) http.Handler {
	return New(&config.Config{ListenPort: ":0"}, logger.Nop(), d).Handler()
}

func baseDeps() deps.Deps {
	return deps.Deps{
		Logger:      logger.Nop(),
		StartTime:   time.Now(),
		MemoryIndex: index.NewMemoryIndex(),
		RunTrigger:  func(monitor.RunOptions) bool { return true },
	}
}

func serve(h http.Handler, method, target string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesAreRegistered(t *testing.T) {
	h := newTestServer(baseDeps())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/activities", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodPost, "/api/run", http.StatusAccepted},
		{http.MethodPost, "/api/dispatch", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/run", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/search", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMetricsExposeRunCounters(t *testing.T) {
	h := newTestServer(baseDeps())
	rec := serve(h, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), "duewatch_run_duration_seconds") {
		t.Error("metrics output lacks the run duration histogram")
	}
}

func TestAPIRestrictedByCIDR(t *testing.T) {
	d := baseDeps()
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	d.TrustProxy = false
	h := newTestServer(d)

	outside := func(r *http.Request) { r.RemoteAddr = "192.168.1.5:5000" }
	inside := func(r *http.Request) { r.RemoteAddr = "10.1.2.3:5000" }

	if rec := serve(h, http.MethodGet, "/api/activities", outside); rec.Code != http.StatusForbidden {
		t.Errorf("outside status = %d, want 403", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/activities", inside); rec.Code != http.StatusOK {
		t.Errorf("inside status = %d, want 200", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/healthz", outside); rec.Code != http.StatusOK {
		t.Errorf("healthz stays public, got %d", rec.Code)
	}
}

func TestAPIRestrictedByHost(t *testing.T) {
	d := baseDeps()
	d.AllowedHosts = []string{"*.example.com"}
	h := newTestServer(d)

	if rec := serve(h, http.MethodGet, "/api/status", func(r *http.Request) { r.Host = "evil.test" }); rec.Code != http.StatusForbidden {
		t.Errorf("foreign host status = %d, want 403", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/status", func(r *http.Request) { r.Host = "watch.example.com" }); rec.Code != http.StatusOK {
		t.Errorf("allowed host status = %d, want 200", rec.Code)
	}
}

func TestRunEndpointIsRateLimited(t *testing.T) {
	h := newTestServer(baseDeps())

	var limited bool
	for i := 0; i < 10; i++ {
		if rec := serve(h, http.MethodPost, "/api/run", nil); rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") == "" {
				t.Error("missing Retry-After header")
			}
			break
		}
	}
	if !limited {
		t.Error("ten quick triggers were never limited")
	}
}
