package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/metrics"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusFor(t *testing.T) {
	down := models.UnavailableError{Op: "read", Err: errors.New("timeout")}
	tests := []struct {
		name   string
		method string
		err    error
		want   int
	}{
		{"validation", http.MethodPost, models.ValidationError{Field: "email"}, http.StatusBadRequest},
		{"forbidden", http.MethodGet, models.ForbiddenError{}, http.StatusForbidden},
		{"not found", http.MethodGet, fmt.Errorf("load: %w", models.NotFoundError{Resource: "booking"}), http.StatusNotFound},
		{"conflict", http.MethodPost, models.ConflictError{Resource: "booking"}, http.StatusConflict},
		{"read outage", http.MethodGet, down, http.StatusServiceUnavailable},
		{"head outage", http.MethodHead, down, http.StatusServiceUnavailable},
		{"write outage", http.MethodPost, down, http.StatusBadGateway},
		{"unknown", http.MethodGet, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.method, tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		id, _ := c.Get("request_id")
		c.String(http.StatusOK, id.(string))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-ID") == "" || w.Body.String() != w.Header().Get("X-Request-ID") {
		t.Errorf("expected generated request id, header %q body %q", w.Header().Get("X-Request-ID"), w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("incoming request id must be kept, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(testLogger()))
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(models.NotFoundError{Resource: "booking"})
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("nil pointer somewhere"))
	})
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("already answered"))
		c.JSON(http.StatusTeapot, gin.H{"ok": false})
	})

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/missing", http.StatusNotFound, "booking not found"},
		{"/boom", http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, w.Code)
		}
		var res models.ApiResponse
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("%s: decode: %v", tt.path, err)
		}
		if res.Success || res.Error != tt.message || res.RequestID == "" {
			t.Errorf("%s: unexpected body %+v", tt.path, res)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("a written response must be left alone, got %d", w.Code)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New("test")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/bookings/:kind/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/bookings/promo/1", "/bookings/trip/2", "/fail", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/bookings/:kind/:id", "200")); got != 2 {
		t.Errorf("requests must be labelled by route template, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected one unmatched request, got %v", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("http")); got != 1 {
		t.Errorf("expected one server error, got %v", got)
	}
}
