package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type panicHandler struct{}

func (panicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/boom", func(c echo.Context) error {
		panic("unexpected fault")
	})
	e.GET("/ok", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func TestRecoverConvertsPanicToGenericError(t *testing.T) {
	s := NewServer(panicHandler{})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != http.StatusInternalServerError || body.Message != "Internal Server Error" {
		t.Errorf("generic error body %+v", body)
	}
	if strings.Contains(rec.Body.String(), "unexpected fault") {
		t.Error("panic value leaked into the response body")
	}
}

func TestServerStillServesAfterPanic(t *testing.T) {
	s := NewServer(panicHandler{})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	s.Echo().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d after recovered panic, want 200", rec.Code)
	}
}

func TestMetricsEndpointToggle(t *testing.T) {
	s := NewServer(nil, WithMetrics(false, ""))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d with metrics disabled, want 404", rec.Code)
	}
}
