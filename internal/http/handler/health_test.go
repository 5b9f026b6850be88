package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestLivenessOK(t *testing.T) {
	hh := &HealthHandler{pingTimeout: time.Second}
	r := gin.New()
	r.GET("/health/live", hh.Liveness)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
}

func TestReadinessAllUp(t *testing.T) {
	hh := &HealthHandler{pg: fakePinger{}, redis: fakePinger{}, pingTimeout: time.Second}
	r := gin.New()
	r.GET("/health/ready", hh.Readiness)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
}

func TestReadinessFailDeps(t *testing.T) {
	hh := &HealthHandler{
		pg:          fakePinger{},
		redis:       fakePinger{err: errors.New("redis down")},
		pingTimeout: time.Second,
	}
	r := gin.New()
	r.GET("/health/ready", hh.Readiness)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", w.Code)
	}
}

func TestReadinessSkipsNilDeps(t *testing.T) {
	hh := &HealthHandler{pingTimeout: time.Second}
	r := gin.New()
	r.GET("/health/ready", hh.Readiness)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("nil deps should not fail readiness, got %d", w.Code)
	}
}
