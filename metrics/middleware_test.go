package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/patients/{patientId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/api/patients/PAT-001", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 to pass through, got %d", rec.Code)
	}

	// The labeled counter must exist for the pattern, not the raw path
	counter, err := HTTPRequestTotals.GetMetricWithLabelValues("GET", "/api/patients/{patientId}", "404")
	if err != nil || counter == nil {
		t.Errorf("Expected counter labeled by route pattern: %v", err)
	}
}

func TestMetricsMiddlewareOutsideRouter(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/bare", nil)
	rec := httptest.NewRecorder()

	// Must not panic without a chi route context
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestMetricsResponseWriterFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rec, statusCode: 200}

	var flusher http.Flusher = wrapped
	flusher.Flush()

	if !rec.Flushed {
		t.Error("Expected Flush to reach the underlying writer")
	}
}
