package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	metrics := NewMetrics()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := WithRequestLogging(inner, discardLogger(), metrics)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	reqID := rec.Header().Get("X-Request-Id")
	if len(reqID) != 26 {
		t.Fatalf("X-Request-Id = %q, want a 26-char ULID", reqID)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "418")); got != 1 {
		t.Fatalf("http requests counter = %v, want 1", got)
	}
}

func TestRequestLoggingDefaultsStatusOK(t *testing.T) {
	metrics := NewMetrics()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hi")
	})
	h := WithRequestLogging(inner, discardLogger(), metrics)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodPost, "200")); got != 1 {
		t.Fatalf("http requests counter = %v, want 1", got)
	}
}

func TestLoggingResponseWriterPreservesFlusher(t *testing.T) {
	flushed := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
			flushed = true
		}
	})
	h := WithRequestLogging(inner, discardLogger(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if !flushed {
		t.Fatal("wrapped writer lost the Flusher interface")
	}
}

func TestLoggingResponseWriterReadFrom(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rf, ok := w.(io.ReaderFrom)
		if !ok {
			t.Fatal("wrapped writer lost io.ReaderFrom")
		}
		if _, err := rf.ReadFrom(strings.NewReader("payload")); err != nil {
			t.Fatalf("ReadFrom: %v", err)
		}
	})
	h := WithRequestLogging(inner, discardLogger(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file", nil))
	if rec.Body.String() != "payload" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "payload")
	}
}
