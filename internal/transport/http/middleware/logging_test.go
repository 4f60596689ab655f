package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	r := chi.NewRouter()
	r.Use(Logger)
	r.Get("/leave/requests/{requestID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leave/requests/abc123", nil))

	line := strings.TrimSpace(buf.String())
	idx := strings.Index(line, "{")
	if idx < 0 {
		t.Fatalf("no JSON in log line %q", line)
	}
	var entry struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Route  string `json:"route"`
		Status int    `json:"status"`
		Bytes  int    `json:"bytes"`
	}
	if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry.Route != "/leave/requests/{requestID}" {
		t.Errorf("route = %q, want the matched pattern", entry.Route)
	}
	if entry.Path != "/leave/requests/abc123" {
		t.Errorf("path = %q", entry.Path)
	}
	if entry.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", entry.Status)
	}
	if entry.Bytes == 0 {
		t.Error("bytes written not recorded")
	}
}

func TestBodyLimitRejectsOversizedBody(t *testing.T) {
	handler := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v any
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	big := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"`+strings.Repeat("x", 64)+`"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: status = %d, want 413", rec.Code)
	}

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body: status = %d, want 200", rec.Code)
	}

	// GET bodies are not capped.
	get := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(strings.Repeat("x", 64)))
	rec = httptest.NewRecorder()
	BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Errorf("get: status = %d, want 200", rec.Code)
	}
}
