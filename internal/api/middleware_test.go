package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		method     string
		wantStatus int
		wantInner  bool
	}{
		{http.MethodGet, http.StatusOK, true},
		{http.MethodPatch, http.StatusOK, true},
		{http.MethodOptions, http.StatusNoContent, false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			inner := false
			h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inner = true
			}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/lists", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if inner != tt.wantInner {
				t.Errorf("inner handler called = %v, want %v", inner, tt.wantInner)
			}
			for header, want := range map[string]string{
				"Access-Control-Allow-Origin":   "*",
				"Access-Control-Allow-Methods":  "GET, POST, PATCH, DELETE, OPTIONS",
				"Access-Control-Allow-Headers":  "Content-Type, X-Request-Id",
				"Access-Control-Expose-Headers": "X-Request-Id",
			} {
				if got := w.Header().Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Run("panic becomes JSON 500", func(t *testing.T) {
		h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("lista corrompida")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/lists/x", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("normal response untouched", func(t *testing.T) {
		h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte("ok"))
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusAccepted || w.Body.String() != "ok" {
			t.Errorf("got %d %q", w.Code, w.Body.String())
		}
	})
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/lists", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantLevel string
		wantCode  float64
		wantBytes float64
	}{
		{
			name:      "implicit 200",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"status":"ok"}`)) },
			wantLevel: "INFO",
			wantCode:  200,
			wantBytes: 15,
		},
		{
			name:      "server error",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantLevel: "WARN",
			wantCode:  502,
			wantBytes: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			RequestLogger(tt.handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decoding log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel || entry["status"] != tt.wantCode || entry["bytes"] != tt.wantBytes {
				t.Errorf("log entry = %v", entry)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := middleware.RequestID(RequestIDHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header not set")
	}
}
