package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/academic-scheduler/internal/application"
)

func TestIdentifyPrincipal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         string
		role           string
		expectedStatus int
		expected       application.Principal
	}{
		{
			name:           "anonymous request continues",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "role is case insensitive",
			userID:         " t-1 ",
			role:           "Teacher",
			expectedStatus: http.StatusOK,
			expected:       application.Principal{UserID: "t-1", Role: application.RoleTeacher},
		},
		{
			name:           "unknown role is rejected",
			userID:         "x",
			role:           "janitor",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var captured application.Principal
			handler := IdentifyPrincipal(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := PrincipalFromContext(r.Context())
				if !ok {
					t.Fatalf("expected principal in request context")
				}
				captured = p
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/containers", nil)
			if tc.userID != "" {
				req.Header.Set("X-User-ID", tc.userID)
			}
			if tc.role != "" {
				req.Header.Set("X-User-Role", tc.role)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, rec.Code)
			}
			if captured != tc.expected {
				t.Fatalf("expected principal %+v, got %+v", tc.expected, captured)
			}
		})
	}
}

func TestRequestLoggerRecordsOutcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	router := NewRouter(RouterConfig{Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := buf.String()
	for _, want := range []string{"request completed", "status=200", "path=/healthz", "request_id="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got %q", want, out)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("scheduler_up 1\n"))
	})})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "scheduler_up") {
		t.Fatalf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}
}
