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

func TestRouteLoggerTagsHandlerRouteAndPrincipal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := NewRouter(RouterConfig{
		Containers: NewContainerHandler(&containerServiceStub{}, &lifecycleStub{}, nil),
		Slots:      NewSlotHandler(&slotServiceStub{}, &conflictCheckerStub{}, nil),
		Logger:     logger,
	})

	rec := serve(t, router, http.MethodPost, "/containers/E1/conflicts", `{"slot":{"subject_id":"math"}}`, application.RoleTeacher)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "conflict check answered") {
			line = l
		}
	}
	for _, want := range []string{"handler=SlotHandler", "{containerID}/conflicts", "principal_id=u-1", "role=teacher", "container_id=E1", "conflicts=0", "request_id="} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestRouteLoggerFallsBackToBase(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	routeLogger(req, base, "HealthHandler").Info("checked")
	if got := buf.String(); !strings.Contains(got, "handler=HealthHandler") || strings.Contains(got, "route=") || strings.Contains(got, "principal_id") {
		t.Fatalf("expected only the handler attribute, got %q", got)
	}

	if routeLogger(req, nil, "Health") == nil {
		t.Fatalf("expected the default logger when no base is given")
	}
}
