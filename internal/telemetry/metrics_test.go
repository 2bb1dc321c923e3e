package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/academic-scheduler/internal/scheduler"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/containers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/containers/abc", nil))

	got := testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues(http.MethodGet, "/containers/{id}", "418"))
	if got != 1 {
		t.Fatalf("expected 1 request recorded, got %v", got)
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ConflictsTotal.WithLabelValues("timetable", "teacher").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `scheduler_conflicts_total{kind="timetable",resource="teacher"} 2`) {
		t.Fatalf("expected conflicts counter in exposition, got:\n%s", body)
	}
}

func TestRecorderMethods(t *testing.T) {
	t.Parallel()

	m := New()
	m.ConflictsDetected(scheduler.KindExam, []scheduler.Conflict{{Type: scheduler.ResourceRoom}, {Type: scheduler.ResourceTeacher}})
	m.SlotCommitted(scheduler.KindTimetable, "generated")
	m.NotificationDelivered("exam_scheduled", errors.New("boom"))
	m.NotificationDelivered("exam_scheduled", nil)

	if got := testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("exam", "room")); got != 1 {
		t.Fatalf("expected 1 room conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.SlotsCommittedTotal.WithLabelValues("timetable", "generated")); got != 1 {
		t.Fatalf("expected 1 committed slot, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("exam_scheduled", "failed")); got != 1 {
		t.Fatalf("expected 1 failed notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("exam_scheduled", "sent")); got != 1 {
		t.Fatalf("expected 1 sent notification, got %v", got)
	}
}
