package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/scheduler"
)

func examFixture() *memStore {
	store := newMemStore()
	store.addClass("5", "Form 5")
	store.addClass("6", "Form 6")
	store.addContainer(scheduler.Container{ID: "E1", Kind: scheduler.KindExam, Name: "Midterm", Status: scheduler.StatusDraft})
	day := time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC)
	add := func(id, classID string, start, end string) {
		store.addSlot(scheduler.Slot{ID: id, ContainerID: "E1", ClassID: classID, SubjectID: "math", Key: scheduler.Dated(day, mustWindow(start, end))})
	}
	add("x1", "5", "09:00", "11:00")
	add("x2", "5", "13:00", "15:00")
	add("x3", "6", "09:00", "11:00")
	add("x4", "", "16:00", "17:00")
	return store
}

func TestLifecycleService_ScenarioC(t *testing.T) {
	t.Parallel()

	store := examFixture()
	notifier := &notifierStub{}
	metrics := newMetricsStub()
	svc := NewLifecycleService(store, notifier, metrics, fixedNow)

	container, err := svc.Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if container.Status != scheduler.StatusPublished || store.containers["E1"].Status != scheduler.StatusPublished {
		t.Fatalf("expected published status, got %s", container.Status)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected one notification per class, got %d", len(notifier.sent))
	}
	first, second := notifier.sent[0], notifier.sent[1]
	if first.ClassID != "5" || first.Message != "The Midterm timetable has been published. You have 2 exam(s) scheduled." {
		t.Fatalf("unexpected first notification %+v", first)
	}
	if second.ClassID != "6" || second.Message != "The Midterm timetable has been published. You have 1 exam(s) scheduled." {
		t.Fatalf("unexpected second notification %+v", second)
	}
	for _, n := range notifier.sent {
		if n.Event != notify.EventExamScheduled || n.Title != "Exam Timetable Published" || n.RelatedID != "E1" {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
	if len(store.slots) != 4 {
		t.Fatalf("expected publishing to leave slots alone")
	}
	if metrics.transitions[scheduler.StatusPublished] != 1 {
		t.Fatalf("expected transition to be counted, got %v", metrics.transitions)
	}

	_, err = svc.Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"})
	var sErr *StateError
	if !errors.As(err, &sErr) || sErr.Status != scheduler.StatusPublished {
		t.Fatalf("expected StateError on second publish, got %v", err)
	}
}

func TestLifecycleService_PublishAssessment(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addContainer(scheduler.Container{ID: "A1", Kind: scheduler.KindAssessment, Name: "Coursework", Status: scheduler.StatusDraft})
	store.addSlot(scheduler.Slot{ID: "a1", ContainerID: "A1", ClassID: "C1", Key: scheduler.DueOn(time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC))})
	notifier := &notifierStub{err: errors.New("smtp down")}

	if _, err := NewLifecycleService(store, notifier, nil, fixedNow).Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "A1"}); err != nil {
		t.Fatalf("expected notification failures to be swallowed, got %v", err)
	}
	n := notifier.sent[0]
	if n.Event != notify.EventAssessmentDue || n.Message != "The Coursework timetable has been published. You have 1 assessment(s) assigned." {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestLifecycleService_PublishRejections(t *testing.T) {
	t.Parallel()

	store := timetableFixture()
	svc := NewLifecycleService(store, nil, nil, fixedNow)

	var sErr *StateError
	if _, err := svc.Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "K1"}); !errors.As(err, &sErr) {
		t.Fatalf("expected StateError when publishing a timetable, got %v", err)
	}
	if _, err := svc.Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Publish(context.Background(), ContainerActionParams{Principal: student, ContainerID: "K1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLifecycleService_ScenarioD(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addClass("C", "Form 4")
	store.addContainer(scheduler.Container{ID: "K1", Kind: scheduler.KindTimetable, Name: "Form 4 timetable", ClassID: "C", Status: scheduler.StatusActive})
	store.addContainer(scheduler.Container{ID: "K2", Kind: scheduler.KindTimetable, Name: "Form 4 timetable", ClassID: "C", Status: scheduler.StatusDraft})
	store.addContainer(scheduler.Container{ID: "K3", Kind: scheduler.KindTimetable, ClassID: "other", Status: scheduler.StatusActive})
	notifier := &notifierStub{}
	svc := NewLifecycleService(store, notifier, nil, fixedNow)

	container, err := svc.Activate(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "K2"})
	if err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if container.Status != scheduler.StatusActive {
		t.Fatalf("expected K2 active, got %s", container.Status)
	}
	if store.containers["K1"].Status != scheduler.StatusArchived {
		t.Fatalf("expected K1 archived, got %s", store.containers["K1"].Status)
	}
	if store.containers["K3"].Status != scheduler.StatusActive {
		t.Fatalf("expected other classes to be untouched")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Event != notify.EventTimetableActivated || notifier.sent[0].ClassID != "C" {
		t.Fatalf("unexpected notifications %+v", notifier.sent)
	}

	again, err := svc.Activate(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "K2"})
	if err != nil {
		t.Fatalf("expected repeated activation to succeed, got %v", err)
	}
	if again.Status != scheduler.StatusActive || store.containers["K1"].Status != scheduler.StatusArchived {
		t.Fatalf("expected repeated activation to change nothing")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected no second notification, got %d", len(notifier.sent))
	}

	var sErr *StateError
	if _, err := svc.Activate(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "K1"}); !errors.As(err, &sErr) {
		t.Fatalf("expected archived timetable activation to fail, got %v", err)
	}
}

func TestLifecycleService_ActivateRejectsExams(t *testing.T) {
	t.Parallel()

	svc := NewLifecycleService(examFixture(), nil, nil, fixedNow)
	var sErr *StateError
	if _, err := svc.Activate(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"}); !errors.As(err, &sErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestLifecycleService_Archive(t *testing.T) {
	t.Parallel()

	store := examFixture()
	svc := NewLifecycleService(store, nil, nil, fixedNow)

	container, err := svc.Archive(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"})
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if container.Status != scheduler.StatusArchived || !container.UpdatedAt.Equal(fixedNow()) {
		t.Fatalf("unexpected container %+v", container)
	}

	var sErr *StateError
	if _, err := svc.Archive(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"}); !errors.As(err, &sErr) {
		t.Fatalf("expected StateError when archiving twice, got %v", err)
	}
	if _, err := svc.Publish(context.Background(), ContainerActionParams{Principal: admin, ContainerID: "E1"}); !errors.As(err, &sErr) {
		t.Fatalf("expected archived containers never to return to a live state, got %v", err)
	}
}
