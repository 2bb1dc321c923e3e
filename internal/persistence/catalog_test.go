package persistence_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

type recordingCatalog struct {
	calls   []string
	failOn  string
	failErr error
}

func (r *recordingCatalog) record(call string) error {
	r.calls = append(r.calls, call)
	if call == r.failOn {
		return r.failErr
	}
	return nil
}

func (r *recordingCatalog) CreateClass(_ context.Context, c scheduler.Class) error {
	return r.record("class:" + c.ID)
}

func (r *recordingCatalog) CreateSubject(_ context.Context, s persistence.Subject) error {
	return r.record("subject:" + s.ID)
}

func (r *recordingCatalog) CreateTeacher(_ context.Context, t persistence.Teacher) error {
	return r.record("teacher:" + t.ID)
}

func (r *recordingCatalog) AssignSubject(_ context.Context, a scheduler.SubjectAssignment) error {
	return r.record("assignment:" + a.ID)
}

func (r *recordingCatalog) EnrollStudent(_ context.Context, s persistence.Student) error {
	return r.record("student:" + s.ID)
}

func TestCatalogWriteOrder(t *testing.T) {
	t.Parallel()

	catalog := persistence.Catalog{
		Students:    []persistence.Student{{ID: "st-1", ClassID: "C1"}},
		Assignments: []scheduler.SubjectAssignment{{ID: "CS-1", ClassID: "C1", SubjectID: "math"}},
		Teachers:    []persistence.Teacher{{ID: "T1"}},
		Subjects:    []persistence.Subject{{ID: "math"}},
		Classes:     []scheduler.Class{{ID: "C1"}},
	}

	repo := &recordingCatalog{}
	if err := catalog.Write(context.Background(), repo); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	want := "class:C1,subject:math,teacher:T1,assignment:CS-1,student:st-1"
	if got := strings.Join(repo.calls, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestCatalogWriteStopsAtFirstError(t *testing.T) {
	t.Parallel()

	catalog := persistence.Catalog{
		Subjects: []persistence.Subject{{ID: "math"}, {ID: "sci"}},
		Teachers: []persistence.Teacher{{ID: "T1"}},
	}
	repo := &recordingCatalog{failOn: "subject:math", failErr: persistence.ErrDuplicate}

	err := catalog.Write(context.Background(), repo)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if !strings.Contains(err.Error(), "subject math") {
		t.Fatalf("expected error to name the subject, got %q", err.Error())
	}
	if len(repo.calls) != 1 {
		t.Fatalf("expected writing to stop after the failure, got %v", repo.calls)
	}
}
