package testfixtures

import (
	"context"
	"testing"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/scheduler"
)

func TestServiceFactoryUsesDeterministicDefaults(t *testing.T) {
	harness := NewSeededHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("t1")))
	services := factory.NewServices(ServiceDeps{Store: harness.Store})

	container, err := services.Containers.CreateContainer(context.Background(), application.CreateContainerParams{
		Principal: application.Principal{UserID: "u-admin", Role: application.RoleAdmin},
		Input:     application.ContainerInput{Kind: "timetable", ClassID: "C1", AcademicYear: "2025"},
	})
	if err != nil {
		t.Fatalf("CreateContainer returned error: %v", err)
	}
	if container.ID != "t1-container-001" || !container.CreatedAt.Equal(ReferenceTime()) {
		t.Fatalf("unexpected container %+v", container)
	}
	if container.Name != "Form 1A timetable" || container.Status != scheduler.StatusDraft {
		t.Fatalf("unexpected container %+v", container)
	}
}

func TestSchoolCatalogIsReadable(t *testing.T) {
	harness := NewSeededHarness(t)
	ctx := context.Background()

	assignments, err := harness.Store.ListSubjectAssignments(ctx, "C1")
	if err != nil {
		t.Fatalf("ListSubjectAssignments returned error: %v", err)
	}
	if len(assignments) != 3 {
		t.Fatalf("expected three subjects for C1, got %d", len(assignments))
	}
	students, err := harness.Store.StudentUserIDs(ctx, "C2")
	if err != nil || len(students) != 1 || students[0] != "u-s3" {
		t.Fatalf("unexpected students %v (%v)", students, err)
	}
}
