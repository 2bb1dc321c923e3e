package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

var (
	containerCounter uint64
	slotCounter      uint64
)

// referenceTime is the first Monday of the 2025 school year.
var referenceTime = time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Catalog fixtures -----------------------------

// SchoolCatalog returns two classes sharing three subjects. T1 teaches
// mathematics to both classes, which makes cross-class teacher conflicts easy
// to provoke.
func SchoolCatalog() persistence.Catalog {
	return persistence.Catalog{
		Classes: []scheduler.Class{
			{ID: "C1", Name: "Form 1A", AcademicYear: "2025"},
			{ID: "C2", Name: "Form 1B", AcademicYear: "2025"},
		},
		Subjects: []persistence.Subject{
			{ID: "math", Code: "MATH", Name: "Mathematics"},
			{ID: "sci", Code: "SCI", Name: "Science"},
			{ID: "eng", Code: "ENG", Name: "English"},
		},
		Teachers: []persistence.Teacher{
			{ID: "T1", UserID: "u-t1", Name: "Ada Lovelace"},
			{ID: "T2", UserID: "u-t2", Name: "Marie Curie"},
			{ID: "T3", UserID: "u-t3", Name: "Chinua Achebe"},
		},
		Assignments: []scheduler.SubjectAssignment{
			{ID: "CS-1-math", ClassID: "C1", SubjectID: "math", TeacherID: "T1"},
			{ID: "CS-1-sci", ClassID: "C1", SubjectID: "sci", TeacherID: "T2"},
			{ID: "CS-1-eng", ClassID: "C1", SubjectID: "eng", TeacherID: "T3"},
			{ID: "CS-2-math", ClassID: "C2", SubjectID: "math", TeacherID: "T1"},
			{ID: "CS-2-sci", ClassID: "C2", SubjectID: "sci", TeacherID: "T2"},
		},
		Students: []persistence.Student{
			{ID: "st-1", UserID: "u-s1", ClassID: "C1", Name: "Amina"},
			{ID: "st-2", UserID: "u-s2", ClassID: "C1", Name: "Baraka"},
			{ID: "st-3", UserID: "u-s3", ClassID: "C2", Name: "Chidi"},
		},
	}
}

// SeedCatalog writes catalog through repo, failing the test on the first error.
func SeedCatalog(tb testing.TB, repo persistence.CatalogRepository, catalog persistence.Catalog) {
	tb.Helper()
	if err := catalog.Write(context.Background(), repo); err != nil {
		tb.Fatalf("failed to seed catalog: %v", err)
	}
}

// --------------------------- Container fixtures ----------------------------

// ContainerOption configures the generated container fixture.
type ContainerOption func(*scheduler.Container)

// NewContainerFixture returns a draft container of the given kind spanning
// the 2025/26 school year.
func NewContainerFixture(kind scheduler.Kind, opts ...ContainerOption) scheduler.Container {
	idx := atomic.AddUint64(&containerCounter, 1)
	container := scheduler.Container{
		ID:           fmt.Sprintf("container-%03d", idx),
		Kind:         kind,
		Name:         fmt.Sprintf("%s %03d", kind, idx),
		AcademicYear: "2025",
		StartDate:    time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC),
		Status:       scheduler.StatusDraft,
		CreatedBy:    "u-admin",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&container)
	}
	return container
}

// WithContainerID overrides the generated container ID.
func WithContainerID(id string) ContainerOption {
	return func(c *scheduler.Container) {
		c.ID = id
	}
}

// WithContainerClass binds the container to a class.
func WithContainerClass(classID string) ContainerOption {
	return func(c *scheduler.Container) {
		c.ClassID = classID
	}
}

// WithContainerStatus sets the lifecycle status.
func WithContainerStatus(status scheduler.Status) ContainerOption {
	return func(c *scheduler.Container) {
		c.Status = status
	}
}

// WithContainerName overrides the generated name.
func WithContainerName(name string) ContainerOption {
	return func(c *scheduler.Container) {
		c.Name = name
	}
}

// ------------------------------ Slot fixtures ------------------------------

// SlotOption configures the generated slot fixture.
type SlotOption func(*scheduler.Slot)

// NewSlotFixture returns a slot in container keyed by key. The kind follows
// the key: recurring keys make timetable slots, dated keys exam slots.
func NewSlotFixture(containerID string, key scheduler.TemporalKey, opts ...SlotOption) scheduler.Slot {
	idx := atomic.AddUint64(&slotCounter, 1)
	kind := scheduler.KindExam
	if key.Recurring() {
		kind = scheduler.KindTimetable
	}
	slot := scheduler.Slot{
		ID:          fmt.Sprintf("slot-%03d", idx),
		ContainerID: containerID,
		Kind:        kind,
		SubjectID:   "math",
		Key:         key,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&slot)
	}
	return slot
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(s *scheduler.Slot) {
		s.ID = id
	}
}

// WithSlotKind overrides the kind derived from the key.
func WithSlotKind(kind scheduler.Kind) SlotOption {
	return func(s *scheduler.Slot) {
		s.Kind = kind
	}
}

// WithSlotResources binds teacher, room and class. Empty values stay unbound.
func WithSlotResources(teacherID, roomID, classID string) SlotOption {
	return func(s *scheduler.Slot) {
		s.TeacherID = teacherID
		s.RoomID = roomID
		s.ClassID = classID
	}
}

// WithSlotSubject overrides the subject.
func WithSlotSubject(subjectID string) SlotOption {
	return func(s *scheduler.Slot) {
		s.SubjectID = subjectID
	}
}

// Window parses "HH:MM" bounds, panicking on malformed input.
func Window(start, end string) scheduler.Window {
	w, err := scheduler.NewWindow(start, end)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: window %s-%s: %v", start, end, err))
	}
	return w
}
