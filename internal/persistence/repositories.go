package persistence

import (
	"context"
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// ContainerFilter narrows container listings. Empty fields match anything.
type ContainerFilter struct {
	Kind         scheduler.Kind
	ClassID      string
	AcademicYear string
	Status       scheduler.Status
}

// ClassSlotFilter selects the slots a class takes part in across
// containers. AcademicYear may be empty.
type ClassSlotFilter struct {
	ClassID      string
	Kind         scheduler.Kind
	AcademicYear string
	Status       scheduler.Status
}

// ContainerRepository stores schedule containers.
type ContainerRepository interface {
	CreateContainer(ctx context.Context, container scheduler.Container) error
	GetContainer(ctx context.Context, id string) (scheduler.Container, error)
	ListContainers(ctx context.Context, filter ContainerFilter) ([]scheduler.Container, error)
	DeleteContainer(ctx context.Context, id string) error
	// TransitionContainer moves a container to status to only if its
	// current status is one of from. It reports whether a row changed.
	TransitionContainer(ctx context.Context, id string, from []scheduler.Status, to scheduler.Status, at time.Time) (bool, error)
	ActiveTimetableForClass(ctx context.Context, classID string) (scheduler.Container, error)
	// ArchiveActiveTimetables archives every active timetable of the class
	// other than exceptID.
	ArchiveActiveTimetables(ctx context.Context, classID, exceptID string, at time.Time) (int64, error)
}

// SlotRepository stores slots and answers the conflict lookups.
type SlotRepository interface {
	InsertSlot(ctx context.Context, slot scheduler.Slot) error
	UpdateSlot(ctx context.Context, slot scheduler.Slot) error
	GetSlot(ctx context.Context, id string) (scheduler.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
	// ListSlotsForContainer orders by weekday or date, then start time.
	ListSlotsForContainer(ctx context.Context, containerID string) ([]scheduler.Slot, error)
	// FindBookings returns timed slots of the query's kind that share its
	// temporal bucket and bind the queried resource. Slots of archived
	// containers are retired and never returned.
	FindBookings(ctx context.Context, query scheduler.BookingQuery) ([]scheduler.Booking, error)
	// ListClassSlots returns the class's slots in containers of the filter's
	// kind and status, ordered by date, start time and id.
	ListClassSlots(ctx context.Context, filter ClassSlotFilter) ([]scheduler.Slot, error)
}

// ClassDirectory reads the academic catalog the scheduler works against.
type ClassDirectory interface {
	GetClass(ctx context.Context, id string) (scheduler.Class, error)
	ListSubjectAssignments(ctx context.Context, classID string) ([]scheduler.SubjectAssignment, error)
	StudentUserIDs(ctx context.Context, classID string) ([]string, error)
}

// CatalogRepository writes the academic catalog.
type CatalogRepository interface {
	CreateClass(ctx context.Context, class scheduler.Class) error
	CreateSubject(ctx context.Context, subject Subject) error
	CreateTeacher(ctx context.Context, teacher Teacher) error
	AssignSubject(ctx context.Context, assignment scheduler.SubjectAssignment) error
	EnrollStudent(ctx context.Context, student Student) error
}

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	InsertNotifications(ctx context.Context, notifications []Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error)
}

// ScheduleStore is the set of operations available inside one unit of work.
type ScheduleStore interface {
	ContainerRepository
	SlotRepository
	ClassDirectory
}

// Store runs units of work. Slot writes are only reachable through Atomic,
// so every write can be paired with its conflict lookup.
type Store interface {
	ContainerRepository
	ClassDirectory
	GetSlot(ctx context.Context, id string) (scheduler.Slot, error)
	ListSlotsForContainer(ctx context.Context, containerID string) ([]scheduler.Slot, error)
	FindBookings(ctx context.Context, query scheduler.BookingQuery) ([]scheduler.Booking, error)
	ListClassSlots(ctx context.Context, filter ClassSlotFilter) ([]scheduler.Slot, error)
	Atomic(ctx context.Context, fn func(tx ScheduleStore) error) error
}
