package scheduler

import "time"

// Kind distinguishes the three independent scheduling domains. Slots of
// different kinds never conflict with each other.
type Kind string

const (
	KindTimetable  Kind = "timetable"
	KindExam       Kind = "exam"
	KindAssessment Kind = "assessment"
)

// Kinds lists every schedule kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindTimetable, KindExam, KindAssessment}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTimetable, KindExam, KindAssessment:
		return true
	}
	return false
}

// Status is a container lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Container is a scheduling campaign holding slots of one kind.
type Container struct {
	ID           string
	Kind         Kind
	Name         string
	Category     string
	ClassID      string
	AcademicYear string
	Semester     string
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Covers reports whether date falls inside the container's inclusive date
// range. Unset bounds are open.
func (c Container) Covers(date time.Time) bool {
	d := TruncateDate(date)
	if !c.StartDate.IsZero() && d.Before(TruncateDate(c.StartDate)) {
		return false
	}
	if !c.EndDate.IsZero() && d.After(TruncateDate(c.EndDate)) {
		return false
	}
	return true
}

// Resources names the parties a slot occupies. Empty fields are unbound.
type Resources struct {
	TeacherID string `json:"teacher_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	ClassID   string `json:"class_id,omitempty"`
}

// Empty reports whether no resource is bound.
func (r Resources) Empty() bool {
	return r.TeacherID == "" && r.RoomID == "" && r.ClassID == ""
}

// Slot is one booking inside a container.
type Slot struct {
	ID             string
	ContainerID    string
	Kind           Kind
	SubjectID      string
	ClassSubjectID string
	ClassID        string
	TeacherID      string
	RoomID         string
	Key            TemporalKey
	DueDate        *time.Time
	MaxStudents    *int
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Resources returns the resources bound by the slot.
func (s Slot) Resources() Resources {
	return Resources{TeacherID: s.TeacherID, RoomID: s.RoomID, ClassID: s.ClassID}
}

// Booking is a committed slot enriched with display names for diagnostics.
type Booking struct {
	Slot
	ContainerName string
	ClassName     string
	SubjectName   string
}

// SubjectAssignment is a subject taught to a class, with the teacher bound
// to it and an optional home room.
type SubjectAssignment struct {
	ID             string
	ClassID        string
	SubjectID      string
	SubjectName    string
	SubjectCode    string
	TeacherID      string
	RoomID         string
	PeriodsPerWeek int
}

// Class is a cohort of students.
type Class struct {
	ID           string
	Name         string
	AcademicYear string
}
