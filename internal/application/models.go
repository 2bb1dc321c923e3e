package application

import "github.com/example/academic-scheduler/internal/scheduler"

// Role is the coarse permission level of the acting user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Principal represents the authenticated actor initiating an operation.
type Principal struct {
	UserID string
	Role   Role
}

// CanManageSchedules reports whether the principal may create or change
// containers and slots.
func (p Principal) CanManageSchedules() bool {
	return p.UserID != "" && (p.Role == RoleAdmin || p.Role == RoleTeacher)
}

// ContainerInput carries the fields needed to open a scheduling campaign.
type ContainerInput struct {
	Kind         string `json:"kind" validate:"required,oneof=timetable exam assessment"`
	Name         string `json:"name" validate:"max=200"`
	Category     string `json:"category" validate:"max=100"`
	ClassID      string `json:"class_id" validate:"required_if=Kind timetable"`
	AcademicYear string `json:"academic_year" validate:"required,notblank,max=20"`
	Semester     string `json:"semester" validate:"max=20"`
	StartDate    string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// SlotInput carries one slot as submitted by a client. The temporal fields
// required depend on the container kind.
type SlotInput struct {
	SubjectID      string `json:"subject_id" validate:"required"`
	ClassSubjectID string `json:"class_subject_id"`
	ClassID        string `json:"class_id"`
	TeacherID      string `json:"teacher_id"`
	RoomID         string `json:"room_id" validate:"max=100"`
	DayOfWeek      string `json:"day_of_week"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	DueDate        string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	MaxStudents    *int   `json:"max_students" validate:"omitempty,min=1"`
	Notes          string `json:"notes" validate:"max=2000"`
}

// GenerateParams requests a first-draft weekly timetable for a class.
type GenerateParams struct {
	Principal    Principal `json:"-"`
	ClassID      string    `json:"class_id" validate:"required"`
	AcademicYear string    `json:"academic_year" validate:"required,notblank,max=20"`
	Semester     string    `json:"semester" validate:"max=20"`
	StartDate    string    `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string    `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Seed         *uint64   `json:"seed"`
}

// CheckParams asks whether a slot could be committed to a container.
type CheckParams struct {
	ContainerID   string    `json:"-"`
	Slot          SlotInput `json:"slot"`
	ExcludeSlotID string    `json:"exclude_slot_id"`
}

// CreateContainerParams wraps container creation input with the acting principal.
type CreateContainerParams struct {
	Principal Principal
	Input     ContainerInput
}

// ContainerActionParams names a container and the actor changing it.
type ContainerActionParams struct {
	Principal   Principal
	ContainerID string
}

// AddSlotParams appends a slot to a container.
type AddSlotParams struct {
	Principal   Principal
	ContainerID string
	Input       SlotInput
}

// UpdateSlotParams replaces the fields of a committed slot.
type UpdateSlotParams struct {
	Principal Principal
	SlotID    string
	Input     SlotInput
}

// DeleteSlotParams removes a slot.
type DeleteSlotParams struct {
	Principal Principal
	SlotID    string
}

// ContainerDetail is a container with its slots.
type ContainerDetail struct {
	Container scheduler.Container
	Slots     []scheduler.Slot
}

// RejectedSlot is a generated candidate that failed the conflict check.
type RejectedSlot struct {
	Slot      scheduler.Slot
	Conflicts []scheduler.Conflict
}

// GenerationResult summarises a generation run.
type GenerationResult struct {
	ContainerID  string
	SlotsCreated int
	Conflicts    []RejectedSlot
	// Shortfall maps class-subject ids to periods the grid could not hold.
	Shortfall map[string]int
	Message   string
}
