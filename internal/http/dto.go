package http

import (
	"time"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/recurrence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

type containerDTO struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	ClassID      string `json:"class_id,omitempty"`
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Status       string `json:"status"`
	CreatedBy    string `json:"created_by,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toContainerDTO(c scheduler.Container) containerDTO {
	return containerDTO{
		ID:           c.ID,
		Kind:         string(c.Kind),
		Name:         c.Name,
		Category:     c.Category,
		ClassID:      c.ClassID,
		AcademicYear: c.AcademicYear,
		Semester:     c.Semester,
		StartDate:    formatDate(c.StartDate),
		EndDate:      formatDate(c.EndDate),
		Status:       string(c.Status),
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toContainerDTOs(containers []scheduler.Container) []containerDTO {
	out := make([]containerDTO, 0, len(containers))
	for _, c := range containers {
		out = append(out, toContainerDTO(c))
	}
	return out
}

type containerDetailResponse struct {
	Container containerDTO `json:"container"`
	Slots     []slotDTO    `json:"slots"`
}

func toContainerDetailResponse(detail application.ContainerDetail) containerDetailResponse {
	return containerDetailResponse{
		Container: toContainerDTO(detail.Container),
		Slots:     toSlotDTOs(detail.Slots),
	}
}

type slotDTO struct {
	ID             string `json:"id"`
	ContainerID    string `json:"container_id"`
	Kind           string `json:"kind"`
	SubjectID      string `json:"subject_id"`
	ClassSubjectID string `json:"class_subject_id,omitempty"`
	ClassID        string `json:"class_id,omitempty"`
	TeacherID      string `json:"teacher_id,omitempty"`
	RoomID         string `json:"room_id,omitempty"`
	DayOfWeek      string `json:"day_of_week,omitempty"`
	Date           string `json:"date,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	DueDate        string `json:"due_date,omitempty"`
	MaxStudents    *int   `json:"max_students,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func toSlotDTO(s scheduler.Slot) slotDTO {
	dto := slotDTO{
		ID:             s.ID,
		ContainerID:    s.ContainerID,
		Kind:           string(s.Kind),
		SubjectID:      s.SubjectID,
		ClassSubjectID: s.ClassSubjectID,
		ClassID:        s.ClassID,
		TeacherID:      s.TeacherID,
		RoomID:         s.RoomID,
		MaxStudents:    s.MaxStudents,
		Notes:          s.Notes,
	}
	if s.Key.Recurring() {
		dto.DayOfWeek = s.Key.Weekday.String()
	} else {
		dto.Date = formatDate(s.Key.Date)
	}
	if s.Key.Window != nil {
		dto.StartTime = s.Key.Window.Start.String()
		dto.EndTime = s.Key.Window.End.String()
	}
	if s.DueDate != nil {
		dto.DueDate = formatDate(*s.DueDate)
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339Nano)
		dto.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toSlotDTOs(slots []scheduler.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotDTO(s))
	}
	return out
}

type conflictDTO struct {
	Type          string  `json:"type"`
	ResourceID    string  `json:"resource_id"`
	Message       string  `json:"message"`
	Existing      slotDTO `json:"existing"`
	ContainerName string  `json:"container_name,omitempty"`
	ClassName     string  `json:"class_name,omitempty"`
	SubjectName   string  `json:"subject_name,omitempty"`
}

func toConflictDTOs(conflicts []scheduler.Conflict) []conflictDTO {
	out := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictDTO{
			Type:          string(c.Type),
			ResourceID:    c.ResourceID,
			Message:       c.Message,
			Existing:      toSlotDTO(c.Existing.Slot),
			ContainerName: c.Existing.ContainerName,
			ClassName:     c.Existing.ClassName,
			SubjectName:   c.Existing.SubjectName,
		})
	}
	return out
}

type conflictCheckResponse struct {
	HasConflicts bool          `json:"has_conflicts"`
	Conflicts    []conflictDTO `json:"conflicts"`
}

type rejectedSlotDTO struct {
	Slot      slotDTO       `json:"slot"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type generationResponse struct {
	ContainerID  string            `json:"container_id,omitempty"`
	SlotsCreated int               `json:"slots_created"`
	Conflicts    []rejectedSlotDTO `json:"conflicts"`
	Shortfall    map[string]int    `json:"shortfall,omitempty"`
	Message      string            `json:"message"`
}

func toGenerationResponse(result application.GenerationResult) generationResponse {
	rejected := make([]rejectedSlotDTO, 0, len(result.Conflicts))
	for _, r := range result.Conflicts {
		rejected = append(rejected, rejectedSlotDTO{Slot: toSlotDTO(r.Slot), Conflicts: toConflictDTOs(r.Conflicts)})
	}
	return generationResponse{
		ContainerID:  result.ContainerID,
		SlotsCreated: result.SlotsCreated,
		Conflicts:    rejected,
		Shortfall:    result.Shortfall,
		Message:      result.Message,
	}
}

type lessonDTO struct {
	SlotID    string `json:"slot_id"`
	SubjectID string `json:"subject_id"`
	ClassID   string `json:"class_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func toLessonDTOs(lessons []recurrence.Lesson) []lessonDTO {
	out := make([]lessonDTO, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonDTO{
			SlotID:    l.SlotID,
			SubjectID: l.SubjectID,
			ClassID:   l.ClassID,
			TeacherID: l.TeacherID,
			RoomID:    l.RoomID,
			Start:     l.Start.Format(time.RFC3339),
			End:       l.End.Format(time.RFC3339),
		})
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(scheduler.DateLayout)
}
