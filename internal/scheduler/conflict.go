package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// ResourceType identifies which resource a conflict was detected on.
type ResourceType string

const (
	ResourceTeacher ResourceType = "teacher"
	ResourceRoom    ResourceType = "room"
	ResourceClass   ResourceType = "class"
)

// resourceOrder fixes the reporting order of conflicts.
var resourceOrder = []ResourceType{ResourceTeacher, ResourceRoom, ResourceClass}

// Conflict describes one committed booking that collides with a candidate.
type Conflict struct {
	Type       ResourceType
	ResourceID string
	Message    string
	Existing   Booking
}

// Candidate is a proposed placement to be checked against committed slots.
type Candidate struct {
	Kind          Kind
	ContainerID   string
	Key           TemporalKey
	Resources     Resources
	ExcludeSlotID string
}

// BookingQuery selects committed bookings that could collide with a
// candidate on a single resource.
type BookingQuery struct {
	Kind       Kind
	Key        TemporalKey
	Type       ResourceType
	ResourceID string
}

func (c Candidate) resourceID(t ResourceType) string {
	switch t {
	case ResourceTeacher:
		return c.Resources.TeacherID
	case ResourceRoom:
		return c.Resources.RoomID
	case ResourceClass:
		return c.Resources.ClassID
	}
	return ""
}

// Queries returns one lookup per bound resource. Untimed candidates need
// no lookups because they never conflict.
func (c Candidate) Queries() []BookingQuery {
	if !c.Key.Timed() {
		return nil
	}
	var queries []BookingQuery
	for _, t := range resourceOrder {
		id := c.resourceID(t)
		if id == "" {
			continue
		}
		queries = append(queries, BookingQuery{Kind: c.Kind, Key: c.Key, Type: t, ResourceID: id})
	}
	return queries
}

// LockKeys returns the sorted resource lock names guarding the candidate's
// check-and-commit.
func (c Candidate) LockKeys() []string {
	queries := c.Queries()
	keys := make([]string, 0, len(queries))
	for _, q := range queries {
		keys = append(keys, strings.Join([]string{string(q.Kind), string(q.Type), q.ResourceID, q.Key.Bucket()}, ":"))
	}
	sort.Strings(keys)
	return keys
}

// inScope applies the container scoping rules for one resource type.
// Timetable teacher and room checks ignore the candidate's own container,
// whose slots all belong to one class and are covered by the class check.
// Exam and assessment containers span classes, so their own slots compete
// for invigilators and rooms. Class checks include the own container; for
// timetables they are confined to it, since a class's timetables are
// alternative versions of one schedule.
func inScope(t ResourceType, kind Kind, candidateContainer, existingContainer string) bool {
	switch t {
	case ResourceTeacher, ResourceRoom:
		if kind == KindTimetable {
			return existingContainer != candidateContainer
		}
		return true
	case ResourceClass:
		if kind == KindTimetable {
			return existingContainer == candidateContainer
		}
		return true
	}
	return false
}

func bookingResource(b Booking, t ResourceType) string {
	switch t {
	case ResourceTeacher:
		return b.TeacherID
	case ResourceRoom:
		return b.RoomID
	case ResourceClass:
		return b.ClassID
	}
	return ""
}

// DetectConflicts returns every booking in existing that collides with the
// candidate, ordered by resource (teacher, room, class) then by the
// existing slot's start time and id. It is pure and never mutates its
// inputs. Bookings of another kind, another bucket, or untimed bookings are
// ignored, as is the slot named by ExcludeSlotID.
func DetectConflicts(existing []Booking, candidate Candidate) []Conflict {
	if !candidate.Key.Timed() || candidate.Resources.Empty() {
		return nil
	}
	ordered := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if b.Kind != candidate.Kind {
			continue
		}
		if candidate.ExcludeSlotID != "" && b.ID == candidate.ExcludeSlotID {
			continue
		}
		if !candidate.Key.Overlaps(b.Key) {
			continue
		}
		ordered = append(ordered, b)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Key.Window.Start != ordered[j].Key.Window.Start {
			return ordered[i].Key.Window.Start < ordered[j].Key.Window.Start
		}
		return ordered[i].ID < ordered[j].ID
	})

	var conflicts []Conflict
	for _, t := range resourceOrder {
		id := candidate.resourceID(t)
		if id == "" {
			continue
		}
		for _, b := range ordered {
			if bookingResource(b, t) != id {
				continue
			}
			if !inScope(t, candidate.Kind, candidate.ContainerID, b.ContainerID) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:       t,
				ResourceID: id,
				Message:    conflictMessage(t, candidate.Kind, b),
				Existing:   b,
			})
		}
	}
	return conflicts
}

func conflictMessage(t ResourceType, kind Kind, b Booking) string {
	subject := firstNonEmpty(b.SubjectName, b.SubjectID, "another subject")
	class := firstNonEmpty(b.ClassName, b.ClassID)
	var who string
	if class != "" {
		who = fmt.Sprintf("%s (%s)", class, subject)
	} else {
		who = subject
	}
	when := b.Key.Window.String()

	switch t {
	case ResourceTeacher:
		if kind == KindExam {
			return fmt.Sprintf("Invigilator is already assigned to %s at %s", who, when)
		}
		return fmt.Sprintf("Teacher is already assigned to %s at %s", who, when)
	case ResourceRoom:
		return fmt.Sprintf("Room is already booked by %s at %s", who, when)
	default:
		switch kind {
		case KindExam:
			return fmt.Sprintf("Class already has exam for %s at %s", subject, when)
		case KindAssessment:
			return fmt.Sprintf("Class already has assessment for %s at %s", subject, when)
		}
		return fmt.Sprintf("Class already has %s at %s", subject, when)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
