// Package recurrence expands weekly timetable slots into dated lessons.
package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// Lesson is one dated occurrence of a weekly slot.
type Lesson struct {
	SlotID    string
	SubjectID string
	ClassID   string
	TeacherID string
	RoomID    string
	Start     time.Time
	End       time.Time
}

// Engine expands weekly slots into lessons.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that places lessons in loc. If loc is nil,
// UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// ErrInvalidRange indicates the requested range is empty or inverted.
var ErrInvalidRange = errors.New("recurrence: range end must be after range start")

// ErrMaxDaysExceeded indicates the requested range is too long to expand.
var ErrMaxDaysExceeded = errors.New("recurrence: range exceeds the maximum number of days")

// MaxDays bounds a single expansion.
const MaxDays = 366

// Expand produces the lessons of the container's weekly slots for every
// date in [from, to), clamped to the container's inclusive date range.
// Dated and untimed slots are ignored. Lessons are ordered by start time,
// then slot id.
func (e *Engine) Expand(container scheduler.Container, slots []scheduler.Slot, from, to time.Time) ([]Lesson, error) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}

	lower := dateIn(from, loc)
	upper := dateIn(to, loc)
	if !upper.After(lower) {
		return nil, ErrInvalidRange
	}
	if upper.Sub(lower) > MaxDays*24*time.Hour {
		return nil, ErrMaxDaysExceeded
	}

	if !container.StartDate.IsZero() {
		if start := dateIn(container.StartDate, loc); start.After(lower) {
			lower = start
		}
	}
	if !container.EndDate.IsZero() {
		if end := dateIn(container.EndDate, loc).AddDate(0, 0, 1); end.Before(upper) {
			upper = end
		}
	}
	if !upper.After(lower) {
		return nil, nil
	}

	byDay := make(map[time.Weekday][]scheduler.Slot)
	for _, slot := range slots {
		if !slot.Key.Recurring() || !slot.Key.Timed() {
			continue
		}
		byDay[slot.Key.Weekday] = append(byDay[slot.Key.Weekday], slot)
	}

	lessons := make([]Lesson, 0)
	for day := lower; day.Before(upper); day = day.AddDate(0, 0, 1) {
		for _, slot := range byDay[day.Weekday()] {
			lessons = append(lessons, Lesson{
				SlotID:    slot.ID,
				SubjectID: slot.SubjectID,
				ClassID:   slot.ClassID,
				TeacherID: slot.TeacherID,
				RoomID:    slot.RoomID,
				Start:     atTime(day, slot.Key.Window.Start),
				End:       atTime(day, slot.Key.Window.End),
			})
		}
	}

	sort.Slice(lessons, func(i, j int) bool {
		if !lessons[i].Start.Equal(lessons[j].Start) {
			return lessons[i].Start.Before(lessons[j].Start)
		}
		return lessons[i].SlotID < lessons[j].SlotID
	})
	return lessons, nil
}

// dateIn returns midnight in loc of the calendar date t carries. Dates are
// stored as UTC midnight, so converting t to loc first would shift them.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func atTime(day time.Time, tod scheduler.TimeOfDay) time.Time {
	y, m, d := day.Date()
	minutes := int(tod)
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, day.Location())
}
