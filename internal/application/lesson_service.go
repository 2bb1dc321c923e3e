package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/recurrence"
)

// LessonService answers "what does this class have on these days" from the
// class's active timetable.
type LessonService struct {
	store  persistence.Store
	engine *recurrence.Engine
	logger *slog.Logger
}

// NewLessonService wires dependencies for lesson lookups.
func NewLessonService(store persistence.Store, engine *recurrence.Engine) *LessonService {
	return NewLessonServiceWithLogger(store, engine, nil)
}

// NewLessonServiceWithLogger constructs a LessonService with a specified logger.
func NewLessonServiceWithLogger(store persistence.Store, engine *recurrence.Engine, logger *slog.Logger) *LessonService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	return &LessonService{store: store, engine: engine, logger: defaultLogger(logger)}
}

// ClassLessons expands the class's active timetable into dated lessons in
// [from, to).
func (s *LessonService) ClassLessons(ctx context.Context, classID string, from, to time.Time) ([]recurrence.Lesson, error) {
	if s == nil {
		return nil, fmt.Errorf("LessonService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "LessonService", "ClassLessons", "class_id", classID)

	container, err := s.store.ActiveTimetableForClass(ctx, classID)
	if err != nil {
		err = storeError("get active timetable", err)
		if ErrorKind(err) != "not_found" {
			logger.ErrorContext(ctx, "failed to load active timetable", "error", err, "error_kind", ErrorKind(err))
		}
		return nil, err
	}
	slots, err := s.store.ListSlotsForContainer(ctx, container.ID)
	if err != nil {
		return nil, storeError("list slots", err)
	}

	lessons, err := s.engine.Expand(container, slots, from, to)
	switch {
	case errors.Is(err, recurrence.ErrInvalidRange):
		vErr := &ValidationError{}
		vErr.add("to", "to must be after from")
		return nil, vErr
	case errors.Is(err, recurrence.ErrMaxDaysExceeded):
		vErr := &ValidationError{}
		vErr.add("to", fmt.Sprintf("range may span at most %d days", recurrence.MaxDays))
		return nil, vErr
	case err != nil:
		return nil, err
	}
	return lessons, nil
}
