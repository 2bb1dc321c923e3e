package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// ContainerService creates and reads scheduling campaigns.
type ContainerService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewContainerService wires dependencies for container operations.
func NewContainerService(store persistence.Store, idGenerator func() string, now func() time.Time) *ContainerService {
	return NewContainerServiceWithLogger(store, idGenerator, now, nil)
}

// NewContainerServiceWithLogger constructs a ContainerService with a specified logger.
func NewContainerServiceWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ContainerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ContainerService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ContainerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ContainerService", operation, attrs...)
}

// resolveClass returns the named class, reporting an unknown id against field.
func resolveClass(ctx context.Context, directory persistence.ClassDirectory, classID, field string) (scheduler.Class, error) {
	class, err := directory.GetClass(ctx, classID)
	if errors.Is(err, persistence.ErrNotFound) {
		vErr := &ValidationError{}
		vErr.add(field, "class does not exist")
		return scheduler.Class{}, vErr
	}
	if err != nil {
		return scheduler.Class{}, storeError("get class", err)
	}
	return class, nil
}

// CreateContainer opens a draft container.
func (s *ContainerService) CreateContainer(ctx context.Context, params CreateContainerParams) (container scheduler.Container, err error) {
	if s == nil {
		return scheduler.Container{}, fmt.Errorf("ContainerService is nil")
	}
	logger := s.loggerWith(ctx, "CreateContainer",
		"principal_id", params.Principal.UserID,
		"kind", params.Input.Kind,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create container", "container created", "container_id", container.ID)
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Container{}, ErrUnauthorized
	}

	at := s.now()
	fields, vErr := parseContainerInput(params.Input, at)
	if vErr.HasErrors() {
		return scheduler.Container{}, vErr
	}

	if fields.classID != "" {
		class, err := resolveClass(ctx, s.store, fields.classID, "class_id")
		if err != nil {
			return scheduler.Container{}, err
		}
		if fields.name == "" {
			fields.name = class.Name + " timetable"
		}
	}

	container = scheduler.Container{
		ID:           s.idGenerator(),
		Kind:         fields.kind,
		Name:         fields.name,
		Category:     fields.category,
		ClassID:      fields.classID,
		AcademicYear: fields.year,
		Semester:     fields.semester,
		StartDate:    fields.startDate,
		EndDate:      fields.endDate,
		Status:       scheduler.StatusDraft,
		CreatedBy:    params.Principal.UserID,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := s.store.CreateContainer(ctx, container); err != nil {
		return scheduler.Container{}, storeError("create container", err)
	}
	return container, nil
}

// GetContainer returns a container with its slots.
func (s *ContainerService) GetContainer(ctx context.Context, id string) (ContainerDetail, error) {
	if s == nil {
		return ContainerDetail{}, fmt.Errorf("ContainerService is nil")
	}
	container, err := s.store.GetContainer(ctx, id)
	if err != nil {
		return ContainerDetail{}, storeError("get container", err)
	}
	return s.withSlots(ctx, container)
}

func (s *ContainerService) withSlots(ctx context.Context, container scheduler.Container) (ContainerDetail, error) {
	slots, err := s.store.ListSlotsForContainer(ctx, container.ID)
	if err != nil {
		return ContainerDetail{}, storeError("list slots", err)
	}
	return ContainerDetail{Container: container, Slots: slots}, nil
}

// ListContainers returns containers matching the filter, newest first.
func (s *ContainerService) ListContainers(ctx context.Context, filter persistence.ContainerFilter) ([]scheduler.Container, error) {
	if s == nil {
		return nil, fmt.Errorf("ContainerService is nil")
	}
	vErr := &ValidationError{}
	if filter.Kind != "" && !filter.Kind.Valid() {
		vErr.add("kind", fmt.Sprintf("kind must be one of %v", scheduler.Kinds()))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		vErr.add("status", "status must be one of [draft active published archived]")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	containers, err := s.store.ListContainers(ctx, filter)
	if err != nil {
		return nil, storeError("list containers", err)
	}
	return containers, nil
}

// ActiveTimetable returns the class's active timetable with its slots.
func (s *ContainerService) ActiveTimetable(ctx context.Context, classID string) (ContainerDetail, error) {
	if s == nil {
		return ContainerDetail{}, fmt.Errorf("ContainerService is nil")
	}
	container, err := s.store.ActiveTimetableForClass(ctx, classID)
	if err != nil {
		return ContainerDetail{}, storeError("get active timetable", err)
	}
	return s.withSlots(ctx, container)
}

// ClassSchedule returns the published exam or assessment containers of an
// academic year that hold slots for the class. Each container carries only
// that class's slots. An empty academic year matches every year.
func (s *ContainerService) ClassSchedule(ctx context.Context, classID string, kind scheduler.Kind, academicYear string) ([]ContainerDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("ContainerService is nil")
	}
	if kind != scheduler.KindExam && kind != scheduler.KindAssessment {
		vErr := &ValidationError{}
		vErr.add("kind", "kind must be one of [exam assessment]")
		return nil, vErr
	}
	if _, err := s.store.GetClass(ctx, classID); err != nil {
		return nil, storeError("get class", err)
	}

	slots, err := s.store.ListClassSlots(ctx, persistence.ClassSlotFilter{
		ClassID:      classID,
		Kind:         kind,
		AcademicYear: academicYear,
		Status:       scheduler.StatusPublished,
	})
	if err != nil {
		return nil, storeError("list class slots", err)
	}

	details := make([]ContainerDetail, 0)
	index := make(map[string]int)
	for _, slot := range slots {
		i, ok := index[slot.ContainerID]
		if !ok {
			container, err := s.store.GetContainer(ctx, slot.ContainerID)
			if err != nil {
				return nil, storeError("get container", err)
			}
			i = len(details)
			index[slot.ContainerID] = i
			details = append(details, ContainerDetail{Container: container})
		}
		details[i].Slots = append(details[i].Slots, slot)
	}
	return details, nil
}

// DeleteContainer removes a draft or archived container and its slots.
// Live containers have to be archived first.
func (s *ContainerService) DeleteContainer(ctx context.Context, params ContainerActionParams) (err error) {
	if s == nil {
		return fmt.Errorf("ContainerService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteContainer",
		"principal_id", params.Principal.UserID,
		"container_id", params.ContainerID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete container", "container deleted")
	}()

	if !params.Principal.CanManageSchedules() {
		return ErrUnauthorized
	}

	err = s.store.Atomic(ctx, func(tx persistence.ScheduleStore) error {
		container, err := tx.GetContainer(ctx, params.ContainerID)
		if err != nil {
			return err
		}
		switch container.Status {
		case scheduler.StatusDraft, scheduler.StatusArchived:
		default:
			return &StateError{ContainerID: container.ID, Kind: container.Kind, Status: container.Status, Action: "delete"}
		}
		return tx.DeleteContainer(ctx, container.ID)
	})
	return storeError("delete container", err)
}
