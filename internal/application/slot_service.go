package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/locks"
	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// announce delivers a class notification. Delivery failures are logged and
// counted but never fail the operation that triggered them.
func announce(ctx context.Context, logger *slog.Logger, notifier notify.Notifier, metrics Metrics, n notify.ClassNotification) {
	if notifier == nil || n.ClassID == "" {
		return
	}
	err := notifier.NotifyClass(ctx, n)
	metrics.NotificationDelivered(n.Event, err)
	if err != nil {
		logger.WarnContext(ctx, "class notification failed",
			"class_id", n.ClassID,
			"event", n.Event,
			"error", err,
		)
	}
}

// SlotService adds, changes and removes slots through the conflict-checked
// write path.
type SlotService struct {
	store       persistence.Store
	gate        slotGate
	notifier    notify.Notifier
	metrics     Metrics
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSlotService wires dependencies for slot operations.
func NewSlotService(store persistence.Store, locker locks.Locker, notifier notify.Notifier, metrics Metrics, idGenerator func() string, now func() time.Time) *SlotService {
	return NewSlotServiceWithLogger(store, locker, notifier, metrics, idGenerator, now, nil)
}

// NewSlotServiceWithLogger constructs a SlotService with a specified logger.
func NewSlotServiceWithLogger(store persistence.Store, locker locks.Locker, notifier notify.Notifier, metrics Metrics, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SlotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	metrics = metricsOrNoop(metrics)
	return &SlotService{
		store:       store,
		gate:        newSlotGate(store, locker, metrics),
		notifier:    notifier,
		metrics:     metrics,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SlotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SlotService", operation, attrs...)
}

// writableContainer loads a container and rejects archived ones.
func writableContainer(ctx context.Context, repo persistence.ContainerRepository, id, action string) (scheduler.Container, error) {
	container, err := repo.GetContainer(ctx, id)
	if err != nil {
		return scheduler.Container{}, storeError("get container", err)
	}
	if container.Status == scheduler.StatusArchived {
		return scheduler.Container{}, &StateError{ContainerID: id, Kind: container.Kind, Status: container.Status, Action: action}
	}
	return container, nil
}

// AddSlot validates the slot for the container's kind, checks it against
// every committed booking and inserts it.
func (s *SlotService) AddSlot(ctx context.Context, params AddSlotParams) (slot scheduler.Slot, err error) {
	if s == nil {
		return scheduler.Slot{}, fmt.Errorf("SlotService is nil")
	}
	logger := s.loggerWith(ctx, "AddSlot",
		"principal_id", params.Principal.UserID,
		"container_id", params.ContainerID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to add slot", "slot added", "slot_id", slot.ID)
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Slot{}, ErrUnauthorized
	}

	container, err := writableContainer(ctx, s.store, params.ContainerID, "add slots to")
	if err != nil {
		return scheduler.Slot{}, err
	}

	candidate, vErr := buildSlot(container.Kind, params.Input)
	if !vErr.HasErrors() {
		checkWithinContainer(container, candidate, vErr)
	}
	if vErr.HasErrors() {
		return scheduler.Slot{}, vErr
	}
	at := s.now()
	candidate.ID = s.idGenerator()
	candidate.ContainerID = container.ID
	if candidate.ClassID == "" {
		candidate.ClassID = container.ClassID
	}
	candidate.CreatedAt = at
	candidate.UpdatedAt = at

	conflicts, err := s.gate.commit(ctx, SourceManual, candidate, "", func(tx persistence.ScheduleStore) error {
		if _, err := writableContainer(ctx, tx, container.ID, "add slots to"); err != nil {
			return err
		}
		return tx.InsertSlot(ctx, candidate)
	})
	if err != nil {
		return scheduler.Slot{}, err
	}
	if len(conflicts) > 0 {
		return scheduler.Slot{}, &ConflictError{Conflicts: conflicts}
	}

	s.announceAssessment(ctx, logger, candidate)
	s.announceTimetable(ctx, logger, container, "A new slot has been added to your class timetable")
	return candidate, nil
}

// announceTimetable tells the class of a timetable container that one of its
// slots changed.
func (s *SlotService) announceTimetable(ctx context.Context, logger *slog.Logger, container scheduler.Container, message string) {
	if container.Kind != scheduler.KindTimetable {
		return
	}
	announce(ctx, logger, s.notifier, s.metrics, notify.ClassNotification{
		ClassID:     container.ClassID,
		Event:       notify.EventTimetableUpdated,
		Title:       "Timetable Updated",
		Message:     message,
		RelatedID:   container.ID,
		RelatedType: "timetable",
	})
}

func (s *SlotService) announceAssessment(ctx context.Context, logger *slog.Logger, slot scheduler.Slot) {
	if slot.Kind != scheduler.KindAssessment || slot.DueDate == nil {
		return
	}
	announce(ctx, logger, s.notifier, s.metrics, notify.ClassNotification{
		ClassID:     slot.ClassID,
		Event:       notify.EventAssessmentDue,
		Title:       "New Assessment Assigned",
		Message:     "A new assessment has been assigned. Due date: " + slot.DueDate.Format(scheduler.DateLayout),
		RelatedID:   slot.ID,
		RelatedType: "assessment",
	})
}

// UpdateSlot replaces a slot's fields. The slot itself is excluded from the
// conflict check so an unchanged slot can always be saved again.
func (s *SlotService) UpdateSlot(ctx context.Context, params UpdateSlotParams) (slot scheduler.Slot, err error) {
	if s == nil {
		return scheduler.Slot{}, fmt.Errorf("SlotService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateSlot",
		"principal_id", params.Principal.UserID,
		"slot_id", params.SlotID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update slot", "slot updated")
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Slot{}, ErrUnauthorized
	}

	existing, err := s.store.GetSlot(ctx, params.SlotID)
	if err != nil {
		return scheduler.Slot{}, storeError("get slot", err)
	}
	container, err := writableContainer(ctx, s.store, existing.ContainerID, "update slots of")
	if err != nil {
		return scheduler.Slot{}, err
	}

	updated, vErr := buildSlot(container.Kind, params.Input)
	if !vErr.HasErrors() {
		checkWithinContainer(container, updated, vErr)
	}
	if vErr.HasErrors() {
		return scheduler.Slot{}, vErr
	}
	updated.ID = existing.ID
	updated.ContainerID = existing.ContainerID
	if updated.ClassID == "" {
		updated.ClassID = container.ClassID
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	conflicts, err := s.gate.commit(ctx, SourceManual, updated, existing.ID, func(tx persistence.ScheduleStore) error {
		if _, err := writableContainer(ctx, tx, container.ID, "update slots of"); err != nil {
			return err
		}
		return tx.UpdateSlot(ctx, updated)
	})
	if err != nil {
		return scheduler.Slot{}, err
	}
	if len(conflicts) > 0 {
		return scheduler.Slot{}, &ConflictError{Conflicts: conflicts}
	}
	s.announceTimetable(ctx, logger, container, "A timetable slot has been updated")
	return updated, nil
}

// DeleteSlot removes a slot from a container that is not archived.
func (s *SlotService) DeleteSlot(ctx context.Context, params DeleteSlotParams) (err error) {
	if s == nil {
		return fmt.Errorf("SlotService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteSlot",
		"principal_id", params.Principal.UserID,
		"slot_id", params.SlotID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete slot", "slot deleted")
	}()

	if !params.Principal.CanManageSchedules() {
		return ErrUnauthorized
	}

	var container scheduler.Container
	err = s.store.Atomic(ctx, func(tx persistence.ScheduleStore) error {
		existing, err := tx.GetSlot(ctx, params.SlotID)
		if err != nil {
			return err
		}
		container, err = writableContainer(ctx, tx, existing.ContainerID, "delete slots of")
		if err != nil {
			return err
		}
		return tx.DeleteSlot(ctx, params.SlotID)
	})
	if err != nil {
		return storeError("delete slot", err)
	}
	s.announceTimetable(ctx, logger, container, "A timetable slot has been removed")
	return nil
}

// ListSlots returns a container's slots ordered by weekday or date, then
// start time.
func (s *SlotService) ListSlots(ctx context.Context, containerID string) ([]scheduler.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("SlotService is nil")
	}
	if _, err := s.store.GetContainer(ctx, containerID); err != nil {
		return nil, storeError("get container", err)
	}
	slots, err := s.store.ListSlotsForContainer(ctx, containerID)
	if err != nil {
		return nil, storeError("list slots", err)
	}
	return slots, nil
}
