package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// LifecycleService moves containers through draft, active or published,
// and archived. Transitions never touch slots.
type LifecycleService struct {
	store    persistence.Store
	notifier notify.Notifier
	metrics  Metrics
	now      func() time.Time
	logger   *slog.Logger
}

// NewLifecycleService wires dependencies for lifecycle transitions.
func NewLifecycleService(store persistence.Store, notifier notify.Notifier, metrics Metrics, now func() time.Time) *LifecycleService {
	return NewLifecycleServiceWithLogger(store, notifier, metrics, now, nil)
}

// NewLifecycleServiceWithLogger constructs a LifecycleService with a specified logger.
func NewLifecycleServiceWithLogger(store persistence.Store, notifier notify.Notifier, metrics Metrics, now func() time.Time, logger *slog.Logger) *LifecycleService {
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{
		store:    store,
		notifier: notifier,
		metrics:  metricsOrNoop(metrics),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *LifecycleService) loggerWith(ctx context.Context, operation string, params ContainerActionParams) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LifecycleService", operation,
		"principal_id", params.Principal.UserID,
		"container_id", params.ContainerID,
	)
}

// Publish makes a draft exam or assessment timetable visible and tells each
// class with slots in it how many it has.
func (s *LifecycleService) Publish(ctx context.Context, params ContainerActionParams) (container scheduler.Container, err error) {
	if s == nil {
		return scheduler.Container{}, fmt.Errorf("LifecycleService is nil")
	}
	logger := s.loggerWith(ctx, "Publish", params)
	defer func() {
		logOutcome(ctx, logger, err, "failed to publish container", "container published")
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Container{}, ErrUnauthorized
	}

	container, err = s.store.GetContainer(ctx, params.ContainerID)
	if err != nil {
		return scheduler.Container{}, storeError("get container", err)
	}
	if container.Kind == scheduler.KindTimetable || container.Status != scheduler.StatusDraft {
		return scheduler.Container{}, &StateError{ContainerID: container.ID, Kind: container.Kind, Status: container.Status, Action: "publish"}
	}

	at := s.now()
	changed, err := s.store.TransitionContainer(ctx, container.ID, []scheduler.Status{scheduler.StatusDraft}, scheduler.StatusPublished, at)
	if err != nil {
		return scheduler.Container{}, storeError("publish container", err)
	}
	if !changed {
		return scheduler.Container{}, s.staleState(ctx, container, "publish")
	}
	container.Status = scheduler.StatusPublished
	container.UpdatedAt = at
	s.metrics.Transitioned(container.Kind, container.Status)

	slots, err := s.store.ListSlotsForContainer(ctx, container.ID)
	if err != nil {
		logger.WarnContext(ctx, "published container but could not load slots for notifications", "error", err)
		return container, nil
	}
	for _, n := range publishNotifications(container, slots) {
		announce(ctx, logger, s.notifier, s.metrics, n)
	}
	return container, nil
}

// publishNotifications builds one summary per distinct class, ordered by
// class id.
func publishNotifications(container scheduler.Container, slots []scheduler.Slot) []notify.ClassNotification {
	counts := make(map[string]int)
	for _, slot := range slots {
		if slot.ClassID == "" {
			continue
		}
		counts[slot.ClassID]++
	}
	classIDs := make([]string, 0, len(counts))
	for id := range counts {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	out := make([]notify.ClassNotification, 0, len(classIDs))
	for _, classID := range classIDs {
		n := notify.ClassNotification{ClassID: classID, RelatedID: container.ID}
		switch container.Kind {
		case scheduler.KindExam:
			n.Event = notify.EventExamScheduled
			n.RelatedType = "exam_timetable"
			n.Title = "Exam Timetable Published"
			n.Message = fmt.Sprintf("The %s timetable has been published. You have %d exam(s) scheduled.", container.Name, counts[classID])
		case scheduler.KindAssessment:
			n.Event = notify.EventAssessmentDue
			n.RelatedType = "assessment_timetable"
			n.Title = "Assessment Timetable Published"
			n.Message = fmt.Sprintf("The %s timetable has been published. You have %d assessment(s) assigned.", container.Name, counts[classID])
		default:
			continue
		}
		out = append(out, n)
	}
	return out
}

// Activate makes a timetable the only active one of its class. Activating
// the active timetable again changes nothing.
func (s *LifecycleService) Activate(ctx context.Context, params ContainerActionParams) (container scheduler.Container, err error) {
	if s == nil {
		return scheduler.Container{}, fmt.Errorf("LifecycleService is nil")
	}
	logger := s.loggerWith(ctx, "Activate", params)
	defer func() {
		logOutcome(ctx, logger, err, "failed to activate timetable", "timetable activated")
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Container{}, ErrUnauthorized
	}

	container, err = s.store.GetContainer(ctx, params.ContainerID)
	if err != nil {
		return scheduler.Container{}, storeError("get container", err)
	}
	if container.Kind != scheduler.KindTimetable || container.Status == scheduler.StatusArchived {
		return scheduler.Container{}, &StateError{ContainerID: container.ID, Kind: container.Kind, Status: container.Status, Action: "activate"}
	}
	if container.Status == scheduler.StatusActive {
		return container, nil
	}

	at := s.now()
	var archived int64
	err = s.store.Atomic(ctx, func(tx persistence.ScheduleStore) error {
		n, err := tx.ArchiveActiveTimetables(ctx, container.ClassID, container.ID, at)
		if err != nil {
			return err
		}
		archived = n
		changed, err := tx.TransitionContainer(ctx, container.ID,
			[]scheduler.Status{scheduler.StatusDraft, scheduler.StatusPublished}, scheduler.StatusActive, at)
		if err != nil {
			return err
		}
		if !changed {
			return errStaleTransition
		}
		return nil
	})
	if errors.Is(err, errStaleTransition) {
		return scheduler.Container{}, s.staleState(ctx, container, "activate")
	}
	if err != nil {
		return scheduler.Container{}, storeError("activate timetable", err)
	}

	container.Status = scheduler.StatusActive
	container.UpdatedAt = at
	for i := int64(0); i < archived; i++ {
		s.metrics.Transitioned(scheduler.KindTimetable, scheduler.StatusArchived)
	}
	s.metrics.Transitioned(container.Kind, container.Status)
	logger.With("archived_count", archived).DebugContext(ctx, "previous timetables archived")

	announce(ctx, logger, s.notifier, s.metrics, notify.ClassNotification{
		ClassID:     container.ClassID,
		Event:       notify.EventTimetableActivated,
		Title:       "Timetable Activated",
		Message:     fmt.Sprintf("The %s is now in effect.", container.Name),
		RelatedID:   container.ID,
		RelatedType: "timetable",
	})
	return container, nil
}

// Archive retires a container of any kind.
func (s *LifecycleService) Archive(ctx context.Context, params ContainerActionParams) (container scheduler.Container, err error) {
	if s == nil {
		return scheduler.Container{}, fmt.Errorf("LifecycleService is nil")
	}
	logger := s.loggerWith(ctx, "Archive", params)
	defer func() {
		logOutcome(ctx, logger, err, "failed to archive container", "container archived")
	}()

	if !params.Principal.CanManageSchedules() {
		return scheduler.Container{}, ErrUnauthorized
	}

	container, err = s.store.GetContainer(ctx, params.ContainerID)
	if err != nil {
		return scheduler.Container{}, storeError("get container", err)
	}
	if container.Status == scheduler.StatusArchived {
		return scheduler.Container{}, &StateError{ContainerID: container.ID, Kind: container.Kind, Status: container.Status, Action: "archive"}
	}

	at := s.now()
	changed, err := s.store.TransitionContainer(ctx, container.ID,
		[]scheduler.Status{scheduler.StatusDraft, scheduler.StatusActive, scheduler.StatusPublished}, scheduler.StatusArchived, at)
	if err != nil {
		return scheduler.Container{}, storeError("archive container", err)
	}
	if !changed {
		return scheduler.Container{}, s.staleState(ctx, container, "archive")
	}
	container.Status = scheduler.StatusArchived
	container.UpdatedAt = at
	s.metrics.Transitioned(container.Kind, container.Status)
	return container, nil
}

var errStaleTransition = errors.New("container status changed concurrently")

// staleState builds the StateError for a compare-and-swap that lost a race,
// reporting the status the container moved to.
func (s *LifecycleService) staleState(ctx context.Context, container scheduler.Container, action string) error {
	if current, err := s.store.GetContainer(ctx, container.ID); err == nil {
		container.Status = current.Status
	}
	return &StateError{ContainerID: container.ID, Kind: container.Kind, Status: container.Status, Action: action}
}
