package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/locks"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// bookingFinder is satisfied by both the store and a transaction handle.
type bookingFinder interface {
	FindBookings(ctx context.Context, query scheduler.BookingQuery) ([]scheduler.Booking, error)
}

// findConflicts loads the committed bookings relevant to the candidate and
// applies the overlap and scope rules to them.
func findConflicts(ctx context.Context, finder bookingFinder, candidate scheduler.Candidate) ([]scheduler.Conflict, error) {
	var bookings []scheduler.Booking
	seen := make(map[string]struct{})
	for _, query := range candidate.Queries() {
		found, err := finder.FindBookings(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, b := range found {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			bookings = append(bookings, b)
		}
	}
	return scheduler.DetectConflicts(bookings, candidate), nil
}

func candidateFor(slot scheduler.Slot, excludeSlotID string) scheduler.Candidate {
	return scheduler.Candidate{
		Kind:          slot.Kind,
		ContainerID:   slot.ContainerID,
		Key:           slot.Key,
		Resources:     slot.Resources(),
		ExcludeSlotID: excludeSlotID,
	}
}

var errConflictsFound = errors.New("conflicts found")

// slotGate is the single write path for slots. It takes the resource locks
// of the candidate, then runs the conflict lookup and the write in one
// transaction.
type slotGate struct {
	store   persistence.Store
	locker  locks.Locker
	metrics Metrics
}

func newSlotGate(store persistence.Store, locker locks.Locker, metrics Metrics) slotGate {
	if locker == nil {
		locker = locks.NewKeyedMutex(0)
	}
	return slotGate{store: store, locker: locker, metrics: metricsOrNoop(metrics)}
}

// commit writes slot through apply unless it conflicts. A non-empty
// conflict list means nothing was written.
func (g slotGate) commit(ctx context.Context, source string, slot scheduler.Slot, excludeSlotID string, apply func(tx persistence.ScheduleStore) error) ([]scheduler.Conflict, error) {
	candidate := candidateFor(slot, excludeSlotID)

	started := time.Now()
	release, err := g.locker.Lock(ctx, candidate.LockKeys()...)
	if err != nil {
		return nil, &PersistenceError{Op: "acquire slot locks", Err: err}
	}
	defer release()
	g.metrics.LockAcquired(time.Since(started))

	var conflicts []scheduler.Conflict
	err = g.store.Atomic(ctx, func(tx persistence.ScheduleStore) error {
		found, err := findConflicts(ctx, tx, candidate)
		if err != nil {
			return fmt.Errorf("find bookings: %w", err)
		}
		conflicts = found
		if len(found) > 0 {
			return errConflictsFound
		}
		return apply(tx)
	})
	if errors.Is(err, errConflictsFound) {
		g.metrics.ConflictsDetected(slot.Kind, conflicts)
		return conflicts, nil
	}
	if err != nil {
		return nil, storeError("commit slot", err)
	}
	g.metrics.SlotCommitted(slot.Kind, source)
	return nil, nil
}

// ConflictService answers dry-run conflict questions.
type ConflictService struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewConflictService constructs a ConflictService.
func NewConflictService(store persistence.Store) *ConflictService {
	return NewConflictServiceWithLogger(store, nil)
}

// NewConflictServiceWithLogger constructs a ConflictService with a specified logger.
func NewConflictServiceWithLogger(store persistence.Store, logger *slog.Logger) *ConflictService {
	return &ConflictService{store: store, logger: defaultLogger(logger)}
}

// CheckConflicts reports every committed booking the described slot would
// overlap in the container. It never writes.
func (s *ConflictService) CheckConflicts(ctx context.Context, params CheckParams) (conflicts []scheduler.Conflict, err error) {
	if s == nil {
		return nil, fmt.Errorf("ConflictService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ConflictService", "CheckConflicts", "container_id", params.ContainerID)
	defer func() {
		logOutcome(ctx, logger, err, "conflict check failed", "conflict check completed", "conflict_count", len(conflicts))
	}()

	container, err := s.store.GetContainer(ctx, params.ContainerID)
	if err != nil {
		return nil, storeError("get container", err)
	}
	slot, vErr := buildSlot(container.Kind, params.Slot)
	if vErr.HasErrors() {
		return nil, vErr
	}
	slot.ContainerID = container.ID
	if slot.ClassID == "" {
		slot.ClassID = container.ClassID
	}

	conflicts, err = findConflicts(ctx, s.store, candidateFor(slot, params.ExcludeSlotID))
	if err != nil {
		return nil, storeError("find bookings", err)
	}
	return conflicts, nil
}
