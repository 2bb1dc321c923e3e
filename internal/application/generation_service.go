package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/generator"
	"github.com/example/academic-scheduler/internal/locks"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// Generation outcomes recorded in metrics.
const (
	outcomeGenerated  = "generated"
	outcomeInfeasible = "infeasible"
	outcomeFailed     = "failed"
)

// GenerationService drafts weekly timetables for a class.
type GenerationService struct {
	store       persistence.Store
	gate        slotGate
	policy      generator.Policy
	metrics     Metrics
	newRand     func(seed *uint64) generator.Rand
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewGenerationService wires dependencies for timetable generation. An
// unseeded request draws from a time seeded source unless defaultSeed is set.
func NewGenerationService(store persistence.Store, locker locks.Locker, policy generator.Policy, defaultSeed *uint64, metrics Metrics, idGenerator func() string, now func() time.Time) *GenerationService {
	return NewGenerationServiceWithLogger(store, locker, policy, defaultSeed, metrics, idGenerator, now, nil)
}

// NewGenerationServiceWithLogger constructs a GenerationService with a specified logger.
func NewGenerationServiceWithLogger(store persistence.Store, locker locks.Locker, policy generator.Policy, defaultSeed *uint64, metrics Metrics, idGenerator func() string, now func() time.Time, logger *slog.Logger) *GenerationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	metrics = metricsOrNoop(metrics)
	return &GenerationService{
		store:   store,
		gate:    newSlotGate(store, locker, metrics),
		policy:  policy,
		metrics: metrics,
		newRand: func(seed *uint64) generator.Rand {
			if seed == nil {
				seed = defaultSeed
			}
			if seed == nil {
				return generator.NewRand(uint64(time.Now().UnixNano()))
			}
			return generator.NewRand(*seed)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Generate creates a draft timetable for the class and fills it with
// conflict-free placements of the class's subjects. Candidates rejected by
// the commit-time check are reported, not retried.
func (s *GenerationService) Generate(ctx context.Context, params GenerateParams) (result GenerationResult, err error) {
	if s == nil {
		return GenerationResult{}, fmt.Errorf("GenerationService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "GenerationService", "Generate",
		"principal_id", params.Principal.UserID,
		"class_id", params.ClassID,
	)
	defer func() {
		switch {
		case err == nil:
			s.metrics.GenerationFinished(outcomeGenerated)
		case ErrorKind(err) == "infeasible_generation":
			s.metrics.GenerationFinished(outcomeInfeasible)
		default:
			s.metrics.GenerationFinished(outcomeFailed)
		}
		logOutcome(ctx, logger, err, "timetable generation failed", "timetable generated",
			"container_id", result.ContainerID,
			"slots_created", result.SlotsCreated,
			"conflicts", len(result.Conflicts),
		)
	}()

	if !params.Principal.CanManageSchedules() {
		return GenerationResult{}, ErrUnauthorized
	}

	at := s.now()
	vErr := validateStruct(params)
	start, end := parseDateRange(params.StartDate, params.EndDate, at, vErr)
	if vErr.HasErrors() {
		return GenerationResult{}, vErr
	}

	class, err := s.store.GetClass(ctx, params.ClassID)
	if err != nil {
		return GenerationResult{}, storeError("get class", err)
	}
	assignments, err := s.store.ListSubjectAssignments(ctx, class.ID)
	if err != nil {
		return GenerationResult{}, storeError("list subject assignments", err)
	}
	if len(assignments) == 0 {
		return GenerationResult{}, &InfeasibleGenerationError{ClassID: class.ID, Reason: ReasonNoSubjects}
	}

	container := scheduler.Container{
		ID:           s.idGenerator(),
		Kind:         scheduler.KindTimetable,
		Name:         class.Name + " timetable",
		ClassID:      class.ID,
		AcademicYear: params.AcademicYear,
		Semester:     params.Semester,
		StartDate:    start,
		EndDate:      end,
		Status:       scheduler.StatusDraft,
		CreatedBy:    params.Principal.UserID,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := s.store.CreateContainer(ctx, container); err != nil {
		return GenerationResult{}, &PersistenceError{Op: "create container", Err: err}
	}
	result.ContainerID = container.ID

	plan := generator.NewPlanner(s.policy, s.newRand(params.Seed)).Plan(assignments)
	result.Shortfall = plan.Shortfall

	for _, proposal := range plan.Proposals {
		a := proposal.Assignment
		slot := scheduler.Slot{
			ID:             s.idGenerator(),
			ContainerID:    container.ID,
			Kind:           scheduler.KindTimetable,
			SubjectID:      a.SubjectID,
			ClassSubjectID: a.ID,
			ClassID:        class.ID,
			TeacherID:      a.TeacherID,
			RoomID:         a.RoomID,
			Key:            proposal.Key,
			CreatedAt:      at,
			UpdatedAt:      at,
		}
		conflicts, err := s.gate.commit(ctx, SourceGenerated, slot, "", func(tx persistence.ScheduleStore) error {
			return tx.InsertSlot(ctx, slot)
		})
		if err != nil {
			return result, storeError("commit generated slot", err)
		}
		if len(conflicts) > 0 {
			result.Conflicts = append(result.Conflicts, RejectedSlot{Slot: slot, Conflicts: conflicts})
			continue
		}
		result.SlotsCreated++
	}

	if result.SlotsCreated == 0 {
		if err := s.store.DeleteContainer(ctx, container.ID); err != nil {
			logger.WarnContext(ctx, "failed to remove empty generated container", "container_id", container.ID, "error", err)
			return GenerationResult{ContainerID: container.ID, Conflicts: result.Conflicts}, &InfeasibleGenerationError{
				ClassID:     class.ID,
				Reason:      ReasonNoPlaceableSlots,
				ContainerID: container.ID,
				CleanupErr:  err,
			}
		}
		return GenerationResult{Conflicts: result.Conflicts}, &InfeasibleGenerationError{ClassID: class.ID, Reason: ReasonNoPlaceableSlots}
	}

	result.Message = fmt.Sprintf("%d slots created successfully", result.SlotsCreated)
	if n := len(result.Conflicts); n > 0 {
		result.Message += fmt.Sprintf(". %d conflicts detected and skipped.", n)
	}
	return result, nil
}
