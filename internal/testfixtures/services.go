package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/generator"
	"github.com/example/academic-scheduler/internal/locks"
	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator(""),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ServiceDeps captures dependencies shared by the scheduling services. Only
// Store is required.
type ServiceDeps struct {
	Store    persistence.Store
	Locker   locks.Locker
	Notifier notify.Notifier
	Metrics  application.Metrics
	Policy   *generator.Policy
	Seed     *uint64
	Logger   *slog.Logger
}

// Services bundles every application service over one store.
type Services struct {
	Containers *application.ContainerService
	Slots      *application.SlotService
	Conflicts  *application.ConflictService
	Generation *application.GenerationService
	Lifecycle  *application.LifecycleService
	Lessons    *application.LessonService
}

// NewServices builds the scheduling services using the supplied dependencies
// combined with the factory defaults. A nil Locker gets an in-process keyed
// mutex shared by slot writes and generation.
func (f *ServiceFactory) NewServices(deps ServiceDeps) Services {
	now := f.Clock.NowFunc()

	locker := deps.Locker
	if locker == nil {
		locker = locks.NewKeyedMutex(5 * time.Second)
	}
	policy := generator.DefaultPolicy()
	if deps.Policy != nil {
		policy = *deps.Policy
	}

	return Services{
		Containers: application.NewContainerServiceWithLogger(deps.Store, f.IDGenerator.For("container"), now, deps.Logger),
		Slots:      application.NewSlotServiceWithLogger(deps.Store, locker, deps.Notifier, deps.Metrics, f.IDGenerator.For("slot"), now, deps.Logger),
		Conflicts:  application.NewConflictServiceWithLogger(deps.Store, deps.Logger),
		Generation: application.NewGenerationServiceWithLogger(deps.Store, locker, policy, deps.Seed, deps.Metrics, f.IDGenerator.For("generated"), now, deps.Logger),
		Lifecycle:  application.NewLifecycleServiceWithLogger(deps.Store, deps.Notifier, deps.Metrics, now, deps.Logger),
		Lessons:    application.NewLessonServiceWithLogger(deps.Store, recurrence.NewEngine(time.UTC), deps.Logger),
	}
}
