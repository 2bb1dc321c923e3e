package application

import (
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// Metrics receives the domain counters emitted by the services.
type Metrics interface {
	ConflictsDetected(kind scheduler.Kind, conflicts []scheduler.Conflict)
	SlotCommitted(kind scheduler.Kind, source string)
	GenerationFinished(outcome string)
	Transitioned(kind scheduler.Kind, to scheduler.Status)
	NotificationDelivered(event string, err error)
	LockAcquired(wait time.Duration)
}

// Slot write sources.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
)

type noopMetrics struct{}

func (noopMetrics) ConflictsDetected(scheduler.Kind, []scheduler.Conflict) {}
func (noopMetrics) SlotCommitted(scheduler.Kind, string)                    {}
func (noopMetrics) GenerationFinished(string)                               {}
func (noopMetrics) Transitioned(scheduler.Kind, scheduler.Status)           {}
func (noopMetrics) NotificationDelivered(string, error)                     {}
func (noopMetrics) LockAcquired(time.Duration)                              {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
