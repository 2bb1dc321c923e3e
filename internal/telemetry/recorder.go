package telemetry

import (
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// ConflictsDetected counts each conflict under its kind and resource type.
func (m *Metrics) ConflictsDetected(kind scheduler.Kind, conflicts []scheduler.Conflict) {
	for _, c := range conflicts {
		m.ConflictsTotal.WithLabelValues(string(kind), string(c.Type)).Inc()
	}
}

func (m *Metrics) SlotCommitted(kind scheduler.Kind, source string) {
	m.SlotsCommittedTotal.WithLabelValues(string(kind), source).Inc()
}

func (m *Metrics) GenerationFinished(outcome string) {
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transitioned(kind scheduler.Kind, to scheduler.Status) {
	m.TransitionsTotal.WithLabelValues(string(kind), string(to)).Inc()
}

// NotificationDelivered records a fan-out as "sent" or "failed".
func (m *Metrics) NotificationDelivered(event string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) LockAcquired(wait time.Duration) {
	m.LockWaitSeconds.Observe(wait.Seconds())
}
