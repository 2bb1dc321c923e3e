// Package notify fans class level notifications out to the students of a
// class and, optionally, onto a NATS subject.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
)

// Event types emitted by the scheduler.
const (
	EventExamScheduled      = "exam_scheduled"
	EventAssessmentDue      = "assessment_due"
	EventTimetableActivated = "timetable_activated"
	EventTimetableUpdated   = "timetable_updated"
)

// ClassNotification is a message addressed to every student of a class.
type ClassNotification struct {
	ClassID     string
	Event       string
	Title       string
	Message     string
	RelatedID   string
	RelatedType string
}

// Notifier delivers class notifications.
type Notifier interface {
	NotifyClass(ctx context.Context, n ClassNotification) error
}

// Recipients is the student lookup and notification sink used by
// StoreNotifier.
type Recipients interface {
	StudentUserIDs(ctx context.Context, classID string) ([]string, error)
	InsertNotifications(ctx context.Context, notifications []persistence.Notification) error
}

// StoreNotifier writes one notification record per student.
type StoreNotifier struct {
	store       Recipients
	idGenerator func() string
	now         func() time.Time
}

// NewStoreNotifier constructs a StoreNotifier.
func NewStoreNotifier(store Recipients, idGenerator func() string, now func() time.Time) *StoreNotifier {
	if now == nil {
		now = time.Now
	}
	return &StoreNotifier{store: store, idGenerator: idGenerator, now: now}
}

// NotifyClass inserts a record for each student currently in the class. A
// class without students is not an error.
func (s *StoreNotifier) NotifyClass(ctx context.Context, n ClassNotification) error {
	if n.ClassID == "" {
		return errors.New("notify: class id is required")
	}
	users, err := s.store.StudentUserIDs(ctx, n.ClassID)
	if err != nil {
		return fmt.Errorf("notify: list students of %s: %w", n.ClassID, err)
	}
	if len(users) == 0 {
		return nil
	}
	at := s.now().UTC()
	records := make([]persistence.Notification, 0, len(users))
	for _, userID := range users {
		records = append(records, persistence.Notification{
			ID:          s.idGenerator(),
			UserID:      userID,
			ClassID:     n.ClassID,
			Type:        n.Event,
			Title:       n.Title,
			Message:     n.Message,
			RelatedID:   n.RelatedID,
			RelatedType: n.RelatedType,
			CreatedAt:   at,
		})
	}
	if err := s.store.InsertNotifications(ctx, records); err != nil {
		return fmt.Errorf("notify: store notifications for %s: %w", n.ClassID, err)
	}
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

// NotifyClass calls each notifier in order.
func (m Multi) NotifyClass(ctx context.Context, n ClassNotification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.NotifyClass(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
