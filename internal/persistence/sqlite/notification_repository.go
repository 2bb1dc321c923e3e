package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/academic-scheduler/internal/persistence"
)

// InsertNotifications stores a batch of notifications in one transaction.
func (s *Store) InsertNotifications(ctx context.Context, notifications []persistence.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	insert := func(h *QueryHelper) error {
		for _, n := range notifications {
			_, err := h.Exec(ctx, `
				INSERT INTO notifications (id, user_id, class_id, notification_type, title, message,
					related_id, related_type, is_read, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				n.ID, n.UserID, nullString(n.ClassID), n.Type, n.Title, n.Message,
				nullString(n.RelatedID), nullString(n.RelatedType), n.IsRead, formatTimestamp(n.CreatedAt))
			if err != nil {
				return s.mapper.MapError(err)
			}
		}
		return nil
	}
	if s.inTx {
		return insert(s.helper)
	}
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insert(s.helper.withTx(tx))
	})
}

// ListNotificationsForUser returns the user's notifications newest first.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string) ([]persistence.Notification, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT id, user_id, class_id, notification_type, title, message, related_id, related_type, is_read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.Notification
	for rows.Next() {
		var (
			n                               persistence.Notification
			classID, relatedID, relatedType sql.NullString
			createdAt                       string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &classID, &n.Type, &n.Title, &n.Message, &relatedID, &relatedType, &n.IsRead, &createdAt); err != nil {
			return nil, s.mapper.MapError(err)
		}
		n.ClassID = classID.String
		n.RelatedID = relatedID.String
		n.RelatedType = relatedType.String
		if n.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return out, nil
}
