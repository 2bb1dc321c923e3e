package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

const slotColumns = `s.id, s.container_id, s.kind, s.subject_id, s.class_subject_id, s.class_id,
	s.teacher_id, s.room_id, s.day_of_week, s.slot_date, s.start_time, s.end_time,
	s.due_date, s.max_students, s.notes, s.created_at, s.updated_at`

// slotRow is the column encoding of a slot's temporal key.
type slotRow struct {
	dayOfWeek int
	date      sql.NullString
	start     sql.NullString
	end       sql.NullString
}

func encodeKey(key scheduler.TemporalKey) slotRow {
	row := slotRow{dayOfWeek: scheduler.ISOWeekday(key.Weekday), date: nullDate(key.Date)}
	if key.Timed() {
		row.start = sql.NullString{String: key.Window.Start.String(), Valid: true}
		row.end = sql.NullString{String: key.Window.End.String(), Valid: true}
	}
	return row
}

func decodeKey(row slotRow) (scheduler.TemporalKey, error) {
	date, err := parseNullDate("slot_date", row.date)
	if err != nil {
		return scheduler.TemporalKey{}, err
	}
	if !row.start.Valid {
		return scheduler.DueOn(date), nil
	}
	w, err := scheduler.NewWindow(row.start.String, row.end.String)
	if err != nil {
		return scheduler.TemporalKey{}, fmt.Errorf("failed to parse slot window: %w", err)
	}
	if date.IsZero() {
		return scheduler.Weekly(scheduler.WeekdayFromISO(row.dayOfWeek), w), nil
	}
	return scheduler.Dated(date, w), nil
}

// InsertSlot stores a new slot. Callers run it inside Atomic together with
// the conflict lookup.
func (s *Store) InsertSlot(ctx context.Context, slot scheduler.Slot) error {
	if slot.ID == "" || slot.ContainerID == "" {
		return persistence.ErrConstraintViolation
	}
	key := encodeKey(slot.Key)
	_, err := s.helper.Exec(ctx, `
		INSERT INTO schedule_slots (id, container_id, kind, subject_id, class_subject_id, class_id,
			teacher_id, room_id, day_of_week, slot_date, start_time, end_time,
			due_date, max_students, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.ID,
		slot.ContainerID,
		string(slot.Kind),
		nullString(slot.SubjectID),
		nullString(slot.ClassSubjectID),
		nullString(slot.ClassID),
		nullString(slot.TeacherID),
		nullString(slot.RoomID),
		key.dayOfWeek,
		key.date,
		key.start,
		key.end,
		nullDueDate(slot.DueDate),
		nullInt(slot.MaxStudents),
		slot.Notes,
		formatTimestamp(slot.CreatedAt),
		formatTimestamp(slot.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// UpdateSlot rewrites every mutable column of an existing slot.
func (s *Store) UpdateSlot(ctx context.Context, slot scheduler.Slot) error {
	key := encodeKey(slot.Key)
	result, err := s.helper.Exec(ctx, `
		UPDATE schedule_slots
		SET subject_id = ?, class_subject_id = ?, class_id = ?, teacher_id = ?, room_id = ?,
			day_of_week = ?, slot_date = ?, start_time = ?, end_time = ?,
			due_date = ?, max_students = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		nullString(slot.SubjectID),
		nullString(slot.ClassSubjectID),
		nullString(slot.ClassID),
		nullString(slot.TeacherID),
		nullString(slot.RoomID),
		key.dayOfWeek,
		key.date,
		key.start,
		key.end,
		nullDueDate(slot.DueDate),
		nullInt(slot.MaxStudents),
		slot.Notes,
		formatTimestamp(slot.UpdatedAt),
		slot.ID,
	)
	if err != nil {
		return s.mapper.MapError(err)
	}
	return expectAffected(result)
}

// GetSlot retrieves a slot by id.
func (s *Store) GetSlot(ctx context.Context, id string) (scheduler.Slot, error) {
	if id == "" {
		return scheduler.Slot{}, persistence.ErrNotFound
	}
	row := s.helper.QueryRow(ctx, `SELECT `+slotColumns+` FROM schedule_slots s WHERE s.id = ?`, id)
	slot, err := scanSlot(row)
	if err != nil {
		return scheduler.Slot{}, s.mapper.MapError(err)
	}
	return slot, nil
}

// DeleteSlot removes a slot.
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	result, err := s.helper.Exec(ctx, `DELETE FROM schedule_slots WHERE id = ?`, id)
	if err != nil {
		return s.mapper.MapError(err)
	}
	return expectAffected(result)
}

// ListSlotsForContainer returns the container's slots ordered by weekday or
// date, then start time.
func (s *Store) ListSlotsForContainer(ctx context.Context, containerID string) ([]scheduler.Slot, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT `+slotColumns+` FROM schedule_slots s
		WHERE s.container_id = ?
		ORDER BY COALESCE(s.slot_date, ''), s.day_of_week, COALESCE(s.start_time, ''), s.id`, containerID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []scheduler.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return slots, nil
}

// ListClassSlots returns the slots bound to a class across every container
// of the given kind and status.
func (s *Store) ListClassSlots(ctx context.Context, filter persistence.ClassSlotFilter) ([]scheduler.Slot, error) {
	query := `
		SELECT ` + slotColumns + ` FROM schedule_slots s
		JOIN schedule_containers c ON c.id = s.container_id
		WHERE s.class_id = ? AND c.kind = ? AND c.status = ?`
	args := []any{filter.ClassID, string(filter.Kind), string(filter.Status)}
	if filter.AcademicYear != "" {
		query += ` AND c.academic_year = ?`
		args = append(args, filter.AcademicYear)
	}
	query += ` ORDER BY COALESCE(s.slot_date, ''), s.day_of_week, COALESCE(s.start_time, ''), s.id`

	rows, err := s.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []scheduler.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return slots, nil
}

// FindBookings returns timed slots of the query's kind in the same
// temporal bucket that bind the queried resource, joined with the names
// used in conflict messages. Overlap and scope are left to the caller.
func (s *Store) FindBookings(ctx context.Context, q scheduler.BookingQuery) ([]scheduler.Booking, error) {
	var column string
	switch q.Type {
	case scheduler.ResourceTeacher:
		column = "s.teacher_id"
	case scheduler.ResourceRoom:
		column = "s.room_id"
	case scheduler.ResourceClass:
		column = "s.class_id"
	default:
		return nil, fmt.Errorf("sqlite: unknown resource type %q", q.Type)
	}

	query := `
		SELECT ` + slotColumns + `, c.name, COALESCE(cl.name, ''), COALESCE(sub.name, '')
		FROM schedule_slots s
		JOIN schedule_containers c ON c.id = s.container_id
		LEFT JOIN classes cl ON cl.id = s.class_id
		LEFT JOIN subjects sub ON sub.id = s.subject_id
		WHERE s.kind = ? AND ` + column + ` = ? AND s.start_time IS NOT NULL AND c.status <> 'archived'`
	args := []any{string(q.Kind), q.ResourceID}
	if q.Key.Recurring() {
		query += ` AND s.slot_date IS NULL AND s.day_of_week = ?`
		args = append(args, scheduler.ISOWeekday(q.Key.Weekday))
	} else {
		query += ` AND s.slot_date = ?`
		args = append(args, q.Key.Date.Format(scheduler.DateLayout))
	}
	query += ` ORDER BY s.start_time, s.id`

	rows, err := s.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []scheduler.Booking
	for rows.Next() {
		var b scheduler.Booking
		slot, err := scanSlot(rows, &b.ContainerName, &b.ClassName, &b.SubjectName)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		b.Slot = slot
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return bookings, nil
}

func scanSlot(row rowScanner, extra ...any) (scheduler.Slot, error) {
	var (
		slot                               scheduler.Slot
		kind                               string
		subjectID, classSubjectID, classID sql.NullString
		teacherID, roomID                  sql.NullString
		key                                slotRow
		dueDate                            sql.NullString
		maxStudents                        sql.NullInt64
		createdAt, updatedAt               string
	)
	dest := []any{
		&slot.ID, &slot.ContainerID, &kind, &subjectID, &classSubjectID, &classID,
		&teacherID, &roomID, &key.dayOfWeek, &key.date, &key.start, &key.end,
		&dueDate, &maxStudents, &slot.Notes, &createdAt, &updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return scheduler.Slot{}, err
	}

	slot.Kind = scheduler.Kind(kind)
	slot.SubjectID = subjectID.String
	slot.ClassSubjectID = classSubjectID.String
	slot.ClassID = classID.String
	slot.TeacherID = teacherID.String
	slot.RoomID = roomID.String

	var err error
	if slot.Key, err = decodeKey(key); err != nil {
		return scheduler.Slot{}, err
	}
	if dueDate.Valid {
		d, err := parseNullDate("due_date", dueDate)
		if err != nil {
			return scheduler.Slot{}, err
		}
		slot.DueDate = &d
	}
	if maxStudents.Valid {
		n := int(maxStudents.Int64)
		slot.MaxStudents = &n
	}
	if slot.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return scheduler.Slot{}, err
	}
	if slot.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return scheduler.Slot{}, err
	}
	return slot, nil
}

func nullDueDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullDate(*d)
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
