package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

const containerColumns = `id, kind, name, category, class_id, academic_year, semester,
	start_date, end_date, status, created_by, created_at, updated_at`

// CreateContainer inserts a new container.
func (s *Store) CreateContainer(ctx context.Context, c scheduler.Container) error {
	if c.ID == "" || !c.Kind.Valid() {
		return persistence.ErrConstraintViolation
	}
	if c.Status == "" {
		c.Status = scheduler.StatusDraft
	}

	_, err := s.helper.Exec(ctx, `
		INSERT INTO schedule_containers (`+containerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		string(c.Kind),
		c.Name,
		c.Category,
		nullString(c.ClassID),
		c.AcademicYear,
		c.Semester,
		nullDate(c.StartDate),
		nullDate(c.EndDate),
		string(c.Status),
		c.CreatedBy,
		formatTimestamp(c.CreatedAt),
		formatTimestamp(c.UpdatedAt),
	)
	return s.mapper.MapError(err)
}

// GetContainer retrieves a container by id.
func (s *Store) GetContainer(ctx context.Context, id string) (scheduler.Container, error) {
	if id == "" {
		return scheduler.Container{}, persistence.ErrNotFound
	}
	row := s.helper.QueryRow(ctx, `SELECT `+containerColumns+` FROM schedule_containers WHERE id = ?`, id)
	c, err := scanContainer(row)
	if err != nil {
		return scheduler.Container{}, s.mapper.MapError(err)
	}
	return c, nil
}

// ListContainers lists containers newest first.
func (s *Store) ListContainers(ctx context.Context, filter persistence.ContainerFilter) ([]scheduler.Container, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.ClassID != "" {
		conditions = append(conditions, "class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, "academic_year = ?")
		args = append(args, filter.AcademicYear)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + containerColumns + ` FROM schedule_containers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var containers []scheduler.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		containers = append(containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return containers, nil
}

// DeleteContainer removes a container and, through the cascade, its slots.
func (s *Store) DeleteContainer(ctx context.Context, id string) error {
	result, err := s.helper.Exec(ctx, `DELETE FROM schedule_containers WHERE id = ?`, id)
	if err != nil {
		return s.mapper.MapError(err)
	}
	return expectAffected(result)
}

// TransitionContainer is a compare-and-swap on the status column.
func (s *Store) TransitionContainer(ctx context.Context, id string, from []scheduler.Status, to scheduler.Status, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	placeholders := make([]string, len(from))
	args := []any{string(to), formatTimestamp(at), id}
	for i, status := range from {
		placeholders[i] = "?"
		args = append(args, string(status))
	}
	result, err := s.helper.Exec(ctx, fmt.Sprintf(`
		UPDATE schedule_containers SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (%s)`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return false, s.mapper.MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ActiveTimetableForClass returns the class's active timetable.
func (s *Store) ActiveTimetableForClass(ctx context.Context, classID string) (scheduler.Container, error) {
	row := s.helper.QueryRow(ctx, `
		SELECT `+containerColumns+` FROM schedule_containers
		WHERE kind = 'timetable' AND status = 'active' AND class_id = ?`, classID)
	c, err := scanContainer(row)
	if err != nil {
		return scheduler.Container{}, s.mapper.MapError(err)
	}
	return c, nil
}

// ArchiveActiveTimetables archives the class's active timetables other than
// exceptID.
func (s *Store) ArchiveActiveTimetables(ctx context.Context, classID, exceptID string, at time.Time) (int64, error) {
	result, err := s.helper.Exec(ctx, `
		UPDATE schedule_containers SET status = 'archived', updated_at = ?
		WHERE kind = 'timetable' AND status = 'active' AND class_id = ? AND id <> ?`,
		formatTimestamp(at), classID, exceptID)
	if err != nil {
		return 0, s.mapper.MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func scanContainer(row rowScanner) (scheduler.Container, error) {
	var (
		c                    scheduler.Container
		kind, status         string
		classID              sql.NullString
		startDate, endDate   sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&c.ID, &kind, &c.Name, &c.Category, &classID, &c.AcademicYear, &c.Semester,
		&startDate, &endDate, &status, &c.CreatedBy, &createdAt, &updatedAt,
	); err != nil {
		return scheduler.Container{}, err
	}
	c.Kind = scheduler.Kind(kind)
	c.Status = scheduler.Status(status)
	c.ClassID = classID.String

	var err error
	if c.StartDate, err = parseNullDate("start_date", startDate); err != nil {
		return scheduler.Container{}, err
	}
	if c.EndDate, err = parseNullDate("end_date", endDate); err != nil {
		return scheduler.Container{}, err
	}
	if c.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return scheduler.Container{}, err
	}
	if c.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return scheduler.Container{}, err
	}
	return c, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
