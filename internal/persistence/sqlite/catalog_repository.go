package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// CreateClass inserts a class.
func (s *Store) CreateClass(ctx context.Context, class scheduler.Class) error {
	_, err := s.helper.Exec(ctx, `INSERT INTO classes (id, name, academic_year) VALUES (?, ?, ?)`,
		class.ID, class.Name, class.AcademicYear)
	return s.mapper.MapError(err)
}

// GetClass retrieves a class by id.
func (s *Store) GetClass(ctx context.Context, id string) (scheduler.Class, error) {
	var class scheduler.Class
	err := s.helper.QueryRow(ctx, `SELECT id, name, academic_year FROM classes WHERE id = ?`, id).
		Scan(&class.ID, &class.Name, &class.AcademicYear)
	if err != nil {
		return scheduler.Class{}, s.mapper.MapError(err)
	}
	return class, nil
}

// CreateSubject inserts a subject. Codes are stored verbatim as text.
func (s *Store) CreateSubject(ctx context.Context, subject persistence.Subject) error {
	_, err := s.helper.Exec(ctx, `INSERT INTO subjects (id, code, name) VALUES (?, ?, ?)`,
		subject.ID, subject.Code, subject.Name)
	return s.mapper.MapError(err)
}

// CreateTeacher inserts a teacher.
func (s *Store) CreateTeacher(ctx context.Context, teacher persistence.Teacher) error {
	_, err := s.helper.Exec(ctx, `INSERT INTO teachers (id, user_id, name) VALUES (?, ?, ?)`,
		teacher.ID, nullString(teacher.UserID), teacher.Name)
	return s.mapper.MapError(err)
}

// AssignSubject links a subject, its teacher and an optional home room to a
// class.
func (s *Store) AssignSubject(ctx context.Context, a scheduler.SubjectAssignment) error {
	if a.PeriodsPerWeek < 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := s.helper.Exec(ctx, `
		INSERT INTO class_subjects (id, class_id, subject_id, teacher_id, room_id, periods_per_week)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ClassID, a.SubjectID, nullString(a.TeacherID), nullString(a.RoomID), a.PeriodsPerWeek)
	return s.mapper.MapError(err)
}

// ListSubjectAssignments returns the class's subjects ordered by name.
func (s *Store) ListSubjectAssignments(ctx context.Context, classID string) ([]scheduler.SubjectAssignment, error) {
	rows, err := s.helper.Query(ctx, `
		SELECT cs.id, cs.class_id, cs.subject_id, sub.name, sub.code, cs.teacher_id, cs.room_id, cs.periods_per_week
		FROM class_subjects cs
		JOIN subjects sub ON sub.id = cs.subject_id
		WHERE cs.class_id = ?
		ORDER BY sub.name, cs.id`, classID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var assignments []scheduler.SubjectAssignment
	for rows.Next() {
		var (
			a               scheduler.SubjectAssignment
			teacherID, room sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ClassID, &a.SubjectID, &a.SubjectName, &a.SubjectCode, &teacherID, &room, &a.PeriodsPerWeek); err != nil {
			return nil, s.mapper.MapError(err)
		}
		a.TeacherID = teacherID.String
		a.RoomID = room.String
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return assignments, nil
}

// EnrollStudent inserts a student record bound to a class.
func (s *Store) EnrollStudent(ctx context.Context, student persistence.Student) error {
	_, err := s.helper.Exec(ctx, `INSERT INTO students (id, user_id, class_id, name) VALUES (?, ?, ?, ?)`,
		student.ID, student.UserID, nullString(student.ClassID), student.Name)
	return s.mapper.MapError(err)
}

// StudentUserIDs returns the user accounts of the class's current students.
func (s *Store) StudentUserIDs(ctx context.Context, classID string) ([]string, error) {
	rows, err := s.helper.Query(ctx, `SELECT user_id FROM students WHERE class_id = ? ORDER BY user_id`, classID)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, s.mapper.MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return ids, nil
}
