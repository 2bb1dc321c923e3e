package persistence

import (
	"context"
	"fmt"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// Catalog is a bundle of academic reference data loaded in one go, as the
// seed command and test fixtures do.
type Catalog struct {
	Classes     []scheduler.Class
	Subjects    []Subject
	Teachers    []Teacher
	Assignments []scheduler.SubjectAssignment
	Students    []Student
}

// Write stores the catalog in dependency order and stops at the first error.
func (c Catalog) Write(ctx context.Context, repo CatalogRepository) error {
	for _, class := range c.Classes {
		if err := repo.CreateClass(ctx, class); err != nil {
			return fmt.Errorf("class %s: %w", class.ID, err)
		}
	}
	for _, subject := range c.Subjects {
		if err := repo.CreateSubject(ctx, subject); err != nil {
			return fmt.Errorf("subject %s: %w", subject.ID, err)
		}
	}
	for _, teacher := range c.Teachers {
		if err := repo.CreateTeacher(ctx, teacher); err != nil {
			return fmt.Errorf("teacher %s: %w", teacher.ID, err)
		}
	}
	for _, assignment := range c.Assignments {
		if err := repo.AssignSubject(ctx, assignment); err != nil {
			return fmt.Errorf("assignment %s: %w", assignment.ID, err)
		}
	}
	for _, student := range c.Students {
		if err := repo.EnrollStudent(ctx, student); err != nil {
			return fmt.Errorf("student %s: %w", student.ID, err)
		}
	}
	return nil
}
