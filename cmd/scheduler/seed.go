package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.yaml>",
	Short: "Load classes, subjects, teachers and students from YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

// catalogFile is the YAML layout accepted by the seed command:
//
//	classes:
//	  - {id: C1, name: Form 1A, academic_year: "2025"}
//	subjects:
//	  - {id: math, code: MATH, name: Mathematics}
//	teachers:
//	  - {id: T1, user_id: u-t1, name: Ada Lovelace}
//	assignments:
//	  - {id: CS-1-math, class: C1, subject: math, teacher: T1, periods_per_week: 4}
//	students:
//	  - {id: st-1, user_id: u-s1, class: C1, name: Amina}
type catalogFile struct {
	Classes []struct {
		ID           string `yaml:"id"`
		Name         string `yaml:"name"`
		AcademicYear string `yaml:"academic_year"`
	} `yaml:"classes"`
	Subjects []struct {
		ID   string `yaml:"id"`
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"subjects"`
	Teachers []struct {
		ID     string `yaml:"id"`
		UserID string `yaml:"user_id"`
		Name   string `yaml:"name"`
	} `yaml:"teachers"`
	Assignments []struct {
		ID             string `yaml:"id"`
		Class          string `yaml:"class"`
		Subject        string `yaml:"subject"`
		Teacher        string `yaml:"teacher"`
		Room           string `yaml:"room"`
		PeriodsPerWeek int    `yaml:"periods_per_week"`
	} `yaml:"assignments"`
	Students []struct {
		ID     string `yaml:"id"`
		UserID string `yaml:"user_id"`
		Class  string `yaml:"class"`
		Name   string `yaml:"name"`
	} `yaml:"students"`
}

func parseCatalog(data []byte) (persistence.Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return persistence.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	var catalog persistence.Catalog
	for _, c := range file.Classes {
		catalog.Classes = append(catalog.Classes, scheduler.Class{ID: c.ID, Name: c.Name, AcademicYear: c.AcademicYear})
	}
	for _, s := range file.Subjects {
		catalog.Subjects = append(catalog.Subjects, persistence.Subject{ID: s.ID, Code: s.Code, Name: s.Name})
	}
	for _, t := range file.Teachers {
		catalog.Teachers = append(catalog.Teachers, persistence.Teacher{ID: t.ID, UserID: t.UserID, Name: t.Name})
	}
	for _, a := range file.Assignments {
		catalog.Assignments = append(catalog.Assignments, scheduler.SubjectAssignment{
			ID:             a.ID,
			ClassID:        a.Class,
			SubjectID:      a.Subject,
			TeacherID:      a.Teacher,
			RoomID:         a.Room,
			PeriodsPerWeek: a.PeriodsPerWeek,
		})
	}
	for _, s := range file.Students {
		catalog.Students = append(catalog.Students, persistence.Student{ID: s.ID, UserID: s.UserID, ClassID: s.Class, Name: s.Name})
	}
	return catalog, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	catalog, err := parseCatalog(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := catalog.Write(ctx, store); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info("catalog seeded",
		slog.Int("classes", len(catalog.Classes)),
		slog.Int("subjects", len(catalog.Subjects)),
		slog.Int("teachers", len(catalog.Teachers)),
		slog.Int("assignments", len(catalog.Assignments)),
		slog.Int("students", len(catalog.Students)),
	)
	return nil
}
