package application

import (
	"testing"
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

func TestBuildSlot(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		kind      scheduler.Kind
		input     SlotInput
		wantField string
		check     func(t *testing.T, slot scheduler.Slot)
	}{
		{
			name:  "timetable with weekday name",
			kind:  scheduler.KindTimetable,
			input: SlotInput{SubjectID: "math", TeacherID: "T1", DayOfWeek: "Monday", StartTime: "09:00", EndTime: "09:50"},
			check: func(t *testing.T, slot scheduler.Slot) {
				if !slot.Key.Recurring() || slot.Key.Weekday != time.Monday || slot.Key.Window.String() != "09:00-09:50" {
					t.Fatalf("unexpected key %+v", slot.Key)
				}
			},
		},
		{
			name:  "timetable with ISO day number",
			kind:  scheduler.KindTimetable,
			input: SlotInput{SubjectID: "math", DayOfWeek: "5", StartTime: "10:00:00", EndTime: "10:50:00"},
			check: func(t *testing.T, slot scheduler.Slot) {
				if slot.Key.Weekday != time.Friday {
					t.Fatalf("expected Friday, got %s", slot.Key.Weekday)
				}
			},
		},
		{
			name:      "timetable rejects a date",
			kind:      scheduler.KindTimetable,
			input:     SlotInput{SubjectID: "math", DayOfWeek: "Monday", Date: "2025-06-02", StartTime: "09:00", EndTime: "09:50"},
			wantField: "date",
		},
		{
			name:      "timetable requires a weekday",
			kind:      scheduler.KindTimetable,
			input:     SlotInput{SubjectID: "math", StartTime: "09:00", EndTime: "09:50"},
			wantField: "day_of_week",
		},
		{
			name:      "timetable requires times",
			kind:      scheduler.KindTimetable,
			input:     SlotInput{SubjectID: "math", DayOfWeek: "Tuesday"},
			wantField: "start_time",
		},
		{
			name:      "end before start",
			kind:      scheduler.KindTimetable,
			input:     SlotInput{SubjectID: "math", DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "09:00"},
			wantField: "end_time",
		},
		{
			name:      "malformed time",
			kind:      scheduler.KindExam,
			input:     SlotInput{SubjectID: "math", Date: "2025-06-02", StartTime: "9am", EndTime: "11:00"},
			wantField: "start_time",
		},
		{
			name:      "subject is required",
			kind:      scheduler.KindExam,
			input:     SlotInput{Date: "2025-06-02", StartTime: "09:00", EndTime: "11:00"},
			wantField: "subject_id",
		},
		{
			name:  "exam with date and window",
			kind:  scheduler.KindExam,
			input: SlotInput{SubjectID: "math", TeacherID: "T1", RoomID: "hall", Date: "2025-06-02", StartTime: "09:00", EndTime: "11:00"},
			check: func(t *testing.T, slot scheduler.Slot) {
				if slot.Key.Recurring() || slot.Key.Bucket() != "date:2025-06-02" {
					t.Fatalf("unexpected key %+v", slot.Key)
				}
			},
		},
		{
			name:      "exam requires a date",
			kind:      scheduler.KindExam,
			input:     SlotInput{SubjectID: "math", StartTime: "09:00", EndTime: "11:00"},
			wantField: "date",
		},
		{
			name:      "malformed date is reported by field",
			kind:      scheduler.KindExam,
			input:     SlotInput{SubjectID: "math", Date: "02/06/2025", StartTime: "09:00", EndTime: "11:00"},
			wantField: "date",
		},
		{
			name:  "assessment with due date only",
			kind:  scheduler.KindAssessment,
			input: SlotInput{SubjectID: "math", ClassID: "C1", Date: "2025-06-02", DueDate: "2025-06-09"},
			check: func(t *testing.T, slot scheduler.Slot) {
				if slot.Key.Timed() {
					t.Fatalf("expected an untimed key, got %+v", slot.Key)
				}
				if slot.DueDate == nil || slot.DueDate.Format(scheduler.DateLayout) != "2025-06-09" {
					t.Fatalf("unexpected due date %v", slot.DueDate)
				}
			},
		},
		{
			name:      "due date on an exam",
			kind:      scheduler.KindExam,
			input:     SlotInput{SubjectID: "math", Date: "2025-06-02", StartTime: "09:00", EndTime: "11:00", DueDate: "2025-06-09"},
			wantField: "due_date",
		},
		{
			name:      "capacity must be positive",
			kind:      scheduler.KindExam,
			input:     SlotInput{SubjectID: "math", Date: "2025-06-02", StartTime: "09:00", EndTime: "11:00", MaxStudents: new(int)},
			wantField: "max_students",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			slot, vErr := buildSlot(tc.kind, tc.input)
			if tc.wantField != "" {
				if _, ok := vErr.FieldErrors[tc.wantField]; !ok {
					t.Fatalf("expected error on %q, got %v", tc.wantField, vErr.FieldErrors)
				}
				return
			}
			if vErr.HasErrors() {
				t.Fatalf("expected no validation errors, got %v", vErr.FieldErrors)
			}
			if slot.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, slot.Kind)
			}
			tc.check(t, slot)
		})
	}
}

func TestParseContainerInput(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.March, 10, 15, 4, 0, 0, time.UTC)

	t.Run("defaults dates to one year from today", func(t *testing.T) {
		t.Parallel()
		fields, vErr := parseContainerInput(ContainerInput{Kind: "timetable", ClassID: "C1", AcademicYear: "2025"}, today)
		if vErr.HasErrors() {
			t.Fatalf("unexpected errors %v", vErr.FieldErrors)
		}
		if fields.startDate.Format(scheduler.DateLayout) != "2025-03-10" || fields.endDate.Format(scheduler.DateLayout) != "2026-03-10" {
			t.Fatalf("unexpected range %s - %s", fields.startDate, fields.endDate)
		}
	})

	t.Run("timetable needs a class", func(t *testing.T) {
		t.Parallel()
		_, vErr := parseContainerInput(ContainerInput{Kind: "timetable", AcademicYear: "2025"}, today)
		if _, ok := vErr.FieldErrors["class_id"]; !ok {
			t.Fatalf("expected class_id error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("exam needs a name and a known kind", func(t *testing.T) {
		t.Parallel()
		_, vErr := parseContainerInput(ContainerInput{Kind: "exam", AcademicYear: "2025"}, today)
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name error, got %v", vErr.FieldErrors)
		}
		_, vErr = parseContainerInput(ContainerInput{Kind: "quiz", AcademicYear: "2025"}, today)
		if _, ok := vErr.FieldErrors["kind"]; !ok {
			t.Fatalf("expected kind error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("blank academic year", func(t *testing.T) {
		t.Parallel()
		_, vErr := parseContainerInput(ContainerInput{Kind: "exam", Name: "Finals", AcademicYear: "   "}, today)
		if got := vErr.FieldErrors["academic_year"]; got != "this field cannot be blank" {
			t.Fatalf("expected notblank message, got %q", got)
		}
	})

	t.Run("end before start", func(t *testing.T) {
		t.Parallel()
		_, vErr := parseContainerInput(ContainerInput{Kind: "exam", Name: "Finals", AcademicYear: "2025", StartDate: "2025-06-10", EndDate: "2025-06-01"}, today)
		if _, ok := vErr.FieldErrors["end_date"]; !ok {
			t.Fatalf("expected end_date error, got %v", vErr.FieldErrors)
		}
	})
}
