package application

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/academic-scheduler/internal/scheduler"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names rather than Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if str, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(str) != ""
		}
		return false
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(ut.Translator, validator.FieldError) string { return "this field cannot be blank" },
	)
}

// validateStruct runs the struct tags of v and collects the failures keyed
// by JSON field name.
func validateStruct(v any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fe.Translate(translator))
	}
	return vErr
}

// parseDateField parses an optional date that already passed the datetime
// tag. Fields with an earlier error are skipped.
func parseDateField(field, value string, vErr *ValidationError) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if _, failed := vErr.FieldErrors[field]; failed {
		return time.Time{}, false
	}
	date, err := scheduler.ParseDate(value)
	if err != nil {
		vErr.add(field, field+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return date, true
}

func parseWindowFields(start, end string, vErr *ValidationError) (scheduler.Window, bool) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return scheduler.Window{}, false
	}
	if start == "" {
		vErr.add("start_time", "start_time is required when end_time is set")
		return scheduler.Window{}, false
	}
	if end == "" {
		vErr.add("end_time", "end_time is required when start_time is set")
		return scheduler.Window{}, false
	}
	s, err := scheduler.ParseTimeOfDay(start)
	if err != nil {
		vErr.add("start_time", "start_time must be in HH:MM format")
	}
	e, err2 := scheduler.ParseTimeOfDay(end)
	if err2 != nil {
		vErr.add("end_time", "end_time must be in HH:MM format")
	}
	if err != nil || err2 != nil {
		return scheduler.Window{}, false
	}
	w := scheduler.Window{Start: s, End: e}
	if w.Validate() != nil {
		vErr.add("end_time", "end_time must be after start_time")
		return scheduler.Window{}, false
	}
	return w, true
}

// buildSlot validates input for a container kind and returns the slot it
// describes. Identity and timestamps are left to the caller.
func buildSlot(kind scheduler.Kind, input SlotInput) (scheduler.Slot, *ValidationError) {
	vErr := validateStruct(input)

	slot := scheduler.Slot{
		Kind:           kind,
		SubjectID:      strings.TrimSpace(input.SubjectID),
		ClassSubjectID: strings.TrimSpace(input.ClassSubjectID),
		ClassID:        strings.TrimSpace(input.ClassID),
		TeacherID:      strings.TrimSpace(input.TeacherID),
		RoomID:         strings.TrimSpace(input.RoomID),
		MaxStudents:    input.MaxStudents,
		Notes:          input.Notes,
	}

	window, timed := parseWindowFields(input.StartTime, input.EndTime, vErr)
	date, dated := parseDateField("date", input.Date, vErr)
	due, hasDue := parseDateField("due_date", input.DueDate, vErr)

	switch kind {
	case scheduler.KindTimetable:
		if strings.TrimSpace(input.Date) != "" {
			vErr.add("date", "timetable slots repeat weekly and take no date")
		}
		day, err := scheduler.ParseWeekday(input.DayOfWeek)
		switch {
		case strings.TrimSpace(input.DayOfWeek) == "":
			vErr.add("day_of_week", "day_of_week is required")
		case err != nil:
			vErr.add("day_of_week", "day_of_week must be a weekday name or a number from 1 to 7")
		}
		if !timed && strings.TrimSpace(input.StartTime) == "" && strings.TrimSpace(input.EndTime) == "" {
			vErr.add("start_time", "start_time and end_time are required")
		}
		slot.Key = scheduler.Weekly(day, window)
	case scheduler.KindExam:
		if !dated && strings.TrimSpace(input.Date) == "" {
			vErr.add("date", "date is required")
		}
		if !timed && strings.TrimSpace(input.StartTime) == "" && strings.TrimSpace(input.EndTime) == "" {
			vErr.add("start_time", "start_time and end_time are required")
		}
		slot.Key = scheduler.Dated(date, window)
	case scheduler.KindAssessment:
		if !dated && strings.TrimSpace(input.Date) == "" {
			vErr.add("date", "date is required")
		}
		if timed {
			slot.Key = scheduler.Dated(date, window)
		} else {
			slot.Key = scheduler.DueOn(date)
		}
	default:
		vErr.add("kind", "unknown schedule kind")
	}

	if hasDue {
		if kind != scheduler.KindAssessment {
			vErr.add("due_date", "due_date only applies to assessments")
		} else {
			slot.DueDate = &due
		}
	}

	if !vErr.HasErrors() {
		if err := slot.Key.ValidateFor(kind); err != nil {
			vErr.add("time", err.Error())
		}
	}
	return slot, vErr
}

// checkWithinContainer rejects a dated slot that falls outside the
// container's date range.
func checkWithinContainer(container scheduler.Container, slot scheduler.Slot, vErr *ValidationError) {
	if slot.Key.Recurring() || container.Covers(slot.Key.Date) {
		return
	}
	vErr.add("date", "date must fall between "+container.StartDate.Format(scheduler.DateLayout)+
		" and "+container.EndDate.Format(scheduler.DateLayout))
}

// containerFields is the validated, parsed form of a ContainerInput.
type containerFields struct {
	kind      scheduler.Kind
	name      string
	category  string
	classID   string
	year      string
	semester  string
	startDate time.Time
	endDate   time.Time
}

// parseContainerInput validates input and fills missing dates with today
// and one year from today.
func parseContainerInput(input ContainerInput, today time.Time) (containerFields, *ValidationError) {
	vErr := validateStruct(input)
	fields := containerFields{
		kind:     scheduler.Kind(strings.TrimSpace(input.Kind)),
		name:     strings.TrimSpace(input.Name),
		category: strings.TrimSpace(input.Category),
		classID:  strings.TrimSpace(input.ClassID),
		year:     strings.TrimSpace(input.AcademicYear),
		semester: strings.TrimSpace(input.Semester),
	}
	if fields.kind != scheduler.KindTimetable && fields.kind.Valid() && fields.name == "" {
		vErr.add("name", "name is required")
	}
	fields.startDate, fields.endDate = parseDateRange(input.StartDate, input.EndDate, today, vErr)
	return fields, vErr
}

func parseDateRange(startValue, endValue string, today time.Time, vErr *ValidationError) (time.Time, time.Time) {
	start, ok := parseDateField("start_date", startValue, vErr)
	if !ok {
		start = scheduler.TruncateDate(today)
	}
	end, ok := parseDateField("end_date", endValue, vErr)
	if !ok {
		end = start.AddDate(1, 0, 0)
	}
	if end.Before(start) {
		vErr.add("end_date", "end_date must not be before start_date")
	}
	return start, end
}
