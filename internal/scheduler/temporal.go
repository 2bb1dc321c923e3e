package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for dated slots and containers.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var (
	// ErrInvalidTimeOfDay indicates a malformed HH:MM value.
	ErrInvalidTimeOfDay = errors.New("scheduler: invalid time of day")
	// ErrInvalidWindow indicates a window whose start is not before its end.
	ErrInvalidWindow = errors.New("scheduler: start must be before end")
	// ErrInvalidWeekday indicates an unrecognised weekday name.
	ErrInvalidWeekday = errors.New("scheduler: invalid weekday")
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
		}
	}
	t := TimeOfDay(hour*60 + minute)
	if t > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return t, nil
}

// String renders the time as zero padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is a half-open interval [Start, End) within a single day.
type Window struct {
	Start TimeOfDay `json:"start" yaml:"start"`
	End   TimeOfDay `json:"end" yaml:"end"`
}

// NewWindow parses both bounds and validates ordering.
func NewWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s, End: e}
	return w, w.Validate()
}

// Validate reports whether the window is non-empty and inside one day.
func (w Window) Validate() error {
	if w.Start < 0 || w.End > minutesPerDay || w.Start >= w.End {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps applies the half-open test: touching windows do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// TemporalKey places a slot in time. Recurring keys carry a weekday and a
// zero Date; dated keys carry a calendar date. Window is nil only for
// due-date assessments, which never conflict.
type TemporalKey struct {
	Weekday time.Weekday
	Date    time.Time
	Window  *Window
}

// Weekly builds a recurring key for timetable slots.
func Weekly(day time.Weekday, window Window) TemporalKey {
	w := window
	return TemporalKey{Weekday: day, Window: &w}
}

// Dated builds a key for exam slots and timed assessments.
func Dated(date time.Time, window Window) TemporalKey {
	w := window
	return TemporalKey{Date: TruncateDate(date), Weekday: date.Weekday(), Window: &w}
}

// DueOn builds an untimed key for due-date assessments.
func DueOn(date time.Time) TemporalKey {
	return TemporalKey{Date: TruncateDate(date), Weekday: date.Weekday()}
}

// Recurring reports whether the key repeats weekly.
func (k TemporalKey) Recurring() bool {
	return k.Date.IsZero()
}

// Timed reports whether the key has a time window.
func (k TemporalKey) Timed() bool {
	return k.Window != nil
}

// Bucket identifies the day a key competes in: a weekday for recurring
// keys, a calendar date otherwise.
func (k TemporalKey) Bucket() string {
	if k.Recurring() {
		return "weekday:" + k.Weekday.String()
	}
	return "date:" + k.Date.Format(DateLayout)
}

// Overlaps reports whether both keys share a bucket and their windows
// overlap.
func (k TemporalKey) Overlaps(other TemporalKey) bool {
	if !k.Timed() || !other.Timed() {
		return false
	}
	if k.Bucket() != other.Bucket() {
		return false
	}
	return k.Window.Overlaps(*other.Window)
}

// ValidateFor checks the key shape required by a schedule kind.
func (k TemporalKey) ValidateFor(kind Kind) error {
	switch kind {
	case KindTimetable:
		if !k.Recurring() {
			return errors.New("timetable slots repeat weekly and take no date")
		}
		if k.Weekday < time.Sunday || k.Weekday > time.Saturday {
			return ErrInvalidWeekday
		}
		if !k.Timed() {
			return errors.New("timetable slots require start and end times")
		}
	case KindExam:
		if k.Recurring() {
			return errors.New("exam slots require a date")
		}
		if !k.Timed() {
			return errors.New("exam slots require start and end times")
		}
	case KindAssessment:
		if k.Recurring() {
			return errors.New("assessment slots require a date")
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", kind)
	}
	if k.Timed() {
		return k.Window.Validate()
	}
	return nil
}

// ParseWeekday accepts full or three letter English day names, case
// insensitive, or ISO numbers 1 (Monday) to 7 (Sunday).
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 7 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
		}
		return WeekdayFromISO(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
}

// ISOWeekday maps Monday..Sunday to 1..7 so weekly slots sort Monday first.
func ISOWeekday(d time.Weekday) int {
	return (int(d)+6)%7 + 1
}

// WeekdayFromISO is the inverse of ISOWeekday.
func WeekdayFromISO(n int) time.Weekday {
	return time.Weekday(n % 7)
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
}

// TruncateDate drops the clock part, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
