package scheduler

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:00", want: 480},
		{in: "8:05", want: 485},
		{in: "13:45:00", want: 825},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:00:30", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
	if s := TimeOfDay(485).String(); s != "08:05" {
		t.Fatalf("expected 08:05, got %s", s)
	}
}

func TestNewWindowRejectsEmptyRange(t *testing.T) {
	t.Parallel()

	if _, err := NewWindow("10:00", "10:00"); err == nil {
		t.Fatalf("expected error for empty window")
	}
	if _, err := NewWindow("11:00", "10:00"); err == nil {
		t.Fatalf("expected error for reversed window")
	}
}

func TestTemporalKeyValidateFor(t *testing.T) {
	t.Parallel()

	w := Window{Start: 540, End: 590}
	date := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name    string
		key     TemporalKey
		kind    Kind
		wantErr bool
	}{
		{name: "weekly timetable", key: Weekly(time.Monday, w), kind: KindTimetable},
		{name: "dated timetable", key: Dated(date, w), kind: KindTimetable, wantErr: true},
		{name: "untimed timetable", key: TemporalKey{Weekday: time.Monday}, kind: KindTimetable, wantErr: true},
		{name: "dated exam", key: Dated(date, w), kind: KindExam},
		{name: "weekly exam", key: Weekly(time.Monday, w), kind: KindExam, wantErr: true},
		{name: "due-date exam", key: DueOn(date), kind: KindExam, wantErr: true},
		{name: "due-date assessment", key: DueOn(date), kind: KindAssessment},
		{name: "timed assessment", key: Dated(date, w), kind: KindAssessment},
		{name: "reversed window", key: Weekly(time.Monday, Window{Start: 600, End: 500}), kind: KindTimetable, wantErr: true},
		{name: "unknown kind", key: Weekly(time.Monday, w), kind: Kind("lecture"), wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.key.ValidateFor(tc.kind)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTemporalKeyBucket(t *testing.T) {
	t.Parallel()

	w := Window{Start: 540, End: 590}
	date := time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC)
	if got := Weekly(time.Tuesday, w).Bucket(); got != "weekday:Tuesday" {
		t.Fatalf("unexpected weekly bucket %q", got)
	}
	if got := Dated(date, w).Bucket(); got != "date:2025-03-04" {
		t.Fatalf("unexpected dated bucket %q", got)
	}
	if Weekly(time.Tuesday, w).Overlaps(Dated(date, w)) {
		t.Fatalf("weekly and dated keys must not share a bucket")
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Weekday{
		"Monday": time.Monday,
		"fri":    time.Friday,
		"1":      time.Monday,
		"7":      time.Sunday,
		"SUNDAY": time.Sunday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Fatalf("ParseWeekday(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWeekday(%q): expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseWeekday("8"); err == nil {
		t.Fatalf("expected error for out of range day")
	}
	if _, err := ParseWeekday("funday"); err == nil {
		t.Fatalf("expected error for unknown day")
	}
	if ISOWeekday(time.Sunday) != 7 || ISOWeekday(time.Monday) != 1 {
		t.Fatalf("unexpected ISO weekday mapping")
	}
}

func TestContainerCovers(t *testing.T) {
	t.Parallel()

	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	c := Container{StartDate: day(time.October, 1), EndDate: day(time.October, 31)}

	cases := []struct {
		date time.Time
		want bool
	}{
		{date: day(time.September, 30), want: false},
		{date: day(time.October, 1), want: true},
		{date: day(time.October, 31).Add(23 * time.Hour), want: true},
		{date: day(time.November, 1), want: false},
	}
	for _, tc := range cases {
		if got := c.Covers(tc.date); got != tc.want {
			t.Fatalf("expected Covers(%s) = %v, got %v", tc.date, tc.want, got)
		}
	}

	if !(Container{}).Covers(day(time.January, 1)) {
		t.Fatalf("expected a container without bounds to cover every date")
	}
}
