// Package generator proposes first-draft weekly timetables. It only places
// subjects into a day × period grid; conflict checks against committed
// schedules happen when the proposals are persisted.
package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

const (
	defaultMinPeriods = 3
	defaultMaxPeriods = 5
)

// Policy describes the weekly grid and the per-subject period range.
type Policy struct {
	Days       []time.Weekday
	Periods    []scheduler.Window
	MinPeriods int
	MaxPeriods int
}

// DefaultPolicy is Monday to Friday with eight 50 minute periods starting
// hourly at 08:00, and three to five periods per subject.
func DefaultPolicy() Policy {
	periods := make([]scheduler.Window, 0, 8)
	for hour := 8; hour < 16; hour++ {
		start := scheduler.TimeOfDay(hour * 60)
		periods = append(periods, scheduler.Window{Start: start, End: start + 50})
	}
	return Policy{
		Days:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Periods:    periods,
		MinPeriods: defaultMinPeriods,
		MaxPeriods: defaultMaxPeriods,
	}
}

// PoolSize is the number of distinct (day, period) cells.
func (p Policy) PoolSize() int {
	return len(p.Days) * len(p.Periods)
}

// Validate rejects empty grids, malformed periods and inverted ranges.
func (p Policy) Validate() error {
	var errs []error
	if len(p.Days) == 0 {
		errs = append(errs, errors.New("policy: at least one day is required"))
	}
	seenDays := make(map[time.Weekday]struct{}, len(p.Days))
	for _, d := range p.Days {
		if d < time.Sunday || d > time.Saturday {
			errs = append(errs, fmt.Errorf("policy: invalid day %d", d))
			continue
		}
		if _, dup := seenDays[d]; dup {
			errs = append(errs, fmt.Errorf("policy: duplicate day %s", d))
		}
		seenDays[d] = struct{}{}
	}
	if len(p.Periods) == 0 {
		errs = append(errs, errors.New("policy: at least one period is required"))
	}
	for i, w := range p.Periods {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("policy: period %d: %w", i+1, err))
		}
		for j := 0; j < i; j++ {
			if p.Periods[j].Overlaps(w) {
				errs = append(errs, fmt.Errorf("policy: period %d overlaps period %d", i+1, j+1))
			}
		}
	}
	if p.MinPeriods < 1 {
		errs = append(errs, errors.New("policy: min_periods must be at least 1"))
	}
	if p.MaxPeriods < p.MinPeriods {
		errs = append(errs, errors.New("policy: max_periods must not be below min_periods"))
	}
	return errors.Join(errs...)
}
