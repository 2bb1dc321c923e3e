package generator

import (
	"math/rand/v2"
	"time"

	"github.com/example/academic-scheduler/internal/scheduler"
)

// Rand is the subset of *rand.Rand the planner draws from.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a PCG backed source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Proposal is a candidate placement for one subject assignment.
type Proposal struct {
	Assignment scheduler.SubjectAssignment
	Key        scheduler.TemporalKey
}

// Plan is the outcome of a placement run.
type Plan struct {
	Proposals []Proposal
	// Required maps assignment id to the number of periods it asked for.
	Required map[string]int
	// Shortfall maps assignment id to the periods that found no free cell.
	Shortfall map[string]int
}

// Planner places subjects into the policy grid without backtracking.
type Planner struct {
	policy Policy
	rng    Rand
}

// NewPlanner constructs a planner. A nil rng falls back to a time seeded
// source.
func NewPlanner(policy Policy, rng Rand) *Planner {
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}
	return &Planner{policy: policy, rng: rng}
}

// RequiredPeriods returns the assignment's explicit weekly count, or a draw
// from the policy's inclusive range.
func (p *Planner) RequiredPeriods(a scheduler.SubjectAssignment) int {
	if a.PeriodsPerWeek > 0 {
		return a.PeriodsPerWeek
	}
	span := p.policy.MaxPeriods - p.policy.MinPeriods + 1
	if span <= 1 {
		return p.policy.MinPeriods
	}
	return p.policy.MinPeriods + p.rng.IntN(span)
}

// Plan places each assignment in order. For every subject the day order and
// the period order are shuffled independently; days are walked in the outer
// loop and periods in the inner one. A cell used by an earlier subject is
// skipped, so the class is never booked twice in one period.
func (p *Planner) Plan(assignments []scheduler.SubjectAssignment) Plan {
	plan := Plan{
		Required:  make(map[string]int, len(assignments)),
		Shortfall: make(map[string]int),
	}
	for _, a := range assignments {
		plan.Required[a.ID] = p.RequiredPeriods(a)
	}

	type cell struct {
		day   time.Weekday
		start scheduler.TimeOfDay
	}
	used := make(map[cell]struct{}, p.policy.PoolSize())

	for _, a := range assignments {
		required := plan.Required[a.ID]

		days := append([]time.Weekday(nil), p.policy.Days...)
		p.rng.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })
		periods := append([]scheduler.Window(nil), p.policy.Periods...)
		p.rng.Shuffle(len(periods), func(i, j int) { periods[i], periods[j] = periods[j], periods[i] })

		placed := 0
	days:
		for _, day := range days {
			for _, w := range periods {
				if placed >= required {
					break days
				}
				c := cell{day: day, start: w.Start}
				if _, taken := used[c]; taken {
					continue
				}
				used[c] = struct{}{}
				plan.Proposals = append(plan.Proposals, Proposal{Assignment: a, Key: scheduler.Weekly(day, w)})
				placed++
			}
		}
		if placed < required {
			plan.Shortfall[a.ID] = required - placed
		}
	}
	return plan
}
