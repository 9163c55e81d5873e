// Package schedule implements the spaced-repetition math for practice
// problems: review intervals, mastery classification, priority scoring,
// and topic-day resolution against a weekly practice plan.
//
// Everything in this package is a pure function of its inputs. All date
// arithmetic uses UTC civil days; see dates.go.
package schedule

import (
	"math"
)

// Difficulty is the problem difficulty as reported by the catalog.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Mastery is a coarse classification of how well-practiced a problem is.
// It is recomputed from scratch on every completion or undo, not
// transitioned incrementally.
type Mastery string

const (
	MasteryNew       Mastery = "new"
	MasteryLearning  Mastery = "learning"
	MasteryReviewing Mastery = "reviewing"
	MasteryMastered  Mastery = "mastered"
)

// Params holds the tunable constants of the scheduling algorithm. The
// interval table and point weights are empirical product decisions, so
// they are parameters rather than hard-coded values.
type Params struct {
	// BaseIntervals maps solve count (1-based) to a base interval in days.
	// Solve counts beyond the table use IntervalCap.
	BaseIntervals []int
	// IntervalCap is the base interval for solve counts past the table.
	IntervalCap int
	// DifficultyMultipliers scale the base interval per difficulty.
	DifficultyMultipliers map[Difficulty]float64

	// OverduePointsPerDay and OverdueCap bound the overdue priority signal.
	OverduePointsPerDay float64
	OverdueCap          float64
	// MasteryPoints is the fixed priority contribution per mastery tier.
	MasteryPoints map[Mastery]float64
	// SolveCountPoints maps solve count (0-based index) to its scarcity
	// contribution; solve counts past the end of the slice use
	// SolveCountFloor.
	SolveCountPoints []float64
	SolveCountFloor  float64
	// RecencyPointsPerDay and RecencyCap bound the days-since-last-review
	// signal. A problem never reviewed is awarded the full RecencyCap.
	RecencyPointsPerDay float64
	RecencyCap          float64

	// FallbackDays is the cadence used when no practice plan exists or no
	// topic day is found within the horizon.
	FallbackDays int
	// HorizonDays bounds the forward scan of NextTopicDay.
	HorizonDays int
	// DistributeWeeksAhead is how many topic days overflow is spread over.
	DistributeWeeksAhead int
	// FallbackWindowStart and FallbackWindowDays define the distribution
	// window used when no topic days exist: items land between
	// FallbackWindowStart and FallbackWindowStart+FallbackWindowDays-1
	// days out.
	FallbackWindowStart int
	FallbackWindowDays  int
}

// DefaultParams returns the scheduling constants the planner ships with.
func DefaultParams() Params {
	return Params{
		BaseIntervals: []int{1, 3, 7, 14, 30},
		IntervalCap:   60,
		DifficultyMultipliers: map[Difficulty]float64{
			Easy:   1.25,
			Medium: 1.0,
			Hard:   0.75,
		},

		OverduePointsPerDay: 10,
		OverdueCap:          50,
		MasteryPoints: map[Mastery]float64{
			MasteryNew:       20,
			MasteryLearning:  20,
			MasteryReviewing: 10,
			MasteryMastered:  5,
		},
		SolveCountPoints:    []float64{15, 12, 10, 8, 5, 5},
		SolveCountFloor:     2,
		RecencyPointsPerDay: 1.5,
		RecencyCap:          15,

		FallbackDays:         3,
		HorizonDays:          28,
		DistributeWeeksAhead: 4,
		FallbackWindowStart:  7,
		FallbackWindowDays:   21,
	}
}

// CalculateInterval returns the number of days until the next review of a
// problem that has been solved solveCount times. Harder problems get
// shorter intervals because they decay faster from memory. The result is
// always at least 1.
func (p Params) CalculateInterval(solveCount int, difficulty Difficulty) int {
	base := p.IntervalCap
	if solveCount >= 1 && solveCount <= len(p.BaseIntervals) {
		base = p.BaseIntervals[solveCount-1]
	}

	multiplier, ok := p.DifficultyMultipliers[difficulty]
	if !ok {
		multiplier = 1.0
	}

	interval := int(math.Ceil(float64(base) * multiplier))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// CalculateMasteryLevel classifies a problem from its solve history. A
// failure rate above 30% keeps a problem in learning regardless of how
// many times it has been solved.
func CalculateMasteryLevel(solveCount, failedCount, streakCount int) Mastery {
	if solveCount == 0 {
		return MasteryNew
	}
	if float64(failedCount) > float64(solveCount)*0.3 {
		return MasteryLearning
	}
	if solveCount < 3 {
		return MasteryLearning
	}
	if solveCount >= 6 && streakCount >= 3 {
		return MasteryMastered
	}
	return MasteryReviewing
}
