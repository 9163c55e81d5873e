package schedule

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property-based checks over the scheduling math. These pin down the
// algebraic guarantees the selection cycle relies on, independent of the
// specific constants in Params.

func TestIntervalProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	p := DefaultParams()

	difficulties := gen.OneConstOf(Easy, Medium, Hard)

	properties.Property("interval is always at least one day", prop.ForAll(
		func(solveCount int, difficulty Difficulty) bool {
			return p.CalculateInterval(solveCount, difficulty) >= 1
		},
		gen.IntRange(-5, 50),
		difficulties,
	))

	properties.Property("interval never decreases as solve count grows", prop.ForAll(
		func(solveCount int, difficulty Difficulty) bool {
			return p.CalculateInterval(solveCount+1, difficulty) >=
				p.CalculateInterval(solveCount, difficulty)
		},
		gen.IntRange(1, 20),
		difficulties,
	))

	properties.Property("harder problems never get longer intervals", prop.ForAll(
		func(solveCount int) bool {
			easy := p.CalculateInterval(solveCount, Easy)
			medium := p.CalculateInterval(solveCount, Medium)
			hard := p.CalculateInterval(solveCount, Hard)
			return hard <= medium && medium <= easy
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestMasteryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("classification is deterministic", prop.ForAll(
		func(solveCount, failedCount, streakCount int) bool {
			first := CalculateMasteryLevel(solveCount, failedCount, streakCount)
			second := CalculateMasteryLevel(solveCount, failedCount, streakCount)
			return first == second
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.Property("zero solves is always new", prop.ForAll(
		func(failedCount, streakCount int) bool {
			return CalculateMasteryLevel(0, failedCount, streakCount) == MasteryNew
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.Property("mastered requires six clean solves and a streak", prop.ForAll(
		func(solveCount, failedCount, streakCount int) bool {
			if CalculateMasteryLevel(solveCount, failedCount, streakCount) != MasteryMastered {
				return true
			}
			return solveCount >= 6 && streakCount >= 3 &&
				float64(failedCount) <= float64(solveCount)*0.3
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

func TestPriorityScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	p := DefaultParams()
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	masteries := gen.OneConstOf(MasteryNew, MasteryLearning, MasteryReviewing, MasteryMastered)

	properties.Property("score stays within [0, MaxScore]", prop.ForAll(
		func(daysAgo, solveCount int, mastery Mastery, lastReviewDaysAgo int) bool {
			state := ReviewState{
				ScheduledAt:     today.AddDate(0, 0, -daysAgo),
				Mastery:         mastery,
				SolveCount:      solveCount,
				LastCompletedAt: today.AddDate(0, 0, -lastReviewDaysAgo),
			}
			score := p.PriorityScore(state, today)
			return score >= 0 && score <= p.MaxScore()
		},
		gen.IntRange(-30, 400),
		gen.IntRange(0, 30),
		masteries,
		gen.IntRange(0, 400),
	))

	properties.Property("more overdue never scores lower", prop.ForAll(
		func(daysAgo, solveCount int, mastery Mastery) bool {
			newer := ReviewState{
				ScheduledAt: today.AddDate(0, 0, -daysAgo),
				Mastery:     mastery,
				SolveCount:  solveCount,
			}
			older := newer
			older.ScheduledAt = today.AddDate(0, 0, -daysAgo-1)
			return p.PriorityScore(older, today) >= p.PriorityScore(newer, today)
		},
		gen.IntRange(0, 60),
		gen.IntRange(0, 10),
		masteries,
	))

	properties.TestingRun(t)
}

func TestTopicDayProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	p := DefaultParams()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := testPlan()

	properties.Property("resolved day is never before the from date", prop.ForAll(
		func(dayOffset int, topic string) bool {
			from := base.AddDate(0, 0, dayOffset)
			day := p.NextTopicDay(plan, topic, from)
			return !day.Before(DayStart(from))
		},
		gen.IntRange(0, 365),
		gen.OneConstOf("Arrays", "Linked Lists", "Graphs", ""),
	))

	properties.Property("resolved day matches the plan or is the fallback", prop.ForAll(
		func(dayOffset int, topic string) bool {
			from := DayStart(base.AddDate(0, 0, dayOffset))
			day := p.NextTopicDay(plan, topic, from)
			if plan[day.Weekday()] == topic {
				return true
			}
			return day.Equal(AddDays(from, p.FallbackDays))
		},
		gen.IntRange(0, 365),
		gen.OneConstOf("Arrays", "Linked Lists", "Graphs", ""),
	))

	properties.Property("every overflow item receives a strictly future slot", prop.ForAll(
		func(n, dayOffset int) bool {
			from := DayStart(base.AddDate(0, 0, dayOffset))
			tomorrow := AddDays(from, 1)
			days := p.NextTopicDays(plan, "Arrays", p.DistributeWeeksAhead, tomorrow)
			slots := p.DistributionSlots(n, days, from)
			if len(slots) != n {
				return false
			}
			for _, s := range slots {
				if !s.After(from) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 365),
	))

	properties.TestingRun(t)
}
