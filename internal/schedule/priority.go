package schedule

import "time"

// ReviewState is the slice of an anchor problem's state that priority
// scoring reads. Zero times mean "never scheduled" / "never reviewed".
type ReviewState struct {
	ScheduledAt     time.Time
	Mastery         Mastery
	SolveCount      int
	LastCompletedAt time.Time
}

// PriorityScore ranks an anchor problem for today's selection. It is an
// additive blend of four independently capped signals: overdue-ness,
// mastery tier, solve-count scarcity, and recency of last review. Higher
// score means higher selection priority. This is a heuristic ranking, not
// an optimal schedule; ties are broken by the caller's stable sort order.
func (p Params) PriorityScore(state ReviewState, today time.Time) float64 {
	var score float64
	todayStart := DayStart(today)

	if !state.ScheduledAt.IsZero() {
		scheduled := DayStart(state.ScheduledAt)
		if scheduled.Before(todayStart) {
			daysOverdue := float64(DaysBetween(scheduled, todayStart))
			score += min(daysOverdue*p.OverduePointsPerDay, p.OverdueCap)
		}
	}

	if pts, ok := p.MasteryPoints[state.Mastery]; ok {
		score += pts
	} else {
		score += p.MasteryPoints[MasteryReviewing]
	}

	if state.SolveCount >= 0 && state.SolveCount < len(p.SolveCountPoints) {
		score += p.SolveCountPoints[state.SolveCount]
	} else {
		score += p.SolveCountFloor
	}

	if !state.LastCompletedAt.IsZero() {
		daysSince := float64(DaysBetween(DayStart(state.LastCompletedAt), todayStart))
		if daysSince > 0 {
			score += min(daysSince*p.RecencyPointsPerDay, p.RecencyCap)
		}
	} else {
		// Never reviewed gets maximum recency priority.
		score += p.RecencyCap
	}

	return score
}

// MaxScore is the upper bound a priority score can reach with the given
// parameters.
func (p Params) MaxScore() float64 {
	var masteryMax float64
	for _, pts := range p.MasteryPoints {
		masteryMax = max(masteryMax, pts)
	}
	var solveMax float64 = p.SolveCountFloor
	for _, pts := range p.SolveCountPoints {
		solveMax = max(solveMax, pts)
	}
	return p.OverdueCap + masteryMax + solveMax + p.RecencyCap
}
