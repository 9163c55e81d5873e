package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// Stats aggregates the tracked problem pool for the stats view.
type Stats struct {
	TotalProblems  int                         `json:"total_problems"`
	TotalSolves    int                         `json:"total_solves"`
	SolvedToday    int                         `json:"solved_today"`
	DueToday       int                         `json:"due_today"`
	BacklogCount   int                         `json:"backlog_count"`
	ByMastery      map[schedule.Mastery]int    `json:"by_mastery"`
	ByDifficulty   map[schedule.Difficulty]int `json:"by_difficulty"`
	ByTopic        map[string]int              `json:"by_topic"`
	CompletionRate float64                     `json:"completion_rate"`
}

// Stats computes aggregate statistics over all anchor problems. Results
// are cached per (write version, day): any completion, undo, add, delete,
// or selection cycle bumps the version and invalidates the cache
// synchronously, so no TTL is involved.
func (s *PlannerService) Stats(today time.Time) (Stats, error) {
	today = schedule.DayStart(today)

	s.statsMu.Lock()
	key := statsCacheKey{version: s.statsVersion, day: today}
	if s.statsCached != nil && s.statsKey == key {
		cached := *s.statsCached
		s.statsMu.Unlock()
		return cached, nil
	}
	s.statsMu.Unlock()

	stats, err := s.computeStats(today)
	if err != nil {
		return Stats{}, err
	}

	s.statsMu.Lock()
	// Only cache if no write landed while computing.
	if s.statsVersion == key.version {
		s.statsCached = &stats
		s.statsKey = key
	}
	s.statsMu.Unlock()

	return stats, nil
}

func (s *PlannerService) computeStats(today time.Time) (Stats, error) {
	anchors, err := s.Store.FindProblems(storage.ProblemFilter{Kind: storage.KindAnchor})
	if err != nil {
		return Stats{}, fmt.Errorf("error listing anchors for stats: %w", err)
	}

	stats := Stats{
		ByMastery:    make(map[schedule.Mastery]int),
		ByDifficulty: make(map[schedule.Difficulty]int),
		ByTopic:      make(map[string]int),
	}

	solved := 0
	for _, a := range anchors {
		stats.TotalProblems++
		stats.TotalSolves += a.SolveCount
		mastery := a.MasteryLevel
		if mastery == "" {
			mastery = schedule.MasteryNew
		}
		stats.ByMastery[mastery]++
		stats.ByDifficulty[a.Difficulty]++
		stats.ByTopic[a.Topic]++
		if a.SolveCount > 0 {
			solved++
		}
		if !a.ScheduledRepetitionDate.IsZero() && schedule.SameDay(a.ScheduledRepetitionDate, today) {
			stats.DueToday++
		}
	}
	if stats.TotalProblems > 0 {
		stats.CompletionRate = float64(solved) / float64(stats.TotalProblems) * 100.0
	}

	completed := true
	solvedToday, err := s.Store.CountProblems(storage.ProblemFilter{
		Completed:   &completed,
		CompletedOn: today,
	})
	if err != nil {
		// Secondary aggregation: degrade rather than failing the view.
		s.Logger.Warn("failed to count today's completions for stats", zap.Error(err))
	}
	stats.SolvedToday = solvedToday

	incomplete := false
	backlogCount, err := s.Store.CountProblems(storage.ProblemFilter{
		Kind:            storage.KindRepetition,
		Completed:       &incomplete,
		ScheduledBefore: today,
	})
	if err != nil {
		s.Logger.Warn("failed to count backlog for stats", zap.Error(err))
	}
	stats.BacklogCount = backlogCount

	return stats, nil
}
