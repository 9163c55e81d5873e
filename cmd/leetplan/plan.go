package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// defaultPlan is the 7-day anchor/repetition rotation seeded when no
// custom plan exists. Each day reviews the topic introduced three days
// earlier.
var defaultPlan = []storage.PlanEntry{
	{DayOfWeek: 0, AnchorTopic: "Linked Lists", RepetitionTopic: "Binary Search"},
	{DayOfWeek: 1, AnchorTopic: "Arrays & Hashing", RepetitionTopic: "Stacks"},
	{DayOfWeek: 2, AnchorTopic: "Two Pointers", RepetitionTopic: "Trees (Basics)"},
	{DayOfWeek: 3, AnchorTopic: "Sliding Window", RepetitionTopic: "Linked Lists"},
	{DayOfWeek: 4, AnchorTopic: "Binary Search", RepetitionTopic: "Arrays & Hashing"},
	{DayOfWeek: 5, AnchorTopic: "Stacks", RepetitionTopic: "Two Pointers"},
	{DayOfWeek: 6, AnchorTopic: "Trees (Basics)", RepetitionTopic: "Sliding Window"},
}

// ListPlan returns the weekly practice plan ordered by weekday.
func (s *PlannerService) ListPlan() ([]storage.PlanEntry, error) {
	entries, err := s.Store.ListPlanEntries()
	if err != nil {
		return nil, fmt.Errorf("error listing practice plan: %w", err)
	}
	return entries, nil
}

// GetPlanDay returns the plan entry for one weekday.
func (s *PlannerService) GetPlanDay(dayOfWeek int) (storage.PlanEntry, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return storage.PlanEntry{}, ErrInvalidDayOfWeek
	}
	entry, err := s.Store.GetPlanEntry(dayOfWeek)
	if err != nil {
		return storage.PlanEntry{}, fmt.Errorf("error getting plan for day %d: %w", dayOfWeek, err)
	}
	return entry, nil
}

// SetPlanDay creates or replaces the plan entry for a weekday.
func (s *PlannerService) SetPlanDay(dayOfWeek int, anchorTopic, repetitionTopic string) (storage.PlanEntry, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return storage.PlanEntry{}, ErrInvalidDayOfWeek
	}
	if anchorTopic == "" || repetitionTopic == "" {
		return storage.PlanEntry{}, ErrEmptyTopic
	}

	entry, err := s.Store.UpsertPlanEntry(storage.PlanEntry{
		DayOfWeek:       dayOfWeek,
		AnchorTopic:     anchorTopic,
		RepetitionTopic: repetitionTopic,
	})
	if err != nil {
		return storage.PlanEntry{}, fmt.Errorf("error saving plan entry: %w", err)
	}
	if err := s.Store.Save(); err != nil {
		return storage.PlanEntry{}, fmt.Errorf("error saving storage after plan update: %w", err)
	}
	s.Logger.Info("practice plan updated",
		zap.Int("day_of_week", dayOfWeek),
		zap.String("anchor_topic", anchorTopic),
		zap.String("repetition_topic", repetitionTopic))
	return entry, nil
}

// DeletePlanDay removes a plan entry by ID.
func (s *PlannerService) DeletePlanDay(id string) error {
	if err := s.Store.DeletePlanEntry(id); err != nil {
		return fmt.Errorf("error deleting plan entry %s: %w", id, err)
	}
	if err := s.Store.Save(); err != nil {
		return fmt.Errorf("error saving storage after plan delete: %w", err)
	}
	return nil
}

// InitDefaultPlan seeds the default rotation when no plan exists yet. It
// reports whether seeding happened.
func (s *PlannerService) InitDefaultPlan() (bool, error) {
	existing, err := s.Store.ListPlanEntries()
	if err != nil {
		return false, fmt.Errorf("error listing practice plan: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, entry := range defaultPlan {
		if _, err := s.Store.UpsertPlanEntry(entry); err != nil {
			return false, fmt.Errorf("error seeding plan entry for day %d: %w", entry.DayOfWeek, err)
		}
	}
	if err := s.Store.Save(); err != nil {
		return false, fmt.Errorf("error saving storage after seeding plan: %w", err)
	}
	s.Logger.Info("default practice plan initialized")
	return true, nil
}

// Dashboard runs the daily cycle for now's weekday and assembles
// everything the day view needs: today's topics, the repetitions to show,
// the backlog, and the day's counters.
func (s *PlannerService) Dashboard(now time.Time) (DashboardData, error) {
	today := schedule.DayStart(now)
	dayOfWeek := int(today.Weekday())

	entry, err := s.Store.GetPlanEntry(dayOfWeek)
	if err != nil {
		if !errors.Is(err, storage.ErrPlanEntryNotFound) {
			return DashboardData{}, fmt.Errorf("error getting plan for day %d: %w", dayOfWeek, err)
		}
		// No custom plan for today: fall back to the default rotation.
		entry = defaultPlan[dayOfWeek]
	}

	plan, err := s.ComputeTodaysRepetitions(entry.RepetitionTopic, today, s.DailyCap)
	if err != nil {
		return DashboardData{}, err
	}

	backlog, err := s.Backlog(today, s.BacklogCap)
	if err != nil {
		return DashboardData{}, err
	}

	addedToday, err := s.Store.CountProblems(storage.ProblemFilter{
		Kind:    storage.KindAnchor,
		AddedOn: today,
	})
	if err != nil {
		s.Logger.Warn("failed to count problems added today", zap.Error(err))
	}

	completed := true
	solvedToday, err := s.Store.CountProblems(storage.ProblemFilter{
		Completed:   &completed,
		CompletedOn: today,
	})
	if err != nil {
		s.Logger.Warn("failed to count problems solved today", zap.Error(err))
	}

	return DashboardData{
		Date:            today.Format("2006-01-02"),
		AnchorTopic:     entry.AnchorTopic,
		RepetitionTopic: entry.RepetitionTopic,
		AddedToday:      addedToday,
		SolvedToday:     solvedToday,
		Repetitions:     plan.ToShow,
		Backlog:         backlog,
	}, nil
}
