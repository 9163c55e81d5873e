package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// RecordCompletion marks a record (anchor or repetition) as completed and
// updates the shared solve count and the anchor's scheduling state.
// Completing an already-completed record is a no-op. The solve count is
// incremented at most once per problem number per calendar day, so
// completing an anchor and its repetition on the same day counts as one
// solve, and the new count is synchronized across every record sharing the
// problem number.
func (s *PlannerService) RecordCompletion(recordID string, now time.Time) (storage.Problem, error) {
	record, err := s.Store.GetProblem(recordID)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error getting record %s: %w", recordID, err)
	}

	if record.IsCompleted {
		s.Logger.Debug("record already completed, no-op", zap.String("record_id", recordID))
		return s.anchorFor(record)
	}

	today := schedule.DayStart(now)

	siblings, err := s.Store.FindProblems(storage.ProblemFilter{ProblemNumber: record.ProblemNumber})
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error listing records for problem %s: %w", record.ProblemNumber, err)
	}

	alreadySolvedToday := false
	maxCount := record.SolveCount
	for _, sib := range siblings {
		if sib.SolveCount > maxCount {
			maxCount = sib.SolveCount
		}
		if sib.ID != record.ID && sib.IsCompleted && schedule.SameDay(sib.CompletionTime(), today) {
			alreadySolvedToday = true
		}
	}

	newCount := maxCount
	if !alreadySolvedToday {
		newCount = maxCount + 1
	}

	record.IsCompleted = true
	if record.Kind == storage.KindRepetition {
		record.RepetitionCompletedAt = now.UTC()
	} else {
		record.CompletedAt = now.UTC()
	}
	record.SolveCount = newCount
	if err := s.Store.UpdateProblem(record); err != nil {
		return storage.Problem{}, fmt.Errorf("error updating record %s: %w", recordID, err)
	}

	if err := s.syncSolveCount(siblings, record.ID, newCount); err != nil {
		return storage.Problem{}, err
	}

	anchor, err := s.anchorFor(record)
	if err != nil {
		// A repetition whose anchor is gone is a defect; the completion
		// itself still stands.
		s.Logger.Warn("anchor missing for completed repetition, skipping reschedule",
			zap.String("record_id", recordID), zap.Error(err))
		s.invalidateStats()
		if saveErr := s.Store.Save(); saveErr != nil {
			return storage.Problem{}, fmt.Errorf("error saving storage: %w", saveErr)
		}
		return record, nil
	}

	anchor.SolveCount = newCount
	anchor.LastCompletedAt = now.UTC()
	if !alreadySolvedToday {
		anchor.StreakCount++
	}
	anchor.RepetitionInterval = s.Params.CalculateInterval(newCount, anchor.Difficulty)
	anchor.NextRepetitionDate = schedule.AddDays(today, anchor.RepetitionInterval)
	anchor.ScheduledRepetitionDate = s.Params.NextTopicDay(s.weeklyPlan(), anchor.Topic, anchor.NextRepetitionDate)
	anchor.MasteryLevel = schedule.CalculateMasteryLevel(newCount, anchor.FailedCount, anchor.StreakCount)

	if err := s.Store.UpdateProblem(anchor); err != nil {
		return storage.Problem{}, fmt.Errorf("error updating anchor %s: %w", anchor.ID, err)
	}

	s.invalidateStats()
	if err := s.Store.Save(); err != nil {
		return storage.Problem{}, fmt.Errorf("error saving storage: %w", err)
	}

	s.Logger.Info("completion recorded",
		zap.String("record_id", recordID),
		zap.String("problem_number", record.ProblemNumber),
		zap.Int("solve_count", newCount),
		zap.Int("interval_days", anchor.RepetitionInterval),
		zap.String("mastery", string(anchor.MasteryLevel)),
		zap.Time("next_review", anchor.ScheduledRepetitionDate))

	return anchor, nil
}

// RecordUndo reverts a completion made today. Completions from prior days
// are locked and return ErrLockedCompletion without mutating anything. If
// the undone completion was the only one recorded today for the problem
// number, the shared solve count is decremented (floor zero) and the
// anchor's scheduling state is recomputed from the most recent remaining
// completion, or reset to never-reviewed defaults when none remain.
func (s *PlannerService) RecordUndo(recordID string, now time.Time) (storage.Problem, error) {
	record, err := s.Store.GetProblem(recordID)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error getting record %s: %w", recordID, err)
	}

	if !record.IsCompleted {
		s.Logger.Debug("record not completed, undo is a no-op", zap.String("record_id", recordID))
		return s.anchorFor(record)
	}

	today := schedule.DayStart(now)
	completedAt := record.CompletionTime()
	if !completedAt.IsZero() && schedule.DayStart(completedAt).Before(today) {
		return storage.Problem{}, fmt.Errorf("cannot undo completion of record %s from %s: %w",
			recordID, schedule.DayStart(completedAt).Format("2006-01-02"), ErrLockedCompletion)
	}

	siblings, err := s.Store.FindProblems(storage.ProblemFilter{ProblemNumber: record.ProblemNumber})
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error listing records for problem %s: %w", record.ProblemNumber, err)
	}

	completedToday := 0
	maxCount := record.SolveCount
	for _, sib := range siblings {
		if sib.SolveCount > maxCount {
			maxCount = sib.SolveCount
		}
		if sib.IsCompleted && schedule.SameDay(sib.CompletionTime(), today) {
			completedToday++
		}
	}

	record.IsCompleted = false
	if record.Kind == storage.KindRepetition {
		record.RepetitionCompletedAt = time.Time{}
	} else {
		record.CompletedAt = time.Time{}
	}

	decremented := completedToday == 1
	newCount := maxCount
	if decremented && newCount > 0 {
		newCount--
	}
	record.SolveCount = newCount
	if err := s.Store.UpdateProblem(record); err != nil {
		return storage.Problem{}, fmt.Errorf("error updating record %s: %w", recordID, err)
	}

	if err := s.syncSolveCount(siblings, record.ID, newCount); err != nil {
		return storage.Problem{}, err
	}

	anchor, err := s.anchorFor(record)
	if err != nil {
		s.Logger.Warn("anchor missing for undone repetition",
			zap.String("record_id", recordID), zap.Error(err))
		s.invalidateStats()
		if saveErr := s.Store.Save(); saveErr != nil {
			return storage.Problem{}, fmt.Errorf("error saving storage: %w", saveErr)
		}
		return record, nil
	}

	anchor.SolveCount = newCount
	anchor.FailedCount++
	if decremented && anchor.StreakCount > 0 {
		anchor.StreakCount--
	}

	lastRemaining := s.latestRemainingCompletion(record.ProblemNumber, record.ID)
	if newCount > 0 && !lastRemaining.IsZero() {
		anchor.LastCompletedAt = lastRemaining
		anchor.RepetitionInterval = s.Params.CalculateInterval(newCount, anchor.Difficulty)
		anchor.NextRepetitionDate = schedule.AddDays(lastRemaining, anchor.RepetitionInterval)
		anchor.ScheduledRepetitionDate = s.Params.NextTopicDay(s.weeklyPlan(), anchor.Topic, anchor.NextRepetitionDate)
	} else {
		// Never-reviewed defaults: no dates means the anchor is eligible
		// for selection immediately.
		anchor.LastCompletedAt = time.Time{}
		anchor.NextRepetitionDate = time.Time{}
		anchor.ScheduledRepetitionDate = time.Time{}
		anchor.RepetitionInterval = 0
		anchor.StreakCount = 0
	}
	anchor.MasteryLevel = schedule.CalculateMasteryLevel(newCount, anchor.FailedCount, anchor.StreakCount)

	if err := s.Store.UpdateProblem(anchor); err != nil {
		return storage.Problem{}, fmt.Errorf("error updating anchor %s: %w", anchor.ID, err)
	}

	s.invalidateStats()
	if err := s.Store.Save(); err != nil {
		return storage.Problem{}, fmt.Errorf("error saving storage: %w", err)
	}

	s.Logger.Info("completion undone",
		zap.String("record_id", recordID),
		zap.String("problem_number", record.ProblemNumber),
		zap.Int("solve_count", newCount),
		zap.Bool("decremented", decremented))

	return anchor, nil
}

// anchorFor resolves the anchor record a completion applies to: the record
// itself for anchors, the referenced original for repetitions.
func (s *PlannerService) anchorFor(record storage.Problem) (storage.Problem, error) {
	if record.Kind != storage.KindRepetition {
		return record, nil
	}
	if record.OriginalID == "" {
		return storage.Problem{}, fmt.Errorf("repetition %s has no anchor reference: %w", record.ID, storage.ErrProblemNotFound)
	}
	anchor, err := s.Store.GetProblem(record.OriginalID)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error getting anchor %s: %w", record.OriginalID, err)
	}
	return anchor, nil
}

// syncSolveCount writes count to every record in siblings except skipID
// (already written by the caller).
func (s *PlannerService) syncSolveCount(siblings []storage.Problem, skipID string, count int) error {
	for _, sib := range siblings {
		if sib.ID == skipID || sib.SolveCount == count {
			continue
		}
		sib.SolveCount = count
		if err := s.Store.UpdateProblem(sib); err != nil {
			if errors.Is(err, storage.ErrProblemNotFound) {
				continue
			}
			return fmt.Errorf("error syncing solve count to record %s: %w", sib.ID, err)
		}
	}
	return nil
}

// latestRemainingCompletion returns the most recent completion timestamp
// among records for problemNumber, excluding excludeID. Zero when no
// completion remains.
func (s *PlannerService) latestRemainingCompletion(problemNumber, excludeID string) time.Time {
	completed := true
	records, err := s.Store.FindProblems(storage.ProblemFilter{
		ProblemNumber: problemNumber,
		Completed:     &completed,
	})
	if err != nil {
		s.Logger.Warn("failed to list remaining completions", zap.String("problem_number", problemNumber), zap.Error(err))
		return time.Time{}
	}

	times := make([]time.Time, 0, len(records))
	for _, rec := range records {
		if rec.ID == excludeID {
			continue
		}
		if done := rec.CompletionTime(); !done.IsZero() {
			times = append(times, done)
		}
	}
	if len(times) == 0 {
		return time.Time{}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	return times[0]
}
