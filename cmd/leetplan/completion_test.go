package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

func TestRecordCompletionFirstSolve(t *testing.T) {
	s := setupTestService(t)
	now := testToday

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "206",
		Topic:         "Linked Lists",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
		MasteryLevel:  schedule.MasteryNew,
	})
	require.NoError(t, err)

	updated, err := s.RecordCompletion(anchor.ID, now)
	require.NoError(t, err, "RecordCompletion should not fail")

	assert.Equal(t, 1, updated.SolveCount)
	assert.Equal(t, 1, updated.StreakCount)
	assert.Equal(t, schedule.MasteryLearning, updated.MasteryLevel)
	assert.Equal(t, 1, updated.RepetitionInterval, "first solve of a medium problem reviews after one day")

	today := schedule.DayStart(now)
	assert.True(t, updated.NextRepetitionDate.Equal(schedule.AddDays(today, 1)))
	// No practice plan exists, so the scheduled date is the fallback
	// cadence from the computed next date.
	assert.True(t, updated.ScheduledRepetitionDate.Equal(schedule.AddDays(today, 1+s.Params.FallbackDays)))

	stored, err := s.Store.GetProblem(anchor.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.False(t, stored.CompletedAt.IsZero())
}

func TestRecordCompletionIsIdempotent(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "1",
		Topic:         "Arrays",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
	})
	require.NoError(t, err)

	first, err := s.RecordCompletion(anchor.ID, testToday)
	require.NoError(t, err)

	second, err := s.RecordCompletion(anchor.ID, testToday.Add(time.Hour))
	require.NoError(t, err, "completing an already-completed record is a no-op")

	assert.Equal(t, first.SolveCount, second.SolveCount)
	assert.Equal(t, first.StreakCount, second.StreakCount)
}

func TestRecordCompletionSyncsSolveCountAcrossRecords(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "21",
		Topic:         "Linked Lists",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
		SolveCount:    2,
		StreakCount:   2,
	})
	require.NoError(t, err)
	rep, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber:           "21",
		Topic:                   "Linked Lists",
		Difficulty:              schedule.Medium,
		Kind:                    storage.KindRepetition,
		OriginalID:              anchor.ID,
		SolveCount:              2,
		ScheduledRepetitionDate: schedule.DayStart(testToday),
	})
	require.NoError(t, err)

	updated, err := s.RecordCompletion(rep.ID, testToday)
	require.NoError(t, err)

	assert.Equal(t, anchor.ID, updated.ID, "completing a repetition returns the anchor")
	assert.Equal(t, 3, updated.SolveCount)
	assert.Equal(t, 3, updated.StreakCount)
	assert.Equal(t, schedule.MasteryReviewing, updated.MasteryLevel)
	assert.Equal(t, 7, updated.RepetitionInterval, "third solve of a medium problem reviews after a week")

	storedRep, err := s.Store.GetProblem(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, storedRep.SolveCount, "solve count should be synchronized to the repetition")
	assert.True(t, storedRep.IsCompleted)
	assert.False(t, storedRep.RepetitionCompletedAt.IsZero())
	assert.True(t, storedRep.CompletedAt.IsZero(), "repetitions carry their own completion timestamp")
}

func TestSolveCountIncrementsOncePerDay(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "121",
		Topic:         "Arrays",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
		SolveCount:    1,
		StreakCount:   1,
	})
	require.NoError(t, err)
	rep, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "121",
		Topic:         "Arrays",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindRepetition,
		OriginalID:    anchor.ID,
		SolveCount:    1,
	})
	require.NoError(t, err)

	first, err := s.RecordCompletion(rep.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 2, first.SolveCount)
	assert.Equal(t, 2, first.StreakCount)

	// Completing the anchor record the same day must not count a second
	// solve or extend the streak.
	second, err := s.RecordCompletion(anchor.ID, testToday.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, second.SolveCount, "same-day completion should not double count")
	assert.Equal(t, 2, second.StreakCount)
	assert.True(t, second.IsCompleted)
}

func TestRecordUndoSameDay(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "206",
		Topic:         "Linked Lists",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
		MasteryLevel:  schedule.MasteryNew,
	})
	require.NoError(t, err)

	_, err = s.RecordCompletion(anchor.ID, testToday)
	require.NoError(t, err)

	undone, err := s.RecordUndo(anchor.ID, testToday.Add(time.Hour))
	require.NoError(t, err, "undo on the same day should succeed")

	assert.Equal(t, 0, undone.SolveCount, "the day's solve should be decremented away")
	assert.Equal(t, 0, undone.StreakCount)
	assert.Equal(t, 1, undone.FailedCount, "undo counts as a failed attempt")
	assert.Equal(t, schedule.MasteryNew, undone.MasteryLevel)
	assert.True(t, undone.LastCompletedAt.IsZero())
	assert.True(t, undone.NextRepetitionDate.IsZero())
	assert.True(t, undone.ScheduledRepetitionDate.IsZero(), "no dates means eligible immediately")
	assert.Equal(t, 0, undone.RepetitionInterval)

	stored, err := s.Store.GetProblem(anchor.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted)
	assert.True(t, stored.CompletedAt.IsZero())
}

func TestRecordUndoLockedAfterDayElapses(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "1",
		Topic:         "Arrays",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
	})
	require.NoError(t, err)

	_, err = s.RecordCompletion(anchor.ID, testToday)
	require.NoError(t, err)

	_, err = s.RecordUndo(anchor.ID, testToday.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrLockedCompletion, "next-day undo must be rejected")

	// The rejected undo must not have mutated anything.
	stored, err := s.Store.GetProblem(anchor.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, 1, stored.SolveCount)
	assert.Equal(t, 0, stored.FailedCount)
}

func TestRecordUndoKeepsCountWhenAnotherCompletionRemains(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "21",
		Topic:         "Linked Lists",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindAnchor,
		SolveCount:    1,
		StreakCount:   1,
	})
	require.NoError(t, err)
	rep, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "21",
		Topic:         "Linked Lists",
		Difficulty:    schedule.Medium,
		Kind:          storage.KindRepetition,
		OriginalID:    anchor.ID,
		SolveCount:    1,
	})
	require.NoError(t, err)

	_, err = s.RecordCompletion(rep.ID, testToday)
	require.NoError(t, err)
	_, err = s.RecordCompletion(anchor.ID, testToday.Add(time.Hour))
	require.NoError(t, err)

	// Two completions landed today; undoing one leaves the solve count
	// intact because the day still has a completion.
	undone, err := s.RecordUndo(anchor.ID, testToday.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, undone.SolveCount, "count should not decrement while another completion stands")
	assert.Equal(t, 1, undone.FailedCount)
	assert.Equal(t, 2, undone.StreakCount, "streak survives while the day still counts")
	assert.False(t, undone.LastCompletedAt.IsZero(), "schedule recomputes from the remaining completion")
	assert.False(t, undone.ScheduledRepetitionDate.IsZero())
}

func TestRecordUndoOfUncompletedRecordIsNoop(t *testing.T) {
	s := setupTestService(t)

	anchor, err := s.Store.CreateProblem(storage.Problem{
		ProblemNumber: "1",
		Topic:         "Arrays",
		Kind:          storage.KindAnchor,
		SolveCount:    2,
	})
	require.NoError(t, err)

	got, err := s.RecordUndo(anchor.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SolveCount, "undo of an uncompleted record changes nothing")
	assert.Equal(t, 0, got.FailedCount)
}

func TestRecordCompletionUnknownRecord(t *testing.T) {
	s := setupTestService(t)

	_, err := s.RecordCompletion("no-such-id", testToday)
	assert.ErrorIs(t, err, storage.ErrProblemNotFound)

	_, err = s.RecordUndo("no-such-id", testToday)
	assert.ErrorIs(t, err, storage.ErrProblemNotFound)
}
