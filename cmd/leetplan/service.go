// Package main implements the leetplan MCP service: a spaced-repetition
// scheduler for coding-interview practice problems.
package main

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// Argument and business-rule errors surfaced verbatim to the caller.
var (
	ErrEmptyTopic       = errors.New("topic is required")
	ErrInvalidCap       = errors.New("daily cap must be positive")
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 6")
	// ErrLockedCompletion is returned when a caller tries to undo a
	// completion recorded on a previous calendar day. Once the day of
	// completion has elapsed the completion is immutable, so streaks and
	// solve counts cannot be gamed retroactively.
	ErrLockedCompletion = errors.New("completion was recorded on a past day and is now locked")
)

// PlannerService orchestrates daily repetition selection, completion
// tracking, and backlog aggregation over the problem store.
type PlannerService struct {
	Store      storage.Store
	Params     schedule.Params
	Logger     *zap.Logger
	DailyCap   int
	BacklogCap int

	// statsMu guards the stats cache. The cache is keyed by a version
	// counter that every write path bumps, so staleness is bounded by the
	// next write rather than a wall-clock TTL.
	statsMu      sync.Mutex
	statsVersion uint64
	statsCached  *Stats
	statsKey     statsCacheKey
}

type statsCacheKey struct {
	version uint64
	day     time.Time
}

// NewPlannerService creates a PlannerService with default scheduling
// parameters.
func NewPlannerService(store storage.Store, dailyCap, backlogCap int, level zapcore.Level) *PlannerService {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := logConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		fmt.Printf("Error initializing zap logger: %v. Falling back to no-op logger.\n", err)
		logger = zap.NewNop()
	}

	if dailyCap <= 0 {
		dailyCap = 5
	}
	if backlogCap <= 0 {
		backlogCap = 2 * dailyCap
	}

	return &PlannerService{
		Store:      store,
		Params:     schedule.DefaultParams(),
		Logger:     logger,
		DailyCap:   dailyCap,
		BacklogCap: backlogCap,
	}
}

// invalidateStats bumps the cache version. Called synchronously from every
// write path so a stale stats window never outlives the write that made it
// stale.
func (s *PlannerService) invalidateStats() {
	s.statsMu.Lock()
	s.statsVersion++
	s.statsMu.Unlock()
}

// StatsVersion exposes the cache version counter for tests.
func (s *PlannerService) StatsVersion() uint64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.statsVersion
}

// weeklyPlan assembles the repetition-topic weekday mapping from the
// store. A failed read degrades to an empty plan so scheduling falls back
// to the default cadence instead of aborting the cycle.
func (s *PlannerService) weeklyPlan() schedule.WeeklyPlan {
	entries, err := s.Store.ListPlanEntries()
	if err != nil {
		s.Logger.Warn("failed to read practice plan, falling back to default cadence", zap.Error(err))
		return nil
	}
	plan := make(schedule.WeeklyPlan, len(entries))
	for _, e := range entries {
		plan[time.Weekday(e.DayOfWeek)] = e.RepetitionTopic
	}
	return plan
}

// ComputeTodaysRepetitions runs one full selection cycle for today's
// repetition topic: gather eligible anchors, score and rank them, keep the
// top cap, materialize repetition records for the kept ones, and push the
// rest to future topic days. The returned plan lists the repetition
// records to show today, the records created this cycle, and the deferred
// candidates with their scores.
func (s *PlannerService) ComputeTodaysRepetitions(topic string, today time.Time, limit int) (DailyPlan, error) {
	if topic == "" {
		return DailyPlan{}, ErrEmptyTopic
	}
	if limit <= 0 {
		return DailyPlan{}, ErrInvalidCap
	}
	today = schedule.DayStart(today)

	s.Logger.Debug("computing today's repetitions",
		zap.String("topic", topic),
		zap.Time("today", today),
		zap.Int("cap", limit))

	selected, unselected, err := s.selectDaily(topic, today, limit)
	if err != nil {
		return DailyPlan{}, err
	}

	created, err := s.materializeSelected(selected, today)
	if err != nil {
		return DailyPlan{}, err
	}

	if err := s.enforceDailyCap(topic, today, limit); err != nil {
		return DailyPlan{}, err
	}

	if err := s.distributeUnselected(unselected, topic, today); err != nil {
		return DailyPlan{}, err
	}

	incomplete := false
	toShow, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:        storage.KindRepetition,
		Topic:       topic,
		ScheduledOn: today,
		Completed:   &incomplete,
	})
	if err != nil {
		return DailyPlan{}, fmt.Errorf("error listing today's repetitions: %w", err)
	}

	s.invalidateStats()
	if err := s.Store.Save(); err != nil {
		return DailyPlan{}, fmt.Errorf("error saving storage after selection cycle: %w", err)
	}

	s.Logger.Debug("selection cycle complete",
		zap.Int("to_show", len(toShow)),
		zap.Int("created", len(created)),
		zap.Int("deferred", len(unselected)))

	return DailyPlan{ToShow: toShow, ToCreate: created, ToDefer: unselected}, nil
}

// selectDaily builds the candidate pool for topic, scores it, and splits
// it at cap. Anchors that already have a repetition record scheduled for
// today are excluded so a second invocation cannot double-schedule them.
func (s *PlannerService) selectDaily(topic string, today time.Time, limit int) (selected, unselected []ScoredProblem, err error) {
	todayReps, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:        storage.KindRepetition,
		ScheduledOn: today,
	})
	if err != nil {
		// Secondary query: degrade to an empty exclusion set rather than
		// blocking the user's due problems. Materialization self-heals any
		// duplicate this could let through.
		s.Logger.Warn("failed to query today's repetition records, proceeding without exclusions", zap.Error(err))
		todayReps = nil
	}
	excluded := make(map[string]bool, len(todayReps))
	for _, rep := range todayReps {
		if rep.OriginalID != "" {
			excluded[rep.OriginalID] = true
		}
	}

	pool, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:                storage.KindAnchor,
		Topic:               topic,
		ScheduledOnOrBefore: today,
		IncludeUnscheduled:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error listing eligible anchors: %w", err)
	}
	pool = lo.Filter(pool, func(p storage.Problem, _ int) bool {
		return !excluded[p.ID]
	})

	scored := lo.Map(pool, func(p storage.Problem, _ int) ScoredProblem {
		return ScoredProblem{
			Problem: p,
			Score: s.Params.PriorityScore(schedule.ReviewState{
				ScheduledAt:     p.ScheduledRepetitionDate,
				Mastery:         p.MasteryLevel,
				SolveCount:      p.SolveCount,
				LastCompletedAt: p.LastCompletedAt,
			}, today),
		}
	})

	// Stable sort keeps creation order as the tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit <= 0 {
		return nil, scored, nil
	}
	if len(scored) <= limit {
		return scored, nil, nil
	}
	return scored[:limit], scored[limit:], nil
}

// materializeSelected ensures exactly one incomplete repetition record
// exists for each selected anchor, scheduled no earlier than today. Two
// concurrent cycles can race and each create a record before seeing the
// other's write; this step reconciles that state on every cycle instead of
// compounding duplicates.
func (s *PlannerService) materializeSelected(selected []ScoredProblem, today time.Time) ([]storage.Problem, error) {
	var created []storage.Problem
	incomplete := false

	for _, sp := range selected {
		anchor := sp.Problem
		existing, err := s.Store.FindProblems(storage.ProblemFilter{
			Kind:       storage.KindRepetition,
			OriginalID: anchor.ID,
			Completed:  &incomplete,
		})
		if err != nil {
			return nil, fmt.Errorf("error looking up repetitions for anchor %s: %w", anchor.ID, err)
		}

		switch {
		case len(existing) == 0:
			scheduled := schedule.DayStart(anchor.ScheduledRepetitionDate)
			if anchor.ScheduledRepetitionDate.IsZero() || scheduled.Before(today) {
				scheduled = today
			}
			rep, err := s.Store.CreateProblem(storage.Problem{
				ProblemNumber:           anchor.ProblemNumber,
				Slug:                    anchor.Slug,
				Title:                   anchor.Title,
				Topic:                   anchor.Topic,
				Difficulty:              anchor.Difficulty,
				Kind:                    storage.KindRepetition,
				OriginalID:              anchor.ID,
				Notes:                   anchor.Notes,
				AddedAt:                 anchor.AddedAt,
				SolveCount:              anchor.SolveCount,
				ScheduledRepetitionDate: scheduled,
			})
			if err != nil {
				return nil, fmt.Errorf("error creating repetition for anchor %s: %w", anchor.ID, err)
			}
			created = append(created, rep)

		case len(existing) == 1:
			if err := s.refreshStaleRepetition(existing[0], today); err != nil {
				return nil, err
			}

		default:
			// Defect state: keep the earliest-scheduled record, drop the
			// rest.
			survivor, err := s.healDuplicateRepetitions(existing)
			if err != nil {
				return nil, err
			}
			if err := s.refreshStaleRepetition(survivor, today); err != nil {
				return nil, err
			}
		}
	}

	return created, nil
}

// refreshStaleRepetition moves a repetition record scheduled before today
// up to today. Future-dated records are left alone.
func (s *PlannerService) refreshStaleRepetition(rep storage.Problem, today time.Time) error {
	if rep.ScheduledRepetitionDate.IsZero() ||
		schedule.DayStart(rep.ScheduledRepetitionDate).Before(today) {
		rep.ScheduledRepetitionDate = today
		if err := s.Store.UpdateProblem(rep); err != nil {
			return fmt.Errorf("error refreshing repetition %s: %w", rep.ID, err)
		}
	}
	return nil
}

// healDuplicateRepetitions deletes all but the earliest-scheduled record
// from a set of duplicate incomplete repetitions for one anchor and
// returns the survivor.
func (s *PlannerService) healDuplicateRepetitions(dupes []storage.Problem) (storage.Problem, error) {
	sort.Slice(dupes, func(i, j int) bool {
		di, dj := dupes[i], dupes[j]
		if !di.ScheduledRepetitionDate.Equal(dj.ScheduledRepetitionDate) {
			// Zero (unscheduled) sorts first: it is the most overdue.
			if di.ScheduledRepetitionDate.IsZero() {
				return true
			}
			if dj.ScheduledRepetitionDate.IsZero() {
				return false
			}
			return di.ScheduledRepetitionDate.Before(dj.ScheduledRepetitionDate)
		}
		return di.CreatedAt.Before(dj.CreatedAt)
	})

	survivor := dupes[0]
	for _, dupe := range dupes[1:] {
		s.Logger.Info("removing duplicate repetition record",
			zap.String("anchor_id", dupe.OriginalID),
			zap.String("duplicate_id", dupe.ID),
			zap.String("kept_id", survivor.ID))
		if err := s.Store.DeleteProblem(dupe.ID); err != nil && !errors.Is(err, storage.ErrProblemNotFound) {
			return storage.Problem{}, fmt.Errorf("error deleting duplicate repetition %s: %w", dupe.ID, err)
		}
	}
	return survivor, nil
}

// enforceDailyCap re-checks the cap after materialization: legacy data can
// leave more than cap incomplete repetitions dated today for the topic.
// The excess (in reverse creation order, so the oldest records keep their
// slot) is pushed to future topic days.
func (s *PlannerService) enforceDailyCap(topic string, today time.Time, limit int) error {
	incomplete := false
	todays, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:        storage.KindRepetition,
		Topic:       topic,
		ScheduledOn: today,
		Completed:   &incomplete,
	})
	if err != nil {
		return fmt.Errorf("error counting today's repetitions: %w", err)
	}
	if len(todays) <= limit {
		return nil
	}

	excess := todays[limit:]
	days := s.Params.NextTopicDays(s.weeklyPlan(), topic, s.Params.DistributeWeeksAhead, schedule.AddDays(today, 1))
	slots := s.Params.DistributionSlots(len(excess), days, today)
	for i, rep := range excess {
		rep.ScheduledRepetitionDate = slots[i]
		if err := s.Store.UpdateProblem(rep); err != nil {
			return fmt.Errorf("error rescheduling excess repetition %s: %w", rep.ID, err)
		}
	}
	s.Logger.Info("daily cap exceeded, rescheduled excess repetitions",
		zap.String("topic", topic),
		zap.Int("cap", limit),
		zap.Int("moved", len(excess)))
	return nil
}

// distributeUnselected spreads the candidates that missed today's cap
// across the next topic days so nothing is silently dropped: every
// unselected anchor ends up with a concrete future scheduled date.
func (s *PlannerService) distributeUnselected(unselected []ScoredProblem, topic string, today time.Time) error {
	if len(unselected) == 0 {
		return nil
	}

	days := s.Params.NextTopicDays(s.weeklyPlan(), topic, s.Params.DistributeWeeksAhead, schedule.AddDays(today, 1))
	slots := s.Params.DistributionSlots(len(unselected), days, today)

	for i, sp := range unselected {
		anchor := sp.Problem
		anchor.ScheduledRepetitionDate = slots[i]
		if err := s.Store.UpdateProblem(anchor); err != nil {
			return fmt.Errorf("error rescheduling anchor %s: %w", anchor.ID, err)
		}
	}
	return nil
}

// Backlog returns the repetition records whose scheduled date has passed
// without completion, oldest due first, at most cap entries. Duplicate
// incomplete records for the same anchor are collapsed to the earliest-due
// one at read time, independently of the write-time self-healing.
func (s *PlannerService) Backlog(today time.Time, limit int) ([]storage.Problem, error) {
	today = schedule.DayStart(today)
	if limit <= 0 {
		limit = s.BacklogCap
	}

	incomplete := false
	overdue, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:            storage.KindRepetition,
		Completed:       &incomplete,
		ScheduledBefore: today,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing overdue repetitions: %w", err)
	}

	earliest := make(map[string]storage.Problem, len(overdue))
	for _, rep := range overdue {
		key := rep.OriginalID
		if key == "" {
			key = rep.ID
		}
		if held, ok := earliest[key]; !ok || rep.ScheduledRepetitionDate.Before(held.ScheduledRepetitionDate) {
			earliest[key] = rep
		}
	}

	backlog := lo.Values(earliest)
	sort.Slice(backlog, func(i, j int) bool {
		if !backlog[i].ScheduledRepetitionDate.Equal(backlog[j].ScheduledRepetitionDate) {
			return backlog[i].ScheduledRepetitionDate.Before(backlog[j].ScheduledRepetitionDate)
		}
		return backlog[i].ID < backlog[j].ID
	})

	if len(backlog) > limit {
		backlog = backlog[:limit]
	}
	return backlog, nil
}
