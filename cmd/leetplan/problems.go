package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// NewProblem describes one problem being logged as solved.
type NewProblem struct {
	Number     string
	Slug       string
	Title      string
	Difficulty schedule.Difficulty
	Notes      string
}

// AddResult reports what happened to one logged problem.
type AddResult struct {
	Problem   storage.Problem `json:"problem"`
	Duplicate bool            `json:"duplicate"`
	Reason    string          `json:"reason,omitempty"`
}

// AddProblems logs a batch of solved problems under an anchor topic. Each
// problem number gets exactly one anchor record: logging a number already
// tracked refreshes the existing anchor (topic, metadata, review date)
// instead of creating a second one, and re-logging a number the same day
// is a no-op. The first review is scheduled for the next day the practice
// plan repeats the topic.
func (s *PlannerService) AddProblems(problems []NewProblem, topic string, now time.Time) ([]AddResult, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if len(problems) == 0 {
		return nil, errors.New("at least one problem is required")
	}

	today := schedule.DayStart(now)
	firstReview := s.Params.NextTopicDay(s.weeklyPlan(), topic, schedule.AddDays(today, 1))

	results := make([]AddResult, 0, len(problems))
	for _, np := range problems {
		number := strings.TrimSpace(np.Number)
		if number == "" {
			return nil, errors.New("problem number is required")
		}
		difficulty := np.Difficulty
		if difficulty == "" {
			difficulty = schedule.Medium
		}

		anchors, err := s.Store.FindProblems(storage.ProblemFilter{
			Kind:          storage.KindAnchor,
			ProblemNumber: number,
		})
		if err != nil {
			return nil, fmt.Errorf("error checking for existing problem %s: %w", number, err)
		}

		if len(anchors) > 0 {
			anchor := anchors[0]
			if schedule.SameDay(anchor.AddedAt, today) {
				results = append(results, AddResult{Problem: anchor, Duplicate: true, Reason: "already_added_today"})
				continue
			}
			// Refresh the existing anchor rather than creating a second
			// one for the same problem number.
			anchor.Topic = topic
			anchor.Difficulty = difficulty
			if np.Slug != "" {
				anchor.Slug = np.Slug
			}
			if np.Title != "" {
				anchor.Title = np.Title
			}
			if np.Notes != "" {
				anchor.Notes = np.Notes
			}
			anchor.AddedAt = today
			anchor.ScheduledRepetitionDate = firstReview
			anchor.NextRepetitionDate = firstReview
			if err := s.Store.UpdateProblem(anchor); err != nil {
				return nil, fmt.Errorf("error refreshing anchor for problem %s: %w", number, err)
			}
			results = append(results, AddResult{Problem: anchor, Duplicate: true})
			continue
		}

		anchor, err := s.Store.CreateProblem(storage.Problem{
			ProblemNumber:           number,
			Slug:                    np.Slug,
			Title:                   np.Title,
			Topic:                   topic,
			Difficulty:              difficulty,
			Kind:                    storage.KindAnchor,
			Notes:                   np.Notes,
			AddedAt:                 today,
			ScheduledRepetitionDate: firstReview,
			NextRepetitionDate:      firstReview,
			MasteryLevel:            schedule.MasteryNew,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating anchor for problem %s: %w", number, err)
		}
		results = append(results, AddResult{Problem: anchor})
	}

	s.invalidateStats()
	if err := s.Store.Save(); err != nil {
		return nil, fmt.Errorf("error saving storage after adding problems: %w", err)
	}

	s.Logger.Info("problems logged",
		zap.String("topic", topic),
		zap.Int("count", len(results)),
		zap.Time("first_review", firstReview))
	return results, nil
}

// GetProblem returns one record by ID.
func (s *PlannerService) GetProblem(id string) (storage.Problem, error) {
	p, err := s.Store.GetProblem(id)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error getting problem %s: %w", id, err)
	}
	return p, nil
}

// ListProblems lists records, optionally filtered by topic, kind, and
// completion state.
func (s *PlannerService) ListProblems(topic string, kind storage.Kind, completed *bool) ([]storage.Problem, error) {
	problems, err := s.Store.FindProblems(storage.ProblemFilter{
		Kind:      kind,
		Topic:     topic,
		Completed: completed,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing problems: %w", err)
	}
	return problems, nil
}

// ProblemUpdate carries the optional fields of UpdateProblem; nil pointers
// leave the stored value unchanged.
type ProblemUpdate struct {
	Topic         *string
	Difficulty    *schedule.Difficulty
	Notes         *string
	Title         *string
	Slug          *string
	ScheduledDate *time.Time
}

// UpdateProblem selectively updates a record's editable fields.
func (s *PlannerService) UpdateProblem(id string, update ProblemUpdate) (storage.Problem, error) {
	p, err := s.Store.GetProblem(id)
	if err != nil {
		return storage.Problem{}, fmt.Errorf("error getting problem %s: %w", id, err)
	}

	changed := false
	if update.Topic != nil && *update.Topic != p.Topic {
		if *update.Topic == "" {
			return storage.Problem{}, ErrEmptyTopic
		}
		p.Topic = *update.Topic
		changed = true
	}
	if update.Difficulty != nil && *update.Difficulty != p.Difficulty {
		p.Difficulty = *update.Difficulty
		changed = true
	}
	if update.Notes != nil && *update.Notes != p.Notes {
		p.Notes = *update.Notes
		changed = true
	}
	if update.Title != nil && *update.Title != p.Title {
		p.Title = *update.Title
		changed = true
	}
	if update.Slug != nil && *update.Slug != p.Slug {
		p.Slug = *update.Slug
		changed = true
	}
	if update.ScheduledDate != nil {
		p.ScheduledRepetitionDate = schedule.DayStart(*update.ScheduledDate)
		changed = true
	}

	if changed {
		if err := s.Store.UpdateProblem(p); err != nil {
			return storage.Problem{}, fmt.Errorf("error updating problem %s: %w", id, err)
		}
		s.invalidateStats()
		if err := s.Store.Save(); err != nil {
			return storage.Problem{}, fmt.Errorf("error saving storage after updating problem %s: %w", id, err)
		}
	}
	return p, nil
}

// DeleteProblem removes a record. Deleting an anchor also removes every
// repetition record referencing it.
func (s *PlannerService) DeleteProblem(id string) error {
	if err := s.Store.DeleteProblem(id); err != nil {
		return fmt.Errorf("error deleting problem %s: %w", id, err)
	}
	s.invalidateStats()
	if err := s.Store.Save(); err != nil {
		return fmt.Errorf("error saving storage after deleting problem %s: %w", id, err)
	}
	s.Logger.Info("problem deleted", zap.String("problem_id", id))
	return nil
}

// ListTopics returns the distinct topics across all tracked problems.
func (s *PlannerService) ListTopics() ([]string, error) {
	topics, err := s.Store.Topics()
	if err != nil {
		return nil, fmt.Errorf("error listing topics: %w", err)
	}
	return topics, nil
}
