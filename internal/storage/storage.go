// Package storage persists practice problems and the weekly practice plan
// in a single JSON file. It is the system of record for the scheduler; all
// access goes through the Store interface so tests and future backends can
// swap the implementation.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
)

// Kind distinguishes an original logged solve from a scheduled review of
// one.
type Kind string

const (
	KindAnchor     Kind = "anchor"
	KindRepetition Kind = "repetition"
)

// Problem represents either an anchor record (the original logged solve of
// a problem) or a repetition record (one scheduled review instance of an
// anchor, linked back via OriginalID).
type Problem struct {
	ID            string              `json:"id"`
	ProblemNumber string              `json:"problem_number"`
	Slug          string              `json:"slug,omitempty"`
	Title         string              `json:"title,omitempty"`
	Topic         string              `json:"topic"`
	Difficulty    schedule.Difficulty `json:"difficulty"`
	Kind          Kind                `json:"kind"`
	// OriginalID is set on repetition records only. It is a weak back
	// reference used for lookup and cascading delete; it never implies the
	// repetition owns the anchor.
	OriginalID string `json:"original_id,omitempty"`
	Notes      string `json:"notes,omitempty"`

	IsCompleted bool      `json:"is_completed"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	// RepetitionCompletedAt is the completion timestamp for repetition
	// records; CompletedAt is used for anchors. Mutually exclusive by Kind.
	RepetitionCompletedAt time.Time `json:"repetition_completed_at,omitzero"`

	// SolveCount is the total lifetime solves of this problem number. It is
	// kept identical across the anchor and every repetition sharing the
	// same ProblemNumber.
	SolveCount int       `json:"solve_count"`
	AddedAt    time.Time `json:"added_at,omitzero"`
	CreatedAt  time.Time `json:"created_at,omitzero"`

	// Scheduling state. Lives on the anchor; repetition records carry a
	// copy of ScheduledRepetitionDate taken at creation time.
	LastCompletedAt         time.Time        `json:"last_completed_at,omitzero"`
	NextRepetitionDate      time.Time        `json:"next_repetition_date,omitzero"`
	ScheduledRepetitionDate time.Time        `json:"scheduled_repetition_date,omitzero"`
	RepetitionInterval      int              `json:"repetition_interval,omitempty"`
	MasteryLevel            schedule.Mastery `json:"mastery_level,omitempty"`
	StreakCount             int              `json:"streak_count,omitempty"`
	FailedCount             int              `json:"failed_count,omitempty"`

	// LegacyRepetitionDate is the scheduling field data files from before
	// the topic-aware scheduler carry. Load migrates it into
	// ScheduledRepetitionDate once; nothing else reads it.
	LegacyRepetitionDate time.Time `json:"repetition_date,omitzero"`
}

// CompletionTime returns the record's completion timestamp for its kind.
func (p Problem) CompletionTime() time.Time {
	if p.Kind == KindRepetition {
		return p.RepetitionCompletedAt
	}
	return p.CompletedAt
}

// PlanEntry is one weekday's slot of the weekly practice plan. DayOfWeek
// is 0=Sunday..6=Saturday and unique across entries.
type PlanEntry struct {
	ID              string `json:"id"`
	DayOfWeek       int    `json:"day_of_week"`
	AnchorTopic     string `json:"anchor_topic"`
	RepetitionTopic string `json:"repetition_topic"`
}

// ProblemFilter selects problems in Find, Count and DeleteWhere. Zero
// fields are ignored. Date fields match whole UTC civil days.
type ProblemFilter struct {
	Kind          Kind
	Topic         string
	ProblemNumber string
	OriginalID    string
	Completed     *bool

	// ScheduledOnOrBefore matches records whose scheduled repetition date
	// is on or before the given day. With IncludeUnscheduled set, records
	// with no scheduled date at all also match (legacy problems are
	// eligible immediately).
	ScheduledOnOrBefore time.Time
	IncludeUnscheduled  bool
	// ScheduledBefore matches records scheduled strictly before the day.
	ScheduledBefore time.Time
	// ScheduledOn matches records scheduled exactly on the day.
	ScheduledOn time.Time
	// CompletedOn matches records whose completion timestamp (for their
	// kind) falls on the day.
	CompletedOn time.Time
	// AddedOn matches records logged on the day.
	AddedOn time.Time
}

// ErrProblemNotFound is returned when a problem record is absent.
var ErrProblemNotFound = errors.New("problem not found")

// ErrPlanEntryNotFound is returned when a practice plan entry is absent.
var ErrPlanEntryNotFound = errors.New("practice plan entry not found")

// Store is the persistence interface the scheduling service consumes.
type Store interface {
	// Problem operations
	CreateProblem(p Problem) (Problem, error)
	GetProblem(id string) (Problem, error)
	UpdateProblem(p Problem) error
	DeleteProblem(id string) error
	FindProblems(f ProblemFilter) ([]Problem, error)
	CountProblems(f ProblemFilter) (int, error)
	DeleteProblems(f ProblemFilter) (int, error)
	Topics() ([]string, error)

	// Practice plan operations
	UpsertPlanEntry(e PlanEntry) (PlanEntry, error)
	ListPlanEntries() ([]PlanEntry, error)
	GetPlanEntry(dayOfWeek int) (PlanEntry, error)
	DeletePlanEntry(id string) error

	// File operations
	Load() error
	Save() error
}

// problemStore is the JSON document persisted to disk.
type problemStore struct {
	SchemaVersion int                `json:"schema_version"`
	Problems      map[string]Problem `json:"problems"`
	Plan          []PlanEntry        `json:"plan"`
	LastUpdated   time.Time          `json:"last_updated"`
}

const currentSchemaVersion = 2

// FileStore implements Store using a JSON file for persistence. Mutations
// are guarded by a RWMutex; Save writes atomically via a temp-file rename.
type FileStore struct {
	filePath string
	store    problemStore
	mu       sync.RWMutex
}

// NewFileStore creates a FileStore backed by the given path. Call Load
// before use.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
		store: problemStore{
			SchemaVersion: currentSchemaVersion,
			Problems:      make(map[string]Problem),
			Plan:          []PlanEntry{},
		},
	}
}

// CreateProblem assigns an ID and creation timestamp and stores the record.
func (fs *FileStore) CreateProblem(p Problem) (Problem, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	if p.AddedAt.IsZero() {
		p.AddedAt = schedule.DayStart(p.CreatedAt)
	}

	fs.store.Problems[p.ID] = p
	fs.store.LastUpdated = p.CreatedAt

	return p, nil
}

// GetProblem retrieves a problem record by ID.
func (fs *FileStore) GetProblem(id string) (Problem, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	p, ok := fs.store.Problems[id]
	if !ok {
		return Problem{}, ErrProblemNotFound
	}
	return p, nil
}

// UpdateProblem replaces an existing record.
func (fs *FileStore) UpdateProblem(p Problem) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.store.Problems[p.ID]; !ok {
		return ErrProblemNotFound
	}
	fs.store.Problems[p.ID] = p
	fs.store.LastUpdated = time.Now().UTC()
	return nil
}

// DeleteProblem removes a record. Deleting an anchor cascades to every
// repetition record referencing it.
func (fs *FileStore) DeleteProblem(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, ok := fs.store.Problems[id]
	if !ok {
		return ErrProblemNotFound
	}
	delete(fs.store.Problems, id)

	if p.Kind == KindAnchor {
		for repID, rep := range fs.store.Problems {
			if rep.OriginalID == id {
				delete(fs.store.Problems, repID)
			}
		}
	}

	fs.store.LastUpdated = time.Now().UTC()
	return nil
}

// FindProblems returns all records matching the filter, ordered by
// creation time (then ID for records created in the same instant) so
// selection tie-breaks are stable.
func (fs *FileStore) FindProblems(f ProblemFilter) ([]Problem, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	result := make([]Problem, 0)
	for _, p := range fs.store.Problems {
		if matchProblem(p, f) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountProblems returns the number of records matching the filter.
func (fs *FileStore) CountProblems(f ProblemFilter) (int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	count := 0
	for _, p := range fs.store.Problems {
		if matchProblem(p, f) {
			count++
		}
	}
	return count, nil
}

// DeleteProblems removes every record matching the filter and reports how
// many were deleted. No cascade semantics; callers delete exactly what
// they select.
func (fs *FileStore) DeleteProblems(f ProblemFilter) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	deleted := 0
	for id, p := range fs.store.Problems {
		if matchProblem(p, f) {
			delete(fs.store.Problems, id)
			deleted++
		}
	}
	if deleted > 0 {
		fs.store.LastUpdated = time.Now().UTC()
	}
	return deleted, nil
}

// Topics returns the sorted set of distinct topics across all problems.
func (fs *FileStore) Topics() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range fs.store.Problems {
		if p.Topic != "" {
			seen[p.Topic] = true
		}
	}
	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics, nil
}

func matchProblem(p Problem, f ProblemFilter) bool {
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Topic != "" && p.Topic != f.Topic {
		return false
	}
	if f.ProblemNumber != "" && p.ProblemNumber != f.ProblemNumber {
		return false
	}
	if f.OriginalID != "" && p.OriginalID != f.OriginalID {
		return false
	}
	if f.Completed != nil && p.IsCompleted != *f.Completed {
		return false
	}
	if !f.ScheduledOnOrBefore.IsZero() {
		if p.ScheduledRepetitionDate.IsZero() {
			if !f.IncludeUnscheduled {
				return false
			}
		} else if schedule.DayStart(p.ScheduledRepetitionDate).After(schedule.DayStart(f.ScheduledOnOrBefore)) {
			return false
		}
	}
	if !f.ScheduledBefore.IsZero() {
		if p.ScheduledRepetitionDate.IsZero() ||
			!schedule.DayStart(p.ScheduledRepetitionDate).Before(schedule.DayStart(f.ScheduledBefore)) {
			return false
		}
	}
	if !f.ScheduledOn.IsZero() {
		if p.ScheduledRepetitionDate.IsZero() ||
			!schedule.SameDay(p.ScheduledRepetitionDate, f.ScheduledOn) {
			return false
		}
	}
	if !f.CompletedOn.IsZero() {
		done := p.CompletionTime()
		if done.IsZero() || !schedule.SameDay(done, f.CompletedOn) {
			return false
		}
	}
	if !f.AddedOn.IsZero() {
		if p.AddedAt.IsZero() || !schedule.SameDay(p.AddedAt, f.AddedOn) {
			return false
		}
	}
	return true
}

// UpsertPlanEntry creates or replaces the plan entry for a weekday.
func (fs *FileStore) UpsertPlanEntry(e PlanEntry) (PlanEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return PlanEntry{}, fmt.Errorf("day of week %d out of range 0-6", e.DayOfWeek)
	}

	for i, existing := range fs.store.Plan {
		if existing.DayOfWeek == e.DayOfWeek {
			e.ID = existing.ID
			fs.store.Plan[i] = e
			fs.store.LastUpdated = time.Now().UTC()
			return e, nil
		}
	}

	e.ID = uuid.New().String()
	fs.store.Plan = append(fs.store.Plan, e)
	sort.Slice(fs.store.Plan, func(i, j int) bool {
		return fs.store.Plan[i].DayOfWeek < fs.store.Plan[j].DayOfWeek
	})
	fs.store.LastUpdated = time.Now().UTC()
	return e, nil
}

// ListPlanEntries returns all plan entries ordered by weekday.
func (fs *FileStore) ListPlanEntries() ([]PlanEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries := make([]PlanEntry, len(fs.store.Plan))
	copy(entries, fs.store.Plan)
	return entries, nil
}

// GetPlanEntry returns the entry for a weekday.
func (fs *FileStore) GetPlanEntry(dayOfWeek int) (PlanEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	for _, e := range fs.store.Plan {
		if e.DayOfWeek == dayOfWeek {
			return e, nil
		}
	}
	return PlanEntry{}, ErrPlanEntryNotFound
}

// DeletePlanEntry removes a plan entry by ID.
func (fs *FileStore) DeletePlanEntry(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for i, e := range fs.store.Plan {
		if e.ID == id {
			fs.store.Plan = append(fs.store.Plan[:i], fs.store.Plan[i+1:]...)
			fs.store.LastUpdated = time.Now().UTC()
			return nil
		}
	}
	return ErrPlanEntryNotFound
}

// save writes the store to disk. Assumes the write lock is held.
func (fs *FileStore) save() error {
	if fs.store.Problems == nil {
		fs.store.Problems = make(map[string]Problem)
	}
	if fs.store.Plan == nil {
		fs.store.Plan = []PlanEntry{}
	}
	fs.store.SchemaVersion = currentSchemaVersion
	fs.store.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(fs.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage data: %w", err)
	}

	dir := filepath.Dir(fs.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file, then rename (atomic on most systems).
	tempFile := fs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, fs.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Load reads the store from disk, creating an empty file when none exists,
// and migrates records written by older schema versions.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		fs.store = problemStore{
			SchemaVersion: currentSchemaVersion,
			Problems:      make(map[string]Problem),
			Plan:          []PlanEntry{},
		}
		if err := fs.save(); err != nil {
			return fmt.Errorf("failed to save initial empty store: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	if len(data) == 0 {
		fs.store = problemStore{
			SchemaVersion: currentSchemaVersion,
			Problems:      make(map[string]Problem),
			Plan:          []PlanEntry{},
		}
		return nil
	}

	var store problemStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to unmarshal storage data: %w", err)
	}
	if store.Problems == nil {
		store.Problems = make(map[string]Problem)
	}
	if store.Plan == nil {
		store.Plan = []PlanEntry{}
	}

	if store.SchemaVersion < currentSchemaVersion {
		migrateLegacyDates(store.Problems)
		store.SchemaVersion = currentSchemaVersion
	}

	fs.store = store
	return nil
}

// migrateLegacyDates folds the pre-scheduler repetition_date field into
// ScheduledRepetitionDate so nothing downstream branches on field
// presence. Runs once per data file, at load.
func migrateLegacyDates(problems map[string]Problem) {
	for id, p := range problems {
		if p.ScheduledRepetitionDate.IsZero() && !p.LegacyRepetitionDate.IsZero() {
			p.ScheduledRepetitionDate = schedule.DayStart(p.LegacyRepetitionDate)
		}
		p.LegacyRepetitionDate = time.Time{}
		problems[id] = p
	}
}

// Save persists the store to disk atomically.
func (fs *FileStore) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.save()
}
