// Package main provides implementation for the leetplan MCP service.
package main

import (
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// ScoredProblem pairs an anchor problem with its priority score for one
// selection cycle.
type ScoredProblem struct {
	Problem storage.Problem `json:"problem"`
	Score   float64         `json:"score"`
}

// DailyPlan is the outcome of one selection cycle: the repetition records
// to show today, the records created this cycle, and the candidates
// deferred to future topic days.
type DailyPlan struct {
	ToShow   []storage.Problem `json:"to_show"`
	ToCreate []storage.Problem `json:"to_create"`
	ToDefer  []ScoredProblem   `json:"to_defer"`
}

// DashboardData is the response structure for get_dashboard.
type DashboardData struct {
	Date            string            `json:"date"`
	AnchorTopic     string            `json:"anchor_topic"`
	RepetitionTopic string            `json:"repetition_topic"`
	AddedToday      int               `json:"added_today"`
	SolvedToday     int               `json:"solved_today"`
	Repetitions     []storage.Problem `json:"repetitions"`
	Backlog         []storage.Problem `json:"backlog"`
}

// AddProblemsResponse is the response structure for add_problems.
type AddProblemsResponse struct {
	Message  string      `json:"message"`
	Problems []AddResult `json:"problems"`
}

// ProblemResponse is the response structure for single-problem tools.
type ProblemResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Problem storage.Problem `json:"problem"`
}

// ListProblemsResponse is the response structure for list_problems.
type ListProblemsResponse struct {
	Problems []storage.Problem `json:"problems"`
}

// BacklogResponse is the response structure for get_backlog.
type BacklogResponse struct {
	Backlog []storage.Problem `json:"backlog"`
}

// TopicsResponse is the response structure for list_topics.
type TopicsResponse struct {
	Topics []string `json:"topics"`
}

// PlanResponse is the response structure for practice plan tools.
type PlanResponse struct {
	Message string              `json:"message,omitempty"`
	Entries []storage.PlanEntry `json:"entries"`
}
