// Package main provides implementation for the leetplan MCP service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Amrut00/MyLeetPlan/internal/schedule"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// serviceFromContext extracts the PlannerService stored in the context by
// main.
func serviceFromContext(ctx context.Context) (*PlannerService, bool) {
	s, ok := ctx.Value(serviceContextKey).(*PlannerService)
	return s, ok && s != nil
}

// toolResultJSON marshals v as an indented JSON tool result.
func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// toolError renders an error as a JSON tool result rather than an MCP
// protocol failure, so the caller sees an actionable message.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(fmt.Sprintf(`{"error": %q}`, fmt.Sprintf(format, args...))), nil
}

// handleGetDashboard runs the daily selection cycle for today and returns
// the dashboard payload: topics, repetitions to show, backlog, counters.
func handleGetDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	dashboard, err := s.Dashboard(time.Now())
	if err != nil {
		return toolError("Error building dashboard: %v", err)
	}
	return toolResultJSON(dashboard)
}

// handleGetTodaysRepetitions runs the selection cycle for a single topic
// with an explicit cap, without building the full dashboard.
func handleGetTodaysRepetitions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	topic, ok := request.Params.Arguments["topic"].(string)
	if !ok || topic == "" {
		return mcp.NewToolResultText("Missing required parameter: topic"), nil
	}

	limit := s.DailyCap
	if f, ok := request.Params.Arguments["limit"].(float64); ok {
		limit = int(f)
	}

	plan, err := s.ComputeTodaysRepetitions(topic, time.Now(), limit)
	if err != nil {
		if errors.Is(err, ErrInvalidCap) {
			return toolError("Invalid limit: must be a positive integer")
		}
		if errors.Is(err, ErrEmptyTopic) {
			return toolError("Missing required parameter: topic")
		}
		return toolError("Error selecting repetitions: %v", err)
	}
	return toolResultJSON(plan)
}

// handleAddProblems logs a batch of solved problems under an anchor topic.
func handleAddProblems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	topic, _ := request.Params.Arguments["topic"].(string)
	numbersArg, ok := request.Params.Arguments["problem_numbers"].([]interface{})
	if !ok || len(numbersArg) == 0 {
		return mcp.NewToolResultText("Missing required parameter: problem_numbers"), nil
	}

	difficulty, _ := request.Params.Arguments["difficulty"].(string)
	notes, _ := request.Params.Arguments["notes"].(string)

	problems := make([]NewProblem, 0, len(numbersArg))
	for _, n := range numbersArg {
		number, ok := n.(string)
		if !ok {
			// Catalog numbers are often sent as JSON numbers.
			if f, isFloat := n.(float64); isFloat {
				number = fmt.Sprintf("%.0f", f)
			} else {
				return mcp.NewToolResultText("problem_numbers entries must be strings or numbers"), nil
			}
		}
		problems = append(problems, NewProblem{
			Number:     number,
			Difficulty: schedule.Difficulty(difficulty),
			Notes:      notes,
		})
	}

	results, err := s.AddProblems(problems, topic, time.Now())
	if err != nil {
		return toolError("Error adding problems: %v", err)
	}

	return toolResultJSON(AddProblemsResponse{
		Message:  fmt.Sprintf("%d problem(s) logged under topic %q", len(results), topic),
		Problems: results,
	})
}

// handleListProblems lists records, optionally filtered by topic, kind,
// and completion.
func handleListProblems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	topic, _ := request.Params.Arguments["topic"].(string)
	kind, _ := request.Params.Arguments["kind"].(string)
	var completed *bool
	if c, ok := request.Params.Arguments["completed"].(bool); ok {
		completed = &c
	}

	problems, err := s.ListProblems(topic, storage.Kind(kind), completed)
	if err != nil {
		return toolError("Error listing problems: %v", err)
	}
	return toolResultJSON(ListProblemsResponse{Problems: problems})
}

// handleGetProblem returns one record by ID.
func handleGetProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	id, ok := request.Params.Arguments["problem_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("Missing required parameter: problem_id"), nil
	}

	problem, err := s.GetProblem(id)
	if err != nil {
		if errors.Is(err, storage.ErrProblemNotFound) {
			return toolError("Problem not found: %s", id)
		}
		return toolError("Error getting problem: %v", err)
	}
	return toolResultJSON(ProblemResponse{Success: true, Problem: problem})
}

// handleUpdateProblem selectively updates a record's editable fields.
func handleUpdateProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	id, ok := request.Params.Arguments["problem_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("Missing required parameter: problem_id"), nil
	}

	var update ProblemUpdate
	if topic, ok := request.Params.Arguments["topic"].(string); ok {
		update.Topic = &topic
	}
	if difficulty, ok := request.Params.Arguments["difficulty"].(string); ok {
		d := schedule.Difficulty(difficulty)
		update.Difficulty = &d
	}
	if notes, ok := request.Params.Arguments["notes"].(string); ok {
		update.Notes = &notes
	}
	if title, ok := request.Params.Arguments["title"].(string); ok {
		update.Title = &title
	}
	if slug, ok := request.Params.Arguments["slug"].(string); ok {
		update.Slug = &slug
	}
	if dateStr, ok := request.Params.Arguments["scheduled_date"].(string); ok && dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return toolError("Invalid scheduled_date %q: expected YYYY-MM-DD", dateStr)
		}
		update.ScheduledDate = &date
	}

	problem, err := s.UpdateProblem(id, update)
	if err != nil {
		if errors.Is(err, storage.ErrProblemNotFound) {
			return toolError("Problem not found: %s", id)
		}
		return toolError("Error updating problem: %v", err)
	}
	return toolResultJSON(ProblemResponse{Success: true, Message: "Problem updated", Problem: problem})
}

// handleDeleteProblem removes a record, cascading from anchors to their
// repetitions.
func handleDeleteProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	id, ok := request.Params.Arguments["problem_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("Missing required parameter: problem_id"), nil
	}

	if err := s.DeleteProblem(id); err != nil {
		if errors.Is(err, storage.ErrProblemNotFound) {
			return toolError("Problem not found: %s", id)
		}
		return toolError("Error deleting problem: %v", err)
	}
	return toolResultJSON(map[string]interface{}{
		"success": true,
		"message": "Problem deleted (repetitions included)",
	})
}

// handleCompleteProblem marks a record completed and reports the anchor's
// updated scheduling state.
func handleCompleteProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	id, ok := request.Params.Arguments["problem_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("Missing required parameter: problem_id"), nil
	}

	anchor, err := s.RecordCompletion(id, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrProblemNotFound) {
			return toolError("Problem not found: %s", id)
		}
		return toolError("Error recording completion: %v", err)
	}
	return toolResultJSON(ProblemResponse{
		Success: true,
		Message: fmt.Sprintf("Completion recorded; next review %s", anchor.ScheduledRepetitionDate.Format("2006-01-02")),
		Problem: anchor,
	})
}

// handleUncompleteProblem reverts a same-day completion. Completions from
// prior days are immutable.
func handleUncompleteProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	id, ok := request.Params.Arguments["problem_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("Missing required parameter: problem_id"), nil
	}

	anchor, err := s.RecordUndo(id, time.Now())
	if err != nil {
		if errors.Is(err, ErrLockedCompletion) {
			return toolError("This completion was recorded on a past day and can no longer be undone")
		}
		if errors.Is(err, storage.ErrProblemNotFound) {
			return toolError("Problem not found: %s", id)
		}
		return toolError("Error undoing completion: %v", err)
	}
	return toolResultJSON(ProblemResponse{
		Success: true,
		Message: "Completion undone",
		Problem: anchor,
	})
}

// handleGetBacklog returns overdue incomplete repetitions, oldest first.
func handleGetBacklog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	limit := 0
	if f, ok := request.Params.Arguments["limit"].(float64); ok {
		limit = int(f)
	}

	backlog, err := s.Backlog(time.Now(), limit)
	if err != nil {
		return toolError("Error getting backlog: %v", err)
	}
	return toolResultJSON(BacklogResponse{Backlog: backlog})
}

// handleGetStats returns aggregate statistics over the problem pool.
func handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	stats, err := s.Stats(time.Now())
	if err != nil {
		return toolError("Error computing stats: %v", err)
	}
	return toolResultJSON(stats)
}

// handleListTopics returns the distinct topics across tracked problems.
func handleListTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	topics, err := s.ListTopics()
	if err != nil {
		return toolError("Error listing topics: %v", err)
	}
	return toolResultJSON(TopicsResponse{Topics: topics})
}

// handleGetPracticePlan returns the weekly plan.
func handleGetPracticePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	entries, err := s.ListPlan()
	if err != nil {
		return toolError("Error listing practice plan: %v", err)
	}
	return toolResultJSON(PlanResponse{Entries: entries})
}

// handleSetPracticePlan creates or replaces one weekday's plan entry.
func handleSetPracticePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	dayFloat, ok := request.Params.Arguments["day_of_week"].(float64)
	if !ok {
		return mcp.NewToolResultText("Missing required parameter: day_of_week"), nil
	}
	anchorTopic, _ := request.Params.Arguments["anchor_topic"].(string)
	repetitionTopic, _ := request.Params.Arguments["repetition_topic"].(string)

	entry, err := s.SetPlanDay(int(dayFloat), anchorTopic, repetitionTopic)
	if err != nil {
		if errors.Is(err, ErrInvalidDayOfWeek) {
			return toolError("Invalid day_of_week: must be 0 (Sunday) through 6 (Saturday)")
		}
		if errors.Is(err, ErrEmptyTopic) {
			return toolError("Both anchor_topic and repetition_topic are required")
		}
		return toolError("Error saving plan entry: %v", err)
	}
	return toolResultJSON(PlanResponse{
		Message: "Plan entry saved",
		Entries: []storage.PlanEntry{entry},
	})
}

// handleInitPracticePlan seeds the default rotation when no plan exists.
func handleInitPracticePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return mcp.NewToolResultText("Error: Service not available"), nil
	}

	seeded, err := s.InitDefaultPlan()
	if err != nil {
		return toolError("Error initializing practice plan: %v", err)
	}

	entries, err := s.ListPlan()
	if err != nil {
		return toolError("Error listing practice plan: %v", err)
	}

	message := "Practice plan already exists"
	if seeded {
		message = "Default practice plan initialized"
	}
	return toolResultJSON(PlanResponse{Message: message, Entries: entries})
}
