package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Amrut00/MyLeetPlan/internal/config"
	"github.com/Amrut00/MyLeetPlan/internal/storage"
)

// contextKey is a private type for context values so the service entry
// cannot collide with keys from other packages.
type contextKey string

const serviceContextKey contextKey = "service"

const leetplanServerInfo = `
This is a spaced repetition planner for coding-interview practice.
It tracks every problem the user solves, schedules repetitions at growing
intervals, and assembles a daily review plan. When using this server:

1. START OF SESSION:
   - Call get_dashboard first. It resolves today's anchor and repetition
     topics from the weekly practice plan, selects today's repetitions,
     and reports the overdue backlog.
   - Present today's repetitions before suggesting new problems.

2. LOGGING NEW WORK:
   - When the user reports solving problems, call add_problems with the
     problem numbers and the topic they were practicing.
   - Re-adding a number the user already logged today is a no-op; tell
     the user it was already recorded rather than treating it as new.

3. COMPLETING REVIEWS:
   - When the user finishes a repetition, call complete_problem with that
     repetition's ID. The anchor's interval, mastery level, and next
     review date update automatically.
   - Completions can only be undone on the day they were recorded. If
     uncomplete_problem reports the completion is locked, explain that
     past days are immutable.

4. BACKLOG:
   - Overdue repetitions accumulate in the backlog. Encourage the user to
     clear the oldest items first; the list is ordered oldest first.

5. PLAN MANAGEMENT:
   - The weekly plan maps each weekday to an anchor topic (new learning)
     and a repetition topic (review). Use init_practice_plan to seed the
     default rotation and set_practice_plan to customize a day.
`

var rootCmd = &cobra.Command{
	Use:   "leetplan",
	Short: "Spaced repetition planner for coding-interview practice, served over MCP",
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer()
	}
	rootCmd.PersistentFlags().String("file", "", "Path to the plan data file (overrides config)")
	rootCmd.PersistentFlags().Int("daily-cap", 0, "Maximum repetitions to select per day (overrides config)")
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if file, _ := rootCmd.PersistentFlags().GetString("file"); file != "" {
		cfg.Storage.Path = file
	}
	if dailyCap, _ := rootCmd.PersistentFlags().GetInt("daily-cap"); dailyCap > 0 {
		cfg.Scheduler.DailyCap = dailyCap
	}

	store := storage.NewFileStore(cfg.Storage.Path)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load plan data from %s: %w", cfg.Storage.Path, err)
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	svc := NewPlannerService(store, cfg.Scheduler.DailyCap, cfg.Scheduler.DailyCap*cfg.Scheduler.BacklogCapMultiplier, level)

	s := server.NewMCPServer(
		"LeetPlan MCP",
		"1.0.0",
		server.WithInstructions(leetplanServerInfo),
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	// Context carrying the service for tool handlers.
	ctx := context.WithValue(context.Background(), serviceContextKey, svc)

	getDashboardTool := mcp.NewTool("get_dashboard",
		mcp.WithDescription(
			"Get today's practice dashboard: the anchor and repetition topics "+
				"for today, the repetitions selected for review, the overdue "+
				"backlog, and today's add/solve counters. Running this tool also "+
				"materializes today's repetition records, so call it at the start "+
				"of every session.",
		),
	)

	getTodaysRepetitionsTool := mcp.NewTool("get_todays_repetitions",
		mcp.WithDescription(
			"Select today's repetitions for a specific topic with an explicit "+
				"cap, without building the full dashboard. Eligible problems are "+
				"ranked by priority score; candidates beyond the cap are pushed "+
				"to future review days for the same topic.",
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("The repetition topic to select for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum repetitions to select (defaults to the configured daily cap)"),
		),
	)

	addProblemsTool := mcp.NewTool("add_problems",
		mcp.WithDescription(
			"Log a batch of problems the user just solved under a topic. Each "+
				"problem gets an anchor record and its first repetition is "+
				"scheduled on the next weekday whose plan covers the topic. "+
				"Numbers already logged today are skipped and reported as such.",
		),
		mcp.WithArray("problem_numbers",
			mcp.Required(),
			mcp.Description("Problem numbers to log, e.g. [\"206\", \"21\"]"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("The topic these problems were practiced under"),
		),
		mcp.WithString("difficulty",
			mcp.Description("Difficulty for the batch: Easy, Medium, or Hard"),
		),
		mcp.WithString("notes",
			mcp.Description("Optional notes to attach to each problem"),
		),
	)

	listProblemsTool := mcp.NewTool("list_problems",
		mcp.WithDescription("List tracked problems, optionally filtered by topic, kind (anchor or repetition), and completion state."),
		mcp.WithString("topic",
			mcp.Description("Only problems under this topic"),
		),
		mcp.WithString("kind",
			mcp.Description("Only records of this kind: anchor or repetition"),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Only completed (true) or pending (false) records"),
		),
	)

	getProblemTool := mcp.NewTool("get_problem",
		mcp.WithDescription("Get a single problem record by ID."),
		mcp.WithString("problem_id",
			mcp.Required(),
			mcp.Description("The ID of the record to fetch"),
		),
	)

	updateProblemTool := mcp.NewTool("update_problem",
		mcp.WithDescription("Update a problem's editable fields. Only the supplied fields change."),
		mcp.WithString("problem_id",
			mcp.Required(),
			mcp.Description("The ID of the record to update"),
		),
		mcp.WithString("topic",
			mcp.Description("New topic"),
		),
		mcp.WithString("difficulty",
			mcp.Description("New difficulty: Easy, Medium, or Hard"),
		),
		mcp.WithString("notes",
			mcp.Description("New notes"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("slug",
			mcp.Description("New URL slug"),
		),
		mcp.WithString("scheduled_date",
			mcp.Description("New scheduled review date, YYYY-MM-DD"),
		),
	)

	deleteProblemTool := mcp.NewTool("delete_problem",
		mcp.WithDescription("Delete a problem record. Deleting an anchor also deletes all of its repetitions."),
		mcp.WithString("problem_id",
			mcp.Required(),
			mcp.Description("The ID of the record to delete"),
		),
	)

	completeProblemTool := mcp.NewTool("complete_problem",
		mcp.WithDescription(
			"Mark a problem or repetition completed. The solve count increments "+
				"at most once per day per problem number, the streak and mastery "+
				"level update, and the next repetition is scheduled. Completing "+
				"an already-completed record is a no-op.",
		),
		mcp.WithString("problem_id",
			mcp.Required(),
			mcp.Description("The ID of the record to complete"),
		),
	)

	uncompleteProblemTool := mcp.NewTool("uncomplete_problem",
		mcp.WithDescription(
			"Undo a completion recorded earlier today. Completions from past "+
				"days are locked and cannot be undone. Undoing counts as a "+
				"failed attempt and resets the anchor's schedule to its state "+
				"before the completion.",
		),
		mcp.WithString("problem_id",
			mcp.Required(),
			mcp.Description("The ID of the record to revert"),
		),
	)

	getBacklogTool := mcp.NewTool("get_backlog",
		mcp.WithDescription("List overdue incomplete repetitions, oldest first, deduplicated per problem."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum backlog entries to return (defaults to the configured backlog cap)"),
		),
	)

	getStatsTool := mcp.NewTool("get_stats",
		mcp.WithDescription("Get aggregate statistics: totals, today's activity, backlog size, and breakdowns by mastery, difficulty, and topic."),
	)

	listTopicsTool := mcp.NewTool("list_topics",
		mcp.WithDescription("List the distinct topics across all tracked problems."),
	)

	getPracticePlanTool := mcp.NewTool("get_practice_plan",
		mcp.WithDescription("Get the weekly practice plan: each weekday's anchor topic and repetition topic."),
	)

	setPracticePlanTool := mcp.NewTool("set_practice_plan",
		mcp.WithDescription("Create or replace the plan entry for one weekday."),
		mcp.WithNumber("day_of_week",
			mcp.Required(),
			mcp.Description("Weekday to set: 0 (Sunday) through 6 (Saturday)"),
		),
		mcp.WithString("anchor_topic",
			mcp.Required(),
			mcp.Description("Topic for new learning on this day"),
		),
		mcp.WithString("repetition_topic",
			mcp.Required(),
			mcp.Description("Topic whose repetitions are reviewed on this day"),
		),
	)

	initPracticePlanTool := mcp.NewTool("init_practice_plan",
		mcp.WithDescription("Seed the default weekly rotation. Does nothing if a plan already exists."),
	)

	s.AddTool(getDashboardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetDashboard(ctx, request)
	})
	s.AddTool(getTodaysRepetitionsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTodaysRepetitions(ctx, request)
	})
	s.AddTool(addProblemsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAddProblems(ctx, request)
	})
	s.AddTool(listProblemsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListProblems(ctx, request)
	})
	s.AddTool(getProblemTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetProblem(ctx, request)
	})
	s.AddTool(updateProblemTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdateProblem(ctx, request)
	})
	s.AddTool(deleteProblemTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDeleteProblem(ctx, request)
	})
	s.AddTool(completeProblemTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCompleteProblem(ctx, request)
	})
	s.AddTool(uncompleteProblemTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUncompleteProblem(ctx, request)
	})
	s.AddTool(getBacklogTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetBacklog(ctx, request)
	})
	s.AddTool(getStatsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetStats(ctx, request)
	})
	s.AddTool(listTopicsTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTopics(ctx, request)
	})
	s.AddTool(getPracticePlanTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetPracticePlan(ctx, request)
	})
	s.AddTool(setPracticePlanTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSetPracticePlan(ctx, request)
	})
	s.AddTool(initPracticePlanTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInitPracticePlan(ctx, request)
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Error serving MCP server: %v", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
