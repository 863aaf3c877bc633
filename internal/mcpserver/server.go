// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes review tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
	"github.com/starford/rehearse/internal/storage"
)

const ratingGuideURI = "rehearse://rating-guide"

// Service is the review functionality exposed as tools.
type Service interface {
	Due(ctx context.Context, q reviewservice.DueQuery) (*reviewservice.DueList, error)
	Stats(ctx context.Context) (schedule.ReviewStats, error)
	Schedule(ctx context.Context, noteID string) (*reviewservice.ScheduleView, error)
	Review(ctx context.Context, in reviewservice.ReviewInput) (*reviewservice.ReviewResult, error)
	History(ctx context.Context, noteID string, limit int) ([]schedule.LogEntry, error)
}

// Server wraps the MCP server with review tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   Service
}

// New creates a new MCP server with all review tools registered.
func New(store storage.Provider, svc Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"Rehearse",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_due_notes",
		mcp.WithDescription("List notes due for review, most overdue first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default from server config)")),
		mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
	), s.listDueNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown content of a note to quiz the learner."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("review_note",
		mcp.WithDescription("Record a review of a note and reschedule it. "+
			"Read the rating guide first via get_rating_guide or the "+ratingGuideURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the reviewed note")),
		mcp.WithString("strategy", mcp.Enum(string(schedule.StrategyRating), string(schedule.StrategyConfidence)),
			mcp.Description("Scheduling strategy (default from server config)")),
		mcp.WithNumber("difficulty_rating", mcp.Description("1-5, rating strategy only")),
		mcp.WithNumber("initial_confidence", mcp.Description("1-5, confidence strategy only")),
		mcp.WithNumber("final_confidence", mcp.Description("1-5, confidence strategy only")),
		mcp.WithBoolean("was_recalled", mcp.Description("Whether the learner recalled the answer, confidence strategy only")),
		mcp.WithNumber("retrieval_attempts", mcp.Description("Attempts before recall, >= 1, confidence strategy only (default 1)")),
		mcp.WithNumber("time_spent_seconds", mcp.Description("Time spent on the review")),
	), s.reviewNote)

	s.mcp.AddTool(mcp.NewTool("get_schedule",
		mcp.WithDescription("Show the current review schedule of a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the note")),
	), s.getSchedule)

	s.mcp.AddTool(mcp.NewTool("review_stats",
		mcp.WithDescription("Summary of the collection: due, total and reviewed counts, average difficulty, retention rate."),
	), s.reviewStats)

	s.mcp.AddTool(mcp.NewTool("review_history",
		mcp.WithDescription("Review log of a note, newest first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the note")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries")),
	), s.reviewHistory)

	s.mcp.AddTool(mcp.NewTool("get_rating_guide",
		mcp.WithDescription("Returns the rating guide for both review strategies. "+
			"Call this before recording reviews."),
	), s.getRatingGuide)

	s.mcp.AddResource(
		mcp.NewResource(ratingGuideURI, "Rating Guide",
			mcp.WithResourceDescription("How to rate reviews under each scheduling strategy."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRatingGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a domain error into a message the model can act on.
func toolError(path string, err error) *mcp.CallToolResult {
	var ratingErr *schedule.InvalidRatingError
	switch {
	case errors.As(err, &ratingErr):
		return mcp.NewToolResultError(fmt.Sprintf("invalid review outcome: %v", ratingErr.Fields))
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("schedule of %s changed concurrently, retry", path))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) listDueNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Due(ctx, reviewservice.DueQuery{
		Limit: req.GetInt("limit", 0),
		Tag:   req.GetString("tag", ""),
	})
	if err != nil {
		return toolError("", err), nil
	}
	if len(list.Notes) == 0 {
		return mcp.NewToolResultText("no notes due"), nil
	}
	return jsonResult(list)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) reviewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Review(ctx, reviewservice.ReviewInput{
		NoteID:            path,
		Strategy:          req.GetString("strategy", ""),
		DifficultyRating:  req.GetInt("difficulty_rating", 0),
		InitialConfidence: req.GetInt("initial_confidence", 0),
		FinalConfidence:   req.GetInt("final_confidence", 0),
		WasRecalled:       req.GetBool("was_recalled", false),
		RetrievalAttempts: req.GetInt("retrieval_attempts", 1),
		TimeSpentSeconds:  req.GetInt("time_spent_seconds", 0),
	})
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(res)
}

func (s *Server) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.Schedule(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(view)
}

func (s *Server) reviewStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx)
	if err != nil {
		return toolError("", err), nil
	}
	return jsonResult(st)
}

func (s *Server) reviewHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logs, err := s.svc.History(ctx, path, req.GetInt("limit", 0))
	if err != nil {
		return toolError(path, err), nil
	}
	if len(logs) == 0 {
		return mcp.NewToolResultText("no reviews recorded"), nil
	}
	return jsonResult(logs)
}

func (s *Server) getRatingGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RatingGuide), nil
}

func (s *Server) readRatingGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ratingGuideURI,
			MIMEType: "text/markdown",
			Text:     RatingGuide,
		},
	}, nil
}
