package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/rehearse/internal/apperr"
	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
)

// ReviewService is the review API's view of the domain layer.
type ReviewService interface {
	Due(ctx context.Context, q reviewservice.DueQuery) (*reviewservice.DueList, error)
	Stats(ctx context.Context) (schedule.ReviewStats, error)
	Schedule(ctx context.Context, noteID string) (*reviewservice.ScheduleView, error)
	Review(ctx context.Context, in reviewservice.ReviewInput) (*reviewservice.ReviewResult, error)
	History(ctx context.Context, noteID string, limit int) ([]schedule.LogEntry, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc ReviewService
}

// NewHandler creates a new Handler.
func NewHandler(svc ReviewService) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// queryLimit parses the optional non-negative "limit" query parameter.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseVersion reads a schedule version from an If-Match header value.
// An empty header yields 0 (no precondition).
func parseVersion(h string) (int64, error) {
	h = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "W/"))
	h = strings.Trim(h, `"`)
	if h == "" || h == "*" {
		return 0, nil
	}
	v, err := strconv.ParseInt(h, 10, 64)
	if err != nil || v < 1 {
		return 0, errors.New("invalid If-Match version")
	}
	return v, nil
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// writeError maps domain errors to HTTP statuses. Anything unexpected,
// including a corrupted stored schedule, is logged and reported as 500.
func writeError(w http.ResponseWriter, action, path string, err error) {
	var ratingErr *schedule.InvalidRatingError
	switch {
	case errors.As(err, &ratingErr):
		writeJSON(w, http.StatusBadRequest, fieldsBody("invalid review outcome", ratingErr.Fields))
	case errors.Is(err, schedule.ErrUnknownStrategy):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("schedule version mismatch"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("review already recorded"))
	default:
		slog.Error(action+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Due handles GET /api/due.
//
//	@Summary		List notes due for review, most overdue first
//	@Tags			review
//	@Produce		json
//	@Param			limit	query		int		false	"Max notes (default from config, capped at 500)"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	DueResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/due [get]
func (h *Handler) Due(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	list, err := h.svc.Due(r.Context(), reviewservice.DueQuery{Limit: limit, Tag: r.URL.Query().Get("tag")})
	if err != nil {
		writeError(w, "due", "", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Stats handles GET /api/stats.
//
//	@Summary		Summary of every scheduled note
//	@Tags			review
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", "", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetSchedule handles GET /api/schedules/*.
//
//	@Summary		Get the review schedule of a note
//	@Tags			review
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	ScheduleResponse
//	@Header			200		{string}	ETag	"Schedule version"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schedules/{path} [get]
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	view, err := h.svc.Schedule(r.Context(), path)
	if err != nil {
		writeError(w, "get schedule", path, err)
		return
	}
	w.Header().Set("ETag", etag(view.Version))
	writeJSON(w, http.StatusOK, view)
}

// RecordReview handles POST /api/reviews/*.
//
//	@Summary		Record a review and reschedule the note
//	@Tags			review
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string			true	"Note path"
//	@Param			If-Match	header		string			false	"Schedule version for optimistic concurrency"
//	@Param			body		body		ReviewRequest	true	"Review outcome"
//	@Success		201			{object}	ReviewResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reviews/{path} [post]
func (h *Handler) RecordReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusBadRequest, fieldsBody("invalid request", fields))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}

	version, err := parseVersion(r.Header.Get("If-Match"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Review(r.Context(), req.input(path, version))
	if err != nil {
		writeError(w, "record review", path, err)
		return
	}
	w.Header().Set("ETag", etag(res.Schedule.Version))
	writeJSON(w, http.StatusCreated, res)
}

// ListReviews handles GET /api/reviews/*.
//
//	@Summary		Review log of a note, newest first
//	@Tags			review
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			limit	query		int		false	"Max entries"
//	@Success		200		{object}	ReviewListResponse
//	@Security		BearerAuth
//	@Router			/reviews/{path} [get]
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	limit, ok := queryLimit(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	logs, err := h.svc.History(r.Context(), path, limit)
	if err != nil {
		writeError(w, "list reviews", path, err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewListResponse{Reviews: logs})
}
