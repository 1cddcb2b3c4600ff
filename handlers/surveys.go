// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/election-survey/auth"
	"github.com/danielhkuo/election-survey/cliparse"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/middleware"
	"github.com/danielhkuo/election-survey/models"
)

type SurveyHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewSurveyHandler(store *db.Store, cfg cliparse.Config) *SurveyHandler {
	return &SurveyHandler{store: store, cfg: cfg}
}

// Health handles GET /health
func (h *SurveyHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    "ok",
		Database:  "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		resp.Status = "db_unavailable"
		resp.Database = "disconnected"
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListSurveys handles GET /surveys
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.store.ListSurveys(r.Context())
	if err != nil {
		slog.Error("failed to list surveys", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, surveys)
}

// GetSurvey handles GET /surveys/{id}
// Returns the survey and its questions, never its responses.
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey id is required")
		return
	}

	survey, err := h.store.GetSurvey(r.Context(), surveyID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
		return
	}
	if err != nil {
		slog.Error("failed to query survey", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, survey)
}

// CreateSurvey handles POST /surveys (admin only)
func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Questions) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Title and questions are required")
		return
	}

	questions, err := normalizeQuestions(req.Questions)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	survey, err := h.store.CreateSurvey(r.Context(), models.Survey{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Questions:   questions,
	})
	if err != nil {
		slog.Error("failed to create survey", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create survey")
		return
	}

	slog.Info("survey created", "survey_id", survey.ID, "questions", len(survey.Questions))

	middleware.JSONResponse(w, http.StatusCreated, survey)
}

// ListParties handles GET /parties
func (h *SurveyHandler) ListParties(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.Parties)
}

// normalizeQuestions checks question types and fills yes/no options.
func normalizeQuestions(in []models.Question) ([]models.Question, error) {
	out := make([]models.Question, 0, len(in))
	for i, q := range in {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			return nil, fmt.Errorf("question %d: text is required", i+1)
		}

		switch q.Type {
		case models.QuestionText:
			q.Options = []string{}
		case models.QuestionYesNo:
			q.Options = append([]string(nil), models.YesNoOptions...)
		case models.QuestionMultiple:
			if len(q.Options) < 2 {
				return nil, fmt.Errorf("question %d: multiple choice needs at least 2 options", i+1)
			}
		default:
			return nil, fmt.Errorf("question %d: unknown type %q", i+1, q.Type)
		}

		out = append(out, q)
	}
	return out, nil
}
