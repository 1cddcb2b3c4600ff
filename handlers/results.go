// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/middleware"
	"github.com/danielhkuo/election-survey/models"
)

type ResultsHandler struct {
	store *db.Store
}

func NewResultsHandler(store *db.Store) *ResultsHandler {
	return &ResultsHandler{store: store}
}

// GetResults handles GET /surveys/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
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

	responses, err := h.store.ListResponses(r.Context(), surveyID)
	if err != nil {
		slog.Error("failed to query responses", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, TallyResults(survey, responses, time.Now()))
}

// TallyResults aggregates responses per question. Choice questions count
// answers matching one of the options; text questions list non-empty answers.
func TallyResults(survey models.Survey, responses []models.Response, now time.Time) models.SurveyResults {
	results := make([]models.QuestionResult, 0, len(survey.Questions))

	for i, q := range survey.Questions {
		result := models.QuestionResult{
			Question: q.Question,
			Type:     q.Type,
			Total:    len(responses),
		}

		switch q.Type {
		case models.QuestionMultiple, models.QuestionYesNo:
			options := q.Options
			if q.Type == models.QuestionYesNo {
				options = models.YesNoOptions
			}
			counts := make(map[string]int, len(options))
			for _, opt := range options {
				counts[opt] = 0
			}
			for _, resp := range responses {
				if i >= len(resp.Answers) {
					continue
				}
				if _, ok := counts[resp.Answers[i]]; ok {
					counts[resp.Answers[i]]++
				}
			}
			result.Data = counts
		default:
			texts := []string{}
			for _, resp := range responses {
				if i < len(resp.Answers) && resp.Answers[i] != "" {
					texts = append(texts, resp.Answers[i])
				}
			}
			result.Data = texts
		}

		results = append(results, result)
	}

	return models.SurveyResults{
		Title:          survey.Title,
		TotalResponses: len(responses),
		Results:        results,
		LastUpdated:    now.UTC().Format(time.RFC3339),
	}
}
