// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/danielhkuo/election-survey/cooldown"
	"github.com/danielhkuo/election-survey/gate"
	"github.com/danielhkuo/election-survey/middleware"
	"github.com/danielhkuo/election-survey/models"
)

type ResponseHandler struct {
	gate *gate.Gate
}

func NewResponseHandler(g *gate.Gate) *ResponseHandler {
	return &ResponseHandler{gate: g}
}

// SubmitResponse handles POST /surveys/{id}/responses
func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if surveyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "survey id is required")
		return
	}

	var req models.SubmitResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "answers must be an array of strings")
		return
	}

	// nil means the field was missing; "answers": [] stays an empty list
	var answers []string
	if req.Answers != nil {
		answers = *req.Answers
		if answers == nil {
			answers = []string{}
		}
	}

	userAgent := req.Metadata.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	who := h.gate.Identify(r)
	total, err := h.gate.Submit(r.Context(), surveyID, who, gate.Submission{
		Answers:      answers,
		SessionToken: req.Metadata.SessionToken,
		UserAgent:    userAgent,
	})

	var already *gate.AlreadyVotedError
	var invalid *gate.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &already):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(already.RetryAfter.Seconds()))))
		middleware.JSONResponse(w, http.StatusTooManyRequests, models.AlreadyVotedResponse{
			Error:      "This identity already voted in the last 24 hours",
			RetryAfter: int(cooldown.Window.Seconds()),
		})
		return
	case errors.As(err, &invalid):
		middleware.ErrorResponse(w, http.StatusBadRequest, invalid.Message)
		return
	case errors.Is(err, gate.ErrSurveyNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
		return
	case errors.Is(err, gate.ErrBackendUnavailable):
		slog.Warn("vote refused, database unavailable", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database is unavailable, try again later")
		return
	default:
		slog.Error("failed to submit response", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit response")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitResponseResponse{
		Message:    "Response submitted successfully",
		VotesTotal: total,
	})
}
