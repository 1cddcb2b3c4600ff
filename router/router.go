// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/election-survey/cliparse"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/gate"
	"github.com/danielhkuo/election-survey/handlers"
	"github.com/danielhkuo/election-survey/middleware"
)

func NewRouter(store *db.Store, g *gate.Gate, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	surveyHandler := handlers.NewSurveyHandler(store, cfg)
	responseHandler := handlers.NewResponseHandler(g)
	resultsHandler := handlers.NewResultsHandler(store)

	// Health check reports database state instead of failing
	mux.HandleFunc("GET /health", surveyHandler.Health)

	// Survey reads (public)
	mux.HandleFunc("GET /surveys", middleware.WithLogging(middleware.RequireDatabase(store, surveyHandler.ListSurveys)))
	mux.HandleFunc("GET /surveys/{id}", middleware.WithLogging(middleware.RequireDatabase(store, surveyHandler.GetSurvey)))
	mux.HandleFunc("GET /surveys/{id}/results", middleware.WithLogging(middleware.RequireDatabase(store, resultsHandler.GetResults)))
	mux.HandleFunc("GET /parties", middleware.WithLogging(surveyHandler.ListParties))

	// Voting (public, the gate checks the database itself)
	mux.HandleFunc("POST /surveys/{id}/responses", middleware.WithLogging(responseHandler.SubmitResponse))

	// Survey management (admin)
	mux.HandleFunc("POST /surveys", middleware.WithLogging(middleware.RequireDatabase(store, surveyHandler.CreateSurvey)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("election-survey API v1"))
	})

	return mux
}
