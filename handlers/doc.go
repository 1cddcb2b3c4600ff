// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Election Survey API.

# Handler Types

Each handler is a struct with its dependencies:

  - SurveyHandler: health, survey listing, survey creation, party list
  - ResponseHandler: vote submission through the server gate
  - ResultsHandler: per-question aggregation

Handlers are created via constructor functions:

	surveyHandler := handlers.NewSurveyHandler(store, cfg)
	responseHandler := handlers.NewResponseHandler(g)
	resultsHandler := handlers.NewResultsHandler(store)

# Voting Flow

	POST /surveys/{id}/responses → SubmitResponse

The gate decides the outcome and the handler maps it to a status:

	accepted            → 200 {message, votesTotal}
	cooldown active     → 429 {error, retryAfter: 86400}, Retry-After header
	invalid answers     → 400
	unknown survey      → 404
	database down       → 503
	anything else       → 500

# Results

	GET /surveys/{id}/results → GetResults

Multiple-choice and yes/no questions report a count per option; text
questions list the non-empty answers. See TallyResults.

# Survey Management

	POST /surveys → CreateSurvey (requires X-Admin-Key)
*/
package handlers
