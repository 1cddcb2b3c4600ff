// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Election Survey API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, g, cfg)

# Endpoints

Health (always 200, status reports the database):

	GET /health

Surveys (public, 503 while the database is down):

	GET /surveys              - List surveys
	GET /surveys/{id}         - Survey and questions
	GET /surveys/{id}/results - Aggregated results
	GET /parties              - Fixed party list

Voting (public, one vote per identity per 24 hours):

	POST /surveys/{id}/responses

Survey management (admin, requires X-Admin-Key):

	POST /surveys
*/
package router
