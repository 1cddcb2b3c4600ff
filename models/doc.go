// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

JSON field names are camelCase.

# Domain Types

  - Survey: title, description and ordered questions
  - Question: prompt, type (text, multiple, yesno) and options
  - Response: one accepted vote; IP hash, session token and user agent are never serialized
  - Party: an entry of the fixed election ballot

ElectionSurvey returns the survey seeded under ElectionSurveyID, a single
multiple-choice question over the party ids.
*/
package models
