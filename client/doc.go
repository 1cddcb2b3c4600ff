// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a Go client for the Election Survey API.

It keeps the client half of the vote gate: an advisory check against a
local profile before any request is sent. The server enforces its own
cooldown keyed by a hashed IP; the two identities are independent and
neither alone proves a voter is unique.

# Usage

	cfg, err := client.LoadConfig()
	c := client.New(cfg)
	receipt, err := c.Vote(ctx, models.ElectionSurveyID, []string{"likud"})

# Errors

Vote returns typed errors so callers can branch with errors.Is and errors.As:

	ErrAlreadyVoted (*AlreadyVotedError) - local or server cooldown
	*ValidationError                     - answers rejected by the server
	ErrSurveyNotFound                    - unknown survey id
	ErrBackendUnavailable                - server database is down
	*NetworkError                        - the request never completed
	*StatusError                         - any other response

# Local State

  - Session token: generated on first use, kept in SessionPath (temp dir)
  - Profile: {"voteTimestamp": <unix ms>} in ProfilePath, written after an
    accepted vote

The public IP is looked up before submitting with a bounded timeout; a
failed lookup sends "unknown" instead of blocking the vote.
*/
package client
