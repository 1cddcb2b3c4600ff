// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gate admits or rejects votes on the server.

Submit runs the checks in a fixed order and stops at the first failure:

	database ping     → ErrBackendUnavailable
	survey lookup     → ErrSurveyNotFound
	cooldown reserve  → *AlreadyVotedError
	answer validation → *ValidationError
	persist response  → ErrBackendUnavailable when the database stopped answering

The ledger entry is committed only after the response is stored, so a
rejected or failed submission never starts a cooldown. Concurrent
submissions from one identity are serialized by the reservation: at most
one of them reaches the database.
*/
package gate
