// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cooldown implements the vote cooldown ledger.

# Ledger

A Ledger maps an identity key to the Unix-millisecond timestamp of its most
recent accepted vote. One entry per identity, overwritten on every vote:

	ledger := cooldown.NewLedger()
	if ledger.MayVote(key) {
		ledger.RecordVote(key)
	}

An identity may vote again once Window (24h) has elapsed since its last vote.
Entries are not deleted when they expire; the comparison against the clock
simply flips back to "may vote".

# Reservations

Requests are served concurrently, so the server admits votes through an
atomic check-and-set:

	res, retryAfter, ok := ledger.Reserve(key)
	if !ok {
		// 429, retry after retryAfter
	}
	if err := persist(); err != nil {
		res.Release() // no phantom vote
		return err
	}
	res.Commit()

While a reservation is open, other requests from the same identity are
rejected.

# Bounded Growth

Sweep removes entries whose cooldown has elapsed; Run calls it on a ticker.
WithMaxEntries caps the map, evicting the oldest vote when full.

# Testing

Inject a Clock with WithClock to move time across the cooldown boundary.
*/
package cooldown
