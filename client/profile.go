// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/danielhkuo/election-survey/cooldown"
)

type profileData struct {
	VoteTimestamp int64 `json:"voteTimestamp"`
}

// Profile is the client's advisory ledger: the time of the last accepted
// vote, kept in a durable file. It is keyed by nothing but the profile
// itself, so a different profile or device starts clear.
type Profile struct {
	path  string
	clock cooldown.Clock
}

func NewProfile(path string, clock cooldown.Clock) *Profile {
	return &Profile{path: path, clock: clock}
}

// lastVote returns the stored vote time, or false when there is none.
// An unreadable profile counts as no vote.
func (p *Profile) lastVote() (int64, bool) {
	b, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false
	}
	if err != nil {
		slog.Warn("failed to read profile", "path", p.path, "error", err)
		return 0, false
	}

	var data profileData
	if err := json.Unmarshal(b, &data); err != nil || data.VoteTimestamp <= 0 {
		slog.Warn("ignoring malformed profile", "path", p.path)
		return 0, false
	}
	return data.VoteTimestamp, true
}

// MayVote reports whether the local cooldown allows a vote now.
func (p *Profile) MayVote() bool {
	last, ok := p.lastVote()
	return !ok || !cooldown.Active(last, p.clock.Now().UnixMilli())
}

// RetryAfter is the remaining local cooldown, zero when clear.
func (p *Profile) RetryAfter() time.Duration {
	last, ok := p.lastVote()
	if !ok {
		return 0
	}
	return cooldown.Remaining(last, p.clock.Now().UnixMilli())
}

// RecordVote stamps the current time, overwriting any earlier vote.
func (p *Profile) RecordVote() error {
	b, err := json.Marshal(profileData{VoteTimestamp: p.clock.Now().UnixMilli()})
	if err != nil {
		return err
	}
	if err := writeFile(p.path, b); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Clear removes the stored vote.
func (p *Profile) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
