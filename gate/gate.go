// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhkuo/election-survey/cooldown"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/identity"
	"github.com/danielhkuo/election-survey/models"
	"github.com/danielhkuo/election-survey/telemetry"
)

var (
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrBackendUnavailable = errors.New("database is unavailable")
)

// AlreadyVotedError is returned while the identity's cooldown is active.
type AlreadyVotedError struct {
	RetryAfter time.Duration
}

func (e *AlreadyVotedError) Error() string {
	return fmt.Sprintf("already voted, retry after %s", e.RetryAfter.Round(time.Second))
}

// ValidationError reports a malformed or incomplete answer set.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store is the persistence the gate writes votes to.
type Store interface {
	Ping(ctx context.Context) error
	GetSurvey(ctx context.Context, id string) (models.Survey, error)
	AddResponse(ctx context.Context, resp models.Response) (int, error)
}

// Submission is one voter's answers plus client-reported metadata.
// A nil Answers means the field was missing from the request.
type Submission struct {
	Answers      []string
	SessionToken string
	UserAgent    string
}

// Gate is the server's authoritative vote admission point.
type Gate struct {
	store    Store
	ledger   *cooldown.Ledger
	resolver *identity.Resolver
}

func New(store Store, ledger *cooldown.Ledger, resolver *identity.Resolver) *Gate {
	return &Gate{store: store, ledger: ledger, resolver: resolver}
}

// Identify resolves the voter identity of a request.
func (g *Gate) Identify(r *http.Request) identity.Identity {
	return g.resolver.Resolve(r)
}

// Submit admits or rejects a vote and, when admitted, persists it exactly once.
// It returns the survey's response total after the write.
//
// The cooldown is checked before the answers are validated and is committed
// only after the response is stored; every earlier exit leaves the ledger as
// it was.
func (g *Gate) Submit(ctx context.Context, surveyID string, who identity.Identity, sub Submission) (total int, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "gate.Submit",
		trace.WithAttributes(attribute.String("survey.id", surveyID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := g.store.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	survey, err := g.store.GetSurvey(ctx, surveyID)
	if errors.Is(err, db.ErrNotFound) {
		return 0, ErrSurveyNotFound
	}
	if err != nil {
		return 0, g.classify(ctx, err)
	}

	res, wait, ok := g.ledger.Reserve(who.Key)
	if !ok {
		span.SetAttributes(attribute.String("vote.outcome", "already_voted"))
		slog.Info("vote rejected, cooldown active", "survey_id", surveyID, "identity", who.Short(), "retry_after", wait.Round(time.Second).String())
		return 0, &AlreadyVotedError{RetryAfter: wait}
	}
	committed := false
	defer func() {
		if !committed {
			res.Release()
		}
	}()

	if err := validateAnswers(survey, sub.Answers); err != nil {
		span.SetAttributes(attribute.String("vote.outcome", "invalid"))
		return 0, err
	}

	total, err = g.store.AddResponse(ctx, models.Response{
		SurveyID:     survey.ID,
		Answers:      sub.Answers,
		IPHash:       who.Key,
		SessionToken: sub.SessionToken,
		UserAgent:    truncate(sub.UserAgent, models.MaxUserAgentLen),
	})
	if err != nil {
		return 0, g.classify(ctx, err)
	}

	res.Commit()
	committed = true

	span.SetAttributes(attribute.String("vote.outcome", "accepted"), attribute.Int("survey.votes_total", total))
	slog.Info("vote recorded", "survey_id", survey.ID, "identity", who.Short(), "votes_total", total)

	return total, nil
}

// classify maps a store failure to ErrBackendUnavailable when the database
// no longer answers pings.
func (g *Gate) classify(ctx context.Context, err error) error {
	if pingErr := g.store.Ping(ctx); pingErr != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

func validateAnswers(survey models.Survey, answers []string) error {
	if answers == nil {
		return &ValidationError{Message: "answers must be an array"}
	}
	if required := survey.MinAnswers(); len(answers) < required {
		return &ValidationError{Message: fmt.Sprintf("Expected at least %d answer(s), got %d", required, len(answers))}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
