// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/election-survey/auth"
	"github.com/danielhkuo/election-survey/models"
)

var ErrNotFound = errors.New("survey not found")

// Store persists surveys and their responses.
type Store struct {
	db     *sql.DB
	dbType string
}

func NewStore(db *sql.DB, dbType string) *Store {
	return &Store{db: db, dbType: dbType}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dbType != TypePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListSurveys returns all surveys with their questions, oldest first.
func (s *Store) ListSurveys(ctx context.Context) ([]models.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM survey
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query surveys: %w", err)
	}
	defer rows.Close()

	surveys := []models.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}

	for i := range surveys {
		questions, err := s.questions(ctx, surveys[i].ID)
		if err != nil {
			return nil, err
		}
		surveys[i].Questions = questions
	}

	return surveys, nil
}

// GetSurvey returns a survey and its questions, or ErrNotFound.
func (s *Store) GetSurvey(ctx context.Context, id string) (models.Survey, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, title, description, created_at, updated_at
		FROM survey
		WHERE id = ?
	`), id)

	survey, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Survey{}, ErrNotFound
	}
	if err != nil {
		return models.Survey{}, err
	}

	survey.Questions, err = s.questions(ctx, id)
	if err != nil {
		return models.Survey{}, err
	}

	return survey, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row scanner) (models.Survey, error) {
	var survey models.Survey
	var createdAt, updatedAt int64
	if err := row.Scan(&survey.ID, &survey.Title, &survey.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Survey{}, err
		}
		return models.Survey{}, fmt.Errorf("scan survey: %w", err)
	}
	survey.CreatedAt = fromMillis(createdAt)
	survey.UpdatedAt = fromMillis(updatedAt)
	return survey, nil
}

func (s *Store) questions(ctx context.Context, surveyID string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT prompt, type, options
		FROM question
		WHERE survey_id = ?
		ORDER BY position
	`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var options string
		if err := rows.Scan(&q.Question, &q.Type, &options); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode question options: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, nil
}

// CreateSurvey inserts a survey and its questions. An empty ID is generated.
func (s *Store) CreateSurvey(ctx context.Context, survey models.Survey) (models.Survey, error) {
	if survey.ID == "" {
		id, err := auth.GenerateID(12)
		if err != nil {
			return models.Survey{}, err
		}
		survey.ID = id
	}
	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}
	survey.UpdatedAt = survey.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Survey{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO survey (id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`), survey.ID, survey.Title, survey.Description, toMillis(survey.CreatedAt), toMillis(survey.UpdatedAt))
	if err != nil {
		return models.Survey{}, fmt.Errorf("insert survey: %w", err)
	}

	for i, q := range survey.Questions {
		if q.Options == nil {
			survey.Questions[i].Options = []string{}
		}
		options, err := json.Marshal(survey.Questions[i].Options)
		if err != nil {
			return models.Survey{}, fmt.Errorf("encode question options: %w", err)
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO question (survey_id, position, prompt, type, options)
			VALUES (?, ?, ?, ?, ?)
		`), survey.ID, i, q.Question, q.Type, string(options))
		if err != nil {
			return models.Survey{}, fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Survey{}, fmt.Errorf("commit survey: %w", err)
	}

	return survey, nil
}

// SeedElectionSurvey creates the election survey if it does not exist yet.
func (s *Store) SeedElectionSurvey(ctx context.Context) error {
	_, err := s.GetSurvey(ctx, models.ElectionSurveyID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if _, err := s.CreateSurvey(ctx, models.ElectionSurvey()); err != nil {
		return fmt.Errorf("seed election survey: %w", err)
	}
	return nil
}

// AddResponse stores a response and returns the survey's new response count.
func (s *Store) AddResponse(ctx context.Context, resp models.Response) (int, error) {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now()
	}
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return 0, fmt.Errorf("encode answers: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO response (id, survey_id, answers, submitted_at, ip_hash, session_token, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), resp.ID, resp.SurveyID, string(answers), toMillis(resp.SubmittedAt),
		nullString(resp.IPHash), nullString(resp.SessionToken), nullString(resp.UserAgent))
	if err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE survey SET updated_at = ? WHERE id = ?
	`), toMillis(resp.SubmittedAt), resp.SurveyID)
	if err != nil {
		return 0, fmt.Errorf("touch survey: %w", err)
	}

	var total int
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM response WHERE survey_id = ?
	`), resp.SurveyID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit response: %w", err)
	}

	return total, nil
}

// CountResponses returns how many responses a survey has.
func (s *Store) CountResponses(ctx context.Context, surveyID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM response WHERE survey_id = ?
	`), surveyID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return total, nil
}

// ListResponses returns a survey's responses in submission order.
func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]models.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, survey_id, answers, submitted_at, ip_hash, session_token, user_agent
		FROM response
		WHERE survey_id = ?
		ORDER BY submitted_at, id
	`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var r models.Response
		var answers string
		var submittedAt int64
		var ipHash, sessionToken, userAgent sql.NullString
		if err := rows.Scan(&r.ID, &r.SurveyID, &answers, &submittedAt, &ipHash, &sessionToken, &userAgent); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		r.SubmittedAt = fromMillis(submittedAt)
		r.IPHash = ipHash.String
		r.SessionToken = sessionToken.String
		r.UserAgent = userAgent.String
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}

	return responses, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
