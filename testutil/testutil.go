// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/election-survey/cliparse"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/models"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp dir. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "survey_test.db")
	conn, err := db.Open(db.TypeSQLite, path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a store over SetupTestDB with the election survey seeded.
func SetupTestStore(t *testing.T) (*sql.DB, *db.Store) {
	t.Helper()

	conn := SetupTestDB(t)
	store := db.NewStore(conn, db.TypeSQLite)
	if err := store.SeedElectionSurvey(context.Background()); err != nil {
		t.Fatalf("Failed to seed election survey: %v", err)
	}
	return conn, store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test.db",
		DatabaseType: db.TypeSQLite,
		IPSalt:       "test-ip-salt",
		AdminKey:     "test-admin-key",
	}
}

// CreateTestSurvey stores a survey with the given questions and returns its ID
func CreateTestSurvey(t *testing.T, store *db.Store, questions ...models.Question) string {
	t.Helper()

	survey, err := store.CreateSurvey(context.Background(), models.Survey{
		Title:     "Test Survey",
		Questions: questions,
	})
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}
	return survey.ID
}

// CountResponses returns the stored response count for a survey
func CountResponses(t *testing.T, store *db.Store, surveyID string) int {
	t.Helper()

	n, err := store.CountResponses(context.Background(), surveyID)
	if err != nil {
		t.Fatalf("Failed to count responses: %v", err)
	}
	return n
}

// FakeClock is a settable cooldown.Clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
