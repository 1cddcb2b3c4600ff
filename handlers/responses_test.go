// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/election-survey/cooldown"
	"github.com/danielhkuo/election-survey/db"
	"github.com/danielhkuo/election-survey/gate"
	"github.com/danielhkuo/election-survey/identity"
	"github.com/danielhkuo/election-survey/models"
	"github.com/danielhkuo/election-survey/testutil"
)

type votingStack struct {
	conn    *sql.DB
	store   *db.Store
	ledger  *cooldown.Ledger
	clock   *testutil.FakeClock
	handler *ResponseHandler
}

func newVotingStack(t *testing.T) *votingStack {
	t.Helper()

	conn, store := testutil.SetupTestStore(t)
	clock := testutil.NewFakeClock(time.UnixMilli(1767225600000))
	ledger := cooldown.NewLedger(cooldown.WithClock(clock))
	g := gate.New(store, ledger, identity.NewResolver(testutil.GetTestConfig().IPSalt))

	return &votingStack{
		conn:    conn,
		store:   store,
		ledger:  ledger,
		clock:   clock,
		handler: NewResponseHandler(g),
	}
}

// vote posts answers to a survey from the given client IP
func (s *votingStack) vote(surveyID, ip string, body interface{}) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/surveys/"+surveyID+"/responses", body, map[string]string{
		"X-Forwarded-For": ip,
	})
	req.SetPathValue("id", surveyID)
	w := httptest.NewRecorder()
	s.handler.SubmitResponse(w, req)
	return w
}

func ballot(answers ...string) map[string]interface{} {
	return map[string]interface{}{
		"answers": answers,
		"metadata": map[string]string{
			"sessionToken": "session_1767225600000_abcdef0123",
			"userAgent":    "test-agent",
		},
	}
}

func TestSubmitResponse_FirstVoteAccepted(t *testing.T) {
	s := newVotingStack(t)

	w := s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("likud"))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SubmitResponseResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.VotesTotal != 1 {
		t.Errorf("Expected votesTotal 1, got %d", resp.VotesTotal)
	}
	if resp.Message == "" {
		t.Error("Expected a success message")
	}

	responses, err := s.store.ListResponses(t.Context(), models.ElectionSurveyID)
	if err != nil {
		t.Fatalf("ListResponses() error = %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("Expected 1 stored response, got %d", len(responses))
	}
	stored := responses[0]
	if stored.IPHash == "" || strings.Contains(stored.IPHash, "203.0.113.7") {
		t.Errorf("Expected a salted IP hash, got %q", stored.IPHash)
	}
	if stored.SessionToken != "session_1767225600000_abcdef0123" {
		t.Errorf("Expected session token to be stored, got %q", stored.SessionToken)
	}
}

func TestSubmitResponse_SameIPWithinCooldown(t *testing.T) {
	s := newVotingStack(t)

	testutil.AssertStatus(t, s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("likud")), http.StatusOK)

	s.clock.Advance(23 * time.Hour)
	w := s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("labor"))
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)

	if got := w.Header().Get("Retry-After"); got != "3600" {
		t.Errorf("Expected Retry-After 3600, got %q", got)
	}

	var resp models.AlreadyVotedResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.RetryAfter != 86400 {
		t.Errorf("Expected retryAfter 86400, got %d", resp.RetryAfter)
	}
	if resp.Error == "" {
		t.Error("Expected an error message")
	}

	if n := testutil.CountResponses(t, s.store, models.ElectionSurveyID); n != 1 {
		t.Errorf("Expected 1 stored response, got %d", n)
	}

	// Window boundary: exactly 24h after the first vote is allowed again
	s.clock.Advance(time.Hour)
	w = s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("labor"))
	testutil.AssertStatus(t, w, http.StatusOK)

	var accepted models.SubmitResponseResponse
	testutil.AssertJSON(t, w, &accepted)
	if accepted.VotesTotal != 2 {
		t.Errorf("Expected votesTotal 2, got %d", accepted.VotesTotal)
	}
}

func TestSubmitResponse_VoteInFlight(t *testing.T) {
	s := newVotingStack(t)
	key := identity.NewResolver(testutil.GetTestConfig().IPSalt).Resolve(ipRequest("203.0.113.7")).Key

	inFlight, _, ok := s.ledger.Reserve(key)
	if !ok {
		t.Fatal("Reserve() should succeed on an empty ledger")
	}
	defer inFlight.Release()

	w := s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("likud"))
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Expected Retry-After 1 while another vote is in flight, got %q", got)
	}
}

func TestSubmitResponse_DifferentIPsIndependent(t *testing.T) {
	s := newVotingStack(t)

	ips := []string{"203.0.113.7", "198.51.100.4", "192.0.2.1"}
	for i, ip := range ips {
		w := s.vote(models.ElectionSurveyID, ip, ballot("shas"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SubmitResponseResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.VotesTotal != i+1 {
			t.Errorf("Vote %d: expected votesTotal %d, got %d", i, i+1, resp.VotesTotal)
		}
	}
}

func TestSubmitResponse_BadRequests(t *testing.T) {
	testCases := []struct {
		name string
		body interface{}
	}{
		{"empty answers", ballot()},
		{"missing answers", map[string]interface{}{"metadata": map[string]string{}}},
		{"null answers", map[string]interface{}{"answers": nil}},
		{"answers not strings", map[string]interface{}{"answers": []int{1, 2}}},
		{"answers not an array", map[string]interface{}{"answers": "likud"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newVotingStack(t)

			w := s.vote(models.ElectionSurveyID, "203.0.113.7", tc.body)
			testutil.AssertStatus(t, w, http.StatusBadRequest)

			if !s.ledger.MayVote(identity.NewResolver(testutil.GetTestConfig().IPSalt).Resolve(ipRequest("203.0.113.7")).Key) {
				t.Error("A rejected request must not start a cooldown")
			}
			if n := testutil.CountResponses(t, s.store, models.ElectionSurveyID); n != 0 {
				t.Errorf("Expected no stored responses, got %d", n)
			}
		})
	}
}

func TestSubmitResponse_InvalidJSON(t *testing.T) {
	s := newVotingStack(t)

	req := httptest.NewRequest("POST", "/surveys/1/responses", strings.NewReader("{not json"))
	req.SetPathValue("id", models.ElectionSurveyID)
	w := httptest.NewRecorder()
	s.handler.SubmitResponse(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestSubmitResponse_MultiQuestionSurvey(t *testing.T) {
	s := newVotingStack(t)
	surveyID := testutil.CreateTestSurvey(t, s.store,
		models.Question{Question: "Name?", Type: models.QuestionText},
		models.Question{Question: "Happy?", Type: models.QuestionYesNo, Options: models.YesNoOptions},
	)

	w := s.vote(surveyID, "203.0.113.7", ballot("Dana"))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if !strings.Contains(errResp.Message, "at least 2") {
		t.Errorf("Expected minimum answer message, got %q", errResp.Message)
	}

	testutil.AssertStatus(t, s.vote(surveyID, "203.0.113.7", ballot("Dana", "כן")), http.StatusOK)
}

func TestSubmitResponse_UnknownSurvey(t *testing.T) {
	s := newVotingStack(t)

	w := s.vote("no-such-survey", "203.0.113.7", ballot("likud"))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSubmitResponse_DatabaseUnavailable(t *testing.T) {
	s := newVotingStack(t)
	s.conn.Close()

	w := s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("likud"))
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)

	if s.ledger.Len() != 0 {
		t.Errorf("Expected an untouched ledger, got %d entries", s.ledger.Len())
	}
}

func TestSubmitResponse_ConcurrentSameIP(t *testing.T) {
	s := newVotingStack(t)

	const attempts = 10
	codes := make(chan int, attempts)
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- s.vote(models.ElectionSurveyID, "203.0.113.7", ballot("likud")).Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}

	if counts[http.StatusOK] != 1 {
		t.Errorf("Expected exactly 1 accepted vote, got %d (%v)", counts[http.StatusOK], counts)
	}
	if counts[http.StatusTooManyRequests] != attempts-1 {
		t.Errorf("Expected %d rejected votes, got %d (%v)", attempts-1, counts[http.StatusTooManyRequests], counts)
	}
	if n := testutil.CountResponses(t, s.store, models.ElectionSurveyID); n != 1 {
		t.Errorf("Expected 1 stored response, got %d", n)
	}
}

func ipRequest(ip string) *http.Request {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Forwarded-For", ip)
	return req
}
