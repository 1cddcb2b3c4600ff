// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/election-survey/models"
)

// captureLogs routes the default slog logger into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// logRecord returns the first JSON log line whose msg matches.
func logRecord(t *testing.T, buf *bytes.Buffer, msg string) map[string]interface{} {
	t.Helper()
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var rec map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("log line is not JSON: %q", sc.Text())
		}
		if rec["msg"] == msg {
			return rec
		}
	}
	t.Fatalf("no %q record in logs:\n%s", msg, buf.String())
	return nil
}

func TestWithLogging_RecordsStatus(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:   "cooldown rejection",
			method: "POST",
			path:   "/surveys/1/responses",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3600")
				JSONResponse(w, http.StatusTooManyRequests, models.AlreadyVotedResponse{Error: "already voted", RetryAfter: 86400})
			},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:   "body without explicit header",
			method: "GET",
			path:   "/parties",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("[]"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "[]",
		},
		{
			name:   "handler writes nothing",
			method: "GET",
			path:   "/health",
			handler: func(w http.ResponseWriter, r *http.Request) {
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "database outage",
			method: "GET",
			path:   "/surveys",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)

			w := httptest.NewRecorder()
			WithLogging(tc.handler)(w, httptest.NewRequest(tc.method, tc.path, nil))

			if w.Code != tc.wantStatus {
				t.Errorf("client saw status %d, want %d", w.Code, tc.wantStatus)
			}
			if tc.wantBody != "" && w.Body.String() != tc.wantBody {
				t.Errorf("client saw body %q, want %q", w.Body.String(), tc.wantBody)
			}

			rec := logRecord(t, logs, "request completed")
			if got, _ := rec["status"].(float64); int(got) != tc.wantStatus {
				t.Errorf("logged status = %v, want %d", rec["status"], tc.wantStatus)
			}
			if rec["method"] != tc.method || rec["path"] != tc.path {
				t.Errorf("logged %v %v, want %s %s", rec["method"], rec["path"], tc.method, tc.path)
			}
			if _, ok := rec["duration_ms"]; !ok {
				t.Error("duration_ms missing from completion record")
			}
		})
	}
}

func TestWithLogging_PassesHeadersThrough(t *testing.T) {
	captureLogs(t)

	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		ErrorResponse(w, http.StatusTooManyRequests, "vote in progress")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("POST", "/surveys/1/responses", nil))

	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		data   interface{}
		want   string
	}{
		{"accepted vote", http.StatusOK, models.SubmitResponseResponse{Message: "Response submitted successfully", VotesTotal: 42}, `{"message":"Response submitted successfully","votesTotal":42}`},
		{"cooldown body keeps full window", http.StatusTooManyRequests, models.AlreadyVotedResponse{Error: "already voted", RetryAfter: 86400}, `"retryAfter":86400`},
		{"hebrew survives encoding", http.StatusOK, []string{"כן", "לא"}, `["כן","לא"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.status, tc.data)

			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); !strings.Contains(body, tc.want) {
				t.Errorf("body = %s, want it to contain %s", body, tc.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, status, "details")

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if w.Code != status || resp.Error != http.StatusText(status) || resp.Message != "details" {
				t.Errorf("got %d %+v, want %d with error %q", w.Code, resp, status, http.StatusText(status))
			}
		})
	}
}

func TestParseJSONBody_Answers(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantErr   bool
		wantNil   bool
		wantCount int
	}{
		{"answers missing", `{"metadata":{"userAgent":"curl"}}`, false, true, 0},
		{"answers null", `{"answers":null}`, false, true, 0},
		{"answers empty", `{"answers":[]}`, false, false, 0},
		{"one answer", `{"answers":["likud"],"metadata":{"sessionToken":"session_1_abc"}}`, false, false, 1},
		{"unknown fields ignored", `{"answers":["labor","כן"],"extra":true}`, false, false, 2},
		{"answers not strings", `{"answers":[1,2]}`, true, false, 0},
		{"answers not an array", `{"answers":"likud"}`, true, false, 0},
		{"malformed", `{answers`, true, false, 0},
		{"empty body", ``, true, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/surveys/1/responses", strings.NewReader(tc.body))

			var parsed models.SubmitResponseRequest
			err := ParseJSONBody(req, &parsed)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseJSONBody() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if (parsed.Answers == nil) != tc.wantNil {
				t.Fatalf("Answers nil = %v, want %v", parsed.Answers == nil, tc.wantNil)
			}
			if parsed.Answers != nil && len(*parsed.Answers) != tc.wantCount {
				t.Errorf("len(Answers) = %d, want %d", len(*parsed.Answers), tc.wantCount)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	var reached bool
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.Header().Set("Retry-After", "3600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	testCases := []struct {
		name        string
		method      string
		origin      string
		wantOrigin  string
		wantStatus  int
		wantReached bool
	}{
		{"preflight from frontend", "OPTIONS", "http://localhost:5173", "http://localhost:5173", http.StatusOK, false},
		{"vote from other origin", "POST", "https://example.com", "https://example.com", http.StatusTooManyRequests, true},
		{"no origin header", "POST", "", "*", http.StatusTooManyRequests, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(tc.method, "/surveys/1/responses", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus || reached != tc.wantReached {
				t.Errorf("status %d reached %v, want %d reached %v", w.Code, reached, tc.wantStatus, tc.wantReached)
			}
			h := w.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
			// Browsers hide Retry-After from scripts unless it is exposed.
			if got := h.Get("Access-Control-Expose-Headers"); got != "Retry-After" {
				t.Errorf("Expose-Headers = %q, want Retry-After", got)
			}
			if allowed := h.Get("Access-Control-Allow-Headers"); !strings.Contains(allowed, "X-Admin-Key") || !strings.Contains(allowed, "Content-Type") {
				t.Errorf("Allow-Headers = %q, want Content-Type and X-Admin-Key", allowed)
			}
			if methods := h.Get("Access-Control-Allow-Methods"); !strings.Contains(methods, "POST") {
				t.Errorf("Allow-Methods = %q, want POST", methods)
			}
		})
	}
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func TestRequireDatabase(t *testing.T) {
	testCases := []struct {
		name         string
		pingErr      error
		expectStatus int
		expectCalled bool
	}{
		{"database reachable", nil, http.StatusOK, true},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)
			called := false
			handler := RequireDatabase(fakePinger{err: tc.pingErr}, func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest("GET", "/surveys", nil))

			if w.Code != tc.expectStatus {
				t.Errorf("Expected status %d, got %d", tc.expectStatus, w.Code)
			}
			if called != tc.expectCalled {
				t.Errorf("Expected handler called = %v, got %v", tc.expectCalled, called)
			}
			if tc.pingErr != nil {
				rec := logRecord(t, logs, "database unavailable")
				if rec["level"] != "WARN" || rec["error"] != tc.pingErr.Error() {
					t.Errorf("unexpected outage log record: %v", rec)
				}
			}
		})
	}
}
