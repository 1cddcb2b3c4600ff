package models

import "time"

// Question type constants
const (
	QuestionText     = "text"
	QuestionMultiple = "multiple"
	QuestionYesNo    = "yesno"
)

// Answer labels counted for yes/no questions
var YesNoOptions = []string{"כן", "לא"}

// ElectionSurveyID is the seeded single-question party vote.
const ElectionSurveyID = "1"

// MaxUserAgentLen bounds the stored user agent.
const MaxUserAgentLen = 255

// Request types

type CreateSurveyRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Answers is a pointer so a missing field can be told apart from an empty list.
type SubmitResponseRequest struct {
	Answers  *[]string        `json:"answers"`
	Metadata ResponseMetadata `json:"metadata"`
}

type ResponseMetadata struct {
	SessionToken string `json:"sessionToken"`
	ClientIP     string `json:"clientIP"`
	Timestamp    string `json:"timestamp"`
	UserAgent    string `json:"userAgent"`
}

// Response types

type SubmitResponseResponse struct {
	Message    string `json:"message"`
	VotesTotal int    `json:"votesTotal"`
}

type AlreadyVotedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

type QuestionResult struct {
	Question string `json:"question"`
	Type     string `json:"type"`
	Total    int    `json:"total"`
	// map[string]int for multiple/yesno, []string for text
	Data any `json:"data"`
}

type SurveyResults struct {
	Title          string           `json:"title"`
	TotalResponses int              `json:"totalResponses"`
	Results        []QuestionResult `json:"results"`
	LastUpdated    string           `json:"lastUpdated"`
}

// Domain types

type Question struct {
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
}

type Survey struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MinAnswers is 1 for single-question (gallery) surveys, else every question.
func (s Survey) MinAnswers() int {
	if len(s.Questions) == 1 {
		return 1
	}
	return len(s.Questions)
}

type Response struct {
	ID           string    `json:"id"`
	SurveyID     string    `json:"surveyId"`
	Answers      []string  `json:"answers"`
	SubmittedAt  time.Time `json:"submittedAt"`
	IPHash       string    `json:"-"` // Never expose in JSON
	SessionToken string    `json:"-"`
	UserAgent    string    `json:"-"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
