package api

import "time"

// Auth.

// Token is the JWT returned by login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SQL practice questions.

// Question is a list-view SQL practice question.
type Question struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionDetail adds the schema and sample data for the practice view.
type QuestionDetail struct {
	Question
	Description   string `json:"description"`
	SchemaSQL     string `json:"schema_sql"`
	SampleDataSQL string `json:"sample_data_sql"`
}

// ER diagram questions.

// ERQuestion is a list-view ER diagram grading question.
type ERQuestion struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	ProblemStatement string    `json:"problem_statement"`
	DifficultyLabel  string    `json:"difficulty_label"`
	CreatedAt        time.Time `json:"created_at"`
}

// Query execution against the practice sandbox.

// ExecuteRequest runs one SQL query against a question's database.
type ExecuteRequest struct {
	QuestionID int    `json:"question_id"`
	Query      string `json:"query"`
}

// ExecuteResult is the sandbox's verdict on one query.
type ExecuteResult struct {
	IsCorrect       bool             `json:"is_correct"`
	ExecutionTimeMs float64          `json:"execution_time_ms"`
	Results         []map[string]any `json:"results"`
	Columns         []string         `json:"columns"`
	ErrorMessage    string           `json:"error_message"`
	RowCount        int              `json:"row_count"`
}

// Attempt history and progress.

// Attempt is one recorded query attempt.
type Attempt struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	QuestionID      int       `json:"question_id"`
	Query           string    `json:"query"`
	IsCorrect       bool      `json:"is_correct"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	ErrorMessage    string    `json:"error_message"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// AttemptHistory is one attempt joined with its question's title, for the
// history view.
type AttemptHistory struct {
	ID              int       `json:"id"`
	QuestionID      int       `json:"question_id"`
	QuestionTitle   string    `json:"question_title"`
	Query           string    `json:"query"`
	IsCorrect       bool      `json:"is_correct"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Progress is per-question completion state.
type Progress struct {
	QuestionID  int        `json:"question_id"`
	Completed   bool       `json:"completed"`
	Attempts    int        `json:"attempts"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Labs.

// Lab is a list-view lab exercise.
type Lab struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublished bool   `json:"is_published"`
	IsRunning   bool   `json:"is_running"`
}

// LabDetail adds the schema and sample data for the lab workspace view.
type LabDetail struct {
	Lab
	SchemaSQL     string `json:"schema_sql"`
	SampleDataSQL string `json:"sample_data_sql"`
}

// LabSession is one user's sandbox session within a lab.
type LabSession struct {
	SessionID int       `json:"session_id"`
	LabID     int       `json:"lab_id"`
	StartedAt time.Time `json:"started_at"`
}

type labExecuteRequest struct {
	Query string `json:"query"`
}

// LabExecuteResult is the sandbox's response to one lab query.
type LabExecuteResult struct {
	Results      []map[string]any `json:"results"`
	Columns      []string         `json:"columns"`
	RowCount     int              `json:"row_count"`
	ErrorMessage string           `json:"error_message"`
}

// AI tutor chatbot.

type chatRequest struct {
	QuestionID  int    `json:"question_id"`
	UserMessage string `json:"user_message"`
}

// ChatMessage is the tutor's reply to one chat message.
type ChatMessage struct {
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}
