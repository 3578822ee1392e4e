package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	var token Token
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &token)
	return token, err
}

// ListQuestions returns the SQL practice question catalog.
func (c *Client) ListQuestions(ctx context.Context) ([]Question, error) {
	var questions []Question
	err := c.do(ctx, http.MethodGet, "/questions", nil, &questions)
	return questions, err
}

// GetQuestion returns one question with its schema and sample data.
func (c *Client) GetQuestion(ctx context.Context, id int) (QuestionDetail, error) {
	var question QuestionDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/questions/%d", id), nil, &question)
	return question, err
}

// ListERQuestions returns the ER diagram question catalog.
func (c *Client) ListERQuestions(ctx context.Context) ([]ERQuestion, error) {
	var questions []ERQuestion
	err := c.do(ctx, http.MethodGet, "/er-diagram/questions", nil, &questions)
	return questions, err
}

// Execute runs one SQL query against a question's sandbox database and
// records the attempt.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	var result ExecuteResult
	err := c.do(ctx, http.MethodPost, "/execute", req, &result)
	return result, err
}

// ListAllAttempts returns the current user's attempts across all
// questions, most recent first.
func (c *Client) ListAllAttempts(ctx context.Context) ([]Attempt, error) {
	var attempts []Attempt
	err := c.do(ctx, http.MethodGet, "/attempts", nil, &attempts)
	return attempts, err
}

// ListAttempts returns the current user's attempts for one question.
func (c *Client) ListAttempts(ctx context.Context, questionID int) ([]Attempt, error) {
	var attempts []Attempt
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/attempts/question/%d", questionID), nil, &attempts)
	return attempts, err
}

// GetAttemptHistory returns the current user's attempts joined with
// question titles, for the history view.
func (c *Client) GetAttemptHistory(ctx context.Context) ([]AttemptHistory, error) {
	var history []AttemptHistory
	err := c.do(ctx, http.MethodGet, "/attempts/history", nil, &history)
	return history, err
}

// GetProgress returns the current user's per-question progress.
func (c *Client) GetProgress(ctx context.Context) ([]Progress, error) {
	var progress []Progress
	err := c.do(ctx, http.MethodGet, "/attempts/progress", nil, &progress)
	return progress, err
}

// ListLabs returns the published lab catalog.
func (c *Client) ListLabs(ctx context.Context) ([]Lab, error) {
	var labs []Lab
	err := c.do(ctx, http.MethodGet, "/labs", nil, &labs)
	return labs, err
}

// GetLab returns one lab with its schema and sample data.
func (c *Client) GetLab(ctx context.Context, id int) (LabDetail, error) {
	var lab LabDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/labs/%d", id), nil, &lab)
	return lab, err
}

// StartLabSession starts (or resumes) the user's sandbox session for a
// lab.
func (c *Client) StartLabSession(ctx context.Context, labID int) (LabSession, error) {
	var session LabSession
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/labs/%d/session/start", labID), nil, &session)
	return session, err
}

// ExecuteLabQuery runs one SQL query inside a lab session.
func (c *Client) ExecuteLabQuery(ctx context.Context, sessionID int, query string) (LabExecuteResult, error) {
	var result LabExecuteResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/labs/session/%d/execute", sessionID), labExecuteRequest{Query: query}, &result)
	return result, err
}

// ExitLabSession ends the user's sandbox session for a lab.
func (c *Client) ExitLabSession(ctx context.Context, labID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/labs/%d/session/exit", labID), nil, nil)
}

// SendChatMessage asks the AI tutor a question in the context of one
// practice question. The backend enriches the message with the question
// and the student's latest attempt before answering.
func (c *Client) SendChatMessage(ctx context.Context, questionID int, message string) (ChatMessage, error) {
	var reply ChatMessage
	err := c.do(ctx, http.MethodPost, "/chatbot/send", chatRequest{QuestionID: questionID, UserMessage: message}, &reply)
	return reply, err
}
