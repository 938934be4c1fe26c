package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mbolis/survey-kiosk/httpx"
	"github.com/mbolis/survey-kiosk/model"
)

// APIBackend talks to a survey-kiosk server over its JSON API.
type APIBackend struct {
	base   string
	client *http.Client
}

// StatusError is returned when the server answers with a non 2xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kiosk: server answered %d: %s", e.Status, e.Message)
}

func NewAPIBackend(baseURL string, client *http.Client) *APIBackend {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIBackend{
		base:   strings.TrimRight(baseURL, "/"),
		client: client,
	}
}

func (b *APIBackend) Questions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	err := b.call(ctx, http.MethodGet, "/api/questions", nil, &questions)
	return questions, err
}

func (b *APIBackend) StartSession(ctx context.Context, total int) (model.Session, error) {
	var session model.Session
	err := b.call(ctx, http.MethodPost, "/api/sessions", model.SessionInput{TotalQuestions: total}, &session)
	return session, err
}

func (b *APIBackend) SaveAnswer(ctx context.Context, sessionID, questionID string, answer *string) error {
	return b.call(ctx, http.MethodPost, "/api/responses", model.ResponseInput{
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
	}, nil)
}

func (b *APIBackend) CompleteSession(ctx context.Context, sessionID string) (model.Session, error) {
	var session model.Session
	err := b.call(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(sessionID)+"/complete", nil, &session)
	return session, err
}

func (b *APIBackend) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e httpx.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
