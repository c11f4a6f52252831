// Package apiclient talks to the fieldsurvey REST API on behalf of a researcher's device.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

var _ ports.AnswerStore = (*Client)(nil)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d", e.Status)
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	}
	return nil
}

// Client holds an access token and, when known, the refresh token used to
// replace it once the server stops accepting it.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string
	onTokens     func(access, refresh string)
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.refreshToken = access, refresh
}

// OnTokens registers fn to be called whenever login or refresh issues new tokens.
func (c *Client) OnTokens(fn func(access, refresh string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTokens = fn
}

func (c *Client) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.refreshToken
}

func (c *Client) storeTokens(access, refresh string) {
	c.mu.Lock()
	if refresh == "" {
		refresh = c.refreshToken
	}
	c.token, c.refreshToken = access, refresh
	fn := c.onTokens
	c.mu.Unlock()

	if fn != nil {
		fn(access, refresh)
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for tokens and keeps them for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, string, error) {
	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", "", fmt.Errorf("failed to login: %w", err)
	}
	c.storeTokens(resp.AccessToken, resp.RefreshToken)
	return resp.AccessToken, resp.RefreshToken, nil
}

// Refresh trades the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return fmt.Errorf("failed to refresh: %w: no refresh token", domain.ErrUnauthorized)
	}

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, &resp); err != nil {
		return fmt.Errorf("failed to refresh: %w", err)
	}
	c.storeTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.authed(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}

// Insert goes through the batch endpoint so the server keeps the client-generated ID.
func (c *Client) Insert(ctx context.Context, answer *domain.Answer) error {
	return c.InsertBatch(ctx, []domain.Answer{*answer})
}

func (c *Client) InsertBatch(ctx context.Context, answers []domain.Answer) error {
	type batchAnswer struct {
		ID         string    `json:"id"`
		SurveyID   string    `json:"survey_id"`
		QuestionID string    `json:"question_id"`
		Answer     string    `json:"answer"`
		CreatedAt  time.Time `json:"created_at"`
	}
	req := struct {
		Answers []batchAnswer `json:"answers"`
	}{Answers: make([]batchAnswer, len(answers))}
	for i, a := range answers {
		req.Answers[i] = batchAnswer{
			ID:         a.ID.String(),
			SurveyID:   a.SurveyID.String(),
			QuestionID: a.QuestionID.String(),
			Answer:     a.Answer,
			CreatedAt:  a.CreatedAt,
		}
	}

	err := c.authed(ctx, http.MethodPost, "/api/answers/batch", req, nil)
	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return fmt.Errorf("failed to send %d answers: %w: %w", len(answers), domain.ErrSurveyNotFound, err)
	default:
		return fmt.Errorf("failed to send %d answers: %w", len(answers), err)
	}
}

// authed retries once with a refreshed access token when the server rejects the current one.
func (c *Client) authed(ctx context.Context, method, path string, in, out any) error {
	err := c.do(ctx, method, path, in, out)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	if _, refresh := c.tokens(); refresh == "" {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		return rerr
	}
	return c.do(ctx, method, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, _ := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code, apiErr.Message = payload.Error, payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
