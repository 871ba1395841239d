package sdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Session is an authenticated view of the API. It holds the current
// token pair and refreshes the access token before it expires; a session
// is safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(c *Client, resp TokenResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second)

	return &Session{
		client:       c,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    expiresAt,
	}
}

// RefreshToken returns the session's refresh token for persistence.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// getValidToken returns the access token, refreshing it first when the
// cached one is about to expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	resp, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	s.accessToken = resp.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Add(-30 * time.Second)
	return s.accessToken, nil
}

// CreateTask creates a task owned by the session's account.
func (s *Session) CreateTask(ctx context.Context, req TaskCreateRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := s.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks returns the account's tasks. Completed tasks are included
// only when includeCompleted is set.
func (s *Session) ListTasks(ctx context.Context, includeCompleted bool) ([]TaskResponse, error) {
	path := "/v1/tasks"
	if includeCompleted {
		path += "?include_completed=true"
	}

	var resp TaskListResponse
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask fetches a single task by id.
func (s *Session) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	var resp TaskResponse
	if err := s.doJSON(ctx, http.MethodGet, "/v1/tasks/"+id, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask rewrites the mutable fields of a task.
func (s *Session) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := s.doJSON(ctx, http.MethodPut, "/v1/tasks/"+id, req, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteTask flips a task's completion flag.
func (s *Session) CompleteTask(ctx context.Context, id string, completed bool) (*TaskResponse, error) {
	var resp TaskResponse
	err := s.doJSON(ctx, http.MethodPatch, "/v1/tasks/"+id+"/complete", TaskCompleteRequest{Completed: completed}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask removes a task.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	return s.doJSON(ctx, http.MethodDelete, "/v1/tasks/"+id, nil, nil, http.StatusNoContent)
}
