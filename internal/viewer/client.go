package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/classcast/classcast/internal/domain"
)

// APIClient talks to the broadcast server's HTTP surface on behalf of
// one viewer.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPIClient creates a client for the given server.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the join token, empty before Join.
func (c *APIClient) Token() string {
	return c.token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// GetSession fetches the reconciled session.
func (c *APIClient) GetSession(ctx context.Context, idOrSlug string) (*domain.SessionResponse, error) {
	var session domain.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+idOrSlug, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Join mints a guest identity and stores its token for later calls.
func (c *APIClient) Join(ctx context.Context, idOrSlug, displayName string) (*domain.JoinSessionResponse, error) {
	req := domain.JoinSessionRequest{DisplayName: displayName}
	var join domain.JoinSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+idOrSlug+"/join", req, &join); err != nil {
		return nil, err
	}
	c.token = join.Token
	return &join, nil
}

// Trigger reports the playback offset so due scheduled messages fire.
func (c *APIClient) Trigger(ctx context.Context, sessionID string, offsetSeconds int) error {
	req := domain.TriggerRequest{SessionID: sessionID, OffsetSeconds: offsetSeconds}
	return c.do(ctx, http.MethodPost, "/api/v1/trigger", req, nil)
}

// SendChat posts one chat message.
func (c *APIClient) SendChat(ctx context.Context, sessionID, message string) (*domain.ChatMessage, error) {
	req := domain.SendChatRequest{SessionID: sessionID, Message: message}
	var msg domain.ChatMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/send", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ChatHistory fetches the persisted chat log for replay.
func (c *APIClient) ChatHistory(ctx context.Context, idOrSlug string) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+idOrSlug+"/chat", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
