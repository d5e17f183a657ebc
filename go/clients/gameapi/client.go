// Package gameapi is the HTTP client for the collaborator data-access
// API that owns games, stat lines and box scores. The synchronized
// store treats it as an opaque request/response collaborator.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mcdev12/courtside/go/internal/models"
)

// APIError is a non-2xx response from the data-access API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("game API returned status %d: %s", e.StatusCode, e.Message)
}

// IsInvalidTransition reports whether err is the API rejecting a game
// command because the game's status does not allow it.
func IsInvalidTransition(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// Client talks to the data-access API over HTTP/JSON.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
}

// SetHeader sets a header sent on every request, e.g. an auth token.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(resp.Body)
		message := string(raw)
		if err := json.Unmarshal(raw, &errBody); err == nil {
			if errBody.Message != "" {
				message = errBody.Message
			} else if errBody.Error != "" {
				message = errBody.Error
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// GetGame fetches the current snapshot of one game.
func (c *Client) GetGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	var game models.GameSession
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// GetGameStats fetches all player stat lines for one game.
func (c *Client) GetGameStats(ctx context.Context, gameID string) ([]models.PlayerStatLine, error) {
	var lines []models.PlayerStatLine
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID+"/stats", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// StartGame transitions a scheduled game to active and returns the
// authoritative session.
func (c *Client) StartGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	return c.transition(ctx, gameID, "start")
}

// PauseGame transitions an active game to paused.
func (c *Client) PauseGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	return c.transition(ctx, gameID, "pause")
}

// ResumeGame transitions a paused game back to active.
func (c *Client) ResumeGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	return c.transition(ctx, gameID, "resume")
}

// EndGame transitions an active or paused game to completed.
func (c *Client) EndGame(ctx context.Context, gameID string) (*models.GameSession, error) {
	return c.transition(ctx, gameID, "end")
}

func (c *Client) transition(ctx context.Context, gameID, action string) (*models.GameSession, error) {
	var game models.GameSession
	if err := c.doJSON(ctx, http.MethodPost, "/games/"+gameID+"/"+action, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// RecordStat submits one stat action. The resulting stat line and score
// arrive via the stat_update broadcast, not this response.
func (c *Client) RecordStat(ctx context.Context, action StatAction) error {
	return c.doJSON(ctx, http.MethodPost, "/games/"+action.GameID+"/stats", action, nil)
}

// UpdateStat replaces a full stat line, used for manual corrections.
func (c *Client) UpdateStat(ctx context.Context, line models.PlayerStatLine) (*models.PlayerStatLine, error) {
	var updated models.PlayerStatLine
	endpoint := "/games/" + line.GameID + "/stats/" + line.PlayerID
	if err := c.doJSON(ctx, http.MethodPut, endpoint, line, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteStat removes a player's stat line from a game.
func (c *Client) DeleteStat(ctx context.Context, gameID, playerID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/games/"+gameID+"/stats/"+playerID, nil, nil)
}

// GetBoxScore fetches the full box score for a game.
func (c *Client) GetBoxScore(ctx context.Context, gameID string) (*BoxScore, error) {
	var box BoxScore
	if err := c.doJSON(ctx, http.MethodGet, "/games/"+gameID+"/boxscore", nil, &box); err != nil {
		return nil, err
	}
	return &box, nil
}
