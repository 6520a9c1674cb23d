package poller

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

	"sprint-poker/internal/api"
)

// API is the slice of the HTTP interface the poller uses.
type API interface {
	PokerSession(ctx context.Context, adminToken string) (api.PokerSessionResponse, error)
	RetroSession(ctx context.Context, adminToken string) (api.RetroSessionResponse, error)
	Votes(ctx context.Context) (api.VotesResponse, error)
	Story(ctx context.Context) (api.StoryResponse, error)
	Meeting(ctx context.Context) (*api.MeetingResponse, error)
	SubmitVote(ctx context.Context, voterName, value string) error
	CreateStory(ctx context.Context, adminToken, description string) error
	Reveal(ctx context.Context, adminToken string) error
	Reset(ctx context.Context, adminToken string) error
	NewStory(ctx context.Context, adminToken, description string) error
	AddItem(ctx context.Context, columnID uint, content, authorName string) error
}

// StatusError is a non-2xx response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Client talks to one poker or retro session over HTTP.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

func NewClient(baseURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: strings.ToUpper(strings.TrimSpace(sessionID)),
		http:      httpClient,
	}
}

func (c *Client) pokerPath(suffix string) string {
	return "/api/poker-session/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) retroPath(suffix string) string {
	return "/api/retro-session/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) PokerSession(ctx context.Context, adminToken string) (api.PokerSessionResponse, error) {
	var resp api.PokerSessionResponse
	err := c.do(ctx, http.MethodGet, c.pokerPath(adminQuery(adminToken)), nil, &resp)
	return resp, err
}

func (c *Client) RetroSession(ctx context.Context, adminToken string) (api.RetroSessionResponse, error) {
	var resp api.RetroSessionResponse
	err := c.do(ctx, http.MethodGet, c.retroPath(adminQuery(adminToken)), nil, &resp)
	return resp, err
}

func adminQuery(token string) string {
	if token == "" {
		return ""
	}
	return "?" + url.Values{"adminToken": {token}}.Encode()
}

func (c *Client) Votes(ctx context.Context) (api.VotesResponse, error) {
	var resp api.VotesResponse
	err := c.do(ctx, http.MethodGet, c.pokerPath("/votes"), nil, &resp)
	return resp, err
}

func (c *Client) Story(ctx context.Context) (api.StoryResponse, error) {
	var resp api.StoryResponse
	err := c.do(ctx, http.MethodGet, c.pokerPath("/story"), nil, &resp)
	return resp, err
}

func (c *Client) Meeting(ctx context.Context) (*api.MeetingResponse, error) {
	var resp *api.MeetingResponse
	err := c.do(ctx, http.MethodGet, c.retroPath("/meeting"), nil, &resp)
	return resp, err
}

func (c *Client) SubmitVote(ctx context.Context, voterName, value string) error {
	return c.do(ctx, http.MethodPost, c.pokerPath("/votes"), api.VoteRequest{
		VoterName: voterName,
		VoteValue: api.VoteValue{Value: value, Set: true},
	}, nil)
}

func (c *Client) CreateStory(ctx context.Context, adminToken, description string) error {
	return c.do(ctx, http.MethodPost, c.pokerPath("/story"), api.StoryRequest{
		Description: description,
		AdminToken:  adminToken,
	}, nil)
}

func (c *Client) Reveal(ctx context.Context, adminToken string) error {
	return c.do(ctx, http.MethodPost, c.pokerPath("/reveal"), api.AdminRequest{AdminToken: adminToken}, nil)
}

func (c *Client) Reset(ctx context.Context, adminToken string) error {
	return c.do(ctx, http.MethodPost, c.pokerPath("/reset"), api.AdminRequest{AdminToken: adminToken}, nil)
}

func (c *Client) NewStory(ctx context.Context, adminToken, description string) error {
	return c.do(ctx, http.MethodPost, c.pokerPath("/new-story"), api.NewStoryRequest{
		Description: description,
		AdminToken:  adminToken,
	}, nil)
}

func (c *Client) AddItem(ctx context.Context, columnID uint, content, authorName string) error {
	return c.do(ctx, http.MethodPost, c.retroPath("/items"), api.ItemRequest{
		ColumnID:   columnID,
		Content:    content,
		AuthorName: authorName,
	}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &StatusError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
