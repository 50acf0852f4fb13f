// ABOUTME: HTTP client for the remote record store (users, entries, history)
// ABOUTME: Lookups classify failures as data (Found, NotFound, Unavailable) instead of errors

// Package remote talks to the record store over its HTTP/JSON contract.
//
// GetUser never returns an error: every failure is folded into a
// UserLookup outcome so callers can branch on it. Write operations return
// errors wrapping one of the package sentinels, and callers treat them as
// best effort.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/wen/internal/scroll"
)

var tracer = otel.Tracer("github.com/2389/wen/internal/remote")

// ErrUnexpectedStatus is returned for responses the contract does not define.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrUserNotFound is returned when the remote has no record for the identity.
var ErrUserNotFound = errors.New("remote user not found")

// ErrDuplicateEntry is returned when the remote already has an entry for the day.
var ErrDuplicateEntry = errors.New("remote entry already exists")

// Outcome classifies a user lookup.
type Outcome int

// Lookup outcomes
const (
	Unavailable Outcome = iota
	Found
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}

// UserLookup is the result of GetUser. User is set only when Outcome is Found;
// Err explains an Unavailable outcome.
type UserLookup struct {
	Outcome Outcome
	User    *scroll.UserState
	Err     error
}

// createUserRequest is the body of POST /user.
type createUserRequest struct {
	Identity         string         `json:"id"`
	CurrentDay       int            `json:"current_day"`
	TotalEntries     int            `json:"total_entries"`
	Streak           int            `json:"streak"`
	CultivationLevel int            `json:"cultivation_level"`
	LastActiveAt     time.Time      `json:"last_active_at"`
	HasActedToday    bool           `json:"has_acted_today,omitempty"`
	LastResult       *scroll.Result `json:"last_result,omitempty"`
}

// Client communicates with the record store HTTP API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every request. Zero means no timeout. The bound also
// applies to a client passed with WithHTTPClient, in either order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for the record store at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// GetUser fetches the record for id.
func (c *Client) GetUser(ctx context.Context, id string) UserLookup {
	ctx, span := tracer.Start(ctx, "remote.GetUser", trace.WithAttributes(attribute.String("wen.identity", id)))
	defer span.End()

	var user scroll.UserState
	status, err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(id), nil, &user)
	switch {
	case err == nil && status == http.StatusOK:
		span.SetAttributes(attribute.String("wen.lookup", Found.String()))
		return UserLookup{Outcome: Found, User: &user}
	case err == nil && status == http.StatusNotFound:
		span.SetAttributes(attribute.String("wen.lookup", NotFound.String()))
		return UserLookup{Outcome: NotFound}
	case err == nil:
		err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "lookup unavailable")
	return UserLookup{Outcome: Unavailable, Err: err}
}

// CreateUser creates the record for s.Identity and returns what the server
// stored. An existing record is returned unchanged.
func (c *Client) CreateUser(ctx context.Context, s scroll.UserState) (*scroll.UserState, error) {
	ctx, span := tracer.Start(ctx, "remote.CreateUser", trace.WithAttributes(attribute.String("wen.identity", s.Identity)))
	defer span.End()

	req := createUserRequest{
		Identity:         s.Identity,
		CurrentDay:       s.CurrentDay,
		TotalEntries:     s.TotalEntries,
		Streak:           s.Streak,
		CultivationLevel: s.CultivationLevel,
		LastActiveAt:     s.LastActiveAt.UTC(),
		HasActedToday:    s.HasActedToday,
		LastResult:       s.LastResult,
	}

	var user scroll.UserState
	status, err := c.do(ctx, http.MethodPost, "/user", req, &user)
	if err == nil {
		err = expectStatus(status, http.StatusOK, http.StatusCreated)
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// PatchUser applies a partial update. Returns ErrUserNotFound on 404.
func (c *Client) PatchUser(ctx context.Context, id string, patch scroll.UserPatch) (*scroll.UserState, error) {
	ctx, span := tracer.Start(ctx, "remote.PatchUser", trace.WithAttributes(attribute.String("wen.identity", id)))
	defer span.End()

	var user scroll.UserState
	status, err := c.do(ctx, http.MethodPatch, "/user/"+url.PathEscape(id), patch, &user)
	if err == nil {
		if status == http.StatusNotFound {
			err = ErrUserNotFound
		} else {
			err = expectStatus(status, http.StatusOK)
		}
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("patching user: %w", err)
	}
	return &user, nil
}

// CreateEntry records one committed tear. Returns ErrDuplicateEntry on 409
// and ErrUserNotFound on 404.
func (c *Client) CreateEntry(ctx context.Context, e scroll.Entry) (*scroll.Entry, error) {
	ctx, span := tracer.Start(ctx, "remote.CreateEntry", trace.WithAttributes(
		attribute.String("wen.identity", e.Identity),
		attribute.Int("wen.day", e.Day),
	))
	defer span.End()

	var created scroll.Entry
	status, err := c.do(ctx, http.MethodPost, "/entry", e, &created)
	if err == nil {
		switch status {
		case http.StatusConflict:
			err = ErrDuplicateEntry
		case http.StatusNotFound:
			err = ErrUserNotFound
		default:
			err = expectStatus(status, http.StatusCreated, http.StatusOK)
		}
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("creating entry: %w", err)
	}
	return &created, nil
}

// History returns up to limit entries for id, most recent first.
func (c *Client) History(ctx context.Context, id string, limit int) ([]scroll.Entry, error) {
	ctx, span := tracer.Start(ctx, "remote.History", trace.WithAttributes(
		attribute.String("wen.identity", id),
		attribute.Int("wen.limit", limit),
	))
	defer span.End()

	path := "/history/" + url.PathEscape(id)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var entries []scroll.Entry
	status, err := c.do(ctx, http.MethodGet, path, nil, &entries)
	if err == nil {
		err = expectStatus(status, http.StatusOK)
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	if entries == nil {
		entries = []scroll.Entry{}
	}
	return entries, nil
}

// do sends a JSON request and decodes a 2xx JSON response into out. Non-2xx
// statuses are returned without error so callers can map them; transport and
// decoding failures are errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func expectStatus(status int, ok ...int) error {
	for _, s := range ok {
		if status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
