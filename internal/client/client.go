// Package client talks to the glucotrack HTTP API and keeps a local,
// always-sorted copy of the signed-in user's data for a UI to bind to.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"glucotrack/internal/app"
	"glucotrack/internal/domain"
)

// Backend is the persistence surface the State drives.
type Backend interface {
	Signup(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)

	GetProfile(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, u domain.ProfileUpdate) (*domain.Profile, error)

	ListWeights(ctx context.Context) ([]domain.WeightEntry, error)
	AddWeight(ctx context.Context, in app.WeightInput) (*domain.WeightEntry, error)
	UpdateWeight(ctx context.Context, id int64, in app.WeightInput) (*domain.WeightEntry, error)
	DeleteWeight(ctx context.Context, id int64) error
	DeleteWeights(ctx context.Context, ids []int64) (int64, error)

	ListGlucoseLogs(ctx context.Context) ([]domain.GlucoseLog, error)
	AddGlucoseLog(ctx context.Context, in app.GlucoseInput) (*domain.GlucoseLog, error)
	UpdateGlucoseLog(ctx context.Context, id int64, in app.GlucoseInput) (*domain.GlucoseLog, error)
	DeleteGlucoseLog(ctx context.Context, id int64) error
	DeleteGlucoseLogs(ctx context.Context, ids []int64) (int64, error)
}

// APIError is a non-2xx answer from the server. It unwraps to the matching
// sentinel error where one exists.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		if e.Message == app.ErrInvalidCredentials.Error() {
			return app.ErrInvalidCredentials
		}
		return app.ErrNotAuthenticated
	case http.StatusConflict:
		return domain.ErrDuplicateAccount
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// Client implements Backend over HTTP. The session cookie lives in the
// client's cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Backend = (*Client)(nil)

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Signup creates an account and signs in as it.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*domain.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email": email, "password": password, "name": name,
	}, &out)
	return out.User, err
}

// Login opens a session for an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	return out.User, err
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CurrentUser returns the signed-in user.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out userResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out.User, err
}

type profileResponse struct {
	Profile *domain.Profile `json:"profile"`
}

// GetProfile returns the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var out profileResponse
	err := c.do(ctx, http.MethodGet, "/profile", nil, &out)
	return out.Profile, err
}

// UpdateProfile changes the supplied profile fields.
func (c *Client) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) (*domain.Profile, error) {
	var out profileResponse
	err := c.do(ctx, http.MethodPatch, "/profile", u, &out)
	return out.Profile, err
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListWeights returns the weight history, newest first.
func (c *Client) ListWeights(ctx context.Context) ([]domain.WeightEntry, error) {
	var out struct {
		Items []domain.WeightEntry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/weights", nil, &out)
	return out.Items, err
}

// AddWeight records a weight measurement.
func (c *Client) AddWeight(ctx context.Context, in app.WeightInput) (*domain.WeightEntry, error) {
	var out struct {
		Entry *domain.WeightEntry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPost, "/weights", in, &out)
	return out.Entry, err
}

// UpdateWeight replaces a weight entry.
func (c *Client) UpdateWeight(ctx context.Context, id int64, in app.WeightInput) (*domain.WeightEntry, error) {
	var out struct {
		Entry *domain.WeightEntry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPut, idPath("/weights", id), in, &out)
	return out.Entry, err
}

// DeleteWeight removes a weight entry.
func (c *Client) DeleteWeight(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/weights", id), nil, nil)
}

// DeleteWeights removes several weight entries and reports how many went.
func (c *Client) DeleteWeights(ctx context.Context, ids []int64) (int64, error) {
	var out deletedResponse
	err := c.do(ctx, http.MethodPost, "/weights/delete", map[string][]int64{"ids": ids}, &out)
	return out.Deleted, err
}

// ListGlucoseLogs returns the glucose logs, newest first.
func (c *Client) ListGlucoseLogs(ctx context.Context) ([]domain.GlucoseLog, error) {
	var out struct {
		Items []domain.GlucoseLog `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/glucose", nil, &out)
	return out.Items, err
}

// AddGlucoseLog records a glucose reading.
func (c *Client) AddGlucoseLog(ctx context.Context, in app.GlucoseInput) (*domain.GlucoseLog, error) {
	var out struct {
		Entry *domain.GlucoseLog `json:"entry"`
	}
	err := c.do(ctx, http.MethodPost, "/glucose", in, &out)
	return out.Entry, err
}

// UpdateGlucoseLog replaces a glucose reading.
func (c *Client) UpdateGlucoseLog(ctx context.Context, id int64, in app.GlucoseInput) (*domain.GlucoseLog, error) {
	var out struct {
		Entry *domain.GlucoseLog `json:"entry"`
	}
	err := c.do(ctx, http.MethodPut, idPath("/glucose", id), in, &out)
	return out.Entry, err
}

// DeleteGlucoseLog removes a glucose reading.
func (c *Client) DeleteGlucoseLog(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/glucose", id), nil, nil)
}

// DeleteGlucoseLogs removes several glucose readings and reports how many went.
func (c *Client) DeleteGlucoseLogs(ctx context.Context, ids []int64) (int64, error) {
	var out deletedResponse
	err := c.do(ctx, http.MethodPost, "/glucose/delete", map[string][]int64{"ids": ids}, &out)
	return out.Deleted, err
}

// IsValidation reports whether err is a rejected-input answer from the server.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}
