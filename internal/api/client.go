// Package api is a client for the rCTF v1 HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"
)

const apiPrefix = "/api/v1"

// Default page sizes used when the caller leaves a limit unset.
const (
	DefaultSolvesLimit     = 10
	DefaultScoreboardLimit = 100
	DefaultGraphLimit      = 10
)

// Client talks to a single rCTF server. It is not safe for concurrent use.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *log.Logger
	config ClientConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// envelope is the body shape of every rCTF response.
type envelope struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseURL validates an rCTF server URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return u, nil
}

// New creates a client for the server at rawURL. It fetches the server's
// client config and, when token is set, the team's profile to verify it.
func New(ctx context.Context, rawURL, token string, opts ...Option) (*Client, error) {
	base, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:   base,
		token:  token,
		http:   http.DefaultClient,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := c.call(ctx, http.MethodGet, "/integrations/client/config", nil, &c.config, "goodClientConfig"); err != nil {
		return nil, fmt.Errorf("failed to fetch client config: %w", err)
	}
	if c.token != "" {
		if _, err := c.Profile(ctx); err != nil {
			return nil, fmt.Errorf("failed to verify token: %w", err)
		}
	}
	return c, nil
}

// URL returns the server URL the client was created with.
func (c *Client) URL() string {
	return c.base.String()
}

// Token returns the bearer token, empty when not logged in.
func (c *Client) Token() string {
	return c.token
}

// Config returns the client config fetched at construction.
func (c *Client) Config() ClientConfig {
	return c.config
}

// Login exchanges a team token for an auth token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, teamToken string) error {
	var data struct {
		AuthToken string `json:"authToken"`
	}
	if _, err := c.call(ctx, http.MethodPost, "/auth/login", map[string]any{"teamToken": teamToken}, &data, "goodLogin"); err != nil {
		return err
	}
	c.token = data.AuthToken
	return nil
}

// Challenges lists the challenges visible to the team.
func (c *Client) Challenges(ctx context.Context) ([]Challenge, error) {
	var challs []Challenge
	if _, err := c.call(ctx, http.MethodGet, "/challs", nil, &challs, "goodChallenges"); err != nil {
		return nil, err
	}
	return challs, nil
}

// ChallengeSolves returns a page of solves for a challenge.
func (c *Client) ChallengeSolves(ctx context.Context, id string, limit, offset int) (ChallengeSolves, error) {
	if limit <= 0 {
		limit = DefaultSolvesLimit
	}
	var solves ChallengeSolves
	_, err := c.call(ctx, http.MethodGet, "/challs/"+url.PathEscape(id)+"/solves",
		map[string]any{"limit": limit, "offset": offset}, &solves, "goodChallengeSolves")
	return solves, err
}

// SubmitFlag submits a flag for a challenge. A wrong flag is an *APIError.
func (c *Client) SubmitFlag(ctx context.Context, id, flag string) error {
	_, err := c.call(ctx, http.MethodPost, "/challs/"+url.PathEscape(id)+"/submit",
		map[string]any{"flag": flag}, nil, "goodFlag")
	return err
}

// Members lists the team's members.
func (c *Client) Members(ctx context.Context) ([]Member, error) {
	var members []Member
	if _, err := c.call(ctx, http.MethodGet, "/users/me/members", nil, &members, "goodMemberData"); err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember registers a member by email.
func (c *Client) AddMember(ctx context.Context, email string) (Member, error) {
	var member Member
	_, err := c.call(ctx, http.MethodPost, "/users/me/members", map[string]any{"email": email}, &member, "goodMemberCreate")
	return member, err
}

// RemoveMember removes a member by id.
func (c *Client) RemoveMember(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/users/me/members/"+url.PathEscape(id), nil, nil, "goodMemberDelete")
	return err
}

// Profile returns the authenticated team's profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	_, err := c.call(ctx, http.MethodGet, "/users/me", nil, &p, "goodUserData")
	return p, err
}

// PublicProfile returns another team's public profile.
func (c *Client) PublicProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	_, err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &p, "goodUserData")
	return p, err
}

// UpdateAccount changes the team name and/or division.
func (c *Client) UpdateAccount(ctx context.Context, u AccountUpdate) error {
	_, err := c.call(ctx, http.MethodPatch, "/users/me",
		map[string]any{"name": u.Name, "division": u.Division}, nil, "goodUserUpdate")
	return err
}

// UpdateEmail sets the team email and returns the server's message, which
// says whether a verification mail was sent.
func (c *Client) UpdateEmail(ctx context.Context, email string) (string, error) {
	return c.call(ctx, http.MethodPut, "/users/me/auth/email", map[string]any{"email": email}, nil,
		"goodVerifyEmailSent", "goodEmailSet")
}

// DeleteEmail removes the team email. Deleting a missing email succeeds.
func (c *Client) DeleteEmail(ctx context.Context) (string, error) {
	return c.call(ctx, http.MethodDelete, "/users/me/auth/email", nil, nil,
		"goodEmailRemoved", "badEmailNoExists")
}

// Scoreboard returns a page of the current leaderboard.
func (c *Client) Scoreboard(ctx context.Context, opts ScoreboardOptions) (Leaderboard, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultScoreboardLimit
	}
	var lb Leaderboard
	_, err := c.call(ctx, http.MethodGet, "/leaderboard/now", map[string]any{
		"division": optional(opts.Division),
		"limit":    opts.Limit,
		"offset":   opts.Offset,
	}, &lb, "goodLeaderboard")
	return lb, err
}

// Graph returns the score history of the top teams. Offset is ignored.
func (c *Client) Graph(ctx context.Context, opts ScoreboardOptions) (Graph, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultGraphLimit
	}
	var g Graph
	_, err := c.call(ctx, http.MethodGet, "/leaderboard/graph", map[string]any{
		"division": optional(opts.Division),
		"limit":    opts.Limit,
	}, &g, "goodLeaderboard")
	return g, err
}

// OpenFile opens a challenge file. ref may be absolute or relative to the
// server URL. File hosts are not sent the auth token.
func (c *Client) OpenFile(ctx context.Context, ref string) (io.ReadCloser, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL %q: %w", ref, err)
	}
	target := c.base.ResolveReference(r)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("download", "url", target.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: %s", target, resp.Status)
	}
	return resp.Body, nil
}

// call performs one API request. out receives the envelope's data when the
// response kind is in kinds; the envelope's message is always returned on
// success. The HTTP status code is not consulted.
func (c *Client) call(ctx context.Context, method, endpoint string, params map[string]any, out any, kinds ...string) (string, error) {
	ref, err := url.Parse(apiPrefix + endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	target := c.base.ResolveReference(ref)
	params = compact(params)

	var body io.Reader
	if method == http.MethodGet {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, fmt.Sprint(v))
		}
		target.RawQuery = q.Encode()
	} else {
		payload, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode %s %s response (%s): %w", method, endpoint, resp.Status, err)
	}
	c.logger.Debug("api", "method", method, "endpoint", endpoint, "kind", env.Kind)

	if !slices.Contains(kinds, env.Kind) {
		return "", &APIError{Kind: env.Kind, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode %s data: %w", env.Kind, err)
		}
	}
	return env.Message, nil
}

// compact drops nil values and nil pointers, and dereferences the rest.
func compact(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				continue
			}
			v = rv.Elem().Interface()
		}
		out[k] = v
	}
	return out
}

// optional maps an empty string to an unset argument.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
