package moodle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ldap2moodle/core/model"

	"go.uber.org/zap"
)

// EndpointPath is the REST endpoint below the site root.
const EndpointPath = "/webservice/rest/server.php"

// Web service functions used by the client.
const (
	FunctionGetUsers    = "core_user_get_users"
	FunctionCreateUsers = "core_user_create_users"
	FunctionUpdateUsers = "core_user_update_users"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client talks to the REST web service of the learning platform.
// It implements the target reader and mutator of a sync.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	switch cfg.RemovalMode {
	case "":
		cfg.RemovalMode = RemovalSuspend
	case RemovalSuspend, RemovalAnonymize:
	default:
		return nil, fmt.Errorf("unknown removal mode %q", cfg.RemovalMode)
	}
	if cfg.ManagedAuth == "" {
		cfg.ManagedAuth = "ldap"
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TrustAllCertificates {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in switch
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:      cfg,
		endpoint: base.String() + EndpointPath,
		http:     &http.Client{Timeout: timeout, Transport: transport},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ManagedAuth returns the auth plugin name of managed accounts.
func (c *Client) ManagedAuth() string {
	return c.cfg.ManagedAuth
}

// ListManagedUsers returns every account of the managed auth plugin keyed by
// normalized username.
func (c *Client) ListManagedUsers(ctx context.Context) (map[string]*model.User, error) {
	params := url.Values{}
	params.Set("criteria[0][key]", "auth")
	params.Set("criteria[0][value]", c.cfg.ManagedAuth)

	var resp struct {
		Users    []map[string]any `json:"users"`
		Warnings []Warning        `json:"warnings"`
	}
	if err := c.call(ctx, FunctionGetUsers, params, &resp); err != nil {
		return nil, err
	}
	for _, w := range resp.Warnings {
		c.logger.Warn("Web service warning", zap.String("function", FunctionGetUsers), zap.String("code", w.WarningCode), zap.String("message", w.Message))
	}

	users := make(map[string]*model.User, len(resp.Users))
	for _, raw := range resp.Users {
		u := model.UserFromMap(raw)
		key := model.NormalizeID(u.Login())
		if key == "" {
			c.logger.Warn("Skipping target user without username", zap.Any("id", raw["id"]))
			continue
		}
		users[key] = u
	}
	c.logger.Debug("Read target users", zap.Int("count", len(users)))
	return users, nil
}

// CreateUser creates an account and returns it with the assigned id.
func (c *Client) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u == nil || u.Login() == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidUser)
	}

	var resp []struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	}
	if err := c.call(ctx, FunctionCreateUsers, EncodeUsers(u), &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%s: empty response", FunctionCreateUsers)
	}

	created := u.Clone()
	created.ID = model.Int(resp[0].ID)
	c.logger.Info("Created user", zap.String("username", u.Login()), zap.Int("id", resp[0].ID))
	return created, nil
}

// UpdateUser sends a sparse patch for the account with the given id.
func (c *Client) UpdateUser(ctx context.Context, id int, patch *model.User) (*model.User, error) {
	if patch == nil || id <= 0 {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	body := patch.Clone()
	body.ID = model.Int(id)

	var resp struct {
		Warnings []Warning `json:"warnings"`
	}
	if err := c.call(ctx, FunctionUpdateUsers, EncodeUsers(body), &resp); err != nil {
		return nil, err
	}
	if len(resp.Warnings) > 0 {
		return nil, &WarningsError{Function: FunctionUpdateUsers, Warnings: resp.Warnings}
	}
	c.logger.Info("Updated user",
		zap.Int("id", id),
		zap.Strings("fields", model.ChangedFields(patch)),
	)
	return body, nil
}

// SuspendUser suspends or anonymizes an account depending on the removal
// mode. Suspending an already suspended account is a no-op.
func (c *Client) SuspendUser(ctx context.Context, current *model.User, reason string) error {
	id, ok := current.Identity()
	if !ok {
		return fmt.Errorf("%w: id is required", ErrInvalidUser)
	}

	var patch *model.User
	switch c.cfg.RemovalMode {
	case RemovalAnonymize:
		patch = model.Anonymize(current, c.cfg.AnonymousDomain)
	default:
		if current.IsSuspended() {
			return nil
		}
		patch = &model.User{Suspended: model.Bool(true)}
	}

	if _, err := c.UpdateUser(ctx, id, patch); err != nil {
		return err
	}
	c.logger.Info("Removed user",
		zap.String("username", current.Login()),
		zap.String("mode", c.cfg.RemovalMode),
		zap.String("reason", reason),
	)
	return nil
}

// EncodeUsers renders users in the indexed form encoding of the web service:
// users[i][field] for scalars, booleans as 1 and 0, and
// users[i][customfields][j][type|value] for custom fields sorted by name.
// Read-only and unset fields are omitted.
func EncodeUsers(users ...*model.User) url.Values {
	params := url.Values{}
	for i, u := range users {
		prefix := "users[" + strconv.Itoa(i) + "]"
		for _, f := range model.Fields {
			if f.Access == model.ReadOnly {
				continue
			}
			if v, ok := f.Encode(u); ok {
				params.Set(prefix+"["+f.Name+"]", v)
			}
		}

		names := make([]string, 0, len(u.CustomFields))
		for name := range u.CustomFields {
			names = append(names, name)
		}
		sort.Strings(names)
		for j, name := range names {
			cf := prefix + "[customfields][" + strconv.Itoa(j) + "]"
			params.Set(cf+"[type]", name)
			params.Set(cf+"[value]", u.CustomFields[name])
		}
	}
	return params
}

// call posts a web service request and decodes the JSON response into out.
func (c *Client) call(ctx context.Context, function string, params url.Values, out any) error {
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("wstoken", c.cfg.Token)
	form.Set("moodlewsrestformat", "json")
	form.Set("wsfunction", function)

	reqURL := c.endpoint + "?wsfunction=" + url.QueryEscape(function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", function, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if c.cfg.Trace {
		c.logger.Debug("Web service request", zap.String("function", function), zap.String("params", params.Encode()))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", function, err)
	}

	c.logger.Debug("Web service call completed",
		zap.String("function", function),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if c.cfg.Trace {
		c.logger.Debug("Web service response", zap.String("function", function), zap.ByteString("body", body))
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Function: function, StatusCode: resp.StatusCode}
	}
	return decodeResponse(function, body, out)
}

func decodeResponse(function string, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '{' {
		var apiErr APIError
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.Exception != "" {
			apiErr.Function = function
			return &apiErr
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", function, err)
	}
	return nil
}
