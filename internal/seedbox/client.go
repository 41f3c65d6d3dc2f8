// Package seedbox is a client for the Seedr-style seedbox REST API: password
// login, magnet submission, folder listing, download-URL resolution and
// deletion. Access tokens are kept per client and refreshed transparently
// once when the service reports them expired.
package seedbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/logging"
)

const (
	tokenPath    = "/oauth_test/token.php"
	resourcePath = "/oauth_test/resource.php"
	folderPath   = "/api/folder"

	clientID         = "seedr_chrome"
	expiredTokenCode = "expired_token"
	opLogin          = "login"

	maxRedirects = 10
	maxBodySize  = 8 << 20
)

// session holds the tokens from the last successful login.
type session struct {
	accessToken  string
	refreshToken string
}

// Client talks to one seedbox account. It is safe for concurrent use.
type Client struct {
	baseURL  string
	email    string
	password string

	api      *http.Client
	download *http.Client
	logger   logging.Logger

	mu   sync.Mutex
	sess session
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for API calls and downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.api = hc
		d := *hc
		d.Timeout = 0
		d.CheckRedirect = limitRedirects
		c.download = &d
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the account identified by email and password.
// No request is made until the first call.
func New(baseURL, email, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		api:      &http.Client{Timeout: 30 * time.Second},
		download: &http.Client{CheckRedirect: limitRedirects},
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

// Login performs a password grant and replaces any cached token.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// EnsureAuth logs in only when no token is cached.
func (c *Client) EnsureAuth(ctx context.Context) error {
	_, err := c.accessToken(ctx)
	return err
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) loginLocked(ctx context.Context) error {
	status, body, err := c.postForm(ctx, tokenPath, []field{
		{"grant_type", "password"},
		{"client_id", clientID},
		{"type", "login"},
		{"username", c.email},
		{"password", c.password},
	})
	if err != nil {
		return fmt.Errorf("seedbox login: %w", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil && isSuccess(status) {
		return fmt.Errorf("seedbox login: decode response: %w", err)
	}
	if resp.Error != "" || !isSuccess(status) {
		return &APIError{Op: opLogin, Status: status, Code: resp.Error, Description: resp.ErrorDescription}
	}
	if resp.AccessToken == "" {
		return &APIError{Op: opLogin, Status: status, Description: "no access token in response"}
	}

	c.sess = session{accessToken: resp.AccessToken, refreshToken: resp.RefreshToken}
	c.logger.Info(ctx, "seedbox login successful")
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.accessToken == "" {
		if err := c.loginLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.sess.accessToken, nil
}

// relogin replaces the stale token. If another caller already replaced it,
// the newer token is reused without a second login.
func (c *Client) relogin(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.accessToken != "" && c.sess.accessToken != stale {
		return c.sess.accessToken, nil
	}
	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}
	return c.sess.accessToken, nil
}

// withSession runs fn with the current token. When fn reports an expired
// token the client logs in again and runs fn exactly once more.
func (c *Client) withSession(ctx context.Context, op string, fn func(token string) (expired bool, err error)) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	expired, err := fn(token)
	if err != nil || !expired {
		return err
	}

	c.logger.Info(ctx, "seedbox token expired, logging in again", "op", op)
	token, err = c.relogin(ctx, token)
	if err != nil {
		return err
	}

	expired, err = fn(token)
	if err != nil {
		return err
	}
	if expired {
		return fmt.Errorf("seedbox %s: %w", op, common.ErrTokenExpired)
	}
	return nil
}

// resource calls a resource.php function and decodes the JSON body into out.
func (c *Client) resource(ctx context.Context, fn string, fields []field, out any) error {
	return c.withSession(ctx, fn, func(token string) (bool, error) {
		all := append([]field{{"access_token", token}, {"func", fn}}, fields...)
		status, body, err := c.postForm(ctx, resourcePath, all)
		if err != nil {
			return false, fmt.Errorf("seedbox %s: %w", fn, err)
		}
		return decode(fn, status, body, out)
	})
}

// decode inspects a response body for the expiry marker and HTTP failures,
// then unmarshals it into out. Error fields on 2xx responses are left to
// the caller.
func decode(op string, status int, body []byte, out any) (expired bool, err error) {
	env := parseEnvelope(body)
	if env.code == expiredTokenCode {
		return true, nil
	}
	if !isSuccess(status) {
		return false, &APIError{Op: op, Status: status, Code: env.code, Description: env.description()}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return false, fmt.Errorf("seedbox %s: decode response: %w", op, err)
		}
	}
	return false, nil
}

type envelope struct {
	code             string
	errorDescription string
	message          string
}

func (e envelope) description() string {
	if e.errorDescription != "" {
		return e.errorDescription
	}
	return e.message
}

func parseEnvelope(body []byte) envelope {
	var raw struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Message          string          `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return envelope{}
	}
	var code string
	if err := json.Unmarshal(raw.Error, &code); err != nil {
		code = ""
	}
	return envelope{code: code, errorDescription: raw.ErrorDescription, message: raw.Message}
}

type field struct {
	key, value string
}

// postForm sends fields as multipart/form-data and returns the status and
// a size-limited body.
func (c *Client) postForm(ctx context.Context, path string, fields []field) (int, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return 0, nil, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.api.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
