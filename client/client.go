// Package client is the Go client for the cognibank RPC surface. Sign-in is
// wrapped so that the returned token bundle seeds a TokenSource, which then
// transparently authenticates (and refreshes) every banking call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
)

// ErrSignInFailed is returned when the server answers a sign-in with a
// failure status (unknown email or wrong password).
var ErrSignInFailed = errors.New("cannot authenticate")

type Client struct {
	baseURL string
	httpc   *http.Client
	offset  time.Duration
	tokens  *TokenSource

	mu sync.RWMutex
	me *models.MeInfo
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithStalenessOffset overrides DefaultStalenessOffset.
func WithStalenessOffset(d time.Duration) Option {
	return func(c *Client) { c.offset = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		offset:  DefaultStalenessOffset,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tokens = NewTokenSource(c.refreshToken, c.offset)
	return c
}

// SignUp registers a new user and returns its ID.
func (c *Client) SignUp(ctx context.Context, email, password string, extra models.SignUpExtra) (string, error) {
	var resp struct {
		UserID string `json:"userId"`
	}
	req := map[string]interface{}{"email": email, "password": password, "extra": extra}
	if err := c.post(ctx, "/api/auth/signUp", req, &resp, false); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// SignIn authenticates and seeds the token source so subsequent banking
// calls carry a bearer token. ErrSignInFailed on bad credentials.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var resp struct {
		Status    string          `json:"status"`
		TokenInfo *auth.TokenInfo `json:"tokenInfo"`
		Me        *models.MeInfo  `json:"me"`
	}
	req := map[string]interface{}{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/signIn", req, &resp, false); err != nil {
		return err
	}
	if resp.Status != auth.StatusSuccess {
		return ErrSignInFailed
	}
	if resp.TokenInfo == nil || resp.Me == nil {
		return fmt.Errorf("sign-in succeeded without token info")
	}
	if err := c.tokens.Authenticate(resp.TokenInfo); err != nil {
		return err
	}
	c.mu.Lock()
	c.me = resp.Me
	c.mu.Unlock()
	return nil
}

// Me returns the profile received at sign-in.
func (c *Client) Me() (*models.MeInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.me == nil {
		return nil, ErrNotAuthenticated
	}
	me := *c.me
	return &me, nil
}

// GetBalance returns the authenticated user's balance.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	var resp struct {
		Value int64 `json:"value"`
	}
	if err := c.post(ctx, "/api/banking/getBalance", struct{}{}, &resp, true); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Transfer moves amount from the authenticated user to another user.
func (c *Client) Transfer(ctx context.Context, toUserID string, amount int64) error {
	req := map[string]interface{}{"toUserId": toUserID, "amount": amount}
	return c.post(ctx, "/api/banking/transfer", req, nil, true)
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (*auth.TokenInfo, error) {
	var tokenInfo auth.TokenInfo
	req := map[string]interface{}{"refreshToken": refreshToken}
	if err := c.post(ctx, "/api/auth/refreshToken", req, &tokenInfo, false); err != nil {
		return nil, err
	}
	return &tokenInfo, nil
}

// post performs one RPC: JSON request in, JSON response out. Non-2xx answers
// decode into typed *rpcerr.Error values.
func (c *Client) post(ctx context.Context, path string, body, out interface{}, authed bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return rpcerr.FromResponse(res.StatusCode, res.Body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
