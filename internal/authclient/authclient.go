// Package authclient validates session tokens against the external auth
// service and exposes its healthcheck.
//
// The directory core never talks to the auth service; this client runs in the
// HTTP middleware and hands the core a fully resolved Identity. Auth-service
// rejections propagate verbatim as AuthFaults, keeping the upstream status
// code and message.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pthm/visage"
	"github.com/pthm/visage/internal/health"
)

// TokenHeader carries the session token on requests to this service and on
// the validation call to the auth service.
const TokenHeader = "x-user-token"

// Machine-readable codes forwarded to clients on 403 responses.
const (
	CodeNeedsEmailValidation = "NEEDS_EMAIL_VALIDATION"
	CodePasswordExpired      = "PASSWORD_EXPIRED"
)

// Config holds the auth service connection settings.
type Config struct {
	// BaseURL is the auth service root, e.g. "http://auth:8080".
	BaseURL string
	// Timeout bounds each validation and healthcheck call.
	Timeout time.Duration
	// SlowThreshold marks healthcheck responses slower than this with a
	// warning. Zero disables the check.
	SlowThreshold time.Duration
}

// Client calls the auth service over HTTP.
// Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client

	cache    *redis.Client
	cacheTTL time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithSessionCache caches successful token validations in redis for ttl.
// Rejections are never cached, so revocations and 401s always hit the auth
// service.
func WithSessionCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = rdb
		c.cacheTTL = ttl
	}
}

// New creates an auth service client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is the auth service's /session response shape.
type session struct {
	UserID               int64  `json:"userId"`
	UserCode             string `json:"userCode"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
	IsAdmin              bool   `json:"isAdmin"`
	IsModerator          bool   `json:"isModerator"`
	NeedsEmailValidation bool   `json:"needsEmailValidation"`
	PasswordExpired      bool   `json:"passwordExpired"`
}

// authError is the auth service's error response shape.
type authError struct {
	Message string `json:"message"`
}

// ValidateToken exchanges a session token for the requester identity.
//
// A 401 from the auth service passes through as an AuthFault with the
// upstream message. Sessions pending email validation or with an expired
// password are rejected with a 403 AuthFault carrying a machine-readable
// code. Transport failures and unexpected statuses surface as ServerFaults.
func (c *Client) ValidateToken(ctx context.Context, token string) (visage.Identity, error) {
	if id, ok := c.cached(ctx, token); ok {
		return id, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/session", nil)
	if err != nil {
		return visage.Identity{}, &visage.ServerFault{Err: fmt.Errorf("building session request: %w", err)}
	}
	req.Header.Set(TokenHeader, token)

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[visage] WARNING: timed out attempting to validate a user token")
		}
		return visage.Identity{}, &visage.ServerFault{Err: fmt.Errorf("calling auth service: %w", err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return visage.Identity{}, &visage.ServerFault{Err: fmt.Errorf("reading auth response: %w", err)}
	}

	if res.StatusCode == http.StatusUnauthorized {
		var ae authError
		_ = json.Unmarshal(body, &ae)
		if ae.Message == "" {
			ae.Message = "Authentication required"
		}
		return visage.Identity{}, &visage.AuthFault{Status: http.StatusUnauthorized, Message: ae.Message}
	}

	if res.StatusCode != http.StatusOK {
		return visage.Identity{}, &visage.ServerFault{
			Err: fmt.Errorf("auth service returned status %d", res.StatusCode),
		}
	}

	var sess session
	if err := json.Unmarshal(body, &sess); err != nil {
		return visage.Identity{}, &visage.ServerFault{Err: fmt.Errorf("decoding auth response: %w", err)}
	}

	if sess.NeedsEmailValidation {
		return visage.Identity{}, &visage.AuthFault{
			Status:  http.StatusForbidden,
			Message: "Not allowed to take that action at this time",
			Code:    CodeNeedsEmailValidation,
		}
	}
	if sess.PasswordExpired {
		return visage.Identity{}, &visage.AuthFault{
			Status:  http.StatusForbidden,
			Message: "Not allowed to take that action at this time",
			Code:    CodePasswordExpired,
		}
	}

	id := visage.Identity{
		UserID:      sess.UserID,
		UserCode:    sess.UserCode,
		IsAdmin:     sess.IsAdmin,
		IsModerator: sess.IsModerator,
	}

	c.store(ctx, token, id)

	return id, nil
}

// Healthcheck probes the auth service's own healthcheck endpoint, recording
// timing metadata.
func (c *Client) Healthcheck(ctx context.Context) health.Dependency {
	dep := health.Dependency{URL: c.cfg.BaseURL, Available: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/healthcheck", nil)
	if err != nil {
		dep.Available = false
		dep.Info = "An error occured while building the healthcheck request"
		return dep
	}

	start := time.Now()
	res, err := c.http.Do(req)
	elapsed := time.Since(start)
	dep.Duration = elapsed.String()

	if err != nil {
		dep.Available = false
		if errors.Is(err, context.DeadlineExceeded) {
			dep.Info = "The healthcheck request timed out"
		} else {
			dep.Info = "An error occured while running the healthcheck"
			log.Printf("[visage] WARNING: auth service healthcheck failed: %v", err)
		}
		return dep
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		dep.Available = false
		dep.Info = fmt.Sprintf("Received a status %d response from the auth service", res.StatusCode)
		return dep
	}

	if c.cfg.SlowThreshold > 0 && elapsed > c.cfg.SlowThreshold {
		dep.Warning = fmt.Sprintf("Response slower than %s", c.cfg.SlowThreshold)
	}

	return dep
}

func sessionKey(token string) string {
	return "visage:session:" + token
}

// cached returns a previously validated identity for the token, if any.
// Cache failures are treated as misses; the auth service remains the source
// of truth.
func (c *Client) cached(ctx context.Context, token string) (visage.Identity, bool) {
	if c.cache == nil {
		return visage.Identity{}, false
	}

	raw, err := c.cache.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		return visage.Identity{}, false
	}

	var id visage.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return visage.Identity{}, false
	}
	return id, true
}

func (c *Client) store(ctx context.Context, token string, id visage.Identity) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, sessionKey(token), raw, c.cacheTTL).Err(); err != nil {
		log.Printf("[visage] WARNING: failed to cache session: %v", err)
	}
}
