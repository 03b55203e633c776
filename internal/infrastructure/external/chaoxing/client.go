// Package chaoxing implements the Chaoxing (学习通) web client: credential
// encryption, session acquisition and probing, course and activity
// scraping, and the sign-in request.
package chaoxing

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Endpoints lists every platform URL the client talks to.
type Endpoints struct {
	Login          string
	Profile        string
	Interaction    string
	CourseList     string
	CourseRedirect string
	ActiveList     string
	ActiveInfo     string
	SignIn         string
}

// DefaultEndpoints returns the production URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:          "https://passport2.chaoxing.com/fanyalogin",
		Profile:        "https://i.chaoxing.com/base",
		Interaction:    "https://mooc2-ans.chaoxing.com/visit/interaction",
		CourseList:     "https://mooc2-ans.chaoxing.com/mooc2-ans/visit/courselistdata",
		CourseRedirect: "https://mooc1.chaoxing.com/visit/stucoursemiddle",
		ActiveList:     "https://mobilelearn.chaoxing.com/v2/apis/active/student/activelist",
		ActiveInfo:     "https://mobilelearn.chaoxing.com/v2/apis/active/getPPTActiveInfo",
		SignIn:         "https://mobilelearn.chaoxing.com/v2/apis/sign/signIn",
	}
}

// ClientConfig contains configuration for the platform client.
type ClientConfig struct {
	// Scheme selects the credential encoding (aes, des, base64)
	Scheme Scheme

	// EncryptKey is the key material for aes and des
	EncryptKey string

	// RequestDelay is the minimum spacing between outbound requests.
	// Ignored when RateLimiter is set.
	RequestDelay time.Duration

	// RateLimiter is a shared throttle. When nil one is built from RequestDelay.
	RateLimiter *RateLimiter

	// Timeout is the HTTP request timeout; ignored when HTTPClient is set
	Timeout time.Duration

	// BrowserUserAgent and AppUserAgent override the default header profiles
	BrowserUserAgent string
	AppUserAgent     string

	Endpoints Endpoints

	// HTTPClient overrides the HTTP client, mainly for tests
	HTTPClient *http.Client

	// SessionStore keeps the last good session per phone.
	// When nil an in-memory store is used.
	SessionStore SessionStore

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns the platform defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Scheme:       SchemeAES,
		EncryptKey:   "u2oh6Vu^HWe4_AES",
		RequestDelay: 500 * time.Millisecond,
		Timeout:      30 * time.Second,
		Endpoints:    DefaultEndpoints(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client wires the platform components together.
type Client struct {
	config    ClientConfig
	logger    *slog.Logger
	transport *Transport
	limiter   *RateLimiter
	auth      *AuthClient
	validator *SessionValidator
	collector *ActivityCollector
	signer    *SignInExecutor
}

// NewClient creates a Client. An unusable cipher configuration returns
// ErrConfiguration before any request is made.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Endpoints == (Endpoints{}) {
		config.Endpoints = DefaultEndpoints()
	}

	cipher, err := NewCipher(config.Scheme, config.EncryptKey)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	limiter := config.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(config.RequestDelay)
	}

	store := config.SessionStore
	if store == nil {
		store = NewMemorySessionStore()
	}

	logger := config.Logger.With("component", "chaoxing")
	transport := NewTransport(httpClient, limiter,
		DefaultHeaderProfiles(config.BrowserUserAgent, config.AppUserAgent), logger)
	auth := NewAuthClient(transport, cipher, config.Endpoints, logger)
	validator := NewSessionValidator(transport, auth, store, config.Endpoints, logger)

	return &Client{
		config:    config,
		logger:    logger,
		transport: transport,
		limiter:   limiter,
		auth:      auth,
		validator: validator,
		collector: NewActivityCollector(transport, config.Endpoints, logger),
		signer:    NewSignInExecutor(transport, validator, config.Endpoints, logger),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Login always performs a fresh login.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	return c.auth.Login(ctx, creds)
}

// ResolveSession returns a live session, reusing existing or the stored one
// when they pass the probe.
func (c *Client) ResolveSession(ctx context.Context, creds Credentials, existing Session) (Session, error) {
	return c.validator.Resolve(ctx, creds, existing)
}

// ResolveSerializedSession is ResolveSession for a session in JSON form.
func (c *Client) ResolveSerializedSession(ctx context.Context, creds Credentials, encoded string) (Session, error) {
	return c.validator.ResolveSerialized(ctx, creds, encoded)
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchCourses downloads and parses the course list.
func (c *Client) FetchCourses(ctx context.Context, session Session) ([]*course.Course, error) {
	form := url.Values{}
	form.Set("courseType", "1")
	form.Set("courseFolderId", "0")
	form.Set("query", "")
	form.Set("superstarClass", "0")

	resp, err := c.transport.Do(ctx, Request{
		Op:      "FetchCourses",
		Method:  http.MethodPost,
		URL:     c.config.Endpoints.CourseList,
		Form:    form,
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return nil, newError("FetchCourses", ErrCourseList, "fetch course list", err)
	}

	return ExtractCourses(resp.Text())
}

// FetchDisplayName reads the user's name from the profile page.
func (c *Client) FetchDisplayName(ctx context.Context, session Session) (string, error) {
	resp, err := c.transport.Do(ctx, Request{
		Op:      "FetchDisplayName",
		URL:     c.config.Endpoints.Profile,
		Query:   url.Values{"t": {strconv.FormatInt(timeutil.NowMillis(), 10)}},
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return "", err
	}
	return ExtractDisplayName(resp.Text())
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CollectActivities lists the open sign-in activities of a course.
func (c *Client) CollectActivities(ctx context.Context, session Session, crs *course.Course) ([]*activity.Activity, error) {
	return c.collector.Collect(ctx, session, crs)
}

// SignIn submits a sign-in for activeID on behalf of creds.
func (c *Client) SignIn(ctx context.Context, activeID string, creds Credentials) (bool, error) {
	return c.signer.SignIn(ctx, activeID, creds)
}

// RateLimiterStatus exposes the shared limiter for diagnostics.
func (c *Client) RateLimiterStatus() RateLimiterStatus {
	return c.limiter.Status()
}
