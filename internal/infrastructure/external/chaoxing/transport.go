package chaoxing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEADER PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// Profile selects which client the platform should believe it is talking to.
type Profile int

const (
	// ProfileBrowser mimics desktop Chrome on the web portal.
	ProfileBrowser Profile = iota
	// ProfileApp mimics the Android app WebView. Sign-in endpoints need it.
	ProfileApp
)

// String returns the profile name for logs.
func (p Profile) String() string {
	if p == ProfileApp {
		return "app"
	}
	return "browser"
}

// DefaultBrowserUserAgent is the desktop Chrome UA.
const DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// DefaultAppUserAgent is the Android app UA.
const DefaultAppUserAgent = "Mozilla/5.0 (Linux; Android 13; SM-G9980 Build/TP1A.220624.014; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/117.0.0.0 Mobile Safari/537.36(schild:def3706876ea1a13613591dbdd242d6b) (device:SM-G9980) Language/zh_CN com.chaoxing.mobile/ChaoXingStudy_3_6.2.3_android_phone_1000_115 (@Kalimdor)_724fd66a6e2d35dbc1bf74908d149990"

// HeaderProfiles maps each Profile to the headers sent with it.
type HeaderProfiles map[Profile]http.Header

// DefaultHeaderProfiles returns the browser and app header sets.
// Empty user agents fall back to the defaults.
func DefaultHeaderProfiles(browserUA, appUA string) HeaderProfiles {
	if browserUA == "" {
		browserUA = DefaultBrowserUserAgent
	}
	if appUA == "" {
		appUA = DefaultAppUserAgent
	}

	browser := http.Header{}
	browser.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	browser.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	browser.Set("Dnt", "1")
	browser.Set("Referer", "https://passport2.chaoxing.com/login?fid=&newversion=true&refer=https://i.chaoxing.com")
	browser.Set("Sec-Ch-Ua", `"Google Chrome";v="117", "Not;A=Brand";v="8", "Chromium";v="117"`)
	browser.Set("Sec-Ch-Ua-Mobile", "?0")
	browser.Set("Sec-Ch-Ua-Platform", "Windows")
	browser.Set("User-Agent", browserUA)
	browser.Set("X-Requested-With", "XMLHttpRequest")

	// Accept-Encoding is left to net/http so gzip is decoded transparently.
	app := http.Header{}
	app.Set("Connection", "keep-alive")
	app.Set("Sec-Ch-Ua", `"Android WebView";v="117", "Not;A=Brand";v="8", "Chromium";v="117"`)
	app.Set("Sec-Ch-Ua-Mobile", "?1")
	app.Set("Sec-Ch-Ua-Platform", "Android")
	app.Set("Upgrade-Insecure-Requests", "1")
	app.Set("User-Agent", appUA)
	app.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	app.Set("Accept-Language", "zh_CN")
	app.Set("X-Requested-With", "com.chaoxing.mobile")
	app.Set("Sec-Fetch-Site", "none")
	app.Set("Sec-Fetch-Mode", "navigate")
	app.Set("Sec-Fetch-User", "?1")
	app.Set("Sec-Fetch-Dest", "document")

	return HeaderProfiles{ProfileBrowser: browser, ProfileApp: app}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSPORT
// ══════════════════════════════════════════════════════════════════════════════

const maxRedirects = 10

// Request describes one outbound call.
type Request struct {
	// Op names the calling step in errors and logs.
	Op string

	Method string
	URL    string
	Query  url.Values

	// Form is sent url-encoded as the body, whatever the method.
	Form url.Values

	Profile Profile
	Session Session
}

// Response is the fully read answer.
type Response struct {
	StatusCode int
	Body       []byte

	// Cookies holds every cookie set along the redirect chain and by the
	// final response. Later hops overwrite earlier ones.
	Cookies Session
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Transport sends requests through the shared RateLimiter with the selected
// header profile and the caller's session cookies. It never retries.
type Transport struct {
	httpClient *http.Client
	limiter    *RateLimiter
	profiles   HeaderProfiles
	logger     *slog.Logger
}

// NewTransport creates a transport. A nil httpClient uses http.DefaultClient.
func NewTransport(httpClient *http.Client, limiter *RateLimiter, profiles HeaderProfiles, logger *slog.Logger) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	if profiles == nil {
		profiles = DefaultHeaderProfiles("", "")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		httpClient: httpClient,
		limiter:    limiter,
		profiles:   profiles,
		logger:     logger,
	}
}

// Do waits for the limiter, sends req and reads the whole body.
// Transport failures and non-2xx statuses return ErrNetwork.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, newError(req.Op, ErrNetwork, "rate limiter wait aborted", err)
	}

	target := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, newError(req.Op, ErrNetwork, "build request", err)
	}
	for k, vs := range t.profiles[req.Profile] {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	if h := req.Session.cookieHeader(); h != "" {
		httpReq.Header.Set("Cookie", h)
	}

	// Cookies set on redirect hops are collected and replayed on the next hop.
	harvested := Session{}
	client := *t.httpClient
	client.Jar = nil
	client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		if next.Response != nil {
			for _, c := range next.Response.Cookies() {
				harvested[c.Name] = c.Value
			}
		}
		if h := req.Session.Merge(harvested).cookieHeader(); h != "" {
			next.Header.Set("Cookie", h)
		}
		return nil
	}

	t.logger.Debug("platform request",
		"op", req.Op,
		"method", method,
		"url", req.URL,
		"profile", req.Profile.String(),
	)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, newError(req.Op, ErrNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(req.Op, ErrNetwork, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(req.Op, ErrNetwork,
			fmt.Sprintf("status %d", resp.StatusCode),
			&StatusError{Code: resp.StatusCode, URL: req.URL})
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Cookies:    harvested.Merge(sessionFromCookies(resp.Cookies())),
	}, nil
}
