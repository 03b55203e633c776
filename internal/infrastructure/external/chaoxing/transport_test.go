package chaoxing

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(rt http.RoundTripper) *Transport {
	return NewTransport(&http.Client{Transport: rt}, NewRateLimiter(0), DefaultHeaderProfiles("", ""), nil)
}

func TestTransport_SendsProfileAndCookies(t *testing.T) {
	rt := &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, "ok", &http.Cookie{Name: "new", Value: "v"}), nil
	}}
	tr := newTestTransport(rt)

	resp, err := tr.Do(context.Background(), Request{
		Op:      "test",
		URL:     "https://mobilelearn.chaoxing.com/v2/apis/sign/signIn",
		Query:   url.Values{"activeId": {"99"}},
		Profile: ProfileApp,
		Session: Session{"UID": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, Session{"new": "v"}, resp.Cookies)

	require.Equal(t, 1, rt.Calls())
	sent := rt.requests[0]
	assert.Equal(t, http.MethodGet, sent.Method)
	assert.Equal(t, "99", sent.URL.Query().Get("activeId"))
	assert.Equal(t, "UID=1", sent.Header.Get("Cookie"))
	assert.Equal(t, "com.chaoxing.mobile", sent.Header.Get("X-Requested-With"))
	assert.Contains(t, sent.Header.Get("User-Agent"), "com.chaoxing.mobile/ChaoXingStudy")
}

func TestTransport_FormBody(t *testing.T) {
	rt := &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, "{}"), nil
	}}
	tr := newTestTransport(rt)

	_, err := tr.Do(context.Background(), Request{
		Op:      "test",
		Method:  http.MethodPost,
		URL:     "https://passport2.chaoxing.com/fanyalogin",
		Form:    url.Values{"fid": {"-1"}},
		Profile: ProfileBrowser,
	})
	require.NoError(t, err)

	assert.Equal(t, "fid=-1", rt.bodies[0])
	assert.Equal(t, "XMLHttpRequest", rt.requests[0].Header.Get("X-Requested-With"))
	assert.Empty(t, rt.requests[0].Header.Get("Cookie"))
}

func TestTransport_HarvestsRedirectCookies(t *testing.T) {
	rt := &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/start" {
			resp := newResponse(req, http.StatusFound, "",
				&http.Cookie{Name: "hop", Value: "1"},
				&http.Cookie{Name: "shared", Value: "first"},
			)
			resp.Header.Set("Location", "https://i.chaoxing.com/final")
			return resp, nil
		}
		return newResponse(req, http.StatusOK, "done", &http.Cookie{Name: "shared", Value: "last"}), nil
	}}
	tr := newTestTransport(rt)

	resp, err := tr.Do(context.Background(), Request{
		Op:      "test",
		URL:     "https://i.chaoxing.com/start",
		Session: Session{"UID": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, Session{"hop": "1", "shared": "last"}, resp.Cookies)
	require.Equal(t, 2, rt.Calls())
	// the second hop replays the caller's cookies plus the harvested ones
	assert.Equal(t, "UID=1; hop=1; shared=first", rt.requests[1].Header.Get("Cookie"))
}

func TestTransport_Non2xxIsNetworkError(t *testing.T) {
	rt := &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusBadGateway, "bad gateway"), nil
	}}

	_, err := newTestTransport(rt).Do(context.Background(), Request{Op: "test", URL: "https://i.chaoxing.com/base"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))

	code, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestTransport_TransportFailureIsNetworkError(t *testing.T) {
	rt := &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset by peer")
	}}

	_, err := newTestTransport(rt).Do(context.Background(), Request{Op: "test", URL: "https://i.chaoxing.com/base"})
	assert.True(t, errors.Is(err, ErrNetwork))
	_, ok := StatusCode(err)
	assert.False(t, ok)
}
