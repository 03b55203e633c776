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

func TestLogin_MergesCookieSets(t *testing.T) {
	platform := newFakePlatform()
	rt := platform.roundTripper()
	client := newTestClient(t, rt, nil)

	session, err := client.Login(context.Background(), testCreds())
	require.NoError(t, err)

	// fid from the profile page overwrites fid from the login answer
	assert.Equal(t, Session{"UID": "42", "fid": "2791", "k8s": "mooc"}, session)
	assert.Equal(t, 3, rt.Calls())
	assert.Equal(t, 1, rt.CallsTo(pathLogin))
	assert.Equal(t, 1, rt.CallsTo(pathProfile))
	assert.Equal(t, 1, rt.CallsTo(pathInteraction))
}

func TestLogin_FormFields(t *testing.T) {
	platform := newFakePlatform()
	rt := platform.roundTripper()
	client := newTestClient(t, rt, nil)

	_, err := client.Login(context.Background(), testCreds())
	require.NoError(t, err)

	form, err := url.ParseQuery(rt.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, "-1", form.Get("fid"))
	assert.Equal(t, "iOoadUyZjnlyzQgfXVtPTg==", form.Get("uname"))
	assert.Equal(t, "T32p/o0uA13Xrb0MaLf9vQ==", form.Get("password"))
	assert.Equal(t, "https%3A%2F%2Fi.chaoxing.com", form.Get("refer"))
	assert.Equal(t, "true", form.Get("t"))
	assert.Equal(t, "0", form.Get("forbidotherlogin"))
	assert.Equal(t, "", form.Get("validate"))
	assert.Equal(t, "0", form.Get("doubleFactorLogin"))
	assert.Equal(t, "0", form.Get("independentId"))

	// portal token from the profile page is forwarded
	assert.Equal(t, "s=9f3a0c2b7e", rt.bodies[2])
	assert.NotEmpty(t, rt.requests[1].URL.Query().Get("t"))
}

func TestLogin_IncorrectCredentials(t *testing.T) {
	platform := newFakePlatform()
	platform.loginBody = `{"status":false,"msg2":"用户名或密码错误"}`
	rt := platform.roundTripper()
	client := newTestClient(t, rt, nil)

	_, err := client.Login(context.Background(), testCreds())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncorrectCredentials))
	assert.Equal(t, "用户名或密码错误", PlatformMessage(err))
	assert.Equal(t, 1, rt.Calls())
}

func TestLogin_ProtocolChanged(t *testing.T) {
	for name, body := range map[string]string{
		"no status":          `{"result":1}`,
		"false without msg2": `{"status":false}`,
		"not json":           `<html>captcha</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			platform := newFakePlatform()
			platform.loginBody = body
			client := newTestClient(t, platform.roundTripper(), nil)

			_, err := client.Login(context.Background(), testCreds())
			assert.True(t, errors.Is(err, ErrLoginProtocol))
			assert.False(t, errors.Is(err, ErrIncorrectCredentials))
		})
	}
}

func TestLogin_MissingPortalTokenOmitsField(t *testing.T) {
	rt := &mockRoundTripper{}
	platform := newFakePlatform()
	rt.handler = func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == pathProfile {
			return newResponse(req, http.StatusOK, `<p class="user-name">张三</p>`), nil
		}
		return platform.handle(req)
	}
	client := newTestClient(t, rt, nil)

	_, err := client.Login(context.Background(), testCreds())
	require.NoError(t, err)
	assert.Equal(t, "", rt.bodies[2])
}

func TestNewClient_UnknownSchemeMakesNoRequests(t *testing.T) {
	rt := newFakePlatform().roundTripper()

	cfg := DefaultClientConfig()
	cfg.Scheme = "rsa"
	cfg.HTTPClient = &http.Client{Transport: rt}

	client, err := NewClient(cfg)
	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, 0, rt.Calls())
}
