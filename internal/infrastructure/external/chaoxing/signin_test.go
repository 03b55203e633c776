package chaoxing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signInClient(t *testing.T, status int, body string) (*Client, *mockRoundTripper) {
	t.Helper()
	platform := newFakePlatform()
	platform.signInStatus = status
	platform.signInBody = body
	rt := platform.roundTripper()

	store := NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), testCreds().Phone, Session{"UID": "42"}))
	return newTestClient(t, rt, store), rt
}

func TestSignIn_Success(t *testing.T) {
	client, rt := signInClient(t, http.StatusOK, `{"result":1,"msg":"success"}`)

	ok, err := client.SignIn(context.Background(), "5001", testCreds())
	require.NoError(t, err)
	assert.True(t, ok)

	require.Equal(t, 1, rt.CallsTo(pathSignIn))
	var signReq *http.Request
	for _, r := range rt.requests {
		if r.URL.Path == pathSignIn {
			signReq = r
		}
	}
	assert.Equal(t, "5001", signReq.URL.Query().Get("activeId"))
	assert.Equal(t, "com.chaoxing.mobile", signReq.Header.Get("X-Requested-With"))
	assert.Contains(t, signReq.Header.Get("Cookie"), "UID=42")
}

func TestSignIn_Refused(t *testing.T) {
	tests := map[string]string{
		"fail":            `{"result":0,"msg":"fail"}`,
		"result one only": `{"result":1,"msg":"签到已结束"}`,
		"success text":    `{"result":0,"msg":"success"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client, _ := signInClient(t, http.StatusOK, body)

			ok, err := client.SignIn(context.Background(), "5001", testCreds())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSignIn_Non2xxIsNetworkError(t *testing.T) {
	client, _ := signInClient(t, http.StatusServiceUnavailable, "busy")

	ok, err := client.SignIn(context.Background(), "5001", testCreds())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestSignIn_MalformedAnswer(t *testing.T) {
	client, _ := signInClient(t, http.StatusOK, "<html>")

	ok, err := client.SignIn(context.Background(), "5001", testCreds())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrSignInRejected))
}

func TestSignIn_DoesNotRetry(t *testing.T) {
	client, rt := signInClient(t, http.StatusOK, `{"result":0,"msg":"fail"}`)

	_, err := client.SignIn(context.Background(), "5001", testCreds())
	require.NoError(t, err)
	assert.Equal(t, 1, rt.CallsTo(pathSignIn))
}
