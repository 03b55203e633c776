package chaoxing

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xxt-hub/xxt-signin/pkg/redact"
	"github.com/xxt-hub/xxt-signin/pkg/timeutil"
)

// Credentials are the login identity. The password is kept in clear because
// the login form needs it encrypted with the platform's own key.
type Credentials struct {
	Phone    string
	Password string
}

// AuthClient performs the three-step login handshake.
type AuthClient struct {
	transport *Transport
	cipher    *Cipher
	endpoints Endpoints
	logger    *slog.Logger
}

// NewAuthClient creates an AuthClient.
func NewAuthClient(transport *Transport, cipher *Cipher, endpoints Endpoints, logger *slog.Logger) *AuthClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthClient{
		transport: transport,
		cipher:    cipher,
		endpoints: endpoints,
		logger:    logger,
	}
}

// Login exchanges credentials for a fresh session.
//
// The login, profile and portal cookie sets are merged in that order, later
// sets overwriting earlier ones. A status:false answer with msg2 returns
// ErrIncorrectCredentials carrying msg2; any other unexpected answer returns
// ErrLoginProtocol.
func (a *AuthClient) Login(ctx context.Context, creds Credentials) (Session, error) {
	if a.cipher == nil {
		return nil, newError("Login", ErrConfiguration, "no credential cipher configured", nil)
	}

	log := a.logger.With("phone", redact.Phone(creds.Phone))

	form := url.Values{}
	form.Set("fid", "-1")
	form.Set("uname", a.cipher.Encode(creds.Phone))
	form.Set("password", a.cipher.Encode(creds.Password))
	form.Set("refer", "https%3A%2F%2Fi.chaoxing.com")
	form.Set("t", "true")
	form.Set("forbidotherlogin", "0")
	form.Set("validate", "")
	form.Set("doubleFactorLogin", "0")
	form.Set("independentId", "0")

	loginResp, err := a.transport.Do(ctx, Request{
		Op:      "Login",
		Method:  http.MethodPost,
		URL:     a.endpoints.Login,
		Form:    form,
		Profile: ProfileBrowser,
	})
	if err != nil {
		return nil, err
	}

	var answer LoginResponseDTO
	if err := json.Unmarshal(loginResp.Body, &answer); err != nil {
		return nil, newError("Login", ErrLoginProtocol, "login answer is not JSON", err)
	}

	switch {
	case answer.Status != nil && *answer.Status:
		// authenticated, continue below
	case answer.Status != nil && answer.Msg2 != nil:
		log.Info("login rejected by platform")
		return nil, newError("Login", ErrIncorrectCredentials, *answer.Msg2, nil)
	default:
		return nil, newError("Login", ErrLoginProtocol, "unrecognised login answer", nil)
	}

	session := loginResp.Cookies

	profileResp, err := a.transport.Do(ctx, Request{
		Op:      "Login.profile",
		URL:     a.endpoints.Profile,
		Query:   url.Values{"t": {strconv.FormatInt(timeutil.NowMillis(), 10)}},
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return nil, err
	}
	session = session.Merge(profileResp.Cookies)

	portalForm := url.Values{}
	if token, ok := ExtractPortalToken(profileResp.Text()); ok {
		portalForm.Set("s", token)
	} else {
		log.Debug("portal token not found on profile page")
	}

	moocResp, err := a.transport.Do(ctx, Request{
		Op:      "Login.interaction",
		URL:     a.endpoints.Interaction,
		Form:    portalForm,
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return nil, err
	}
	session = session.Merge(moocResp.Cookies)

	log.Info("platform login succeeded", "cookies", len(session))
	return session, nil
}
