package chaoxing

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/xxt-hub/xxt-signin/pkg/redact"
)

// SignInExecutor submits a sign-in for one activity.
type SignInExecutor struct {
	transport *Transport
	validator *SessionValidator
	endpoints Endpoints
	logger    *slog.Logger
}

// NewSignInExecutor creates an executor.
func NewSignInExecutor(transport *Transport, validator *SessionValidator, endpoints Endpoints, logger *slog.Logger) *SignInExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignInExecutor{transport: transport, validator: validator, endpoints: endpoints, logger: logger}
}

// SignIn resolves a session for creds and submits the sign-in.
// It returns true only for result 1 with msg "success"; any other well-formed
// answer is false with a nil error. The executor never retries.
func (e *SignInExecutor) SignIn(ctx context.Context, activeID string, creds Credentials) (bool, error) {
	session, err := e.validator.Resolve(ctx, creds, nil)
	if err != nil {
		return false, err
	}

	resp, err := e.transport.Do(ctx, Request{
		Op:      "SignIn",
		URL:     e.endpoints.SignIn,
		Query:   url.Values{"activeId": {activeID}},
		Profile: ProfileApp,
		Session: session,
	})
	if err != nil {
		return false, err
	}

	var answer SignInResponseDTO
	if err := json.Unmarshal(resp.Body, &answer); err != nil {
		return false, newError("SignIn", ErrSignInRejected, "sign-in answer is not JSON", err)
	}

	e.logger.Info("sign-in submitted",
		"active_id", activeID,
		"identity", redact.Fingerprint(creds.Phone),
		"result", answer.Result.Int(),
		"msg", answer.Msg,
	)

	return answer.Accepted(), nil
}
