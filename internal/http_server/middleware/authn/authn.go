// Package authn is the bearer-token gate in front of protected
// endpoints. It verifies the access token, puts the caller's identity
// into the request context, and answers 401 with either full
// structured detail (debug mode) or a generic message (production).
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/jwt"
	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/token"
	resp "github.com/AhhHereWeGoAgain/Leonid/internal/lib/api/response"
)

type TokenVerifier interface {
	Verify(tokenString string) (jwt.Payload, error)
}

type ctxKey struct{}

// UserID returns the authenticated account id stored by the middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

// Failure is the structured record logged on every rejected request.
// In debug mode it is also returned as the response body.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Method  string `json:"method"`
	IP      string `json:"ip"`
	Token   string `json:"token,omitempty"`
}

const (
	codeServerMisconfig = "server_misconfig"
	codeMissingBearer   = "missing_bearer"
	codeBadScheme       = "bad_scheme"
	codeEmptyToken      = "empty_token"
	codeTokenExpired    = "token_expired"
	codeTokenInvalid    = "token_invalid"
	codeNoSubject       = "no_user_in_token"
)

// New builds the middleware. With debug on, rejections carry the full
// failure record in the body; with debug off only the log gets it.
func New(log *slog.Logger, verifier TokenVerifier, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			fail := func(code, message, maskedToken string) {
				writeFailure(w, r, log, debug, Failure{
					Code:    code,
					Message: message,
					Path:    r.URL.Path,
					Method:  r.Method,
					IP:      r.RemoteAddr,
					Token:   maskedToken,
				})
			}

			if verifier == nil {
				fail(codeServerMisconfig, "token verifier is not configured", "")
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				fail(codeMissingBearer, "missing Authorization: Bearer <token> header", "")
				return
			}

			scheme, credential, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				fail(codeBadScheme, "unsupported auth scheme: "+scheme, "")
				return
			}

			credential = strings.TrimSpace(credential)
			if credential == "" {
				fail(codeEmptyToken, "bearer token is empty", "")
				return
			}

			payload, err := verifier.Verify(credential)
			if err != nil {
				masked := token.Mask(credential)
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					fail(codeTokenExpired, "token is expired", masked)
				case errors.Is(err, jwt.ErrNoSubject):
					fail(codeNoSubject, "token payload has no subject", masked)
				default:
					fail(codeTokenInvalid, "token invalid: "+err.Error(), masked)
				}
				return
			}

			// Defense in depth: re-check expiry against the current
			// clock even though the codec already did.
			if !payload.ExpiresAt.IsZero() && !payload.ExpiresAt.After(time.Now()) {
				fail(codeTokenExpired, "token is expired", token.Mask(credential))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, payload.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, log *slog.Logger, debug bool, f Failure) {
	log.Warn("auth failed",
		slog.String("code", f.Code),
		slog.String("message", f.Message),
		slog.String("path", f.Path),
		slog.String("method", f.Method),
		slog.String("ip", f.IP),
		slog.String("token", f.Token),
	)

	render.Status(r, http.StatusUnauthorized)

	if debug {
		render.JSON(w, r, f)
		return
	}

	render.JSON(w, r, resp.Error("Unauthorized"))
}
