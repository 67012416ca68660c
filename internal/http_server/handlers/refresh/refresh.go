package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth"
	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/cookie"
	resp "github.com/AhhHereWeGoAgain/Leonid/internal/lib/api/response"
	sl "github.com/AhhHereWeGoAgain/Leonid/internal/lib/logger"
)

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Refresher interface {
	Refresh(ctx context.Context, refreshSecret string) (string, error)
}

// New exchanges the session cookie for a fresh access token. The
// request carries no body; the secret arrives only via the cookie.
func New(
	log *slog.Logger,
	refresher Refresher,
	cookieCfg config.Cookie,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		secret, ok := cookie.Refresh(r, cookieCfg)
		if !ok {
			log.Warn("refresh without session cookie")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("No refresh cookie"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		accessToken, err := refresher.Refresh(ctx, secret)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoSession):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("No refresh cookie"))
			case errors.Is(err, auth.ErrSessionNotFound):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid refresh token"))
			case errors.Is(err, auth.ErrSessionExpired):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Refresh expired"))
			default:
				log.Error("failed to refresh token", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		ResponseOK(w, r, accessToken)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, accessToken string) {
	render.JSON(w, r, Response{
		Response:    resp.OK(),
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
