package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/cookie"
	resp "github.com/AhhHereWeGoAgain/Leonid/internal/lib/api/response"
	sl "github.com/AhhHereWeGoAgain/Leonid/internal/lib/logger"
)

type Response struct {
	resp.Response
	Success bool `json:"success"`
}

type SessionRevoker interface {
	Logout(ctx context.Context, refreshSecret string) error
}

// New revokes the session behind the cookie and clears it. Absence of
// the cookie is not an error; logout always succeeds for the caller.
func New(
	log *slog.Logger,
	revoker SessionRevoker,
	cookieCfg config.Cookie,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if secret, ok := cookie.Refresh(r, cookieCfg); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			if err := revoker.Logout(ctx, secret); err != nil {
				log.Error("failed to logout user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))

				return
			}
		}

		cookie.ClearRefresh(w, cookieCfg)

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Success:  true,
	})
}
