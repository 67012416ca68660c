package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/authn"
	resp "github.com/AhhHereWeGoAgain/Leonid/internal/lib/api/response"
	sl "github.com/AhhHereWeGoAgain/Leonid/internal/lib/logger"
	"github.com/AhhHereWeGoAgain/Leonid/internal/models"
)

const defaultLimit = 100

type Response struct {
	resp.Response
	Messages []models.Message `json:"messages"`
}

type MessageProvider interface {
	RecentMessages(ctx context.Context, userID int64, limit int) ([]models.Message, error)
}

func New(
	log *slog.Logger,
	messages MessageProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		msgs, err := messages.RecentMessages(r.Context(), userID, defaultLimit)
		if err != nil {
			log.Error("failed to load messages", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if msgs == nil {
			msgs = []models.Message{}
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Messages: msgs,
		})
	}
}
