package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/authn"
	resp "github.com/AhhHereWeGoAgain/Leonid/internal/lib/api/response"
	sl "github.com/AhhHereWeGoAgain/Leonid/internal/lib/logger"
	"github.com/AhhHereWeGoAgain/Leonid/internal/models"
)

type Request struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type Response struct {
	resp.Response
	Reply string `json:"reply"`
}

type MessageSaver interface {
	SaveMessage(ctx context.Context, userID int64, role, content string) (int64, error)
}

type Completer interface {
	Complete(ctx context.Context, userMessage string) (string, error)
}

// New relays the user's message to the model provider. Both sides of
// the exchange are persisted so the transcript survives restarts.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	messages MessageSaver,
	completer Completer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.New"

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

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		msg := strings.TrimSpace(req.Message)

		if _, err := messages.SaveMessage(r.Context(), userID, models.RoleUser, msg); err != nil {
			log.Error("failed to save user message", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		reply, err := completer.Complete(r.Context(), msg)
		if err != nil {
			log.Error("LLM relay failed", slog.Int64("user_id", userID), sl.Err(err))

			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, resp.Error("LLM error"))

			return
		}

		if _, err := messages.SaveMessage(r.Context(), userID, models.RoleAssistant, reply); err != nil {
			log.Error("failed to save assistant message", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		ResponseOK(w, r, reply)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, reply string) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Reply:    reply,
	})
}
