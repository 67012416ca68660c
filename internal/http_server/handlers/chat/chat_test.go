package chat_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/jwt"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/chat"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/authn"
)

type savedMessage struct {
	userID  int64
	role    string
	content string
}

type fakeSaver struct {
	saved []savedMessage
	err   error
}

func (f *fakeSaver) SaveMessage(ctx context.Context, userID int64, role, content string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, savedMessage{userID, role, content})
	return int64(len(f.saved)), nil
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, userMessage string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// newGuardedHandler wires the chat handler behind the real auth gate,
// the way the router does.
func newGuardedHandler(t *testing.T, saver *fakeSaver, completer *fakeCompleter) (http.Handler, string) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwt.NewManager("test-secret", time.Hour)

	tok, err := tokens.Issue(42)
	require.NoError(t, err)

	guard := authn.New(log, tokens, true)
	handler := guard(chat.New(log, validator.New(), saver, completer))

	return handler, tok
}

func post(handler http.Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChat_RelaysAndPersists(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	handler, tok := newGuardedHandler(t, saver, &fakeCompleter{reply: "42 is the answer"})

	rec := post(handler, tok, `{"message":"  what is the answer?  "}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42 is the answer", resp.Reply)

	require.Len(t, saver.saved, 2)
	assert.Equal(t, savedMessage{42, "user", "what is the answer?"}, saver.saved[0])
	assert.Equal(t, savedMessage{42, "assistant", "42 is the answer"}, saver.saved[1])
}

func TestChat_Unauthorized(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	handler, _ := newGuardedHandler(t, saver, &fakeCompleter{reply: "unused"})

	rec := post(handler, "", `{"message":"hello"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, saver.saved)
}

func TestChat_ProviderFailure(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	handler, tok := newGuardedHandler(t, saver, &fakeCompleter{err: assert.AnError})

	rec := post(handler, tok, `{"message":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "LLM error")
	// The user message is persisted even when the relay fails.
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "user", saver.saved[0].role)
}

func TestChat_Validation(t *testing.T) {
	t.Parallel()

	handler, tok := newGuardedHandler(t, &fakeSaver{}, &fakeCompleter{reply: "unused"})

	rec := post(handler, tok, `{"message":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
