package history_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/jwt"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/history"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/authn"
	"github.com/AhhHereWeGoAgain/Leonid/internal/models"
)

type fakeProvider struct {
	messages    []models.Message
	err         error
	gotUserID   int64
	gotLimit    int
	timesCalled int
}

func (f *fakeProvider) RecentMessages(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	f.timesCalled++
	f.gotUserID = userID
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func newGuardedHandler(t *testing.T, provider *fakeProvider) (http.Handler, string) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwt.NewManager("test-secret", time.Hour)

	tok, err := tokens.Issue(42)
	require.NoError(t, err)

	guard := authn.New(log, tokens, true)
	handler := guard(history.New(log, provider))

	return handler, tok
}

func get(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHistory_ReturnsUserMessages(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		messages: []models.Message{
			{ID: 1, UserID: 42, Role: models.RoleUser, Content: "hi"},
			{ID: 2, UserID: 42, Role: models.RoleAssistant, Content: "hello"},
		},
	}
	handler, tok := newGuardedHandler(t, provider)

	rec := get(handler, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var body history.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Messages, 2)
	assert.Equal(t, "hi", body.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, body.Messages[1].Role)

	assert.Equal(t, int64(42), provider.gotUserID)
	assert.Equal(t, 100, provider.gotLimit)
}

func TestHistory_EmptyHistoryIsEmptyArray(t *testing.T) {
	t.Parallel()

	handler, tok := newGuardedHandler(t, &fakeProvider{})

	rec := get(handler, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var body history.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.Messages)
	assert.Empty(t, body.Messages)
	assert.Contains(t, rec.Body.String(), `"messages":[]`)
}

func TestHistory_UnauthorizedWithoutToken(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	handler, _ := newGuardedHandler(t, provider)

	rec := get(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, provider.timesCalled)
}

func TestHistory_StorageFailure(t *testing.T) {
	t.Parallel()

	handler, tok := newGuardedHandler(t, &fakeProvider{err: assert.AnError})

	rec := get(handler, tok)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal error")
}