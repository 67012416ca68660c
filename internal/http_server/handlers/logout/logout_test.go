package logout_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/logout"
)

type fakeRevoker struct {
	err       error
	called    bool
	gotSecret string
}

func (f *fakeRevoker) Logout(ctx context.Context, refreshSecret string) error {
	f.called = true
	f.gotSecret = refreshSecret
	return f.err
}

func newHandler(r logout.SessionRevoker) http.HandlerFunc {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return logout.New(log, r, config.Cookie{Name: "refresh_token"})
}

func post(handler http.HandlerFunc, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	if secret != "" {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: secret})
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLogout_WithCookie(t *testing.T) {
	t.Parallel()

	fake := &fakeRevoker{}
	rec := post(newHandler(fake), "opaque-secret")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fake.called)
	assert.Equal(t, "opaque-secret", fake.gotSecret)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestLogout_WithoutCookie(t *testing.T) {
	t.Parallel()

	fake := &fakeRevoker{}
	rec := post(newHandler(fake), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fake.called, "revoker must not be called without a cookie")
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestLogout_ClearsCookie(t *testing.T) {
	t.Parallel()

	rec := post(newHandler(&fakeRevoker{}), "opaque-secret")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refresh_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogout_StorageFailure(t *testing.T) {
	t.Parallel()

	rec := post(newHandler(&fakeRevoker{err: assert.AnError}), "opaque-secret")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
