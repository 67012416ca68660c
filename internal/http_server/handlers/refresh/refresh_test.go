package refresh_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth"
	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/refresh"
)

type fakeRefresher struct {
	access    string
	err       error
	gotSecret string
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshSecret string) (string, error) {
	f.gotSecret = refreshSecret
	if f.err != nil {
		return "", f.err
	}
	return f.access, nil
}

func newHandler(r refresh.Refresher) http.HandlerFunc {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return refresh.New(log, r, config.Cookie{Name: "refresh_token"})
}

func post(handler http.HandlerFunc, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	if secret != "" {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: secret})
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRefresh_Success(t *testing.T) {
	t.Parallel()

	fake := &fakeRefresher{access: "fresh-access"}
	rec := post(newHandler(fake), "opaque-secret")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp refresh.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fresh-access", resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "opaque-secret", fake.gotSecret)
}

func TestRefresh_NoCookie(t *testing.T) {
	t.Parallel()

	fake := &fakeRefresher{access: "unused"}
	rec := post(newHandler(fake), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, fake.gotSecret, "service must not be called without a cookie")
	assert.Contains(t, rec.Body.String(), "No refresh cookie")
}

func TestRefresh_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"session not found", auth.ErrSessionNotFound, http.StatusUnauthorized, "Invalid refresh token"},
		{"session expired", auth.ErrSessionExpired, http.StatusUnauthorized, "Refresh expired"},
		{"no session", auth.ErrNoSession, http.StatusUnauthorized, "No refresh cookie"},
		{"storage failure", assert.AnError, http.StatusInternalServerError, "Internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := post(newHandler(&fakeRefresher{err: tc.err}), "opaque-secret")

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}
