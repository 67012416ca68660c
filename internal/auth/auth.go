package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/jwt"
	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/password"
	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/token"
	sl "github.com/AhhHereWeGoAgain/Leonid/internal/lib/logger"
	"github.com/AhhHereWeGoAgain/Leonid/internal/models"
	"github.com/AhhHereWeGoAgain/Leonid/internal/storage"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no session presented")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

type UserSaver interface {
	SaveUser(ctx context.Context, name, email, passHash string) (int64, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, fingerprint string, expiresAt time.Time) (int64, error)
	SessionByFingerprint(ctx context.Context, fingerprint string) (models.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	DeleteSessionByFingerprint(ctx context.Context, fingerprint string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.AuthEvent) error
}

// Auth coordinates the register/login/refresh/logout lifecycle. The
// crypto leaves (hasher, codec, secret generator) are pure; audit
// logging and event publishing happen only here.
type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	sessions    SessionStore
	events      EventPublisher
	hasher      *password.Hasher
	tokens      *jwt.Manager
	sessionTTL  time.Duration
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	sessions SessionStore,
	events EventPublisher,
	hasher *password.Hasher,
	tokens *jwt.Manager,
	sessionTTL time.Duration,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		sessions:    sessions,
		events:      events,
		hasher:      hasher,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
	}
}

// NormalizeEmail case-folds and trims an email so that lookups and the
// storage uniqueness constraint agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// * Register создает новый аккаунт. Сессия при регистрации не выдается.
func (a *Auth) Register(ctx context.Context, name, email, pass string) (int64, error) {
	const op = "auth.Register"

	email = NormalizeEmail(email)

	log := a.log.With(slog.String("op", op), slog.String("email", email))

	passHash, err := a.hasher.Hash(pass)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, strings.TrimSpace(name), email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			a.publish(ctx, "register", 0, email, false)
			return 0, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", id))
	a.publish(ctx, "register", id, email, true)

	return id, nil
}

// Login verifies credentials and, on success, returns a short-lived
// access token plus a fresh long-lived secret whose fingerprint is
// persisted as a session row. Unknown email and wrong password are
// deliberately indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, pass string) (accessToken, refreshSecret string, err error) {
	const op = "auth.Login"

	email = NormalizeEmail(email)

	log := a.log.With(slog.String("op", op), slog.String("email", email))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("login failed")
			a.publish(ctx, "login", 0, email, false)
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !a.hasher.Verify(pass, user.PassHash) {
		log.Warn("login failed")
		a.publish(ctx, "login", user.ID, email, false)
		return "", "", ErrInvalidCredentials
	}

	accessToken, err = a.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue access token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	refreshSecret, err = token.NewSecret()
	if err != nil {
		log.Error("failed to generate session secret", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = a.sessions.CreateSession(ctx, user.ID, token.Fingerprint(refreshSecret), time.Now().Add(a.sessionTTL))
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("session_secret", token.Mask(refreshSecret)),
	)
	a.publish(ctx, "login", user.ID, email, true)

	return accessToken, refreshSecret, nil
}

// Refresh exchanges a valid long-lived secret for a fresh access token.
// Expired sessions are deleted on read so a repeat attempt fails with
// "not found" rather than "expired". The secret itself is not rotated.
func (a *Auth) Refresh(ctx context.Context, refreshSecret string) (string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	if refreshSecret == "" {
		log.Warn("refresh without session secret")
		return "", ErrNoSession
	}

	session, err := a.sessions.SessionByFingerprint(ctx, token.Fingerprint(refreshSecret))
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("session not found", slog.String("session_secret", token.Mask(refreshSecret)))
			a.publish(ctx, "refresh", 0, "", false)
			return "", ErrSessionNotFound
		}

		log.Error("failed to look up session", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if session.IsExpired(time.Now()) {
		if err := a.sessions.DeleteSession(ctx, session.ID); err != nil {
			log.Error("failed to delete expired session", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, err)
		}

		log.Warn("session expired, deleted", slog.Int64("user_id", session.UserID))
		a.publish(ctx, "refresh", session.UserID, "", false)
		return "", ErrSessionExpired
	}

	// The owning account may have been removed since login; a session
	// must not outlive its user.
	user, err := a.usrProvider.UserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			if err := a.sessions.DeleteSession(ctx, session.ID); err != nil {
				log.Error("failed to delete orphaned session", sl.Err(err))
				return "", fmt.Errorf("%s: %w", op, err)
			}

			log.Warn("session user gone, session deleted", slog.Int64("user_id", session.UserID))
			a.publish(ctx, "refresh", session.UserID, "", false)
			return "", ErrSessionNotFound
		}

		log.Error("failed to load user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue access token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("access token refreshed", slog.Int64("user_id", user.ID))
	a.publish(ctx, "refresh", user.ID, user.Email, true)

	return accessToken, nil
}

// Logout deletes the session backing the presented secret. It is
// idempotent: an unknown or absent secret is still a successful logout.
func (a *Auth) Logout(ctx context.Context, refreshSecret string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if refreshSecret == "" {
		return nil
	}

	if err := a.sessions.DeleteSessionByFingerprint(ctx, token.Fingerprint(refreshSecret)); err != nil {
		log.Error("failed to delete session", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out", slog.String("session_secret", token.Mask(refreshSecret)))
	a.publish(ctx, "logout", 0, "", true)

	return nil
}

// publish sends an auth event to the broker. Delivery is best effort:
// a broker outage must not fail the auth operation itself.
func (a *Auth) publish(ctx context.Context, kind string, userID int64, email string, success bool) {
	if a.events == nil {
		return
	}

	event := models.AuthEvent{
		EventID: uuid.NewString(),
		Kind:    kind,
		UserID:  userID,
		Email:   email,
		Success: success,
		At:      time.Now().UTC(),
	}

	if err := a.events.Publish(ctx, event); err != nil {
		a.log.Warn("failed to publish auth event", slog.String("kind", kind), sl.Err(err))
	}
}
