// Package auth implements registration, credential login, Google sign-in and
// password management.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/token"
	"github.com/tasknest/backend/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// GoogleVerifier validates a Google ID token and returns its verified email
// claim. Implementations must fail, not hang, on network errors.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (email string, err error)
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	google   GoogleVerifier
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	google GoogleVerifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		google:   google,
		logger:   logger,
	}
}

// Register creates a user with a bcrypt-hashed password. A duplicate email
// yields domain.ErrEmailTaken; the check and insert are a single atomic
// insert against the unique index.
func (uc *UseCase) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return domain.NewError(domain.ErrCodeInvalid, "password too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return nil
}

// Login verifies credentials and issues a bearer token. Unknown email, a
// password-less Google account and a wrong password all produce the same
// domain.ErrInvalidCredentials.
func (uc *UseCase) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if !user.HasPassword() {
		return "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	return uc.issueToken(ctx, user.ID)
}

// LoginWithGoogle verifies a Google ID token, creates the user on first
// sign-in and issues a bearer token. Every verification failure collapses to
// domain.ErrGoogleAuthFailed.
func (uc *UseCase) LoginWithGoogle(ctx context.Context, idToken string) (string, error) {
	if uc.google == nil {
		return "", domain.ErrGoogleAuthFailed
	}

	email, err := uc.google.Verify(ctx, idToken)
	if err != nil {
		uc.logger.Warn("google token verification failed", zap.Error(err))
		return "", domain.ErrGoogleAuthFailed
	}
	email = normalizeEmail(email)

	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{Email: email, Google: true}
		if createErr := uc.users.Create(ctx, user); createErr != nil {
			// Lost a race with a concurrent first sign-in; the record exists now.
			if !errors.Is(createErr, domain.ErrEmailTaken) {
				return "", createErr
			}
			if user, err = uc.users.GetByEmail(ctx, email); err != nil {
				return "", err
			}
		} else {
			uc.logger.Info("user auto-created from google sign-in", zap.String("user_id", user.ID))
		}
	} else if err != nil {
		return "", err
	}

	return uc.issueToken(ctx, user.ID)
}

// SetPassword lets a user set or change their local password. Accounts that
// already have one must present it; Google-created accounts without a
// password may set their first one directly.
func (uc *UseCase) SetPassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.NewError(domain.ErrCodeInvalid, "password too short")
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
			return domain.ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return uc.users.UpdatePassword(ctx, userID, string(hash))
}

// Logout revokes the bearer token by deleting its session mirror. The JWT
// itself stays cryptographically valid until expiry, but the middleware
// rejects it once the session is gone.
func (uc *UseCase) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return domain.ErrInvalidPayload
	}
	return uc.sessions.Delete(ctx, tokenID)
}

func (uc *UseCase) issueToken(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	signed, tokenID, err := uc.tokens.Issue(userID, now)
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		ID:        tokenID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.tokens.Lifetime()),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		// The middleware checks the session mirror, so a token issued
		// without one would be rejected on its first use.
		uc.logger.Error("failed to save session", zap.Error(err))
		return "", err
	}

	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return domain.NewError(domain.ErrCodeInvalid, "invalid email")
	}
	return nil
}
