package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/apperrors"
	"github.com/kosarica/catalog-service/internal/database"
)

// Token purposes stored in action_tokens.
const (
	purposeVerifyEmail   = "verify_email"
	purposeResetPassword = "reset_password"
)

// Mailer delivers account emails. LogMailer is the default when no
// provider is configured.
type Mailer interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the would-be emails to the log instead of sending.
type LogMailer struct{}

func (LogMailer) SendVerification(ctx context.Context, email, token string) error {
	log.Info().Str("component", "mailer").Str("email", email).Str("token", token).Msg("verification email")
	return nil
}

func (LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	log.Info().Str("component", "mailer").Str("email", email).Str("token", token).Msg("password reset email")
	return nil
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service implements the account flows over one pool.
type Service struct {
	pool   *pgxpool.Pool
	jwt    *Manager
	mailer Mailer
	log    zerolog.Logger
}

// NewService creates the auth service. A nil mailer falls back to
// LogMailer.
func NewService(pool *pgxpool.Pool, jwt *Manager, mailer Mailer) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		pool:   pool,
		jwt:    jwt,
		mailer: mailer,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// JWT exposes the token manager for middleware wiring.
func (s *Service) JWT() *Manager { return s.jwt }

// Register creates a user and sends a verification email. A duplicate
// email yields a Conflict error.
func (s *Service) Register(ctx context.Context, email, password string, displayName *string) (*database.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user database.User
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, is_email_verified, created_at)
		VALUES ($1, $2, $3, false, NOW())
		RETURNING id, email, display_name, is_email_verified, created_at`,
		email, hash, displayName).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.IsEmailVerified, &user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, apperrors.New(apperrors.KindConflict, "email already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueActionToken(ctx, user.ID, purposeVerifyEmail, 48*time.Hour)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("failed to send verification email")
	}
	return &user, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var userID int64
	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`, email).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !CheckPassword(hash, password)) {
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return s.issuePair(ctx, userID)
}

// Refresh rotates a refresh token and issues a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var userID int64
	err := s.pool.QueryRow(ctx, `
		UPDATE refresh_tokens SET revoked = true
		WHERE token = $1 AND NOT revoked AND expires_at > NOW()
		RETURNING user_id`, refreshToken).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindUnauthorized, "refresh token is invalid or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issuePair(ctx, userID)
}

// Logout revokes a refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// VerifyEmail consumes a verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consumeActionToken(ctx, token, purposeVerifyEmail)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE users SET is_email_verified = true WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

// ForgotPassword sends a reset token if the email exists. It never
// reveals whether the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var userID int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := s.issueActionToken(ctx, userID, purposeResetPassword, 2*time.Hour)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, email, token); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("failed to send reset email")
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and
// revokes all refresh tokens of the user.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	userID, err := s.consumeActionToken(ctx, token, purposeResetPassword)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

// UserByID loads a user or returns NotFound.
func (s *Service) UserByID(ctx context.Context, id int64) (*database.User, error) {
	var user database.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, display_name, is_email_verified, created_at
		FROM users WHERE id = $1`, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.IsEmailVerified, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("user %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *Service) issuePair(ctx context.Context, userID int64) (*TokenPair, error) {
	access, err := s.jwt.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at, revoked)
		VALUES ($1, $2, NOW() + $3::interval, false)`,
		refresh, userID, s.jwt.RefreshTTL().String()); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

func (s *Service) issueActionToken(ctx context.Context, userID int64, purpose string, ttl time.Duration) (string, error) {
	token, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO action_tokens (token, user_id, purpose, expires_at, used)
		VALUES ($1, $2, $3, NOW() + $4::interval, false)`,
		token, userID, purpose, ttl.String()); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	return token, nil
}

func (s *Service) consumeActionToken(ctx context.Context, token, purpose string) (int64, error) {
	var userID int64
	err := s.pool.QueryRow(ctx, `
		UPDATE action_tokens SET used = true
		WHERE token = $1 AND purpose = $2 AND NOT used AND expires_at > NOW()
		RETURNING user_id`, token, purpose).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperrors.New(apperrors.KindNotFound, "token is invalid or expired")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume token: %w", err)
	}
	return userID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
