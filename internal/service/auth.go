package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/spendtrack/internal/auth"
	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/event"
	"github.com/ledgerline/spendtrack/internal/repository"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 10

// AuthService implements registration, login, and the refresh session
// lifecycle. Refresh tokens are single-use: each refresh rotates the
// session row under a new jti.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *auth.TokenManager
	producer    *event.Producer
	logger      *slog.Logger
	sessionTTL  time.Duration
	bcryptCost  int
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens *auth.TokenManager,
	producer *event.Producer,
	logger *slog.Logger,
	sessionTTL time.Duration,
	bcryptCost int,
) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		producer:    producer,
		logger:      logger,
		sessionTTL:  sessionTTL,
		bcryptCost:  bcryptCost,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	TwoFA     bool
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// SessionOutput carries a token pair together with the expiry of the
// session row backing the refresh token, used to set the cookie lifetime.
type SessionOutput struct {
	User             *domain.User
	Tokens           *domain.TokenPair
	SessionExpiresAt time.Time
}

// Register creates a new user account with a bcrypt-hashed password.
// Registration does not log the user in; clients follow up with Login.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.FirstName + " " + input.LastName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Phone:        input.Phone,
		TwoFAEnabled: input.TwoFA,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user and opens a new refresh session. Unknown
// emails and wrong passwords produce the same error so accounts cannot
// be enumerated.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*SessionOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	out, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return out, nil
}

// Refresh rotates a refresh session: it validates the presented token,
// checks the backing session row, then replaces the row under a fresh jti.
// The old refresh token is unusable afterwards.
//
// The lookup and delete are two separate statements, so two concurrent
// refreshes of the same token can both pass the lookup; the loser of the
// race ends up holding a token whose session row no longer exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*SessionOutput, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		// Bad signature and expired token alike: the bearer proved nothing.
		return nil, apperrors.Forbidden("invalid refresh token")
	}

	session, err := s.sessionRepo.Get(ctx, claims.UserID, claims.JTI())
	if err != nil {
		return nil, apperrors.Unauthorized("session not found")
	}

	now := time.Now().UTC()
	if session.Revoked {
		return nil, apperrors.Unauthorized("session revoked")
	}
	if session.Expired(now) {
		return nil, apperrors.Unauthorized("session expired")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for refresh: %w", err)
	}

	out, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	// The rotation only counts once the old row is gone; otherwise both the
	// old and the new refresh token would stay valid. The orphaned new row
	// is harmless and gets reaped with the other expired sessions.
	if err := s.sessionRepo.Delete(ctx, claims.UserID, claims.JTI()); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete rotated session",
			slog.String("user_id", claims.UserID),
			slog.String("jti", claims.JTI()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("delete rotated session: %w", err)
	}

	s.logger.InfoContext(ctx, "session rotated",
		slog.String("user_id", user.ID),
	)

	return out, nil
}

// Logout soft-revokes the session behind the presented refresh token.
// A missing or invalid token is not an error: logout always succeeds
// from the client's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return
	}

	if err := s.sessionRepo.Revoke(ctx, claims.UserID, claims.JTI()); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke session on logout",
			slog.String("user_id", claims.UserID),
			slog.String("jti", claims.JTI()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", claims.UserID),
	)
}

// VerifyAccess validates an access token for the HTTP auth middleware.
func (s *AuthService) VerifyAccess(token string) (*auth.Claims, error) {
	return s.tokens.VerifyAccess(token)
}

// PurgeExpiredSessions deletes session rows whose expiry has passed,
// including rows orphaned by interrupted rotations. Run periodically.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.sessionRepo.DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "purged expired sessions",
			slog.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

// openSession mints a fresh jti, signs a token pair, and stores the
// backing session row.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*SessionOutput, error) {
	jti := auth.NewJTI()

	access, refresh, err := s.tokens.GeneratePair(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, jti)
	if err != nil {
		return nil, fmt.Errorf("generate token pair: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		JTI:       jti,
		Revoked:   false,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &SessionOutput{
		User:             user,
		Tokens:           &domain.TokenPair{AccessToken: access, RefreshToken: refresh},
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}
