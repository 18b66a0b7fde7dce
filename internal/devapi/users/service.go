package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/huntlog/internal/common"
	"github.com/dmitrijs2005/huntlog/internal/devapi/auth"
	"github.com/dmitrijs2005/huntlog/internal/devapi/config"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidOneTimeToken = errors.New("invalid or expired token")
	ErrAlreadyVerified     = errors.New("email already verified")
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100
	minUsernameLength = 3
	maxUsernameLength = 50
)

// Mailer delivers one-time tokens. devapi has no mail server; LogMailer
// writes them to the log instead.
type Mailer interface {
	Send(ctx context.Context, kind TokenKind, email, token string) error
}

type LogMailer struct {
	Logger logging.Logger
}

func (m LogMailer) Send(ctx context.Context, kind TokenKind, email, token string) error {
	m.Logger.Info(ctx, "one-time token issued", "kind", kind, "email", email, "token", token)
	return nil
}

// Service implements the account operations behind the auth endpoints.
type Service struct {
	repo                         Repository
	tokens                       TokenRepository
	mailer                       Mailer
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	oneTimeTokenValidityDuration time.Duration
	hashCost                     int
	now                          func() time.Time
}

func NewService(repo Repository, tokens TokenRepository, mailer Mailer, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		tokens:                       tokens,
		mailer:                       mailer,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		oneTimeTokenValidityDuration: cfg.OneTimeTokenValidityDuration,
		hashCost:                     bcrypt.DefaultCost,
		now:                          time.Now,
	}
}

func validatePassword(password string) error {
	return validation.Validate(password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength))
}

// Register creates an unverified account and sends a verification token.
func (s *Service) Register(ctx context.Context, email, username, password string) (*User, error) {
	if err := (validation.Errors{
		"email":    validation.Validate(email, validation.Required, is.Email),
		"username": validation.Validate(username, validation.Required, validation.Length(minUsernameLength, maxUsernameLength)),
		"password": validatePassword(password),
	}).Filter(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, &User{
		Email:        normalizeEmail(email),
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{"user"},
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.issueOneTimeToken(ctx, u, TokenVerifyEmail); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and returns a new token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// RefreshToken mints a new access token. The refresh token stays valid
// until it expires or the user logs out.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	t, err := s.tokens.Find(ctx, refreshToken)
	if err != nil || t.Kind != TokenRefresh {
		return "", common.ErrInvalidToken
	}
	if t.Expires.Before(s.now()) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return "", common.ErrRefreshTokenExpired
	}
	return s.generateAccessToken(t.UserID)
}

// Authenticate resolves an access token to a user id.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	return auth.GetUserIDFromToken(accessToken, s.jwtSecret)
}

func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// Logout revokes every refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.tokens.DeleteForUser(ctx, userID, TokenRefresh)
}

// ForgotPassword sends a reset token if the email is known. Unknown emails
// are not reported so the endpoint cannot be used to probe accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := (validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
	}).Filter(); err != nil {
		return err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset requested for unknown email", "email", email)
			return nil
		}
		return common.ErrorInternal
	}
	return s.issueOneTimeToken(ctx, u, TokenPasswordReset)
}

// ResetPassword consumes a reset token and sets a new password. Existing
// sessions are revoked.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := (validation.Errors{
		"token":        validation.Validate(token, validation.Required),
		"new_password": validatePassword(newPassword),
	}).Filter(); err != nil {
		return err
	}

	u, err := s.consumeOneTimeToken(ctx, token, TokenPasswordReset)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, u, newPassword); err != nil {
		return err
	}
	return s.tokens.DeleteForUser(ctx, u.ID, TokenRefresh)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if err := (validation.Errors{
		"token": validation.Validate(token, validation.Required),
	}).Filter(); err != nil {
		return err
	}

	u, err := s.consumeOneTimeToken(ctx, token, TokenVerifyEmail)
	if err != nil {
		return err
	}
	u.EmailVerified = true
	return s.repo.Update(ctx, u)
}

// ResendVerification replaces any outstanding verification token.
func (s *Service) ResendVerification(ctx context.Context, userID int64) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}
	if err := s.tokens.DeleteForUser(ctx, u.ID, TokenVerifyEmail); err != nil {
		return err
	}
	return s.issueOneTimeToken(ctx, u, TokenVerifyEmail)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if err := (validation.Errors{
		"currentPassword": validation.Validate(currentPassword, validation.Required),
		"newPassword":     validatePassword(newPassword),
	}).Filter(); err != nil {
		return err
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(currentPassword)) != nil {
		return validation.Errors{"currentPassword": errors.New("is incorrect")}
	}
	return s.setPassword(ctx, u, newPassword)
}

// --- helpers below ---

func (s *Service) setPassword(ctx context.Context, u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return s.repo.Update(ctx, u)
}

func (s *Service) issueOneTimeToken(ctx context.Context, u *User, kind TokenKind) error {
	token := uuid.NewString()
	if err := s.tokens.Create(ctx, token, Token{Kind: kind, UserID: u.ID, Expires: s.now().Add(s.oneTimeTokenValidityDuration)}); err != nil {
		return common.ErrorInternal
	}
	return s.mailer.Send(ctx, kind, u.Email, token)
}

func (s *Service) consumeOneTimeToken(ctx context.Context, token string, kind TokenKind) (*User, error) {
	t, err := s.tokens.Find(ctx, token)
	if err != nil || t.Kind != kind {
		return nil, ErrInvalidOneTimeToken
	}
	_ = s.tokens.Delete(ctx, token)
	if t.Expires.Before(s.now()) {
		return nil, ErrInvalidOneTimeToken
	}
	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, ErrInvalidOneTimeToken
	}
	return u, nil
}

func (s *Service) generateAccessToken(userID int64) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *Service) generateTokenPair(ctx context.Context, userID int64) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.tokens.Create(ctx, refresh, Token{Kind: TokenRefresh, UserID: userID, Expires: s.now().Add(s.refreshTokenValidityDuration)}); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
