package service

import (
	"context"
	"errors"
	"fmt"

	config "github.com/scissor-io/scissor/config"
	"github.com/scissor-io/scissor/internal/mail"
	"github.com/scissor-io/scissor/internal/metrics"
	"github.com/scissor-io/scissor/internal/model"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/token"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenPair is what a credential login hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService struct {
	users   repository.UserRepository
	tokens  repository.TokenRepository
	manager *token.Manager
	mailer  *mail.Dispatcher
	cfg     *config.Config
	logger  *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	manager *token.Manager,
	mailer *mail.Dispatcher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		manager: manager,
		mailer:  mailer,
		cfg:     cfg,
		logger:  zap.L().With(zap.String("component", "AuthService")),
	}
}

// IsSuperAdmin derives super-admin status: exactly one account, whose email
// matches the configured value, holds it. It is never stored.
func (s *AuthService) IsSuperAdmin(user *model.User) bool {
	return user.Email == s.cfg.SuperAdminEmail
}

// Signup registers a new, unconfirmed account and dispatches the
// confirmation mail in the background.
func (s *AuthService) Signup(ctx context.Context, username, email, password, firstName, lastName string) (*model.User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	confirmToken, err := s.manager.IssueConfirmToken(user.Email)
	if err != nil {
		s.logger.Error("failed to issue confirmation token", zap.Error(err))
	} else {
		s.mailer.Enqueue(user.Email, "Confirm your Scissor account",
			fmt.Sprintf("Welcome to Scissor! Confirm your account:\n\n%s/user/confirm/%s\n\nThe link expires in %s.",
				s.cfg.BaseURL, confirmToken, s.cfg.ConfirmMaxAge))
	}

	metrics.SignupTotal.Inc()
	s.logger.Info("user registered", zap.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and issues a fresh access token plus a refresh
// token. The super_admin claim is set only for the designated account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.LoginTotal.WithLabelValues("failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(password, user.PasswordHash) {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	superAdmin := s.IsSuperAdmin(user)
	isAdmin := user.IsAdmin || superAdmin

	accessToken, err := s.manager.IssueAccessToken(user.ID, isAdmin, superAdmin, true)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.manager.IssueRefreshToken(user.ID, isAdmin)
	if err != nil {
		return nil, err
	}

	metrics.LoginTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", zap.String("username", user.Username))
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout revokes the access token's jti. Freshness is enforced at the
// route, not here: only a token minted from a credential login may log out.
func (s *AuthService) Logout(ctx context.Context, jti string) error {
	return s.tokens.Revoke(ctx, jti)
}

// Refresh exchanges a valid, non-revoked refresh token for a new non-fresh
// access token carrying the account's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.manager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", token.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", token.ErrInvalidToken
		}
		return "", err
	}

	superAdmin := s.IsSuperAdmin(user)
	return s.manager.IssueAccessToken(user.ID, user.IsAdmin || superAdmin, superAdmin, false)
}
