package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	config "github.com/scissor-io/scissor/config"
	"github.com/scissor-io/scissor/internal/mail"
	"github.com/scissor-io/scissor/internal/model"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/token"
	"go.uber.org/zap"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrSamePassword     = errors.New("new password must differ from the current one")
	ErrResetTokenUsed   = errors.New("reset token already used")
)

type UserService struct {
	users   repository.UserRepository
	urls    repository.URLRepository
	tokens  repository.TokenRepository
	manager *token.Manager
	mailer  *mail.Dispatcher
	cfg     *config.Config
	logger  *zap.Logger
}

func NewUserService(
	users repository.UserRepository,
	urls repository.URLRepository,
	tokens repository.TokenRepository,
	manager *token.Manager,
	mailer *mail.Dispatcher,
	cfg *config.Config,
) *UserService {
	return &UserService{
		users:   users,
		urls:    urls,
		tokens:  tokens,
		manager: manager,
		mailer:  mailer,
		cfg:     cfg,
		logger:  zap.L().With(zap.String("component", "UserService")),
	}
}

// List returns every account. The route is admin-gated.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Get returns an account. Admins may fetch anyone; everyone else only
// themselves.
func (s *UserService) Get(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, id uuid.UUID) (*model.User, error) {
	if !callerIsAdmin && callerID != id {
		return nil, ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// Delete removes an account. The designated super-admin account can never
// be deleted, regardless of who asks. The account's links are soft-deleted
// first: the rows stay so their keys are never handed out again.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Email == s.cfg.SuperAdminEmail {
		return ErrForbidden
	}

	links, err := s.urls.ListByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, link := range links {
		if !link.IsActive {
			continue
		}
		if err := s.urls.SoftDeleteByKey(ctx, link.Key); err != nil &&
			!errors.Is(err, repository.ErrURLNotFound) {
			return err
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted",
		zap.String("username", user.Username),
		zap.Int("links_retired", len(links)),
	)
	return nil
}

// GrantAdmin gives the account admin privileges. The route is super-admin
// gated.
func (s *UserService) GrantAdmin(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetAdmin(ctx, id, true)
}

// RevokeAdmin strips admin privileges. Revoking them from the super-admin
// account is never allowed.
func (s *UserService) RevokeAdmin(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Email == s.cfg.SuperAdminEmail {
		return ErrForbidden
	}
	return s.users.SetAdmin(ctx, id, false)
}

// SetPaid toggles the paid flag. The route is admin-gated.
func (s *UserService) SetPaid(ctx context.Context, id uuid.UUID, paid bool) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetPaid(ctx, id, paid)
}

// URLs returns the account's link history.
func (s *UserService) URLs(ctx context.Context, id uuid.UUID) ([]model.URL, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.urls.ListByUser(ctx, id)
}

// ConfirmEmail activates the account bound to a confirmation token.
// Confirming an already-confirmed account is idempotent: it succeeds
// without touching confirmed_on.
func (s *UserService) ConfirmEmail(ctx context.Context, tokenStr string) error {
	email, err := s.manager.VerifyConfirmToken(tokenStr, s.cfg.ConfirmMaxAge)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// A valid token for a vanished account is still a dead token, not
		// an invitation to probe which emails exist.
		if errors.Is(err, repository.ErrUserNotFound) {
			return token.ErrInvalidToken
		}
		return err
	}
	if user.IsConfirmed {
		return nil
	}

	if err := s.users.Confirm(ctx, user.ID, time.Now()); err != nil {
		return err
	}
	s.logger.Info("account confirmed", zap.String("username", user.Username))
	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link in the
// background. Unknown emails succeed silently so the endpoint does not leak
// which addresses exist. RateGate throttles the route before this runs.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	resetToken, err := s.manager.IssueResetToken(user.Username, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	s.mailer.Enqueue(user.Email, "Reset your Scissor password",
		fmt.Sprintf("A password reset was requested for your account.\n\n%s/user/reset_password/%s\n\nThe link expires in %s. Ignore this mail if you did not ask for it.",
			s.cfg.BaseURL, resetToken, s.cfg.ResetTokenTTL))

	s.logger.Info("password reset requested", zap.String("username", user.Username))
	return nil
}

// ResetPassword changes the password bound to a reset token. A token is
// single-use: once consumed it is rejected even inside its TTL.
func (s *UserService) ResetPassword(ctx context.Context, tokenStr, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	username, err := s.manager.VerifyResetToken(tokenStr)
	if err != nil {
		return err
	}

	used, err := s.tokens.IsResetTokenUsed(ctx, tokenStr)
	if err != nil {
		return err
	}
	if used {
		return ErrResetTokenUsed
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if CheckPassword(newPassword, user.PasswordHash) {
		return ErrSamePassword
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}
	if err := s.tokens.MarkResetTokenUsed(ctx, tokenStr); err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("username", user.Username))
	return nil
}
