package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scissor-io/scissor/internal/mail"
	"github.com/scissor-io/scissor/internal/model"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func setupUserService(t *testing.T) (*UserService, *MockUserRepository, *MockURLRepository, *MockTokenRepository, *token.Manager, *recordingSender, *mail.Dispatcher) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	cfg := testConfig()
	users := new(MockUserRepository)
	urls := new(MockURLRepository)
	tokens := new(MockTokenRepository)
	manager := token.NewManager("test-secret", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sender := &recordingSender{}
	dispatcher := mail.NewDispatcher(sender, 1, 8)

	svc := NewUserService(users, urls, tokens, manager, dispatcher, cfg)
	return svc, users, urls, tokens, manager, sender, dispatcher
}

func TestGet_SelfAllowed(t *testing.T) {
	svc, users, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id}, nil)

	user, err := svc.Get(ctx, id, false, id)
	assert.NoError(t, err)
	assert.Equal(t, id, user.ID)
}

func TestGet_StrangerForbidden(t *testing.T) {
	svc, users, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.New(), false, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDelete_SuperAdminAlwaysBlocked(t *testing.T) {
	svc, users, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id, Email: superAdminEmail}, nil)

	err := svc.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrForbidden)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_RegularUser(t *testing.T) {
	svc, users, urls, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id, Email: "jane@example.com"}, nil)
	urls.On("ListByUser", ctx, id).Return([]model.URL{}, nil)
	users.On("Delete", ctx, id).Return(nil)

	assert.NoError(t, svc.Delete(ctx, id))
	users.AssertExpectations(t)
}

func TestDelete_RetiresLinksInsteadOfDroppingRows(t *testing.T) {
	svc, users, urls, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id, Email: "jane@example.com"}, nil)
	urls.On("ListByUser", ctx, id).Return([]model.URL{
		{Key: "live01", IsActive: true, UserID: id},
		{Key: "gone01", IsActive: false, UserID: id},
		{Key: "live02", IsActive: true, UserID: id},
	}, nil)
	// Only active links are retired; rows are never hard-deleted, so their
	// keys stay visible to KeyExists forever.
	urls.On("SoftDeleteByKey", ctx, "live01").Return(nil)
	urls.On("SoftDeleteByKey", ctx, "live02").Return(nil)
	users.On("Delete", ctx, id).Return(nil)

	assert.NoError(t, svc.Delete(ctx, id))
	urls.AssertExpectations(t)
	urls.AssertNotCalled(t, "SoftDeleteByKey", ctx, "gone01")
	users.AssertExpectations(t)
}

func TestRevokeAdmin_SuperAdminBlocked(t *testing.T) {
	svc, users, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id, Email: superAdminEmail, IsAdmin: true}, nil)

	err := svc.RevokeAdmin(ctx, id)
	assert.ErrorIs(t, err, ErrForbidden)
	users.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantAndRevokeAdmin(t *testing.T) {
	svc, users, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	users.On("GetByID", ctx, id).Return(&model.User{ID: id, Email: "jane@example.com"}, nil)
	users.On("SetAdmin", ctx, id, true).Return(nil).Once()
	users.On("SetAdmin", ctx, id, false).Return(nil).Once()

	assert.NoError(t, svc.GrantAdmin(ctx, id))
	assert.NoError(t, svc.RevokeAdmin(ctx, id))
	users.AssertExpectations(t)
}

func TestConfirmEmail_SetsConfirmedOn(t *testing.T) {
	svc, users, _, _, manager, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	tokenStr, err := manager.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)

	users.On("GetByEmail", ctx, "jane@example.com").
		Return(&model.User{ID: id, Email: "jane@example.com"}, nil)
	users.On("Confirm", ctx, id, mock.AnythingOfType("time.Time")).Return(nil)

	assert.NoError(t, svc.ConfirmEmail(ctx, tokenStr))
	users.AssertExpectations(t)
}

func TestConfirmEmail_Idempotent(t *testing.T) {
	svc, users, _, _, manager, _, _ := setupUserService(t)
	ctx := context.Background()

	tokenStr, err := manager.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)

	confirmedOn := time.Now().Add(-time.Hour)
	users.On("GetByEmail", ctx, "jane@example.com").Return(&model.User{
		ID:          uuid.New(),
		Email:       "jane@example.com",
		IsConfirmed: true,
		ConfirmedOn: &confirmedOn,
	}, nil)

	// Second confirmation succeeds without touching confirmed_on.
	assert.NoError(t, svc.ConfirmEmail(ctx, tokenStr))
	users.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmEmail_VanishedAccountFailsClosed(t *testing.T) {
	svc, users, _, _, manager, _, _ := setupUserService(t)
	ctx := context.Background()

	tokenStr, err := manager.IssueConfirmToken("gone@example.com")
	assert.NoError(t, err)

	users.On("GetByEmail", ctx, "gone@example.com").Return(nil, repository.ErrUserNotFound)

	err = svc.ConfirmEmail(ctx, tokenStr)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestConfirmEmail_BadTokenFailsClosed(t *testing.T) {
	svc, _, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()

	err := svc.ConfirmEmail(ctx, "garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRequestPasswordReset_SendsMail(t *testing.T) {
	svc, users, _, _, _, sender, dispatcher := setupUserService(t)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "jane@example.com").
		Return(&model.User{ID: uuid.New(), Email: "jane@example.com", Username: "jane"}, nil)

	assert.NoError(t, svc.RequestPasswordReset(ctx, "jane@example.com"))
	dispatcher.Close()
	assert.Equal(t, []string{"jane@example.com"}, sender.recipients())
}

func TestRequestPasswordReset_UnknownEmailSucceedsSilently(t *testing.T) {
	svc, users, _, _, _, sender, dispatcher := setupUserService(t)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	assert.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))
	dispatcher.Close()
	assert.Empty(t, sender.recipients())
}

func TestResetPassword_HappyPath(t *testing.T) {
	svc, users, _, tokens, manager, _, _ := setupUserService(t)
	ctx := context.Background()
	id := uuid.New()

	oldHash, _ := HashPassword("old-password")
	tokenStr, err := manager.IssueResetToken("jane", 24*time.Hour)
	assert.NoError(t, err)

	tokens.On("IsResetTokenUsed", ctx, tokenStr).Return(false, nil)
	users.On("GetByUsername", ctx, "jane").
		Return(&model.User{ID: id, Username: "jane", PasswordHash: oldHash}, nil)
	users.On("UpdatePassword", ctx, id, mock.AnythingOfType("string")).Return(nil)
	tokens.On("MarkResetTokenUsed", ctx, tokenStr).Return(nil)

	err = svc.ResetPassword(ctx, tokenStr, "new-password", "new-password")
	assert.NoError(t, err)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestResetPassword_SingleUse(t *testing.T) {
	svc, _, _, tokens, manager, _, _ := setupUserService(t)
	ctx := context.Background()

	tokenStr, err := manager.IssueResetToken("jane", 24*time.Hour)
	assert.NoError(t, err)

	// Consumed earlier: rejected even though the TTL has not run out.
	tokens.On("IsResetTokenUsed", ctx, tokenStr).Return(true, nil)

	err = svc.ResetPassword(ctx, tokenStr, "new-password", "new-password")
	assert.ErrorIs(t, err, ErrResetTokenUsed)
}

func TestResetPassword_Mismatch(t *testing.T) {
	svc, _, _, _, _, _, _ := setupUserService(t)
	ctx := context.Background()

	err := svc.ResetPassword(ctx, "whatever", "new-password", "other-password")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestResetPassword_SamePasswordRejected(t *testing.T) {
	svc, users, _, tokens, manager, _, _ := setupUserService(t)
	ctx := context.Background()

	hash, _ := HashPassword("password")
	tokenStr, err := manager.IssueResetToken("jane", 24*time.Hour)
	assert.NoError(t, err)

	tokens.On("IsResetTokenUsed", ctx, tokenStr).Return(false, nil)
	users.On("GetByUsername", ctx, "jane").
		Return(&model.User{ID: uuid.New(), Username: "jane", PasswordHash: hash}, nil)

	err = svc.ResetPassword(ctx, tokenStr, "password", "password")
	assert.ErrorIs(t, err, ErrSamePassword)
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, _, _, _, manager, _, _ := setupUserService(t)
	ctx := context.Background()

	tokenStr, err := manager.IssueResetToken("jane", -time.Second)
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, tokenStr, "new-password", "new-password")
	assert.ErrorIs(t, err, token.ErrExpiredToken)
}
