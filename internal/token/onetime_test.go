package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResetTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	tokenStr, err := m.IssueResetToken("jane", 24*time.Hour)
	assert.NoError(t, err)

	username, err := m.VerifyResetToken(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "jane", username)
}

func TestResetTokenExpired(t *testing.T) {
	m := newTestManager()

	tokenStr, err := m.IssueResetToken("jane", -time.Second)
	assert.NoError(t, err)

	_, err = m.VerifyResetToken(tokenStr)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestResetTokenRejectsOtherPurposes(t *testing.T) {
	m := newTestManager()

	confirm, err := m.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)
	_, err = m.VerifyResetToken(confirm)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := m.IssueAccessToken(uuid.New(), false, false, true)
	assert.NoError(t, err)
	_, err = m.VerifyResetToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	tokenStr, err := m.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)

	email, err := m.VerifyConfirmToken(tokenStr, time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, "jane@example.com", email)
}

func TestConfirmTokenMaxAge(t *testing.T) {
	m := newTestManager()

	tokenStr, err := m.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)

	// A zero-duration window means any token is already too old.
	_, err = m.VerifyConfirmToken(tokenStr, 0)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestConfirmTokenFailsClosed(t *testing.T) {
	m := newTestManager()
	other := NewManager("other-secret", time.Minute, time.Minute)

	forged, err := other.IssueConfirmToken("jane@example.com")
	assert.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{"forged signature", forged},
		{"garbage", "zzzz"},
		{"empty", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.VerifyConfirmToken(tc.token, time.Hour)
			assert.Error(t, err)
		})
	}
}
