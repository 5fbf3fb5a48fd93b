package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"agent-api/internal/models"
)

const tokenUserID = "0195e7a2-0000-7000-8000-000000000002"

type tokenServiceMocks struct {
	oauth     *mockOAuthClient
	emailAuth *mockEmailAuthStore
	profiles  *mockProfileStore
}

func newTokenServiceForTest(now func() time.Time) (*tokenServiceImpl, tokenServiceMocks) {
	mocks := tokenServiceMocks{
		oauth:     &mockOAuthClient{},
		emailAuth: &mockEmailAuthStore{},
		profiles:  &mockProfileStore{},
	}
	service := &tokenServiceImpl{
		logger:        zerolog.Nop(),
		oauth:         mocks.oauth,
		emailAuth:     mocks.emailAuth,
		profiles:      mocks.profiles,
		jwtIssuer:     "agent-api",
		jwtSigningKey: []byte("test-signing-key"),
		now:           now,
	}
	return service, mocks
}

func storedAuth(expiresAt time.Time) *models.EmailAuth {
	return &models.EmailAuth{
		ID:           "auth-row-id",
		UserID:       tokenUserID,
		Provider:     models.ProviderGoogle,
		AccessToken:  "stored-access-token",
		RefreshToken: "stored-refresh-token",
		ExpiresAt:    expiresAt,
	}
}

func TestTokenService_EnsureValidToken_NotConnected(t *testing.T) {
	service, mocks := newTokenServiceForTest(time.Now)
	mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(nil, ErrMailNotConnected)

	_, err := service.EnsureValidToken(context.Background(), tokenUserID)

	assert.ErrorIs(t, err, ErrMailNotConnected)
	mocks.oauth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestTokenService_EnsureValidToken_ReturnsStoredTokenWhileValid(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	service, mocks := newTokenServiceForTest(func() time.Time { return now })
	mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(storedAuth(now.Add(time.Hour)), nil)

	accessToken, err := service.EnsureValidToken(context.Background(), tokenUserID)

	require.NoError(t, err)
	assert.Equal(t, "stored-access-token", accessToken)
	mocks.oauth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	mocks.emailAuth.AssertNotCalled(t, "UpdateAccessToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_EnsureValidToken_RefreshesExpiredTokenOnce(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	service, mocks := newTokenServiceForTest(func() time.Time { return now })

	newExpiry := now.Add(time.Hour)
	mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(storedAuth(now.Add(-time.Minute)), nil)
	mocks.oauth.On("Refresh", mock.Anything, "stored-refresh-token").
		Return(&oauth2.Token{AccessToken: "fresh-access-token", Expiry: newExpiry}, nil)
	mocks.emailAuth.On("UpdateAccessToken", mock.Anything, "auth-row-id", "fresh-access-token", newExpiry).
		Return(nil)

	accessToken, err := service.EnsureValidToken(context.Background(), tokenUserID)

	require.NoError(t, err)
	assert.Equal(t, "fresh-access-token", accessToken)
	mocks.oauth.AssertNumberOfCalls(t, "Refresh", 1)
	mocks.emailAuth.AssertNumberOfCalls(t, "UpdateAccessToken", 1)
}

func TestTokenService_EnsureValidToken_RevokedGrantCleansUp(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	service, mocks := newTokenServiceForTest(func() time.Time { return now })

	mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(storedAuth(now.Add(-time.Minute)), nil)
	mocks.oauth.On("Refresh", mock.Anything, "stored-refresh-token").
		Return(nil, errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`))
	mocks.emailAuth.On("DeleteByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(nil)
	mocks.profiles.On("SetEmailScanPermission", mock.Anything, tokenUserID, false).
		Return(nil)

	_, err := service.EnsureValidToken(context.Background(), tokenUserID)

	assert.ErrorIs(t, err, ErrGrantRevoked)
	mocks.emailAuth.AssertCalled(t, "DeleteByUser", mock.Anything, tokenUserID, models.ProviderGoogle)
	mocks.profiles.AssertCalled(t, "SetEmailScanPermission", mock.Anything, tokenUserID, false)
	mocks.emailAuth.AssertNotCalled(t, "UpdateAccessToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_EnsureValidToken_TransientRefreshFailure(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	service, mocks := newTokenServiceForTest(func() time.Time { return now })

	mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
		Return(storedAuth(now.Add(-time.Minute)), nil)
	mocks.oauth.On("Refresh", mock.Anything, "stored-refresh-token").
		Return(nil, errors.New("oauth2: cannot fetch token: network timeout"))

	_, err := service.EnsureValidToken(context.Background(), tokenUserID)

	assert.ErrorIs(t, err, ErrRefreshFailed)
	mocks.emailAuth.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything, mock.Anything)
	mocks.profiles.AssertNotCalled(t, "SetEmailScanPermission",
		mock.Anything, mock.Anything, mock.Anything)
	mocks.emailAuth.AssertNotCalled(t, "UpdateAccessToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_ConsentFlowRoundTrip(t *testing.T) {
	service, mocks := newTokenServiceForTest(time.Now)

	var state string
	mocks.oauth.On("AuthCodeURL", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { state = args.String(0) }).
		Return("https://accounts.google.com/o/oauth2/auth?mocked=1")

	consentURL, err := service.ConsentURL(tokenUserID, "/agent")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?mocked=1", consentURL)
	require.NotEmpty(t, state)

	expiry := time.Now().Add(time.Hour)
	mocks.oauth.On("Exchange", mock.Anything, "auth-code-123").
		Return(&oauth2.Token{
			AccessToken:  "exchanged-access-token",
			RefreshToken: "exchanged-refresh-token",
			Expiry:       expiry,
		}, nil)

	var upserted *models.EmailAuth
	mocks.emailAuth.On("Upsert", mock.Anything, mock.AnythingOfType("*models.EmailAuth")).
		Run(func(args mock.Arguments) {
			upserted = args.Get(1).(*models.EmailAuth)
		}).
		Return(nil)
	mocks.profiles.On("SetEmailScanPermission", mock.Anything, tokenUserID, true).
		Return(nil)

	userID, returnTo, err := service.Connect(context.Background(), state, "auth-code-123")

	require.NoError(t, err)
	assert.Equal(t, tokenUserID, userID)
	assert.Equal(t, "/agent", returnTo)

	require.NotNil(t, upserted)
	assert.NotEmpty(t, upserted.ID)
	assert.Equal(t, tokenUserID, upserted.UserID)
	assert.Equal(t, models.ProviderGoogle, upserted.Provider)
	assert.Equal(t, "exchanged-access-token", upserted.AccessToken)
	assert.Equal(t, "exchanged-refresh-token", upserted.RefreshToken)
	assert.Equal(t, expiry, upserted.ExpiresAt)
}

func TestTokenService_Connect_InvalidState(t *testing.T) {
	service, mocks := newTokenServiceForTest(time.Now)

	_, _, err := service.Connect(context.Background(), "not-a-jwt", "auth-code-123")

	assert.ErrorIs(t, err, ErrInvalidState)
	mocks.oauth.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
}

func TestTokenService_Connect_ExpiredState(t *testing.T) {
	// Sign with a clock an hour in the past so the 10 minute state TTL
	// has already elapsed by parse time.
	service, mocks := newTokenServiceForTest(func() time.Time {
		return time.Now().Add(-time.Hour)
	})

	var state string
	mocks.oauth.On("AuthCodeURL", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { state = args.String(0) }).
		Return("unused")

	_, err := service.ConsentURL(tokenUserID, "/agent")
	require.NoError(t, err)

	_, _, err = service.Connect(context.Background(), state, "auth-code-123")

	assert.ErrorIs(t, err, ErrInvalidState)
	mocks.oauth.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
}

func TestTokenService_Connect_TamperedState(t *testing.T) {
	service, mocks := newTokenServiceForTest(time.Now)

	var state string
	mocks.oauth.On("AuthCodeURL", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { state = args.String(0) }).
		Return("unused")

	_, err := service.ConsentURL(tokenUserID, "/agent")
	require.NoError(t, err)

	other, _ := newTokenServiceForTest(time.Now)
	other.jwtSigningKey = []byte("another-signing-key")

	_, _, err = other.Connect(context.Background(), state, "auth-code-123")

	assert.ErrorIs(t, err, ErrInvalidState)
	mocks.oauth.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything)
}

func TestTokenService_CheckConnection(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		setup    func(mocks tokenServiceMocks)
		expected ConnectionStatus
	}{
		{
			name: "connected",
			setup: func(mocks tokenServiceMocks) {
				mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
					Return(storedAuth(now.Add(time.Hour)), nil)
			},
			expected: ConnectionStatus{Connected: true},
		},
		{
			name: "not connected",
			setup: func(mocks tokenServiceMocks) {
				mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
					Return(nil, ErrMailNotConnected)
			},
			expected: ConnectionStatus{Reason: "not_connected"},
		},
		{
			name: "revoked grant needs reauth",
			setup: func(mocks tokenServiceMocks) {
				mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
					Return(storedAuth(now.Add(-time.Minute)), nil)
				mocks.oauth.On("Refresh", mock.Anything, "stored-refresh-token").
					Return(nil, errors.New(`oauth2: "invalid_grant"`))
				mocks.emailAuth.On("DeleteByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
					Return(nil)
				mocks.profiles.On("SetEmailScanPermission", mock.Anything, tokenUserID, false).
					Return(nil)
			},
			expected: ConnectionStatus{Reason: "reauth_required"},
		},
		{
			name: "transient refresh failure",
			setup: func(mocks tokenServiceMocks) {
				mocks.emailAuth.On("GetByUser", mock.Anything, tokenUserID, models.ProviderGoogle).
					Return(storedAuth(now.Add(-time.Minute)), nil)
				mocks.oauth.On("Refresh", mock.Anything, "stored-refresh-token").
					Return(nil, errors.New("oauth2: cannot fetch token: network timeout"))
			},
			expected: ConnectionStatus{Reason: "refresh_failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := newTokenServiceForTest(func() time.Time { return now })
			tt.setup(mocks)

			status := service.CheckConnection(context.Background(), tokenUserID)

			assert.Equal(t, tt.expected, status)
		})
	}
}
