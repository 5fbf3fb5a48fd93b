package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"agent-api/internal/detect"
	"agent-api/internal/models"
)

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) ConsentURL(userID, returnTo string) (string, error) {
	args := m.Called(userID, returnTo)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) Connect(ctx context.Context, state, code string) (string, string, error) {
	args := m.Called(ctx, state, code)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) EnsureValidToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) CheckConnection(ctx context.Context, userID string) ConnectionStatus {
	args := m.Called(ctx, userID)
	return args.Get(0).(ConnectionStatus)
}

type mockMailFetcher struct {
	mock.Mock
}

func (m *mockMailFetcher) FetchBillCandidates(ctx context.Context, accessToken string, daysBack int, maxResults int64) ([]detect.Email, error) {
	args := m.Called(ctx, accessToken, daysBack, maxResults)
	if emails, ok := args.Get(0).([]detect.Email); ok {
		return emails, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOAuthClient struct {
	mock.Mock
}

func (m *mockOAuthClient) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *mockOAuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if token, ok := args.Get(0).(*oauth2.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOAuthClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	args := m.Called(ctx, refreshToken)
	if token, ok := args.Get(0).(*oauth2.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEmailAuthStore struct {
	mock.Mock
}

func (m *mockEmailAuthStore) GetByUser(ctx context.Context, userID, provider string) (*models.EmailAuth, error) {
	args := m.Called(ctx, userID, provider)
	if auth, ok := args.Get(0).(*models.EmailAuth); ok {
		return auth, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmailAuthStore) Upsert(ctx context.Context, auth *models.EmailAuth) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

func (m *mockEmailAuthStore) UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	args := m.Called(ctx, id, accessToken, expiresAt)
	return args.Error(0)
}

func (m *mockEmailAuthStore) DeleteByUser(ctx context.Context, userID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetEmailScanPermission(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProfileStore) SetEmailScanPermission(ctx context.Context, userID string, allowed bool) error {
	args := m.Called(ctx, userID, allowed)
	return args.Error(0)
}

type mockBillStore struct {
	mock.Mock
}

func (m *mockBillStore) ListByUser(ctx context.Context, userID string) ([]models.DetectedBill, error) {
	args := m.Called(ctx, userID)
	if bills, ok := args.Get(0).([]models.DetectedBill); ok {
		return bills, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBillStore) InsertBatch(ctx context.Context, bills []models.DetectedBill) error {
	args := m.Called(ctx, bills)
	return args.Error(0)
}
