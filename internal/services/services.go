package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"agent-api/internal/detect"
	"agent-api/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrMailNotConnected = errors.New("mail provider not connected")
	ErrGrantRevoked     = errors.New("mail provider grant revoked")
	ErrRefreshFailed    = errors.New("mail provider token refresh failed")
	ErrScanNotPermitted = errors.New("email scanning not permitted")
	ErrInvalidState     = errors.New("invalid oauth state token")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID, creates the
	// user's dashboard profile and a session with the given
	// fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// ScanService runs the bill-detection pipeline end to end.
type ScanService interface {
	// ScanEmails fetches recent bill-keyword messages from the user's
	// mailbox, classifies them and persists the deduplicated candidates
	// sorted by confidence.
	//
	// It returns ErrScanNotPermitted when the profile gate is off,
	// ErrMailNotConnected when no credentials are stored,
	// ErrGrantRevoked after a revoked grant was cleaned up and
	// ErrRefreshFailed on a transient refresh failure. Provider errors
	// during listing or fetching abort the scan; nothing is persisted
	// in that case.
	ScanEmails(ctx context.Context, userID string) ([]models.DetectedBill, error)
}

// TokenService owns the mail provider OAuth credential lifecycle:
// consent URL, code exchange, storage and single-refresh semantics.
type TokenService interface {
	// ConsentURL returns the provider consent screen URL carrying a
	// signed, time-limited state token for the user.
	ConsentURL(userID, returnTo string) (string, error)

	// Connect finishes the consent flow: it verifies the state token,
	// exchanges the code, upserts the credential row and grants the
	// scanning permission. It returns the user ID and return path
	// recovered from the state token.
	Connect(ctx context.Context, state, code string) (userID, returnTo string, err error)

	// EnsureValidToken returns a usable access token for the user's
	// stored grant, refreshing it at most once if expired. A refresh
	// failure whose text contains "invalid_grant" deletes the
	// credential row, clears the scanning permission and returns
	// ErrGrantRevoked; any other refresh failure returns
	// ErrRefreshFailed and changes nothing.
	EnsureValidToken(ctx context.Context, userID string) (string, error)

	// CheckConnection classifies the stored grant for the UI.
	CheckConnection(ctx context.Context, userID string) ConnectionStatus
}

// ConnectionStatus is the answer to a connection check. Reason is empty
// when connected, otherwise one of not_connected, reauth_required or
// refresh_failed.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Reason    string `json:"reason,omitempty"`
}

// MailFetcher lists and fetches candidate bill messages for a mailbox.
type MailFetcher interface {
	FetchBillCandidates(ctx context.Context, accessToken string, daysBack int, maxResults int64) ([]detect.Email, error)
}

// OAuthClient talks to the provider's OAuth endpoint.
type OAuthClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// EmailAuthStore persists per-user provider credentials.
type EmailAuthStore interface {
	// GetByUser returns ErrMailNotConnected when no row exists.
	GetByUser(ctx context.Context, userID, provider string) (*models.EmailAuth, error)
	Upsert(ctx context.Context, auth *models.EmailAuth) error
	UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error
	DeleteByUser(ctx context.Context, userID, provider string) error
}

// ProfileStore reads and writes the per-user scanning permission gate.
type ProfileStore interface {
	GetEmailScanPermission(ctx context.Context, userID string) (bool, error)
	SetEmailScanPermission(ctx context.Context, userID string, allowed bool) error
}

// BillStore persists detected bill candidates.
type BillStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.DetectedBill, error)
	InsertBatch(ctx context.Context, bills []models.DetectedBill) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}
