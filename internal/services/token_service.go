package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"agent-api/internal/models"
)

const (
	stateTokenTTL = 10 * time.Minute

	reasonNotConnected   = "not_connected"
	reasonReauthRequired = "reauth_required"
	reasonRefreshFailed  = "refresh_failed"
)

// stateClaims is the signed OAuth state token. It replaces the usual
// base64-JSON state blob so the callback can trust the user ID and
// return path it receives.
type stateClaims struct {
	jwt.RegisteredClaims
	ReturnTo string `json:"return_to,omitempty"`
}

type tokenServiceImpl struct {
	logger        zerolog.Logger
	oauth         OAuthClient
	emailAuth     EmailAuthStore
	profiles      ProfileStore
	jwtIssuer     string
	jwtSigningKey []byte
	now           func() time.Time
}

func NewTokenService(
	logger zerolog.Logger,
	oauth OAuthClient,
	emailAuth EmailAuthStore,
	profiles ProfileStore,
	jwtIssuer string,
	jwtSigningKey []byte,
) TokenService {
	return &tokenServiceImpl{
		logger:        logger,
		oauth:         oauth,
		emailAuth:     emailAuth,
		profiles:      profiles,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: jwtSigningKey,
		now:           time.Now,
	}
}

func (s *tokenServiceImpl) ConsentURL(userID, returnTo string) (string, error) {
	state, err := s.signState(userID, returnTo)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sign state token")
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

func (s *tokenServiceImpl) Connect(ctx context.Context, state, code string) (string, string, error) {
	userID, returnTo, err := s.parseState(state)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to parse state token")
		return "", "", ErrInvalidState
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to exchange authorization code")
		return userID, returnTo, err
	}

	now := s.now()
	auth := &models.EmailAuth{
		UserID:       userID,
		Provider:     models.ProviderGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	authUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate email auth uuid")
		return userID, returnTo, err
	}
	auth.ID = authUUID.String()

	err = s.emailAuth.Upsert(ctx, auth)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to upsert email auth")
		return userID, returnTo, err
	}

	err = s.profiles.SetEmailScanPermission(ctx, userID, true)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to grant scan permission")
		return userID, returnTo, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("connected mail provider")
	return userID, returnTo, nil
}

func (s *tokenServiceImpl) EnsureValidToken(ctx context.Context, userID string) (string, error) {
	auth, err := s.emailAuth.GetByUser(ctx, userID, models.ProviderGoogle)
	if err != nil {
		return "", err
	}

	if !auth.Expired(s.now()) {
		return auth.AccessToken, nil
	}

	s.logger.Debug().
		Str("user_id", userID).
		Time("expires_at", auth.ExpiresAt).
		Msg("stored access token expired, refreshing")

	token, err := s.oauth.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		if strings.Contains(err.Error(), "invalid_grant") {
			return "", s.cleanupRevokedGrant(ctx, userID, err)
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to refresh access token")
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	err = s.emailAuth.UpdateAccessToken(ctx, auth.ID, token.AccessToken, token.Expiry)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to store refreshed token")
		return "", err
	}
	s.logger.Info().
		Str("user_id", userID).
		Time("expires_at", token.Expiry).
		Msg("refreshed access token")

	return token.AccessToken, nil
}

func (s *tokenServiceImpl) CheckConnection(ctx context.Context, userID string) ConnectionStatus {
	_, err := s.EnsureValidToken(ctx, userID)
	switch {
	case err == nil:
		return ConnectionStatus{Connected: true}
	case errors.Is(err, ErrMailNotConnected):
		return ConnectionStatus{Reason: reasonNotConnected}
	case errors.Is(err, ErrGrantRevoked):
		return ConnectionStatus{Reason: reasonReauthRequired}
	default:
		return ConnectionStatus{Reason: reasonRefreshFailed}
	}
}

// cleanupRevokedGrant handles an irrecoverable invalid_grant refresh
// failure: the credential row is deleted and the scanning permission is
// cleared so the user is forced back through consent.
func (s *tokenServiceImpl) cleanupRevokedGrant(ctx context.Context, userID string, cause error) error {
	s.logger.Warn().
		Err(cause).
		Str("user_id", userID).
		Msg("grant revoked, cleaning up stored credentials")

	err := s.emailAuth.DeleteByUser(ctx, userID, models.ProviderGoogle)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete email auth")
		return err
	}

	err = s.profiles.SetEmailScanPermission(ctx, userID, false)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to clear scan permission")
		return err
	}

	return ErrGrantRevoked
}

func (s *tokenServiceImpl) signState(userID, returnTo string) (string, error) {
	stateUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        stateUUID.String(),
			Issuer:    s.jwtIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		ReturnTo: returnTo,
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return signed, nil
}

func (s *tokenServiceImpl) parseState(state string) (string, string, error) {
	token, err := jwt.ParseWithClaims(
		state,
		&stateClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse state token: %w", err)
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || claims.Subject == "" {
		return "", "", fmt.Errorf("state token has no subject")
	}
	return claims.Subject, claims.ReturnTo, nil
}
