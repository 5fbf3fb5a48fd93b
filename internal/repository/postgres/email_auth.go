// Package postgres implements the store interfaces consumed by the
// scan pipeline on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"agent-api/internal/models"
	"agent-api/internal/services"
)

type EmailAuthStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewEmailAuthStore(logger zerolog.Logger, pgPool *pgxpool.Pool) *EmailAuthStore {
	return &EmailAuthStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *EmailAuthStore) GetByUser(ctx context.Context, userID, provider string) (*models.EmailAuth, error) {
	auth := &models.EmailAuth{
		UserID:   userID,
		Provider: provider,
	}

	const selectEmailAuthQuery = `
SELECT id,
       access_token,
       refresh_token,
       expires_at,
       created_at,
       updated_at
FROM email_auth
WHERE user_id = $1 AND
      provider = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectEmailAuthQuery,
		auth.UserID,
		auth.Provider,
	).Scan(
		&auth.ID,
		&auth.AccessToken,
		&auth.RefreshToken,
		&auth.ExpiresAt,
		&auth.CreatedAt,
		&auth.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("user_id", userID).
				Msg("email auth not found")
			return nil, services.ErrMailNotConnected
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select email auth")
		return nil, err
	}
	return auth, nil
}

func (s *EmailAuthStore) Upsert(ctx context.Context, auth *models.EmailAuth) error {
	const upsertEmailAuthQuery = `
INSERT INTO email_auth (id,
                        user_id,
                        provider,
                        access_token,
                        refresh_token,
                        expires_at,
                        created_at,
                        updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, provider) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(
		ctx,
		upsertEmailAuthQuery,
		auth.ID,
		auth.UserID,
		auth.Provider,
		auth.AccessToken,
		auth.RefreshToken,
		auth.ExpiresAt,
		auth.CreatedAt,
		auth.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", auth.UserID).
			Msg("failed to upsert email auth")
		return err
	}
	s.logger.Debug().
		Str("user_id", auth.UserID).
		Msg("upserted email auth")
	return nil
}

func (s *EmailAuthStore) UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	const updateAccessTokenQuery = `
UPDATE email_auth
SET access_token = $1,
    expires_at = $2,
    updated_at = $3
WHERE id = $4
`
	_, err := s.pgPool.Exec(
		ctx,
		updateAccessTokenQuery,
		accessToken,
		expiresAt,
		time.Now(),
		id,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("id", id).
			Msg("failed to update access token")
		return err
	}
	s.logger.Debug().
		Str("id", id).
		Time("expires_at", expiresAt).
		Msg("updated access token")
	return nil
}

func (s *EmailAuthStore) DeleteByUser(ctx context.Context, userID, provider string) error {
	const deleteEmailAuthQuery = `
DELETE FROM email_auth
       WHERE user_id = $1 AND
             provider = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteEmailAuthQuery,
		userID,
		provider,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete email auth")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted email auth")
	return nil
}
