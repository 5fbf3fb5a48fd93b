package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type ProfileStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewProfileStore(logger zerolog.Logger, pgPool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *ProfileStore) GetEmailScanPermission(ctx context.Context, userID string) (bool, error) {
	const selectPermissionQuery = `
SELECT email_scan_permission
FROM profiles WHERE user_id = $1
`
	var allowed bool
	err := s.pgPool.QueryRow(
		ctx,
		selectPermissionQuery,
		userID,
	).Scan(&allowed)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select scan permission")
		return false, err
	}
	return allowed, nil
}

func (s *ProfileStore) SetEmailScanPermission(ctx context.Context, userID string, allowed bool) error {
	const updatePermissionQuery = `
UPDATE profiles
SET email_scan_permission = $1,
    updated_at = $2
WHERE user_id = $3
`
	_, err := s.pgPool.Exec(
		ctx,
		updatePermissionQuery,
		allowed,
		time.Now(),
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Bool("allowed", allowed).
			Msg("failed to update scan permission")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Bool("allowed", allowed).
		Msg("updated scan permission")
	return nil
}
