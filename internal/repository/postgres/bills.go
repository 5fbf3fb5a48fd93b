package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"agent-api/internal/models"
)

type BillStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewBillStore(logger zerolog.Logger, pgPool *pgxpool.Pool) *BillStore {
	return &BillStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *BillStore) ListByUser(ctx context.Context, userID string) ([]models.DetectedBill, error) {
	const selectBillsQuery = `
SELECT id,
       title,
       amount,
       due_date,
       category,
       confidence,
       source,
       approved,
       created_at
FROM detected_bills
WHERE user_id = $1
`
	rows, err := s.pgPool.Query(
		ctx,
		selectBillsQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select detected bills")
		return nil, err
	}
	defer rows.Close()

	var bills []models.DetectedBill
	for rows.Next() {
		bill := models.DetectedBill{UserID: userID}
		err = rows.Scan(
			&bill.ID,
			&bill.Title,
			&bill.Amount,
			&bill.DueDate,
			&bill.Category,
			&bill.Confidence,
			&bill.Source,
			&bill.Approved,
			&bill.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan detected bill")
			return nil, err
		}
		bills = append(bills, bill)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return bills, nil
}

// InsertBatch writes all bills in one transaction so an aborted scan
// never leaves partial results behind.
func (s *BillStore) InsertBatch(ctx context.Context, bills []models.DetectedBill) error {
	if len(bills) == 0 {
		return nil
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertBillQuery = `
INSERT INTO detected_bills (id,
                            user_id,
                            title,
                            amount,
                            due_date,
                            category,
                            confidence,
                            source,
                            approved,
                            created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	for _, bill := range bills {
		_, err = tx.Exec(
			ctx,
			insertBillQuery,
			bill.ID,
			bill.UserID,
			bill.Title,
			bill.Amount,
			bill.DueDate,
			bill.Category,
			bill.Confidence,
			bill.Source,
			bill.Approved,
			bill.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("id", bill.ID).
				Msg("failed to insert detected bill")
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Int("count", len(bills)).
		Msg("inserted detected bills")
	return nil
}
