package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"agent-api/internal/detect"
	"agent-api/internal/models"
)

type scanServiceImpl struct {
	logger     zerolog.Logger
	tokens     TokenService
	mail       MailFetcher
	bills      BillStore
	profiles   ProfileStore
	daysBack   int
	maxResults int64
	now        func() time.Time
}

func NewScanService(
	logger zerolog.Logger,
	tokens TokenService,
	mail MailFetcher,
	bills BillStore,
	profiles ProfileStore,
	daysBack int,
	maxResults int64,
) ScanService {
	return &scanServiceImpl{
		logger:     logger,
		tokens:     tokens,
		mail:       mail,
		bills:      bills,
		profiles:   profiles,
		daysBack:   daysBack,
		maxResults: maxResults,
		now:        time.Now,
	}
}

func (s *scanServiceImpl) ScanEmails(ctx context.Context, userID string) ([]models.DetectedBill, error) {
	allowed, err := s.profiles.GetEmailScanPermission(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to read scan permission")
		return nil, err
	}
	if !allowed {
		s.logger.Warn().
			Str("user_id", userID).
			Msg("scan not permitted")
		return nil, ErrScanNotPermitted
	}

	accessToken, err := s.tokens.EnsureValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	emails, err := s.mail.FetchBillCandidates(ctx, accessToken, s.daysBack, s.maxResults)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to fetch candidate messages")
		return nil, fmt.Errorf("failed to fetch candidate messages: %w", err)
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int("count", len(emails)).
		Msg("fetched candidate messages")

	now := s.now()
	candidates := make([]detect.Candidate, 0, len(emails))
	for _, email := range emails {
		candidate, ok := detect.Scan(email, now)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	detect.SortByConfidence(candidates)

	existing, err := s.bills.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to list stored bills")
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, bill := range existing {
		seen[dedupKey(bill.Source, bill.Amount)] = struct{}{}
	}

	bills := make([]models.DetectedBill, 0, len(candidates))
	for _, candidate := range candidates {
		key := dedupKey(candidate.Source, candidate.Amount)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		billUUID, err := uuid.NewV7()
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to generate bill uuid")
			return nil, err
		}
		bills = append(bills, models.DetectedBill{
			ID:         billUUID.String(),
			UserID:     userID,
			Title:      candidate.Title,
			Amount:     candidate.Amount,
			DueDate:    candidate.DueDate,
			Category:   candidate.Category,
			Confidence: candidate.Confidence,
			Source:     candidate.Source,
			CreatedAt:  now,
		})
	}

	if len(bills) > 0 {
		err = s.bills.InsertBatch(ctx, bills)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", userID).
				Msg("failed to persist detected bills")
			return nil, err
		}
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("scanned", len(emails)).
		Int("detected", len(bills)).
		Msg("scanned emails")
	return bills, nil
}

// dedupKey is the identity of a bill for deduplication: exact match on
// sender address and amount.
func dedupKey(source string, amount float64) string {
	return fmt.Sprintf("%s|%.2f", source, amount)
}
