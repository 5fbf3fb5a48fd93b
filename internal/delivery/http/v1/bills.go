package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"agent-api/internal/models"
)

type getBillResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Amount     float64   `json:"amount"`
	DueDate    time.Time `json:"due_date"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

func newGetBillResponse(bill *models.DetectedBill) getBillResponse {
	return getBillResponse{
		ID:         bill.ID,
		Title:      bill.Title,
		Amount:     bill.Amount,
		DueDate:    bill.DueDate,
		Category:   bill.Category,
		Confidence: bill.Confidence,
		Source:     bill.Source,
		CreatedAt:  bill.CreatedAt,
	}
}

func (h *handlerImpl) HandleGetBills(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const selectBillsQuery = `
SELECT id, title, amount, due_date, category, confidence, source, created_at
FROM detected_bills WHERE user_id = $1 AND approved = FALSE
ORDER BY confidence DESC
`
	rows, err := h.pgPool.Query(
		c,
		selectBillsQuery,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to select bills")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var bills []models.DetectedBill
	for rows.Next() {
		var bill models.DetectedBill
		err = rows.Scan(
			&bill.ID,
			&bill.Title,
			&bill.Amount,
			&bill.DueDate,
			&bill.Category,
			&bill.Confidence,
			&bill.Source,
			&bill.CreatedAt,
		)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to scan bill")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		bills = append(bills, bill)
	}

	err = rows.Err()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	response := make([]getBillResponse, len(bills))
	for i, bill := range bills {
		response[i] = newGetBillResponse(&bill)
	}

	h.logger.Info().
		Int("count", len(bills)).
		Msg("fetched pending bills")
	c.JSON(http.StatusOK, response)
}

// HandleApproveBill converts a pending detected bill into a payment and
// removes the bill row, in one transaction. A bill is either pending or
// converted, never both.
func (h *handlerImpl) HandleApproveBill(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	billID := c.Param("id")
	if billID == "" {
		h.logger.Error().Msg("no bill id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	tx, err := h.pgPool.Begin(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(c) }()

	bill := models.DetectedBill{
		ID:     billID,
		UserID: userID,
	}

	const selectBillQuery = `
SELECT title, amount, due_date, category
FROM detected_bills WHERE id = $1 AND user_id = $2
`
	err = tx.QueryRow(
		c,
		selectBillQuery,
		bill.ID,
		bill.UserID,
	).Scan(
		&bill.Title,
		&bill.Amount,
		&bill.DueDate,
		&bill.Category,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("bill not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to select bill")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	now := time.Now()
	payment := models.Payment{
		UserID:    userID,
		Title:     bill.Title,
		Amount:    bill.Amount,
		DueDate:   bill.DueDate,
		Category:  bill.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const insertPaymentQuery = `
INSERT INTO payments (user_id, title, amount, due_date, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
`
	err = tx.QueryRow(
		c,
		insertPaymentQuery,
		payment.UserID,
		payment.Title,
		payment.Amount,
		payment.DueDate,
		payment.Category,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to insert payment")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	const deleteBillQuery = `
DELETE FROM detected_bills WHERE id = $1 AND user_id = $2
`
	_, err = tx.Exec(
		c,
		deleteBillQuery,
		bill.ID,
		bill.UserID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete bill")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	err = tx.Commit(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("bill_id", bill.ID).
		Str("payment_id", payment.ID).
		Msg("approved bill")
	c.JSON(http.StatusCreated, newGetPaymentResponse(&payment))
}

func (h *handlerImpl) HandleDismissBill(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	billID := c.Param("id")
	if billID == "" {
		h.logger.Error().Msg("no bill id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	const deleteBillQuery = `
DELETE FROM detected_bills WHERE id = $1 AND user_id = $2
`
	commandTag, err := h.pgPool.Exec(
		c,
		deleteBillQuery,
		billID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete bill")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("bill not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", billID).
		Msg("dismissed bill")
	c.Status(http.StatusNoContent)
}
