package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"agent-api/internal/models"
)

type getPaymentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	Recurring bool      `json:"recurring"`
	Category  string    `json:"category,omitempty"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGetPaymentResponse(payment *models.Payment) getPaymentResponse {
	return getPaymentResponse{
		ID:        payment.ID,
		Title:     payment.Title,
		Amount:    payment.Amount,
		DueDate:   payment.DueDate,
		Recurring: payment.Recurring,
		Category:  payment.Category,
		Paid:      payment.Paid,
		CreatedAt: payment.CreatedAt,
		UpdatedAt: payment.UpdatedAt,
	}
}

type createPaymentRequest struct {
	Title     string    `json:"title" binding:"required,max=255"`
	Amount    float64   `json:"amount" binding:"required,gt=0"`
	DueDate   time.Time `json:"due_date" binding:"required"`
	Recurring bool      `json:"recurring"`
	Category  *string   `json:"category,omitempty"`
}

func (h *handlerImpl) HandleCreatePayment(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createPaymentRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	now := time.Now()
	payment := models.Payment{
		UserID:    userID,
		Title:     req.Title,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Recurring: req.Recurring,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Category != nil {
		payment.Category = *req.Category
	}

	const insertPaymentQuery = `
INSERT INTO payments (user_id, title, amount, due_date, recurring, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
`
	err = h.pgPool.QueryRow(
		c,
		insertPaymentQuery,
		payment.UserID,
		payment.Title,
		payment.Amount,
		payment.DueDate,
		payment.Recurring,
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

	h.logger.Info().
		Str("id", payment.ID).
		Msg("created payment")
	c.JSON(http.StatusCreated, newGetPaymentResponse(&payment))
}

func (h *handlerImpl) HandleGetPayments(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const selectPaymentsQuery = `
SELECT id, title, amount, due_date, recurring, category, paid, created_at, updated_at
FROM payments WHERE user_id = $1
ORDER BY due_date ASC
`
	rows, err := h.pgPool.Query(
		c,
		selectPaymentsQuery,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to select payments")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		err = rows.Scan(
			&payment.ID,
			&payment.Title,
			&payment.Amount,
			&payment.DueDate,
			&payment.Recurring,
			&payment.Category,
			&payment.Paid,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to scan payment")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		payments = append(payments, payment)
	}

	err = rows.Err()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	response := make([]getPaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = newGetPaymentResponse(&payment)
	}

	h.logger.Info().
		Int("count", len(payments)).
		Msg("fetched payments")
	c.JSON(http.StatusOK, response)
}

type updatePaymentRequest struct {
	Title     *string    `json:"title,omitempty"`
	Amount    *float64   `json:"amount,omitempty" binding:"omitempty,gt=0"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Recurring *bool      `json:"recurring,omitempty"`
	Category  *string    `json:"category,omitempty"`
}

func (h *handlerImpl) HandleUpdatePayment(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req updatePaymentRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	paymentID := c.Param("id")
	if paymentID == "" {
		h.logger.Error().Msg("no payment id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	payment := models.Payment{
		ID:     paymentID,
		UserID: userID,
	}

	const selectPaymentQuery = `
SELECT title, amount, due_date, recurring, category, paid, created_at
FROM payments WHERE id = $1 AND user_id = $2
`
	err = h.pgPool.QueryRow(
		c,
		selectPaymentQuery,
		payment.ID,
		payment.UserID,
	).Scan(
		&payment.Title,
		&payment.Amount,
		&payment.DueDate,
		&payment.Recurring,
		&payment.Category,
		&payment.Paid,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("payment not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to select payment")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if req.Title != nil {
		payment.Title = *req.Title
	}
	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.DueDate != nil {
		payment.DueDate = *req.DueDate
	}
	if req.Recurring != nil {
		payment.Recurring = *req.Recurring
	}
	if req.Category != nil {
		payment.Category = *req.Category
	}
	payment.UpdatedAt = time.Now()

	const updatePaymentQuery = `
UPDATE payments
SET title = $1,
    amount = $2,
    due_date = $3,
    recurring = $4,
    category = $5,
    updated_at = $6
WHERE id = $7 AND user_id = $8
`
	_, err = h.pgPool.Exec(
		c,
		updatePaymentQuery,
		payment.Title,
		payment.Amount,
		payment.DueDate,
		payment.Recurring,
		payment.Category,
		payment.UpdatedAt,
		payment.ID,
		payment.UserID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update payment")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", payment.ID).
		Msg("updated payment")
	c.JSON(http.StatusOK, newGetPaymentResponse(&payment))
}

func (h *handlerImpl) HandleMarkPaymentPaid(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	paymentID := c.Param("id")
	if paymentID == "" {
		h.logger.Error().Msg("no payment id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	paid := c.DefaultQuery("paid", "true") == "true"

	const updatePaymentPaidQuery = `
UPDATE payments SET paid = $1, updated_at = $2
WHERE id = $3 AND user_id = $4
`
	commandTag, err := h.pgPool.Exec(
		c,
		updatePaymentPaidQuery,
		paid,
		time.Now(),
		paymentID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update payment")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("payment not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", paymentID).
		Bool("paid", paid).
		Msg("marked payment")
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeletePayment(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	paymentID := c.Param("id")
	if paymentID == "" {
		h.logger.Error().Msg("no payment id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	const deletePaymentQuery = `
DELETE FROM payments WHERE id = $1 AND user_id = $2
`
	commandTag, err := h.pgPool.Exec(
		c,
		deletePaymentQuery,
		paymentID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete payment")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("payment not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", paymentID).
		Msg("deleted payment")
	c.Status(http.StatusNoContent)
}
