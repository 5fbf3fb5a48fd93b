package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"agent-api/internal/models"
)

type getGoalResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newGetGoalResponse(goal *models.FinancialGoal) getGoalResponse {
	return getGoalResponse{
		ID:            goal.ID,
		Title:         goal.Title,
		TargetAmount:  goal.TargetAmount,
		CurrentAmount: goal.CurrentAmount,
		TargetDate:    goal.TargetDate,
		CreatedAt:     goal.CreatedAt,
		UpdatedAt:     goal.UpdatedAt,
	}
}

type createGoalRequest struct {
	Title        string     `json:"title" binding:"required,max=255"`
	TargetAmount float64    `json:"target_amount" binding:"required,gt=0"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
}

func (h *handlerImpl) HandleCreateGoal(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createGoalRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	now := time.Now()
	goal := models.FinancialGoal{
		UserID:       userID,
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
		TargetDate:   req.TargetDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	const insertGoalQuery = `
INSERT INTO financial_goals (user_id, title, target_amount, target_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
`
	err = h.pgPool.QueryRow(
		c,
		insertGoalQuery,
		goal.UserID,
		goal.Title,
		goal.TargetAmount,
		goal.TargetDate,
		goal.CreatedAt,
		goal.UpdatedAt,
	).Scan(&goal.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to insert goal")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", goal.ID).
		Msg("created goal")
	c.JSON(http.StatusCreated, newGetGoalResponse(&goal))
}

func (h *handlerImpl) HandleGetGoals(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const selectGoalsQuery = `
SELECT id, title, target_amount, current_amount, target_date, created_at, updated_at
FROM financial_goals WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := h.pgPool.Query(
		c,
		selectGoalsQuery,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to select goals")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var goals []models.FinancialGoal
	for rows.Next() {
		var goal models.FinancialGoal
		err = rows.Scan(
			&goal.ID,
			&goal.Title,
			&goal.TargetAmount,
			&goal.CurrentAmount,
			&goal.TargetDate,
			&goal.CreatedAt,
			&goal.UpdatedAt,
		)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to scan goal")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		goals = append(goals, goal)
	}

	err = rows.Err()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	response := make([]getGoalResponse, len(goals))
	for i, goal := range goals {
		response[i] = newGetGoalResponse(&goal)
	}

	h.logger.Info().
		Int("count", len(goals)).
		Msg("fetched goals")
	c.JSON(http.StatusOK, response)
}

type updateGoalRequest struct {
	Title         *string    `json:"title,omitempty"`
	TargetAmount  *float64   `json:"target_amount,omitempty" binding:"omitempty,gt=0"`
	CurrentAmount *float64   `json:"current_amount,omitempty" binding:"omitempty,gte=0"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
}

func (h *handlerImpl) HandleUpdateGoal(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req updateGoalRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	goalID := c.Param("id")
	if goalID == "" {
		h.logger.Error().Msg("no goal id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	goal := models.FinancialGoal{
		ID:     goalID,
		UserID: userID,
	}

	const selectGoalQuery = `
SELECT title, target_amount, current_amount, target_date, created_at
FROM financial_goals WHERE id = $1 AND user_id = $2
`
	err = h.pgPool.QueryRow(
		c,
		selectGoalQuery,
		goal.ID,
		goal.UserID,
	).Scan(
		&goal.Title,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&goal.TargetDate,
		&goal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("goal not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to select goal")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.TargetAmount != nil {
		goal.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		goal.CurrentAmount = *req.CurrentAmount
	}
	if req.TargetDate != nil {
		goal.TargetDate = req.TargetDate
	}
	goal.UpdatedAt = time.Now()

	const updateGoalQuery = `
UPDATE financial_goals
SET title = $1,
    target_amount = $2,
    current_amount = $3,
    target_date = $4,
    updated_at = $5
WHERE id = $6 AND user_id = $7
`
	_, err = h.pgPool.Exec(
		c,
		updateGoalQuery,
		goal.Title,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.TargetDate,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update goal")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", goal.ID).
		Msg("updated goal")
	c.JSON(http.StatusOK, newGetGoalResponse(&goal))
}

func (h *handlerImpl) HandleDeleteGoal(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	goalID := c.Param("id")
	if goalID == "" {
		h.logger.Error().Msg("no goal id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	const deleteGoalQuery = `
DELETE FROM financial_goals WHERE id = $1 AND user_id = $2
`
	commandTag, err := h.pgPool.Exec(
		c,
		deleteGoalQuery,
		goalID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete goal")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("goal not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", goalID).
		Msg("deleted goal")
	c.Status(http.StatusNoContent)
}
