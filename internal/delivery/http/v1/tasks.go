package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"agent-api/internal/models"
)

type getTaskResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Completed     bool       `json:"completed"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Category      string     `json:"category,omitempty"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Completed:     task.Completed,
		DueDate:       task.DueDate,
		Priority:      task.Priority,
		Category:      task.Category,
		EstimatedTime: task.EstimatedTime,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title         string     `json:"title" binding:"required,max=255"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      *string    `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	Category      *string    `json:"category,omitempty"`
	EstimatedTime *string    `json:"estimated_time,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	now := time.Now()
	task := models.Task{
		UserID:    userID,
		Title:     req.Title,
		DueDate:   req.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.EstimatedTime != nil {
		task.EstimatedTime = *req.EstimatedTime
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id, title, due_date, priority, category, estimated_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
`
	err = h.pgPool.QueryRow(
		c,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.DueDate,
		task.Priority,
		task.Category,
		task.EstimatedTime,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to insert task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	h.logger.Debug().
		Str("id", task.ID).
		Msg("inserted task")

	h.logger.Info().Msg("created task")
	c.JSON(http.StatusCreated, newGetTaskResponse(&task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const selectTasksQuery = `
SELECT id, title, completed, due_date, priority, category, estimated_time, created_at, updated_at
FROM tasks WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := h.pgPool.Query(
		c,
		selectTasksQuery,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Completed,
			&task.DueDate,
			&task.Priority,
			&task.Category,
			&task.EstimatedTime,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to scan task")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(&task)
	}

	h.logger.Info().
		Int("count", len(tasks)).
		Msg("fetched tasks")
	c.JSON(http.StatusOK, response)
}

type updateTaskRequest struct {
	Title         *string    `json:"title,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      *string    `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	Category      *string    `json:"category,omitempty"`
	EstimatedTime *string    `json:"estimated_time,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	task := models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskQuery = `
SELECT title, completed, due_date, priority, category, estimated_time, created_at
FROM tasks WHERE id = $1 AND user_id = $2
`
	err = h.pgPool.QueryRow(
		c,
		selectTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.DueDate,
		&task.Priority,
		&task.Category,
		&task.EstimatedTime,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("task not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to select task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.EstimatedTime != nil {
		task.EstimatedTime = *req.EstimatedTime
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    due_date = $2,
    priority = $3,
    category = $4,
    estimated_time = $5,
    updated_at = $6
WHERE id = $7 AND user_id = $8
`
	_, err = h.pgPool.Exec(
		c,
		updateTaskQuery,
		task.Title,
		task.DueDate,
		task.Priority,
		task.Category,
		task.EstimatedTime,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", task.ID).
		Msg("updated task")
	c.JSON(http.StatusOK, newGetTaskResponse(&task))
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	completed := c.DefaultQuery("completed", "true") == "true"

	task := models.Task{
		ID:        taskID,
		UserID:    userID,
		Completed: completed,
		UpdatedAt: time.Now(),
	}

	const updateTaskCompletedQuery = `
UPDATE tasks SET completed = $1, updated_at = $2
WHERE id = $3 AND user_id = $4
RETURNING title, due_date, priority, category, estimated_time, created_at
`
	err := h.pgPool.QueryRow(
		c,
		updateTaskCompletedQuery,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.DueDate,
		&task.Priority,
		&task.Category,
		&task.EstimatedTime,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("task not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", task.ID).
		Bool("completed", task.Completed).
		Msg("toggled task completion")
	c.JSON(http.StatusOK, newGetTaskResponse(&task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	const deleteTaskQuery = `
DELETE FROM tasks WHERE id = $1 AND user_id = $2
`
	commandTag, err := h.pgPool.Exec(
		c,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("task not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", taskID).
		Msg("deleted task")
	c.Status(http.StatusNoContent)
}
