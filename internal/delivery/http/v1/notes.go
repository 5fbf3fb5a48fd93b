package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"agent-api/internal/models"
)

type getNoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Pinned    bool      `json:"pinned"`
	Archived  bool      `json:"archived"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGetNoteResponse(note *models.Note) getNoteResponse {
	return getNoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Category:  note.Category,
		Tags:      note.Tags,
		Pinned:    note.Pinned,
		Archived:  note.Archived,
		WordCount: note.WordCount,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

type createNoteRequest struct {
	Title    string   `json:"title" binding:"required,max=255"`
	Content  string   `json:"content"`
	Category *string  `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (h *handlerImpl) HandleCreateNote(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createNoteRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	now := time.Now()
	note := models.Note{
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		WordCount: countWords(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Category != nil {
		note.Category = *req.Category
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}

	const insertNoteQuery = `
INSERT INTO notes (user_id, title, content, category, tags, word_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
`
	err = h.pgPool.QueryRow(
		c,
		insertNoteQuery,
		note.UserID,
		note.Title,
		note.Content,
		note.Category,
		note.Tags,
		note.WordCount,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to insert note")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", note.ID).
		Msg("created note")
	c.JSON(http.StatusCreated, newGetNoteResponse(&note))
}

func (h *handlerImpl) HandleGetNotes(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const selectNotesQuery = `
SELECT id, title, content, category, tags, pinned, archived, word_count, created_at, updated_at
FROM notes WHERE user_id = $1
ORDER BY pinned DESC, updated_at DESC
`
	rows, err := h.pgPool.Query(
		c,
		selectNotesQuery,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to select notes")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		err = rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.Category,
			&note.Tags,
			&note.Pinned,
			&note.Archived,
			&note.WordCount,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to scan note")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		notes = append(notes, note)
	}

	err = rows.Err()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	response := make([]getNoteResponse, len(notes))
	for i, note := range notes {
		response[i] = newGetNoteResponse(&note)
	}

	h.logger.Info().
		Int("count", len(notes)).
		Msg("fetched notes")
	c.JSON(http.StatusOK, response)
}

type updateNoteRequest struct {
	Title    *string  `json:"title,omitempty"`
	Content  *string  `json:"content,omitempty"`
	Category *string  `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (h *handlerImpl) HandleUpdateNote(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req updateNoteRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	noteID := c.Param("id")
	if noteID == "" {
		h.logger.Error().Msg("no note id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	note := models.Note{
		ID:     noteID,
		UserID: userID,
	}

	const selectNoteQuery = `
SELECT title, content, category, tags, pinned, archived, created_at
FROM notes WHERE id = $1 AND user_id = $2
`
	err = h.pgPool.QueryRow(
		c,
		selectNoteQuery,
		note.ID,
		note.UserID,
	).Scan(
		&note.Title,
		&note.Content,
		&note.Category,
		&note.Tags,
		&note.Pinned,
		&note.Archived,
		&note.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.logger.Warn().Msg("note not found")
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to select note")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Category != nil {
		note.Category = *req.Category
	}
	if req.Tags != nil {
		note.Tags = req.Tags
	}
	note.WordCount = countWords(note.Content)
	note.UpdatedAt = time.Now()

	const updateNoteQuery = `
UPDATE notes
SET title = $1,
    content = $2,
    category = $3,
    tags = $4,
    word_count = $5,
    updated_at = $6
WHERE id = $7 AND user_id = $8
`
	_, err = h.pgPool.Exec(
		c,
		updateNoteQuery,
		note.Title,
		note.Content,
		note.Category,
		note.Tags,
		note.WordCount,
		note.UpdatedAt,
		note.ID,
		note.UserID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update note")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("id", note.ID).
		Msg("updated note")
	c.JSON(http.StatusOK, newGetNoteResponse(&note))
}

func (h *handlerImpl) HandlePinNote(c *gin.Context) {
	h.toggleNoteFlag(c, "pinned")
}

func (h *handlerImpl) HandleArchiveNote(c *gin.Context) {
	h.toggleNoteFlag(c, "archived")
}

// toggleNoteFlag flips the pinned or archived column. The column name
// is interpolated from a fixed whitelist, never from user input.
func (h *handlerImpl) toggleNoteFlag(c *gin.Context, column string) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	noteID := c.Param("id")
	if noteID == "" {
		h.logger.Error().Msg("no note id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var query string
	switch column {
	case "pinned":
		query = `UPDATE notes SET pinned = NOT pinned, updated_at = $1 WHERE id = $2 AND user_id = $3`
	case "archived":
		query = `UPDATE notes SET archived = NOT archived, updated_at = $1 WHERE id = $2 AND user_id = $3`
	default:
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	commandTag, err := h.pgPool.Exec(
		c,
		query,
		time.Now(),
		noteID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("column", column).
			Msg("failed to toggle note flag")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("note not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", noteID).
		Str("column", column).
		Msg("toggled note flag")
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteNote(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	noteID := c.Param("id")
	if noteID == "" {
		h.logger.Error().Msg("no note id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	const deleteNoteQuery = `
DELETE FROM notes WHERE id = $1 AND user_id = $2
`
	commandTag, err := h.pgPool.Exec(
		c,
		deleteNoteQuery,
		noteID,
		userID,
	)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete note")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if commandTag.RowsAffected() == 0 {
		h.logger.Warn().Msg("note not found")
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.logger.Info().
		Str("id", noteID).
		Msg("deleted note")
	c.Status(http.StatusNoContent)
}

func countWords(content string) int {
	return len(strings.Fields(content))
}
