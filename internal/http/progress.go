package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/sessions"
)

// ProgressController sets a user's progress directly, outside of the reader.
type ProgressController struct {
	store    ProgressStore
	books    BookGetter
	sessions SessionCloser
}

func NewProgressController(store ProgressStore, books BookGetter, sessions SessionCloser) *ProgressController {
	return &ProgressController{store: store, books: books, sessions: sessions}
}

// ProgressRequest is the body of PUT /api/books/progress/:id.
type ProgressRequest struct {
	CurrentPosition *float64 `json:"current_position"`
	IsCompleted     bool     `json:"is_completed"`
}

// UpdateProgress handles PUT /api/books/progress/:id
// The position is clamped to [0, 100]. An open reading session for the book is
// flushed and closed first so it cannot overwrite this write later.
func (pc *ProgressController) UpdateProgress(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPosition == nil {
		respondBadRequest(c, "current_position is required")
		return
	}

	if _, err := pc.books.GetBookByID(bookID); err != nil {
		respondLookupError(c, err, "book", "update progress")
		return
	}

	userID := GetUserID(c)
	if pc.sessions != nil {
		if err := pc.sessions.Close(c.Request.Context(), userID, bookID); err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
			log.Printf("[PROGRESS] Closing session before direct update for user %d book %d: %v", userID, bookID, err)
		}
	}

	position := reader.ClampPosition(*req.CurrentPosition)
	applied, err := pc.store.SaveProgress(c.Request.Context(), userID, bookID, position, req.IsCompleted, time.Now())
	if err != nil {
		respondInternalError(c, err, "update progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Reading progress updated successfully",
		"current_position": position,
		"is_completed":     req.IsCompleted,
		"applied":          applied,
	})
}

// GetProgress handles GET /api/books/progress/:id
func (pc *ProgressController) GetProgress(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := pc.store.GetProgress(GetUserID(c), bookID)
	if err != nil {
		respondLookupError(c, err, "progress", "get progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}
