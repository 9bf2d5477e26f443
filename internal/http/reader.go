package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookreader/internal/auth"
	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/sessions"
)

// ReaderController exposes reading sessions. Every transition answers with the
// session view; "completion_reached" is true only in the response whose
// transition finished the book.
type ReaderController struct {
	sessions ReadingSessions
}

func NewReaderController(sessions ReadingSessions) *ReaderController {
	return &ReaderController{sessions: sessions}
}

// SliderRequest is the body of POST /api/reader/:id/slider.
type SliderRequest struct {
	Value *float64 `json:"value"`
}

func (rc *ReaderController) respondView(c *gin.Context, view sessions.View, err error) {
	if err != nil {
		respondLookupError(c, err, "book", "reader")
		return
	}
	c.JSON(http.StatusOK, view)
}

// Open handles POST /api/reader/:id/open
func (rc *ReaderController) Open(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := rc.sessions.Open(c.Request.Context(), GetUserID(c), bookID)
	if err == nil {
		log.Printf("[READER] %s opened book %d at %.2f%% (auth=%s)",
			readerName(c), bookID, view.Position, auth.GetAuthType(c))
	}
	rc.respondView(c, view, err)
}

// Current handles GET /api/reader/:id
func (rc *ReaderController) Current(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := rc.sessions.Current(GetUserID(c), bookID)
	rc.respondView(c, view, err)
}

// Next handles POST /api/reader/:id/next
func (rc *ReaderController) Next(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := rc.sessions.Next(GetUserID(c), bookID)
	rc.respondView(c, view, err)
}

// Previous handles POST /api/reader/:id/prev
func (rc *ReaderController) Previous(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := rc.sessions.Previous(GetUserID(c), bookID)
	rc.respondView(c, view, err)
}

// Slider handles POST /api/reader/:id/slider
func (rc *ReaderController) Slider(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SliderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		respondBadRequest(c, "value is required")
		return
	}

	view, err := rc.sessions.Slider(GetUserID(c), bookID, *req.Value)
	rc.respondView(c, view, err)
}

// Scroll handles POST /api/reader/:id/scroll
func (rc *ReaderController) Scroll(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var in reader.ScrollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid scroll metrics")
		return
	}

	view, err := rc.sessions.Scroll(GetUserID(c), bookID, in)
	rc.respondView(c, view, err)
}

// Close handles POST /api/reader/:id/close
func (rc *ReaderController) Close(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.sessions.Close(c.Request.Context(), GetUserID(c), bookID); err != nil {
		respondLookupError(c, err, "book", "close reader")
		return
	}
	respondSuccess(c, "Reading session closed")
}

func readerName(c *gin.Context) string {
	if name := auth.GetUsername(c); name != "" {
		return name
	}
	return "anonymous reader"
}
