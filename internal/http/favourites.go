package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type FavouritesController struct {
	store FavouritesStore
	books BookGetter
}

func NewFavouritesController(store FavouritesStore, books BookGetter) *FavouritesController {
	return &FavouritesController{store: store, books: books}
}

// FavouriteRequest is the body of PUT /api/books/favorite/:id.
type FavouriteRequest struct {
	IsFavorite *bool `json:"is_favorite"`
}

// GetFavourite handles GET /api/books/favorite/:id
func (fc *FavouritesController) GetFavourite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := fc.books.GetBookByID(bookID); err != nil {
		respondLookupError(c, err, "book", "get favourite")
		return
	}

	isFavourite, err := fc.store.IsFavourite(GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "get favourite")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"book_id":     bookID,
		"is_favorite": isFavourite,
	})
}

// SetFavourite handles PUT /api/books/favorite/:id
func (fc *FavouritesController) SetFavourite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FavouriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsFavorite == nil {
		respondBadRequest(c, "is_favorite is required")
		return
	}

	if _, err := fc.books.GetBookByID(bookID); err != nil {
		respondLookupError(c, err, "book", "set favourite")
		return
	}

	userID := GetUserID(c)
	if err := fc.store.SetFavourite(userID, bookID, *req.IsFavorite); err != nil {
		respondInternalError(c, err, "set favourite")
		return
	}
	count, err := fc.store.GetFavouriteCount(userID)
	if err != nil {
		respondInternalError(c, err, "count favourites")
		return
	}

	message := "Book removed from favorites"
	if *req.IsFavorite {
		message = "Book added to favorites"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"is_favorite":    *req.IsFavorite,
		"favorite_count": count,
	})
}
