package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookreader/internal/content"
	"github.com/mrlokans/bookreader/internal/entities"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

// BookRequest is the body of book create and update requests.
type BookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	Content     string `json:"content"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validate trims every field and reports the ones left empty.
func (r *BookRequest) validate() []FieldError {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Description = strings.TrimSpace(r.Description)
	r.CoverImage = strings.TrimSpace(r.CoverImage)
	r.Content = content.Normalize(r.Content)

	required := []struct {
		field, value, message string
	}{
		{"title", r.Title, "Title is required"},
		{"author", r.Author, "Author is required"},
		{"description", r.Description, "Description is required"},
		{"cover_image", r.CoverImage, "Cover image URL is required"},
		{"content", strings.TrimSpace(r.Content), "Book content is required"},
	}

	var errs []FieldError
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, FieldError{Field: f.field, Message: f.message})
		}
	}
	return errs
}

// bindBook decodes and validates a BookRequest, answering 400 on failure.
func bindBook(c *gin.Context) (BookRequest, bool) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return req, false
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: "validation", Details: errs})
		return req, false
	}
	return req, true
}

// ListBooks handles GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.store.ListBooksWithProgress(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	respondList(c, books)
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookWithProgress(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "book", "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	req, ok := bindBook(c)
	if !ok {
		return
	}

	book := &entities.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Content:     req.Content,
		CreatedBy:   GetUserID(c),
	}
	if err := bc.store.CreateBook(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, gin.H{
		"message": "Book created successfully",
		"book_id": book.ID,
	})
}

// UpdateBook handles PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := bindBook(c)
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		respondLookupError(c, err, "book", "update book")
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Description = req.Description
	book.CoverImage = req.CoverImage
	book.Content = req.Content
	if err := bc.store.UpdateBook(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book updated successfully",
		"book_id": book.ID,
	})
}

// DeleteBook handles DELETE /api/books/:id
// Progress and favourites of every user go with the book.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(id); err != nil {
		respondLookupError(c, err, "book", "delete book")
		return
	}
	respondSuccess(c, "Book deleted successfully")
}

// ListFavouriteBooks handles GET /api/books/favorites/list
func (bc *BooksController) ListFavouriteBooks(c *gin.Context) {
	books, err := bc.store.ListFavouriteBooks(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list favourite books")
		return
	}
	respondList(c, books)
}

// ListCompletedBooks handles GET /api/books/completed/list
func (bc *BooksController) ListCompletedBooks(c *gin.Context) {
	books, err := bc.store.ListCompletedBooks(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list completed books")
		return
	}
	respondList(c, books)
}

// ListInProgressBooks handles GET /api/books/in-progress/list
func (bc *BooksController) ListInProgressBooks(c *gin.Context) {
	books, err := bc.store.ListInProgressBooks(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list in-progress books")
		return
	}
	respondList(c, books)
}
