package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookreader/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	var counter SessionCounter
	if cfg.Sessions != nil {
		counter = cfg.Sessions
	}
	health := NewHealthController(cfg.Database, counter, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Books API endpoints
	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books)
		api.GET("/books", booksController.ListBooks)
		api.POST("/books", booksController.CreateBook)
		api.GET("/books/favorites/list", booksController.ListFavouriteBooks)
		api.GET("/books/completed/list", booksController.ListCompletedBooks)
		api.GET("/books/in-progress/list", booksController.ListInProgressBooks)
		api.GET("/books/:id", booksController.GetBook)
		api.PUT("/books/:id", booksController.UpdateBook)
		api.DELETE("/books/:id", booksController.DeleteBook)

		if cfg.Progress != nil {
			var closer SessionCloser
			if cfg.Sessions != nil {
				closer = cfg.Sessions
			}
			progressController := NewProgressController(cfg.Progress, cfg.Books, closer)
			api.GET("/books/progress/:id", progressController.GetProgress)
			api.PUT("/books/progress/:id", progressController.UpdateProgress)
		}

		if cfg.Favourites != nil {
			favouritesController := NewFavouritesController(cfg.Favourites, cfg.Books)
			api.GET("/books/favorite/:id", favouritesController.GetFavourite)
			api.PUT("/books/favorite/:id", favouritesController.SetFavourite)
		}
	}

	// Reader endpoints
	if cfg.Sessions != nil {
		readerController := NewReaderController(cfg.Sessions)
		api.POST("/reader/:id/open", readerController.Open)
		api.GET("/reader/:id", readerController.Current)
		api.POST("/reader/:id/next", readerController.Next)
		api.POST("/reader/:id/prev", readerController.Previous)
		api.POST("/reader/:id/slider", readerController.Slider)
		api.POST("/reader/:id/scroll", readerController.Scroll)
		api.POST("/reader/:id/close", readerController.Close)
	}

	// Task management endpoints
	if cfg.TaskStatus != nil {
		tasksController := NewTasksController(cfg.TaskStatus)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
