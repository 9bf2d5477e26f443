// Package auth identifies the reader behind each request.
//
// It supports two modes:
//   - "none": no authentication (default); every request reads as DefaultUserID
//   - "token": API clients send "Authorization: Bearer <token>" with a token
//     issued by the create-user command
//
// # Configuration
//
//	AUTH_MODE=none   # Default, single reader
//	AUTH_MODE=token  # Per-user progress behind API tokens
//
// # Usage
//
//	authMiddleware := auth.NewMiddleware(usersRepo, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)  // Returns DefaultUserID in "none" mode
package auth
