package entities

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email"`
	Token     string    `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512" json:"title"`
	Author      string    `gorm:"index;size:256" json:"author"`
	Description string    `gorm:"type:text" json:"description"`
	CoverImage  string    `gorm:"size:2048" json:"cover_image"`
	Content     string    `gorm:"type:text" json:"content,omitempty"`
	CreatedBy   uint      `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReadingProgress is one user's position in one book.
// CurrentPosition is a percentage in [0, 100].
type ReadingProgress struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex:idx_progress_user_book" json:"user_id"`
	BookID          uint      `gorm:"uniqueIndex:idx_progress_user_book;index" json:"book_id"`
	CurrentPosition float64   `gorm:"default:0" json:"current_position"`
	IsCompleted     bool      `gorm:"default:false" json:"is_completed"`
	LastReadAt      time.Time `gorm:"index" json:"last_read_at"`
	// ChangedAtMs is the client-side change time in Unix milliseconds, used to drop stale writes.
	ChangedAtMs int64     `gorm:"default:0" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Favourite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favourite_user_book" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_favourite_user_book;index" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookWithProgress is a book joined with the requesting user's progress and favourite flag.
type BookWithProgress struct {
	Book
	CurrentPosition *float64   `json:"current_position,omitempty"`
	IsCompleted     *bool      `json:"is_completed,omitempty"`
	IsFavorite      bool       `json:"is_favorite"`
	LastReadAt      *time.Time `json:"last_read_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

func (Favourite) TableName() string {
	return "favourites"
}
