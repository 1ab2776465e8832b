package board

import (
	"context"
	"errors"
	"time"

	boardAuth "github.com/MrEthical07/boardAuth"
)

var (
	// ErrUserNotFound is the engine's sentinel so lookups through [Accounts]
	// satisfy the engine's user provider contract.
	ErrUserNotFound = boardAuth.ErrUserNotFound
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("caller is not the author")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultRole is granted to every new account.
const DefaultRole = "USER"

// User is a stored account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Nickname     string
	Phone        string
	Roles        []string
	CreatedAt    time.Time
}

// Post is a board entry. AuthorNickname is filled on reads.
type Post struct {
	ID             int64
	AuthorID       int64
	AuthorNickname string
	Title          string
	Content        string
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// Result carries either a value or the reason there is none. Callers branch on
// Err with errors.Is.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

func ok[T any](v T) Result[T] { return Result[T]{Value: v} }
func fail[T any](err error) Result[T] { return Result[T]{Err: err} }

type UserRepository interface {
	// CreateUser stores u and returns it with ID and CreatedAt set. A taken
	// email reports ErrEmailTaken.
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p Post) (int64, error)
	UpdatePost(ctx context.Context, id int64, title, content string, modifiedAt time.Time) error
	PostByID(ctx context.Context, id int64) (Post, error)
	// ListPostsDesc returns every post, newest first.
	ListPostsDesc(ctx context.Context) ([]Post, error)
	DeletePost(ctx context.Context, id int64) error
}

type Repository interface {
	UserRepository
	PostRepository
}
