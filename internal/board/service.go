package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/password"
)

const (
	maxNicknameLen = 64
	maxTitleLen    = 200
	maxContentLen  = 20000
)

// Hasher produces password hashes for new accounts.
type Hasher interface {
	Hash(password string) (string, error)
}

// SignupInput is a signup request.
type SignupInput struct {
	Email    string
	Password string
	Nickname string
	Phone    string
}

// PostInput is the editable part of a post.
type PostInput struct {
	Title   string
	Content string
}

// Service implements the user and post operations. Every mutating post
// operation resolves the caller to a stored user first.
type Service struct {
	repo   Repository
	hasher Hasher
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo Repository, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Signup creates an account with the default role.
func (s *Service) Signup(ctx context.Context, in SignupInput) Result[User] {
	email := NormalizeEmail(in.Email)
	nickname := strings.TrimSpace(in.Nickname)

	switch {
	case !validEmail(email):
		return fail[User](fmt.Errorf("%w: email", ErrInvalidInput))
	case nickname == "" || len(nickname) > maxNicknameLen:
		return fail[User](fmt.Errorf("%w: nickname", ErrInvalidInput))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
			return fail[User](fmt.Errorf("%w: %v", ErrInvalidInput, err))
		}
		return fail[User](fmt.Errorf("hash password: %w", err))
	}

	u, err := s.repo.CreateUser(ctx, User{
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		Phone:        strings.TrimSpace(in.Phone),
		Roles:        []string{DefaultRole},
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return fail[User](err)
	}

	logging.WithContext(ctx, s.logger).Info("user signed up", logging.UserID(u.ID))
	return ok(u)
}

// UserByEmail looks up an account by address.
func (s *Service) UserByEmail(ctx context.Context, email string) Result[User] {
	u, err := s.repo.UserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fail[User](err)
	}
	return ok(u)
}

// UserByID looks up an account by id.
func (s *Service) UserByID(ctx context.Context, id int64) Result[User] {
	u, err := s.repo.UserByID(ctx, id)
	if err != nil {
		return fail[User](err)
	}
	return ok(u)
}

func validPost(in PostInput) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "" || len(title) > maxTitleLen:
		return fmt.Errorf("%w: title", ErrInvalidInput)
	case len(in.Content) > maxContentLen:
		return fmt.Errorf("%w: content", ErrInvalidInput)
	}
	return nil
}

// author resolves the caller to a stored user. A token for a deleted account
// reports ErrUserNotFound.
func (s *Service) author(ctx context.Context, caller boardAuth.Identity) (User, error) {
	return s.repo.UserByID(ctx, caller.UserID)
}

// SavePost creates a post authored by caller and returns its id.
func (s *Service) SavePost(ctx context.Context, caller boardAuth.Identity, in PostInput) Result[int64] {
	if err := validPost(in); err != nil {
		return fail[int64](err)
	}
	u, err := s.author(ctx, caller)
	if err != nil {
		return fail[int64](err)
	}

	now := s.now().UTC()
	id, err := s.repo.CreatePost(ctx, Post{
		AuthorID:   u.ID,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	if err != nil {
		return fail[int64](err)
	}
	return ok(id)
}

// owned loads post id and checks that the caller wrote it.
func (s *Service) owned(ctx context.Context, caller boardAuth.Identity, id int64) (Post, error) {
	u, err := s.author(ctx, caller)
	if err != nil {
		return Post{}, err
	}
	p, err := s.repo.PostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != u.ID {
		logging.WithContext(ctx, s.logger).Warn("post change by non-author",
			logging.UserID(u.ID), logging.PostID(id))
		return Post{}, ErrForbidden
	}
	return p, nil
}

// UpdatePost replaces the title and content of a post the caller wrote.
func (s *Service) UpdatePost(ctx context.Context, caller boardAuth.Identity, id int64, in PostInput) Result[int64] {
	if err := validPost(in); err != nil {
		return fail[int64](err)
	}
	if _, err := s.owned(ctx, caller, id); err != nil {
		return fail[int64](err)
	}
	if err := s.repo.UpdatePost(ctx, id, strings.TrimSpace(in.Title), in.Content, s.now().UTC()); err != nil {
		return fail[int64](err)
	}
	return ok(id)
}

// DeletePost removes a post the caller wrote.
func (s *Service) DeletePost(ctx context.Context, caller boardAuth.Identity, id int64) Result[int64] {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return fail[int64](err)
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fail[int64](err)
	}
	return ok(id)
}

// FindPost returns one post.
func (s *Service) FindPost(ctx context.Context, id int64) Result[Post] {
	p, err := s.repo.PostByID(ctx, id)
	if err != nil {
		return fail[Post](err)
	}
	return ok(p)
}

// ListPosts returns every post, newest first.
func (s *Service) ListPosts(ctx context.Context) Result[[]Post] {
	posts, err := s.repo.ListPostsDesc(ctx)
	if err != nil {
		return fail[[]Post](err)
	}
	return ok(posts)
}
