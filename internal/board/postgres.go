package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresRepository is a [Repository] over the users, user_roles and posts
// tables. Open db with the "pgx" driver.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u User) (created User, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("db error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO users (email, password_hash, nickname, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err = tx.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.Nickname, u.Phone, u.CreatedAt).Scan(&u.ID); err != nil {
		if pgCode(err) == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}

	for _, role := range u.Roles {
		if _, err = tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, u.ID, role); err != nil {
			return User{}, fmt.Errorf("db error: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return cloneUser(u), nil
}

const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.nickname, u.phone, u.created_at,
	       COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
	FROM users u
	LEFT JOIN user_roles r ON r.user_id = u.id
`

func (r *PostgresRepository) scanUser(row *sql.Row) (User, error) {
	var (
		u     User
		roles string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Phone, &u.CreatedAt, &roles); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	if roles != "" {
		u.Roles = strings.Split(roles, ",")
	}
	return u, nil
}

func (r *PostgresRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.email = $1 GROUP BY u.id`, email))
}

func (r *PostgresRepository) UserByID(ctx context.Context, id int64) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1 GROUP BY u.id`, id))
}

// DeleteUser removes an account. Roles and posts go with it by cascade.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.execOne(ctx, ErrUserNotFound, `DELETE FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) CreatePost(ctx context.Context, p Post) (int64, error) {
	query := `
		INSERT INTO posts (author_id, title, content, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, p.AuthorID, p.Title, p.Content, p.CreatedAt, p.ModifiedAt).Scan(&id); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) UpdatePost(ctx context.Context, id int64, title, content string, modifiedAt time.Time) error {
	return r.execOne(ctx, ErrPostNotFound,
		`UPDATE posts SET title = $1, content = $2, modified_at = $3 WHERE id = $4`,
		title, content, modifiedAt, id)
}

func (r *PostgresRepository) DeletePost(ctx context.Context, id int64) error {
	return r.execOne(ctx, ErrPostNotFound, `DELETE FROM posts WHERE id = $1`, id)
}

// execOne runs a statement that must touch exactly one row; zero rows
// reports notFound.
func (r *PostgresRepository) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

const selectPost = `
	SELECT p.id, p.author_id, u.nickname, p.title, p.content, p.created_at, p.modified_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (Post, error) {
	var p Post
	err := s.Scan(&p.ID, &p.AuthorID, &p.AuthorNickname, &p.Title, &p.Content, &p.CreatedAt, &p.ModifiedAt)
	return p, err
}

func (r *PostgresRepository) PostByID(ctx context.Context, id int64) (Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, selectPost+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListPostsDesc(ctx context.Context) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+` ORDER BY p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}
