package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is a [Store] over the refresh_credentials table. Open the
// database with the "pgx" driver from github.com/jackc/pgx/v5/stdlib.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore returns a store bound to db.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts cred. A conflicting value inserts nothing and reports
// ErrDuplicateCredential.
func (s *PostgresStore) Add(ctx context.Context, cred Credential) error {
	if err := validate(cred); err != nil {
		return err
	}

	query := `
		INSERT INTO refresh_credentials (value, owner_user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (value) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, cred.Value, cred.OwnerUserID, cred.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n == 0 {
		return ErrDuplicateCredential
	}
	return nil
}

// FindByValue implements [Store].
func (s *PostgresStore) FindByValue(ctx context.Context, value string) (Credential, error) {
	if value == "" {
		return Credential{}, ErrNotFound
	}

	query := `
		SELECT owner_user_id, created_at
		FROM refresh_credentials
		WHERE value = $1
	`
	cred := Credential{Value: value}
	if err := s.db.QueryRowContext(ctx, query, value).Scan(&cred.OwnerUserID, &cred.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cred, nil
}

// DeleteByValue implements [Store].
func (s *PostgresStore) DeleteByValue(ctx context.Context, value string) error {
	query := `
		DELETE FROM refresh_credentials
		WHERE value = $1
	`
	if _, err := s.db.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
