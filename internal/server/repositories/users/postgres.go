// Package users implements identity persistence on PostgreSQL.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/dbx"
	"github.com/dmitrijs2005/guardian/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts identity and fills in the store-assigned ID and active
// flag. A duplicate email yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {

	query :=
		`INSERT INTO users (email, hashed_password)
		 VALUES ($1, $2)
		 RETURNING id, is_active
		 `

	err := r.db.QueryRowContext(ctx, query,
		identity.Email, identity.PasswordHash).Scan(&identity.ID, &identity.IsActive)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// GetByEmail matches email exactly as stored (case-sensitive).
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query :=
		`SELECT id, email, hashed_password, is_active FROM users
		 WHERE email = $1
		 `

	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Identity, error) {
	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.IsActive)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

// List returns a page of identities ordered by id.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.Identity, error) {
	query :=
		`SELECT id, email, hashed_password, is_active FROM users
		 ORDER BY id
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Identity, 0)
	for rows.Next() {
		identity := &models.Identity{}
		if err := rows.Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.IsActive); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
