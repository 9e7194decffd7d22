// Package roles implements role and membership persistence on PostgreSQL.
// Memberships are looked up through the user_roles join table by id; no
// object holds a live reference to the other side.
package roles

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

// Create inserts role. A duplicate name yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {

	query :=
		`INSERT INTO roles (name, description)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, role.Name, nullString(role.Description)).Scan(&role.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return role, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	query :=
		`SELECT id, name, description FROM roles
		 WHERE name = $1
		 `

	var description sql.NullString
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &description)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	role.Description = fromNullString(description)
	return role, nil
}

// List returns a page of roles ordered by id.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.Role, error) {
	query :=
		`SELECT id, name, description FROM roles
		 ORDER BY id
		 OFFSET $1 LIMIT $2
		 `

	return r.query(ctx, query, skip, limit)
}

// ListByIdentity returns every role the identity holds, ordered by id.
func (r *PostgresRepository) ListByIdentity(ctx context.Context, identityID int64) ([]*models.Role, error) {
	query :=
		`SELECT r.id, r.name, r.description FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.id
		 `

	return r.query(ctx, query, identityID)
}

// Assign records the (identity, role) membership. Assigning an existing
// pair is a no-op; an unknown identity or role yields common.ErrorNotFound.
func (r *PostgresRepository) Assign(ctx context.Context, identityID, roleID int64) error {
	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, role_id) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query, identityID, roleID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Role, 0)
	for rows.Next() {
		var description sql.NullString
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		role.Description = fromNullString(description)
		result = append(result, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
