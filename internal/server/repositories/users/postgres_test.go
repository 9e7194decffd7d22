package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*hashed_password\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id,\s*is_active\s*$`
	byEmail = `(?s)^SELECT\s+id,\s*email,\s*hashed_password,\s*is_active\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	listQ   = `(?s)^SELECT\s+id,\s*email,\s*hashed_password,\s*is_active\s+FROM\s+users\s+ORDER\s+BY\s+id\s+OFFSET\s+\$1\s+LIMIT\s+\$2\s*$`
)

var identityCols = []string{"id", "email", "hashed_password", "is_active"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow(int64(42), true))

	got, err := repo.Create(context.Background(), &models.Identity{Email: "alice@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || !got.IsActive || got.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Identity{Email: "alice@example.com", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Identity{Email: "alice@example.com", PasswordHash: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmail).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(identityCols).AddRow(int64(1), "alice@example.com", "hash", true))

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != 1 || got.PasswordHash != "hash" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmail).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestList_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(identityCols).
		AddRow(int64(1), "a@example.com", "h1", true).
		AddRow(int64(2), "b@example.com", "h2", true)
	mock.ExpectQuery(listQ).WithArgs(0, 100).WillReturnRows(rows)

	got, err := repo.List(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].Email != "b@example.com" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestList_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WithArgs(10, 5).WillReturnRows(sqlmock.NewRows(identityCols))

	got, err := repo.List(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(identityCols).
		AddRow(int64(1), "a@example.com", "h1", true).
		RowError(0, errors.New("row broke"))
	mock.ExpectQuery(listQ).WithArgs(0, 1).WillReturnRows(rows)

	if _, err := repo.List(context.Background(), 0, 1); err == nil {
		t.Fatal("expected error")
	}
}
