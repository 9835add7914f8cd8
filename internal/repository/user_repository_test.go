package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
)

var userCols = []string{"id", "name", "email", "password_hash", "is_active", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestFindActiveByEmail_Found(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1 AND is_active=TRUE")).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "Ana", "a@x.com", "$2a$hash", true, ts, ts))

	user, err := repo.FindActiveByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, &domain.User{
		ID:           1,
		Name:         "Ana",
		Email:        "a@x.com",
		PasswordHash: "$2a$hash",
		IsActive:     true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByID_AbsentIsErrNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1 AND is_active=TRUE")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(userCols))

	user, err := repo.FindActiveByID(context.Background(), 7)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_DoesNotFilterActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Now()

	mock.ExpectQuery(`FROM users WHERE id=\$1$`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "Bo", "b@x.com", "h", false, ts, ts))

	user, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ReturnsGeneratedFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, is_active)")).
		WithArgs("Ana", "a@x.com", "h", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), ts, ts))

	user := &domain.User{Name: "Ana", Email: "a@x.com", PasswordHash: "h", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(10), user.ID)
	assert.Equal(t, ts, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Ana", "a@x.com", "h", true).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Name: "Ana", Email: "a@x.com", PasswordHash: "h", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET name=$1, email=$2, password_hash=$3")).
		WithArgs("Ana", "a@x.com", "h", int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &domain.User{ID: 4, Name: "Ana", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=FALSE, updated_at=NOW()") +
		`\s+` + regexp.QuoteMeta("WHERE id=$1 AND is_active=TRUE")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=FALSE")).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=FALSE")).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.ErrorIs(t, repo.Deactivate(context.Background(), 4), pgx.ErrNoRows)
	assert.EqualError(t, repo.Deactivate(context.Background(), 5), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
