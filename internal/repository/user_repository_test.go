package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoshare/photoshare-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "logged_in", "email_confirmed", "role", "registered_at"}).
		AddRow("u1", "alice", "alice@example.com", "hash", true, false, string(models.RoleUser), now)
}

func TestUserFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, password_hash, logged_in, email_confirmed, role, registered_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(userRows(time.Now()))

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.LoggedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserExistsByUsernameOrEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)")).
		WithArgs("alice", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "alice", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserSetLoggedIn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET logged_in = $2 WHERE id = $1")).
		WithArgs("u1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetLoggedIn(context.Background(), "u1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserConfirmEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_confirmed = TRUE WHERE id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConfirmEmail(context.Background(), "u1"))
}

func TestUserList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, password_hash, logged_in, email_confirmed, role, registered_at FROM users WHERE 1=1 ORDER BY registered_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(userRows(time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListFiltersByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleModerator
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 AND role = $1")).
		WithArgs(role).
		WillReturnRows(userRows(time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
