package identity

import (
	"context"
	"testing"

	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormRepository(db), mock
}

func TestGormRepository_CreateUserWithRoles(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO "user_roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	user := model.User{Email: "admin@example.com", Password: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), &user, model.RoleAdmin))
	assert.Equal(t, uint(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_CreateUserRollsBackOnRoleFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO "user_roles"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	user := model.User{Email: "admin@example.com", Password: "hash"}
	err := repo.CreateUser(context.Background(), &user, model.RoleAdmin)
	assert.ErrorContains(t, err, "grant role admin")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_CreateUserEmailTaken(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.CreateUser(context.Background(), &model.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryRepository_CreateUserWithRoles(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := model.User{Email: "admin@example.com"}
	require.NoError(t, repo.CreateUser(ctx, &user, model.RoleAdmin))
	ok, err := repo.HasRole(ctx, user.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	plain := model.User{Email: "ana@example.com"}
	require.NoError(t, repo.CreateUser(ctx, &plain))
	ok, err = repo.HasRole(ctx, plain.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}
