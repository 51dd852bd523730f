package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feyndora/backend/config"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestClaimLocksUserRowForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSigninService(db, NewClockFunc(nil, (&testClock{}).Now), config.DefaultGamification())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE `users`.`id` = \\? AND `users`.`deleted_at` IS NULL .* FOR UPDATE").
		WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectRollback()

	_, err := svc.Claim(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockUserMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	gacha := NewGachaService(db, NewClockFunc(nil, (&testClock{}).Now), config.DefaultGamification())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `users` .* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "coins", "diamonds"}))
	mock.ExpectRollback()

	_, err := gacha.Draw(context.Background(), 7, config.DrawNormal)
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitRefusesOverdraw(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET .* WHERE \\(id = \\? AND coins >= \\? AND diamonds >= \\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.Transaction(func(tx *gorm.DB) error {
		return debit(tx, 7, 500, 0)
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
