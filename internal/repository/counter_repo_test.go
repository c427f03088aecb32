package repository

import (
	"context"
	"regexp"
	"testing"

	"Tubely/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestApplyDeltaSwitchIsOneGuardedStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db)
	ref := model.TargetRef{Kind: model.KindVideo, ID: 7}

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE `videos` SET `dislikes_count`=dislikes_count + ?,`likes_count`=likes_count - ? WHERE id = ? AND likes_count >= ?",
	)).WithArgs(1, 1, 7, 1).WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ApplyDelta(context.Background(), ref, model.Switched(model.PolarityLike, model.PolarityDislike).Delta())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDeltaGuardMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db)
	ref := model.TargetRef{Kind: model.KindComment, ID: 9}

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE `comments` SET `replies_count`=replies_count - ? WHERE id = ? AND replies_count >= ?",
	)).WithArgs(1, 9, 1).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ApplyDelta(context.Background(), ref, model.CounterDelta{Replies: -1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampDeltaNeverGoesNegative(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db)
	ref := model.TargetRef{Kind: model.KindPost, ID: 3}

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE `posts` SET `comments_count`=CASE WHEN comments_count < ? THEN 0 ELSE comments_count - ? END WHERE id = ?",
	)).WithArgs(2, 2, 3).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ClampDelta(context.Background(), ref, model.CounterDelta{Comments: -2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDeltaRejectsColumnOfOtherKind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db)

	_, err := repo.ApplyDelta(context.Background(), model.TargetRef{Kind: model.KindVideo, ID: 1}, model.CounterDelta{Replies: 1})
	assert.ErrorIs(t, err, ErrColumnNotOwned)

	_, err = repo.ApplyDelta(context.Background(), model.TargetRef{Kind: "playlist", ID: 1}, model.CounterDelta{Likes: 1})
	assert.ErrorIs(t, err, model.ErrUnknownTargetKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
