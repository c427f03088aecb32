package repository

import (
	"context"
	"regexp"
	"testing"

	"Tubely/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLockOwnerTakesRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTargetRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `owner_id` FROM `posts` WHERE id = ? LIMIT ? FOR UPDATE",
	)).WithArgs(11, 1).WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(3))

	owner, err := repo.LockOwner(context.Background(), model.TargetRef{Kind: model.KindPost, ID: 11})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockOwnerMissingTarget(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTargetRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `owner_id` FROM `comments` WHERE id = ? LIMIT ? FOR UPDATE",
	)).WithArgs(5, 1).WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	_, err := repo.LockOwner(context.Background(), model.TargetRef{Kind: model.KindComment, ID: 5})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.LockOwner(context.Background(), model.TargetRef{Kind: "playlist", ID: 5})
	assert.ErrorIs(t, err, model.ErrUnknownTargetKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
