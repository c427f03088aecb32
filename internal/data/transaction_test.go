package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"Tubely/internal/model"
	"Tubely/internal/testutil"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUoW(t *testing.T, retries uint) (UnitOfWork, *gorm.DB) {
	db := testutil.NewDB(t)
	return NewUnitOfWork(db, NewRepositories(db, nil), Options{MaxRetries: retries, MaxElapsedTime: time.Second}), db
}

func TestExecuteRetriesDeadlock(t *testing.T) {
	uow, db := newUoW(t, 3)
	owner := testutil.CreateUser(t, db, "alice")
	video := testutil.CreateVideo(t, db, owner.ID)

	attempts := 0
	err := uow.Execute(context.Background(), func(ctx context.Context, repos *Repositories) error {
		attempts++
		ok, err := repos.Counters.ApplyDelta(ctx, video.Ref(), model.CounterDelta{Likes: 1})
		require.NoError(t, err)
		require.True(t, ok)
		if attempts < 3 {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// 前两次都回滚了，只生效一次
	assert.Equal(t, uint64(1), testutil.Counters(t, db, video.Ref()).Likes)
}

func TestExecutePermanentErrorNotRetried(t *testing.T) {
	uow, _ := newUoW(t, 3)
	boom := errors.New("boom")
	attempts := 0
	err := uow.Execute(context.Background(), func(ctx context.Context, repos *Repositories) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestExecuteRetriesExhausted(t *testing.T) {
	uow, _ := newUoW(t, 2)
	attempts := 0
	err := uow.Execute(context.Background(), func(ctx context.Context, repos *Repositories) error {
		attempts++
		return &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, attempts)
}

func TestExecuteIgnoresCallerCancellation(t *testing.T) {
	uow, db := newUoW(t, 0)
	owner := testutil.CreateUser(t, db, "bob")
	video := testutil.CreateVideo(t, db, owner.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := uow.Execute(ctx, func(ctx context.Context, repos *Repositories) error {
		_, err := repos.Counters.ApplyDelta(ctx, video.Ref(), model.CounterDelta{Comments: 1})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), testutil.Counters(t, db, video.Ref()).Comments)
}

func TestAfterCommitRunsOnlyOnCommittedAttempt(t *testing.T) {
	uow, _ := newUoW(t, 3)
	var fired []int
	attempts := 0
	err := uow.Execute(context.Background(), func(ctx context.Context, repos *Repositories) error {
		attempts++
		n := attempts
		AfterCommit(ctx, func() { fired = append(fired, n) })
		assert.Empty(t, fired)
		if attempts < 2 {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, fired)

	fired = nil
	err = uow.Execute(context.Background(), func(ctx context.Context, repos *Repositories) error {
		AfterCommit(ctx, func() { fired = append(fired, 1) })
		return errors.New("rollback")
	})
	assert.Error(t, err)
	assert.Empty(t, fired)

	// 不在事务里就立即执行
	AfterCommit(context.Background(), func() { fired = append(fired, 9) })
	assert.Equal(t, []int{9}, fired)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsTransient(errors.New("database is locked")))
	assert.False(t, IsTransient(nil))

	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKey(errors.New("other")))
}
