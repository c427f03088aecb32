package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/internal/repository"
	"Tubely/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApplyReactionLikeSwitchToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	c := testutil.CreateUser(t, env.db, "c")
	v := testutil.CreateVideo(t, env.db, a.ID)

	res, err := env.reactions.ApplyReaction(ctx, b.ID, v.ID, "", "like")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionAdded, res.Transition.Kind)
	assert.Equal(t, model.KindVideo, res.Target.Kind)

	_, err = env.reactions.ApplyReaction(ctx, c.ID, v.ID, "", "like")
	require.NoError(t, err)
	assert.Equal(t, model.Counters{Likes: 2}, env.counts(t, v.Ref()))

	res, err = env.reactions.ApplyReaction(ctx, c.ID, v.ID, "video", "dislike")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionSwitched, res.Transition.Kind)
	require.NotNil(t, res.Status())
	assert.Equal(t, model.PolarityDislike, *res.Status())
	assert.Equal(t, model.Counters{Likes: 1, Dislikes: 1}, env.counts(t, v.Ref()))

	res, err = env.reactions.ApplyReaction(ctx, b.ID, v.ID, "", "like")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionRemoved, res.Transition.Kind)
	assert.Nil(t, res.Status())
	assert.Equal(t, model.Counters{Dislikes: 1}, env.counts(t, v.Ref()))

	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, "reactions", "target_id = ?", v.ID))
	assert.Empty(t, env.notifier.requested())
}

func TestApplyReactionOnCommentAndPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	p := testutil.CreatePost(t, env.db, a.ID)
	comment, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "first", nil)
	require.NoError(t, err)

	res, err := env.reactions.ApplyReaction(ctx, a.ID, comment.ID, "", "dislike")
	require.NoError(t, err)
	assert.Equal(t, model.KindComment, res.Target.Kind)
	assert.Equal(t, uint64(1), env.counts(t, comment.Ref()).Dislikes)

	res, err = env.reactions.ApplyReaction(ctx, a.ID, p.ID, "post", "like")
	require.NoError(t, err)
	assert.Equal(t, model.KindPost, res.Target.Kind)
	assert.Equal(t, model.Counters{Likes: 1, Comments: 1}, env.counts(t, p.Ref()))
}

func TestApplyReactionRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "", "love")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	_, err = env.reactions.ApplyReaction(ctx, 0, v.ID, "", "like")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	_, err = env.reactions.ApplyReaction(ctx, a.ID, v.ID+12345, "", "like")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// 类型给错了：这个ID不是动态
	_, err = env.reactions.ApplyReaction(ctx, a.ID, v.ID, "post", "like")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = env.reactions.ApplyReaction(ctx, a.ID, v.ID, "playlist", "like")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	assert.Equal(t, model.Counters{}, env.counts(t, v.Ref()))
}

// racingReactions 第一次Find假装记录不存在，模拟另一个请求在读和写之间插入了同一条记录
type racingReactions struct {
	repository.ReactionRepository
	hidden *atomic.Bool
}

func (r *racingReactions) Find(ctx context.Context, userID, targetID uint64) (*model.Reaction, error) {
	if r.hidden.CompareAndSwap(true, false) {
		return nil, gorm.ErrRecordNotFound
	}
	return r.ReactionRepository.Find(ctx, userID, targetID)
}

func (r *racingReactions) WithTx(tx *gorm.DB) repository.ReactionRepository {
	return &racingReactions{ReactionRepository: r.ReactionRepository.WithTx(tx), hidden: r.hidden}
}

func TestApplyReactionDuplicateInsertBecomesNoop(t *testing.T) {
	hidden := &atomic.Bool{}
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Reactions = &racingReactions{ReactionRepository: repos.Reactions, hidden: hidden}
	})
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)

	hidden.Store(true)
	res, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)
	// 输掉竞争的请求不再切换，结果就是已经存在的那条
	assert.Equal(t, model.TransitionNone, res.Transition.Kind)
	require.NotNil(t, res.Status())
	assert.Equal(t, model.PolarityLike, *res.Status())
	assert.Equal(t, model.Counters{Likes: 1}, env.counts(t, v.Ref()))
}

func TestApplyReactionDuplicateInsertSwitches(t *testing.T) {
	hidden := &atomic.Bool{}
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Reactions = &racingReactions{ReactionRepository: repos.Reactions, hidden: hidden}
	})
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)

	hidden.Store(true)
	res, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "dislike")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionSwitched, res.Transition.Kind)
	assert.Equal(t, model.Counters{Dislikes: 1}, env.counts(t, v.Ref()))
}

// staleReactions 第一次Find返回一份旧记录，模拟读完之后同一用户的另一个请求已经把它删掉并提交
type staleReactions struct {
	repository.ReactionRepository
	stale *atomic.Pointer[model.Reaction]
}

func (r *staleReactions) Find(ctx context.Context, userID, targetID uint64) (*model.Reaction, error) {
	if rec := r.stale.Swap(nil); rec != nil {
		return rec, nil
	}
	return r.ReactionRepository.Find(ctx, userID, targetID)
}

func (r *staleReactions) WithTx(tx *gorm.DB) repository.ReactionRepository {
	return &staleReactions{ReactionRepository: r.ReactionRepository.WithTx(tx), stale: r.stale}
}

// withdrawLike 在事务之外撤掉点赞并回退计数，相当于并发的取消点赞已经提交
func withdrawLike(t *testing.T, env *testEnv, userID uint64, v *model.Video) *model.Reaction {
	t.Helper()
	ctx := context.Background()
	rec, err := env.repos.Reactions.Find(ctx, userID, v.ID)
	require.NoError(t, err)
	require.NoError(t, env.db.Delete(&model.Reaction{}, rec.ID).Error)
	require.NoError(t, env.db.Table("videos").Where("id = ?", v.ID).
		UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error)
	return rec
}

func TestApplyReactionSwitchLostToConcurrentRemoval(t *testing.T) {
	stale := &atomic.Pointer[model.Reaction]{}
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Reactions = &staleReactions{ReactionRepository: repos.Reactions, stale: stale}
	})
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)
	stale.Store(withdrawLike(t, env, a.ID, v))

	// 切换时条件更新没命中，重新读到没有记录，于是新增
	res, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "dislike")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionAdded, res.Transition.Kind)
	require.NotNil(t, res.Status())
	assert.Equal(t, model.PolarityDislike, *res.Status())
	assert.Equal(t, model.Counters{Dislikes: 1}, env.counts(t, v.Ref()))
	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, "reactions", "target_id = ?", v.ID))
	assert.Empty(t, env.notifier.requested())
}

func TestApplyReactionToggleOffLostToConcurrentRemoval(t *testing.T) {
	stale := &atomic.Pointer[model.Reaction]{}
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Reactions = &staleReactions{ReactionRepository: repos.Reactions, stale: stale}
	})
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)
	stale.Store(withdrawLike(t, env, a.ID, v))

	res, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)
	assert.Equal(t, model.TransitionAdded, res.Transition.Kind)
	assert.Equal(t, model.Counters{Likes: 1}, env.counts(t, v.Ref()))
	assert.Empty(t, env.notifier.requested())
}

// blockingReactions 第一次Find停住，直到测试放行
type blockingReactions struct {
	repository.ReactionRepository
	once    *sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReactions) Find(ctx context.Context, userID, targetID uint64) (*model.Reaction, error) {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return r.ReactionRepository.Find(ctx, userID, targetID)
}

func (r *blockingReactions) WithTx(tx *gorm.DB) repository.ReactionRepository {
	return &blockingReactions{
		ReactionRepository: r.ReactionRepository.WithTx(tx),
		once:               r.once,
		entered:            r.entered,
		release:            r.release,
	}
}

func TestApplyReactionCoalescesIdenticalRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Reactions = &blockingReactions{
			ReactionRepository: repos.Reactions,
			once:               &sync.Once{},
			entered:            entered,
			release:            release,
		}
	})
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	const n = 5
	results := make([]*ReactionResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = env.reactions.ApplyReaction(context.Background(), a.ID, v.ID, "video", "like")
		}()
	}

	start(0)
	<-entered
	for i := 1; i < n; i++ {
		start(i)
	}
	// 让其余请求都排到同一个singleflight调用上
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, model.TransitionAdded, results[i].Transition.Kind)
	}
	assert.Equal(t, model.Counters{Likes: 1}, env.counts(t, v.Ref()))
	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, "reactions", "target_id = ?", v.ID))
}

func TestApplyReactionSurvivesCallerCancel(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.CreateUser(t, env.db, "a")
	v := testutil.CreateVideo(t, env.db, a.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.reactions.ApplyReaction(ctx, a.ID, v.ID, "video", "like")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), env.counts(t, v.Ref()).Likes)
}
