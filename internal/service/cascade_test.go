package service

import (
	"context"
	"sync"
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

func TestDeleteVideoRemovesEverythingAttached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	v := testutil.CreateVideo(t, env.db, a.ID)
	keep := testutil.CreateVideo(t, env.db, a.ID)

	x, err := env.comments.AddComment(ctx, b.ID, v.Ref(), "nice", nil)
	require.NoError(t, err)
	y, err := env.comments.AddComment(ctx, a.ID, v.Ref(), "thanks", &x.ID)
	require.NoError(t, err)
	_, err = env.reactions.ApplyReaction(ctx, b.ID, v.ID, "video", "like")
	require.NoError(t, err)
	_, err = env.reactions.ApplyReaction(ctx, b.ID, y.ID, "comment", "like")
	require.NoError(t, err)
	_, err = env.reactions.ApplyReaction(ctx, b.ID, keep.ID, "video", "like")
	require.NoError(t, err)

	require.NoError(t, env.repos.Histories.Touch(ctx, b.ID, v.ID, time.Now()))
	require.NoError(t, env.repos.WatchLater.Create(ctx, &model.WatchLater{UserID: b.ID, VideoID: v.ID}))
	playlist := &model.Playlist{OwnerID: b.ID, Name: "mix"}
	require.NoError(t, env.repos.Playlists.Create(ctx, playlist))
	require.NoError(t, env.repos.Playlists.AddVideo(ctx, playlist.ID, v.ID))
	post := &model.Post{OwnerID: a.ID, Type: model.PostVideo, Content: "watch this", VideoID: &v.ID}
	require.NoError(t, env.repos.Posts.Create(ctx, post))

	err = env.cascade.DeleteTarget(ctx, b.ID, v.Ref())
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	require.NoError(t, env.cascade.DeleteTarget(ctx, a.ID, v.Ref()))

	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "videos", "id = ?", v.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "comments", "target_id = ?", v.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "reactions", "target_id IN ?", []uint64{v.ID, x.ID, y.ID}))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "histories", "video_id = ?", v.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "watch_laters", "video_id = ?", v.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "playlist_videos", "video_id = ?", v.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "posts", "video_id = ?", v.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, "posts", "id = ?", post.ID))

	// 别的视频不受影响
	assert.Equal(t, uint64(1), env.counts(t, keep.Ref()).Likes)

	err = env.cascade.DeleteTarget(ctx, a.ID, v.Ref())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestDeletePostAndCommentKinds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	p := testutil.CreatePost(t, env.db, a.ID)
	x, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "top", nil)
	require.NoError(t, err)
	y, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "second", nil)
	require.NoError(t, err)

	// comment类型走评论删除的逻辑
	require.NoError(t, env.cascade.DeleteTarget(ctx, a.ID, x.Ref()))
	assert.Equal(t, uint64(1), env.counts(t, p.Ref()).Comments)

	require.NoError(t, env.cascade.DeleteTarget(ctx, a.ID, p.Ref()))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "posts", "id = ?", p.ID))
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, "comments", "id = ?", y.ID))

	err = env.cascade.DeleteTarget(ctx, a.ID, model.TargetRef{Kind: "playlist", ID: 1})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

// callLog 记录级联删除里加锁和收集子记录的先后顺序
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type loggingTargets struct {
	repository.TargetRepository
	log *callLog
}

func (r *loggingTargets) LockOwner(ctx context.Context, ref model.TargetRef) (uint64, error) {
	r.log.add("lock " + ref.String())
	return r.TargetRepository.LockOwner(ctx, ref)
}

func (r *loggingTargets) WithTx(tx *gorm.DB) repository.TargetRepository {
	return &loggingTargets{TargetRepository: r.TargetRepository.WithTx(tx), log: r.log}
}

type loggingComments struct {
	repository.CommentRepository
	log *callLog
}

func (r *loggingComments) IDsByTarget(ctx context.Context, target model.TargetRef) ([]uint64, error) {
	r.log.add("collect " + target.String())
	return r.CommentRepository.IDsByTarget(ctx, target)
}

func (r *loggingComments) ReplyIDs(ctx context.Context, parentID uint64) ([]uint64, error) {
	r.log.add("collect replies")
	return r.CommentRepository.ReplyIDs(ctx, parentID)
}

func (r *loggingComments) WithTx(tx *gorm.DB) repository.CommentRepository {
	return &loggingComments{CommentRepository: r.CommentRepository.WithTx(tx), log: r.log}
}

func TestCascadeLocksTargetBeforeCollectingChildren(t *testing.T) {
	log := &callLog{}
	env := newTestEnvWith(t, func(repos *data.Repositories) {
		repos.Targets = &loggingTargets{TargetRepository: repos.Targets, log: log}
		repos.Comments = &loggingComments{CommentRepository: repos.Comments, log: log}
	})
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	p := testutil.CreatePost(t, env.db, a.ID)
	x, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "top", nil)
	require.NoError(t, err)
	_, err = env.comments.AddComment(ctx, a.ID, p.Ref(), "reply", &x.ID)
	require.NoError(t, err)

	require.NoError(t, env.comments.DeleteComment(ctx, a.ID, x.ID))
	assert.Equal(t, []string{"lock " + x.Ref().String(), "collect replies"}, log.list())

	log.mu.Lock()
	log.calls = nil
	log.mu.Unlock()
	require.NoError(t, env.cascade.DeleteTarget(ctx, a.ID, p.Ref()))
	assert.Equal(t, []string{"lock " + p.Ref().String(), "collect " + p.Ref().String()}, log.list())

	// 锁不到说明目标已经不在了
	err = env.cascade.DeleteTarget(ctx, a.ID, p.Ref())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	err = env.comments.DeleteComment(ctx, a.ID, x.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
