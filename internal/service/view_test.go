package service

import (
	"context"
	"fmt"
	"testing"

	"Tubely/internal/apperr"
	"Tubely/internal/dto"
	"Tubely/internal/model"
	"Tubely/internal/repository"
	"Tubely/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(t *testing.T, p, limit int) dto.PageRequest {
	t.Helper()
	req, err := dto.NewPageRequest(p, limit)
	require.NoError(t, err)
	return req
}

func TestListCommentsPagesNewestFirstWithViewerState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	v := testutil.CreateVideo(t, env.db, a.ID)

	var created []*model.Comment
	for i := 0; i < 5; i++ {
		c, err := env.comments.AddComment(ctx, a.ID, v.Ref(), fmt.Sprintf("comment %d", i), nil)
		require.NoError(t, err)
		created = append(created, c)
	}
	// 回复不出现在一级评论列表里
	_, err := env.comments.AddComment(ctx, b.ID, v.Ref(), "reply", &created[0].ID)
	require.NoError(t, err)

	_, err = env.reactions.ApplyReaction(ctx, b.ID, created[4].ID, "comment", "like")
	require.NoError(t, err)
	_, err = env.reactions.ApplyReaction(ctx, b.ID, created[3].ID, "comment", "dislike")
	require.NoError(t, err)

	first, err := env.views.ListComments(ctx, b.ID, v.Ref(), page(t, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), first.TotalDocs)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPrevPage)
	require.Len(t, first.Docs, 2)
	assert.Equal(t, created[4].ID, first.Docs[0].ID)
	assert.Equal(t, created[3].ID, first.Docs[1].ID)
	assert.True(t, first.Docs[0].IsLiked)
	assert.False(t, first.Docs[0].IsDisliked)
	assert.True(t, first.Docs[1].IsDisliked)
	assert.Equal(t, uint64(1), first.Docs[0].LikesCount)
	assert.Equal(t, "a", first.Docs[0].Owner.Username)

	last, err := env.views.ListComments(ctx, b.ID, v.Ref(), page(t, 3, 2))
	require.NoError(t, err)
	require.Len(t, last.Docs, 1)
	assert.Equal(t, created[0].ID, last.Docs[0].ID)
	assert.Equal(t, uint64(1), last.Docs[0].RepliesCount)
	assert.False(t, last.HasNextPage)

	beyond, err := env.views.ListComments(ctx, b.ID, v.Ref(), page(t, 9, 2))
	require.NoError(t, err)
	assert.Empty(t, beyond.Docs)
	assert.NotNil(t, beyond.Docs)
	assert.Equal(t, int64(5), beyond.TotalDocs)

	// 偏移量溢出时也是空页，不能绕回第一页
	huge, err := env.views.ListComments(ctx, b.ID, v.Ref(), page(t, 1<<62+1, 4))
	require.NoError(t, err)
	assert.Empty(t, huge.Docs)
	assert.Equal(t, int64(5), huge.TotalDocs)

	// 匿名用户看不到任何态度
	anon, err := env.views.ListComments(ctx, 0, v.Ref(), page(t, 1, 2))
	require.NoError(t, err)
	for _, c := range anon.Docs {
		assert.False(t, c.IsLiked)
		assert.False(t, c.IsDisliked)
	}
}

func TestListRepliesAndErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	p := testutil.CreatePost(t, env.db, a.ID)
	x, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "top", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "reply", &x.ID)
		require.NoError(t, err)
	}

	replies, err := env.views.ListReplies(ctx, a.ID, x.ID, page(t, 1, 10))
	require.NoError(t, err)
	assert.Len(t, replies.Docs, 3)
	for _, r := range replies.Docs {
		require.NotNil(t, r.ParentID)
		assert.Equal(t, x.ID, *r.ParentID)
	}

	_, err = env.views.ListReplies(ctx, a.ID, 424242, page(t, 1, 10))
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = env.views.ListComments(ctx, a.ID, x.Ref(), page(t, 1, 10))
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	_, err = env.views.ListComments(ctx, a.ID, model.TargetRef{Kind: model.KindVideo, ID: 1}, page(t, 1, 10))
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestVideosHidesUnpublishedFromOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	testutil.CreateVideo(t, env.db, a.ID)
	draft := testutil.CreateVideo(t, env.db, a.ID)
	require.NoError(t, env.db.Table("videos").Where("id = ?", draft.ID).UpdateColumn("is_published", false).Error)

	own, err := env.views.Videos(ctx, a.ID, repository.VideoFilter{OwnerID: a.ID}, page(t, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), own.TotalDocs)

	other, err := env.views.Videos(ctx, b.ID, repository.VideoFilter{OwnerID: a.ID}, page(t, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.TotalDocs)
}

func TestLikedVideosAndFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	v1 := testutil.CreateVideo(t, env.db, a.ID)
	v2 := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, b.ID, v1.ID, "video", "like")
	require.NoError(t, err)
	_, err = env.reactions.ApplyReaction(ctx, b.ID, v2.ID, "video", "dislike")
	require.NoError(t, err)

	liked, err := env.views.LikedVideos(ctx, b.ID, page(t, 1, 10))
	require.NoError(t, err)
	require.Len(t, liked.Docs, 1)
	assert.Equal(t, v1.ID, liked.Docs[0].ID)
	assert.True(t, liked.Docs[0].IsLiked)

	feed, err := env.views.SubscriptionFeed(ctx, b.ID, page(t, 1, 10))
	require.NoError(t, err)
	assert.Empty(t, feed.Docs)

	subs := NewSubscriptionService(env.repos)
	_, err = subs.Toggle(ctx, b.ID, a.ID)
	require.NoError(t, err)

	feed, err = env.views.SubscriptionFeed(ctx, b.ID, page(t, 1, 10))
	require.NoError(t, err)
	assert.Len(t, feed.Docs, 2)

	_, err = env.views.SubscriptionFeed(ctx, 0, page(t, 1, 10))
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}
