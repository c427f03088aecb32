package service

import (
	"context"
	"testing"

	"Tubely/internal/model"
	"Tubely/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileTargetRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	b := testutil.CreateUser(t, env.db, "b")
	v := testutil.CreateVideo(t, env.db, a.ID)

	_, err := env.reactions.ApplyReaction(ctx, b.ID, v.ID, "video", "like")
	require.NoError(t, err)
	_, err = env.comments.AddComment(ctx, b.ID, v.Ref(), "hi", nil)
	require.NoError(t, err)

	drifted, err := env.reconcile.ReconcileTarget(ctx, v.Ref())
	require.NoError(t, err)
	assert.False(t, drifted)

	require.NoError(t, env.db.Table("videos").Where("id = ?", v.ID).
		UpdateColumns(map[string]interface{}{"likes_count": 9, "comments_count": 0}).Error)

	drifted, err = env.reconcile.ReconcileTarget(ctx, v.Ref())
	require.NoError(t, err)
	assert.True(t, drifted)
	assert.Equal(t, model.Counters{Likes: 1, Comments: 1}, env.counts(t, v.Ref()))
}

func TestReconcileTargetDeletedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	drifted, err := env.reconcile.ReconcileTarget(context.Background(), model.TargetRef{Kind: model.KindVideo, ID: 5})
	require.NoError(t, err)
	assert.False(t, drifted)
}

func TestReconcileAllWalksEveryKindInBatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "a")
	videos := []*model.Video{
		testutil.CreateVideo(t, env.db, a.ID),
		testutil.CreateVideo(t, env.db, a.ID),
		testutil.CreateVideo(t, env.db, a.ID),
	}
	p := testutil.CreatePost(t, env.db, a.ID)
	x, err := env.comments.AddComment(ctx, a.ID, p.Ref(), "top", nil)
	require.NoError(t, err)
	_, err = env.comments.AddComment(ctx, a.ID, p.Ref(), "reply", &x.ID)
	require.NoError(t, err)

	require.NoError(t, env.db.Table("videos").Where("id = ?", videos[2].ID).UpdateColumn("dislikes_count", 3).Error)
	require.NoError(t, env.db.Table("comments").Where("id = ?", x.ID).UpdateColumn("replies_count", 0).Error)

	report, err := env.reconcile.ReconcileAll(ctx)
	require.NoError(t, err)
	// 3个视频 + 2条评论 + 1条动态
	assert.Equal(t, 6, report.Checked)
	assert.Equal(t, 2, report.Repaired)
	assert.Zero(t, report.Failed)
	assert.Equal(t, uint64(0), env.counts(t, videos[2].Ref()).Dislikes)
	assert.Equal(t, uint64(1), env.counts(t, x.Ref()).Replies)
}
