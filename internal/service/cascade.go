package service

import (
	"context"
	"errors"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"

	"gorm.io/gorm"
)

// CascadeService 删除目标时，把挂在它身上的一切一起删掉，全部在一个事务里
type CascadeService interface {
	DeleteTarget(ctx context.Context, requesterID uint64, ref model.TargetRef) error
}

type cascadeService struct {
	uow       data.UnitOfWork
	repos     *data.Repositories
	targets   TargetResolver
	reactions ReactionService
	comments  CommentService
}

func NewCascadeService(uow data.UnitOfWork, repos *data.Repositories, targets TargetResolver, reactions ReactionService, comments CommentService) CascadeService {
	return &cascadeService{
		uow:       uow,
		repos:     repos,
		targets:   targets,
		reactions: reactions,
		comments:  comments,
	}
}

// DeleteTarget 1、锁住目标行，只有作者能删 2、删目标下所有评论、目标和这些评论上的所有点赞
// 3、视频还要清理观看历史、稍后再看、播放列表，以及动态里对它的引用 4、删除目标本身
func (s *cascadeService) DeleteTarget(ctx context.Context, requesterID uint64, ref model.TargetRef) error {
	if !ref.Kind.Valid() {
		return apperr.InvalidArgument("不支持的目标类型")
	}
	if ref.Kind == model.KindComment {
		return s.comments.DeleteComment(ctx, requesterID, ref.ID)
	}

	var removed []uint64
	err := s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		// 必须是事务里的第一条查询：并发的评论、点赞都要改目标行上的计数，会排在这把锁后面
		owner, err := repos.Targets.LockOwner(ctx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(string(ref.Kind) + "不存在")
		}
		if err != nil {
			return err
		}
		if owner != requesterID {
			return apperr.Forbidden("只能删除自己的" + string(ref.Kind))
		}

		commentIDs, err := repos.Comments.IDsByTarget(ctx, ref)
		if err != nil {
			return err
		}
		ids := append([]uint64{ref.ID}, commentIDs...)
		if _, err := s.reactions.RemoveReactionsForTarget(ctx, repos, ids...); err != nil {
			return err
		}
		if _, err := repos.Comments.DeleteByIDs(ctx, commentIDs); err != nil {
			return err
		}

		var n int64
		switch ref.Kind {
		case model.KindVideo:
			if err := s.detachVideo(ctx, repos, ref.ID); err != nil {
				return err
			}
			n, err = repos.Videos.Delete(ctx, ref.ID)
		case model.KindPost:
			n, err = repos.Posts.Delete(ctx, ref.ID)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound(string(ref.Kind) + "不存在")
		}
		removed = ids
		return nil
	})
	if err != nil {
		return apperr.From(err)
	}

	s.targets.Forget(ctx, removed...)
	if ref.Kind == model.KindVideo {
		if err := s.repos.Videos.DelVideoCache(ctx, ref.ID); err != nil {
			logger.Log.WithError(err).WithField("video_id", ref.ID).Warn("删除视频缓存失败")
		}
	}
	logger.Log.WithField("user_id", requesterID).WithField("target", ref.String()).
		WithField("removed", len(removed)).Info("目标及其评论、点赞已删除")
	return nil
}

func (s *cascadeService) detachVideo(ctx context.Context, repos *data.Repositories, videoID uint64) error {
	if err := repos.Histories.DeleteByVideo(ctx, videoID); err != nil {
		return err
	}
	if err := repos.WatchLater.DeleteByVideo(ctx, videoID); err != nil {
		return err
	}
	if err := repos.Playlists.RemoveVideoEverywhere(ctx, videoID); err != nil {
		return err
	}
	return repos.Posts.ClearVideoRef(ctx, videoID)
}
