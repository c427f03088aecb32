package service

import (
	"context"
	"errors"
	"strings"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"

	"gorm.io/gorm"
)

type CommentService interface {
	// AddComment parentID为nil是一级评论，否则是对一级评论的回复
	AddComment(ctx context.Context, authorID uint64, target model.TargetRef, content string, parentID *uint64) (*model.Comment, error)
	UpdateComment(ctx context.Context, requesterID, commentID uint64, content string) (*model.Comment, error)
	// DeleteComment 一级评论连同它的回复一起删掉
	DeleteComment(ctx context.Context, requesterID, commentID uint64) error
}

type commentService struct {
	uow       data.UnitOfWork
	repos     *data.Repositories
	targets   TargetResolver
	reactions ReactionService
	counters  CounterMaintainer
}

func NewCommentService(uow data.UnitOfWork, repos *data.Repositories, targets TargetResolver, reactions ReactionService, counters CounterMaintainer) CommentService {
	return &commentService{
		uow:       uow,
		repos:     repos,
		targets:   targets,
		reactions: reactions,
		counters:  counters,
	}
}

// AddComment 1、校验内容、目标类型和目标是否存在 2、回复时校验父评论：存在、是一级评论、属于同一个目标
// 3、同一个事务里创建评论、目标comments_count+1，回复再给父评论replies_count+1
func (s *commentService) AddComment(ctx context.Context, authorID uint64, target model.TargetRef, content string, parentID *uint64) (*model.Comment, error) {
	if authorID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidArgument("评论内容不能为空")
	}
	if !target.Kind.Commentable() {
		return nil, apperr.InvalidArgument("只能评论视频或动态")
	}
	if err := s.targets.Ensure(ctx, target); err != nil {
		return nil, err
	}

	var parent *model.Comment
	if parentID != nil {
		p, err := s.repos.Comments.FindByID(ctx, *parentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("父评论不存在")
		}
		if err != nil {
			return nil, apperr.Internal("查询父评论失败", err)
		}
		if p.IsReply() {
			return nil, apperr.InvalidArgument("不能对二级评论进行回复")
		}
		if p.Target() != target {
			return nil, apperr.InvalidArgument("父评论不属于该目标")
		}
		parent = p
	}

	comment := &model.Comment{
		OwnerID:    authorID,
		TargetKind: target.Kind,
		TargetID:   target.ID,
		ParentID:   parentID,
		Content:    content,
	}
	err := s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		// 重试时重新分配ID
		comment.ID = 0
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if err := s.counters.ApplyDelta(ctx, repos, target, model.CounterDelta{Comments: 1}); err != nil {
			return err
		}
		if parent != nil {
			// 父评论在校验之后被删掉的话，这里会返回NotFound并整体回滚
			return s.counters.ApplyDelta(ctx, repos, parent.Ref(), model.CounterDelta{Replies: 1})
		}
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", authorID).WithField("target", target.String()).Error("创建评论失败")
		return nil, apperr.From(err)
	}

	s.targets.Remember(ctx, comment.Ref())
	s.evictVideo(ctx, target)
	// 创建成功后，立刻把它带着作者信息再查出来
	created, err := s.repos.Comments.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return created, nil
}

func (s *commentService) UpdateComment(ctx context.Context, requesterID, commentID uint64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidArgument("评论内容不能为空")
	}
	comment, err := s.repos.Comments.FindByID(ctx, commentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("评论不存在")
	}
	if err != nil {
		return nil, apperr.Internal("查询评论失败", err)
	}
	if comment.OwnerID != requesterID {
		return nil, apperr.Forbidden("只能修改自己的评论")
	}
	if err := s.repos.Comments.UpdateContent(ctx, commentID, content); err != nil {
		return nil, apperr.From(err)
	}
	updated, err := s.repos.Comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return updated, nil
}

func (s *commentService) DeleteComment(ctx context.Context, requesterID, commentID uint64) error {
	var removed []uint64
	var target model.TargetRef
	err := s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		// 先锁评论行再读回复，并发的回复要改这一行的replies_count，只能在删除之前或之后提交
		_, err := repos.Targets.LockOwner(ctx, model.TargetRef{Kind: model.KindComment, ID: commentID})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("评论不存在")
		}
		if err != nil {
			return err
		}
		comment, err := repos.Comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.OwnerID != requesterID {
			return apperr.Forbidden("只能删除自己的评论")
		}
		target = comment.Target()
		removed, err = s.deleteSubtree(ctx, repos, comment)
		return err
	})
	if err != nil {
		return apperr.From(err)
	}
	s.targets.Forget(ctx, removed...)
	s.evictVideo(ctx, target)
	logger.Log.WithField("user_id", requesterID).WithField("comment_id", commentID).
		WithField("removed", len(removed)).Info("评论已删除")
	return nil
}

// deleteSubtree 删除评论及其回复、它们身上的点赞，并回退计数；返回被删掉的评论ID
func (s *commentService) deleteSubtree(ctx context.Context, repos *data.Repositories, comment *model.Comment) ([]uint64, error) {
	ids := []uint64{comment.ID}
	if !comment.IsReply() {
		replyIDs, err := repos.Comments.ReplyIDs(ctx, comment.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, replyIDs...)
	}
	if _, err := s.reactions.RemoveReactionsForTarget(ctx, repos, ids...); err != nil {
		return nil, err
	}
	n, err := repos.Comments.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.counters.ApplyDelta(ctx, repos, comment.Target(), model.CounterDelta{Comments: -n}); err != nil {
		return nil, err
	}
	if comment.IsReply() {
		parent := model.TargetRef{Kind: model.KindComment, ID: *comment.ParentID}
		if err := s.counters.ApplyDelta(ctx, repos, parent, model.CounterDelta{Replies: -1}); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *commentService) evictVideo(ctx context.Context, target model.TargetRef) {
	if target.Kind != model.KindVideo {
		return
	}
	if err := s.repos.Videos.DelVideoCache(ctx, target.ID); err != nil {
		logger.Log.WithError(err).WithField("video_id", target.ID).Warn("删除视频缓存失败")
	}
}
