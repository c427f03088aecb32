package service

import (
	"context"
	"errors"
	"fmt"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"
	"Tubely/pkg/metrics"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ReactionResult 一次点赞操作的结果
type ReactionResult struct {
	Target     model.TargetRef
	Transition model.Transition
}

// Status 操作之后的态度：like、dislike，取消之后为nil
func (r *ReactionResult) Status() *model.Polarity {
	return r.Transition.Status()
}

// errReactionRaced 读到的记录在写之前已经被同一用户的另一个请求改掉或删掉
var errReactionRaced = errors.New("reaction row changed concurrently")

type ReactionService interface {
	// ApplyReaction 没有就新增，同样的态度再点一次就取消，不同的态度就切换
	// kind为空时按ID探测目标类型
	ApplyReaction(ctx context.Context, userID, targetID uint64, kind, polarity string) (*ReactionResult, error)
	// RemoveReactionsForTarget 删除这些目标上的所有点赞，返回条数；只在级联删除的事务里使用
	RemoveReactionsForTarget(ctx context.Context, repos *data.Repositories, targetIDs ...uint64) (int64, error)
}

type reactionService struct {
	// 同一进程内，同一用户对同一目标的相同请求合并成一次
	sf singleflight.Group

	uow      data.UnitOfWork
	repos    *data.Repositories
	targets  TargetResolver
	counters CounterMaintainer
	notifier ReconcileNotifier
}

func NewReactionService(uow data.UnitOfWork, repos *data.Repositories, targets TargetResolver, counters CounterMaintainer, notifier ReconcileNotifier) ReactionService {
	return &reactionService{
		uow:      uow,
		repos:    repos,
		targets:  targets,
		counters: counters,
		notifier: notifier,
	}
}

func (s *reactionService) ApplyReaction(ctx context.Context, userID, targetID uint64, kind, polarity string) (*ReactionResult, error) {
	key := fmt.Sprintf("%d:%d:%s:%s", userID, targetID, kind, polarity)
	// 共享的那一次执行不能被第一个调用者的取消信号打断
	shared := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.apply(shared, userID, targetID, kind, polarity)
	})
	if err != nil {
		return nil, err
	}
	// 返回值是interface{}结构，需要断言；复制一份，调用方之间互不影响
	res := *result.(*ReactionResult)
	return &res, nil
}

// apply 1、校验极性和目标 2、事务内读旧状态、写新状态、改计数
// 3、撞上唯一索引或者条件更新没命中，说明有并发请求先提交了：回滚，按最新的记录重新决定一次
func (s *reactionService) apply(ctx context.Context, userID, targetID uint64, kind, polarity string) (*ReactionResult, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	p, err := model.ParsePolarity(polarity)
	if err != nil {
		return nil, apperr.InvalidArgument("type必须是like或dislike")
	}
	ref, err := s.targets.Locate(ctx, targetID, kind)
	if err != nil {
		return nil, err
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("target", ref.String()).WithField("polarity", p)

	var t model.Transition
	err = s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		var txErr error
		t, txErr = s.toggle(ctx, repos, userID, ref, p, false)
		return txErr
	})
	if data.IsDuplicateKey(err) || errors.Is(err, errReactionRaced) {
		// 重试时：没有记录就新增，态度相同什么都不做，态度不同就切换
		logCtx.WithError(err).Warn("点赞记录被并发修改，按最新的记录重试")
		err = s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
			var txErr error
			t, txErr = s.toggle(ctx, repos, userID, ref, p, true)
			return txErr
		})
	}
	if err != nil {
		logCtx.WithError(err).Error("点赞操作失败")
		return nil, s.fail(ref, err)
	}

	s.afterCommit(ctx, ref)
	metrics.ReactionTransitions.WithLabelValues(string(ref.Kind), string(t.Kind)).Inc()
	logCtx.WithField("transition", t.Kind).Info("点赞状态已更新")
	return &ReactionResult{Target: ref, Transition: t}, nil
}

// toggle retrying为true时，同样的态度不再取消，视为已经生效
func (s *reactionService) toggle(ctx context.Context, repos *data.Repositories, userID uint64, ref model.TargetRef, p model.Polarity, retrying bool) (model.Transition, error) {
	var t model.Transition
	existing, err := repos.Reactions.Find(ctx, userID, ref.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := repos.Reactions.Create(ctx, &model.Reaction{
			UserID:     userID,
			TargetID:   ref.ID,
			TargetKind: ref.Kind,
			Polarity:   p,
		}); err != nil {
			return t, err
		}
		t = model.Added(p)
	case err != nil:
		return t, err
	case existing.Polarity == p:
		if retrying {
			return model.Unchanged(p), nil
		}
		n, err := repos.Reactions.Delete(ctx, existing.ID)
		if err != nil {
			return t, err
		}
		if n == 0 {
			return t, errReactionRaced
		}
		t = model.Removed(p)
	default:
		n, err := repos.Reactions.SwitchPolarity(ctx, existing.ID, existing.Polarity, p)
		if err != nil {
			return t, err
		}
		if n == 0 {
			return t, errReactionRaced
		}
		t = model.Switched(existing.Polarity, p)
	}

	if err := s.counters.Apply(ctx, repos, ref, t); err != nil {
		return t, err
	}
	return t, nil
}

// fail 把事务错误转成对外错误；重试耗尽时计数可能没跟上，需要对账
func (s *reactionService) fail(ref model.TargetRef, err error) error {
	if errors.Is(err, data.ErrRetriesExhausted) {
		s.notifier.RequestReconcile(ref, "reaction transaction retries exhausted")
		return apperr.Internal("点赞失败，请稍后再试", err)
	}
	if data.IsDuplicateKey(err) || errors.Is(err, errReactionRaced) {
		// 重试一次之后仍然冲突，还有第三个请求在并发修改
		return apperr.Conflict("操作过于频繁，请稍后再试")
	}
	return apperr.From(err)
}

// afterCommit 视频详情有缓存，计数变了就删掉
func (s *reactionService) afterCommit(ctx context.Context, ref model.TargetRef) {
	if ref.Kind != model.KindVideo {
		return
	}
	if err := s.repos.Videos.DelVideoCache(ctx, ref.ID); err != nil {
		logger.Log.WithError(err).WithField("video_id", ref.ID).Warn("删除视频缓存失败")
	}
}

func (s *reactionService) RemoveReactionsForTarget(ctx context.Context, repos *data.Repositories, targetIDs ...uint64) (int64, error) {
	return repos.Reactions.DeleteByTargets(ctx, targetIDs)
}
