package service

import (
	"context"
	"errors"
	"time"

	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"
	"Tubely/pkg/metrics"

	"gorm.io/gorm"
)

// ReconcileReport 一轮全量对账的结果
type ReconcileReport struct {
	Checked  int
	Repaired int
	Failed   int
}

// ReconcileService 用真实的点赞/评论行数重算冗余计数，是唯一允许写绝对值的地方
// 不在请求链路上，只由cmd/consumer驱动
type ReconcileService interface {
	// ReconcileTarget 锁住目标行，重算并覆盖；返回是否发现了偏差
	ReconcileTarget(ctx context.Context, ref model.TargetRef) (bool, error)
	// ReconcileAll 按类型、按ID分批遍历所有目标
	ReconcileAll(ctx context.Context) (ReconcileReport, error)
	// RunPeriodic 每隔interval跑一次ReconcileAll，直到ctx结束
	RunPeriodic(ctx context.Context, interval time.Duration)
}

type reconcileService struct {
	uow       data.UnitOfWork
	repos     *data.Repositories
	batchSize int
}

func NewReconcileService(uow data.UnitOfWork, repos *data.Repositories, batchSize int) ReconcileService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &reconcileService{uow: uow, repos: repos, batchSize: batchSize}
}

func (s *reconcileService) ReconcileTarget(ctx context.Context, ref model.TargetRef) (bool, error) {
	if !ref.Kind.Valid() {
		return false, model.ErrUnknownTargetKind
	}
	drifted := false
	err := s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		drifted = false
		// 先锁行，锁住期间点赞/评论的计数更新都会等待，保证比较时两边是一致的
		stored, err := repos.Counters.ReadForUpdate(ctx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 目标已经被删了，没什么可对的
		}
		if err != nil {
			return err
		}
		actual, err := s.count(ctx, repos, ref)
		if err != nil {
			return err
		}
		if *stored == actual {
			return nil
		}
		drifted = true
		s.report(ref, *stored, actual)
		return repos.Counters.Overwrite(ctx, ref, actual)
	})
	if err != nil {
		return false, err
	}
	if drifted && ref.Kind == model.KindVideo {
		_ = s.repos.Videos.DelVideoCache(ctx, ref.ID)
	}
	return drifted, nil
}

func (s *reconcileService) count(ctx context.Context, repos *data.Repositories, ref model.TargetRef) (model.Counters, error) {
	var c model.Counters
	likes, dislikes, err := repos.Reactions.CountByTarget(ctx, ref.ID)
	if err != nil {
		return c, err
	}
	c.Likes, c.Dislikes = likes, dislikes
	switch ref.Kind {
	case model.KindComment:
		c.Replies, err = repos.Comments.CountReplies(ctx, ref.ID)
	default:
		c.Comments, err = repos.Comments.CountByTarget(ctx, ref)
	}
	return c, err
}

func (s *reconcileService) report(ref model.TargetRef, stored, actual model.Counters) {
	pairs := []struct {
		col            string
		stored, actual uint64
	}{
		{model.ColLikes, stored.Likes, actual.Likes},
		{model.ColDislikes, stored.Dislikes, actual.Dislikes},
		{model.ColComments, stored.Comments, actual.Comments},
		{model.ColReplies, stored.Replies, actual.Replies},
	}
	for _, p := range pairs {
		if p.stored == p.actual {
			continue
		}
		metrics.ReconcileDrift.WithLabelValues(string(ref.Kind), p.col).Inc()
		logger.Log.WithField("target", ref.String()).
			WithField("column", p.col).
			WithField("stored", p.stored).
			WithField("actual", p.actual).
			Warn("冗余计数与真实数据不一致，已修正")
	}
}

func (s *reconcileService) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	for _, kind := range model.ProbeOrder {
		var after uint64
		for {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			ids, err := s.repos.Targets.ListIDs(ctx, kind, after, s.batchSize)
			if err != nil {
				return report, err
			}
			for _, id := range ids {
				report.Checked++
				drifted, err := s.ReconcileTarget(ctx, model.TargetRef{Kind: kind, ID: id})
				if err != nil {
					report.Failed++
					logger.Log.WithError(err).WithField("kind", kind).WithField("id", id).Error("对账失败")
					continue
				}
				if drifted {
					report.Repaired++
				}
			}
			if len(ids) < s.batchSize {
				break
			}
			after = ids[len(ids)-1]
		}
	}
	return report, nil
}

func (s *reconcileService) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			report, err := s.ReconcileAll(ctx)
			entry := logger.Log.WithField("checked", report.Checked).
				WithField("repaired", report.Repaired).
				WithField("failed", report.Failed).
				WithField("elapsed", time.Since(start).String())
			if err != nil {
				entry.WithError(err).Warn("定时对账中断")
				continue
			}
			entry.Info("定时对账完成")
		}
	}
}
