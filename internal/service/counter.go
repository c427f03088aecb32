package service

import (
	"context"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"
	"Tubely/pkg/metrics"
)

// CounterMaintainer 唯一允许修改冗余计数的组件，调用方必须在同一个事务里传入repos
type CounterMaintainer interface {
	// Apply 把一次点赞状态变化落到目标的计数上
	Apply(ctx context.Context, repos *data.Repositories, ref model.TargetRef, t model.Transition) error
	ApplyDelta(ctx context.Context, repos *data.Repositories, ref model.TargetRef, delta model.CounterDelta) error
}

type counterMaintainer struct {
	notifier ReconcileNotifier
}

func NewCounterMaintainer(notifier ReconcileNotifier) CounterMaintainer {
	return &counterMaintainer{notifier: notifier}
}

func (m *counterMaintainer) Apply(ctx context.Context, repos *data.Repositories, ref model.TargetRef, t model.Transition) error {
	return m.ApplyDelta(ctx, repos, ref, t.Delta())
}

// ApplyDelta 1、带保护条件的相对增减 2、没更新到行就区分是目标不存在还是要减成负数
// 3、减成负数说明计数已经错了：记错误日志、打点、按0截断，事务提交后通知对账
func (m *counterMaintainer) ApplyDelta(ctx context.Context, repos *data.Repositories, ref model.TargetRef, delta model.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	applied, err := repos.Counters.ApplyDelta(ctx, ref, delta)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	exists, err := repos.Targets.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound(string(ref.Kind) + "不存在")
	}

	metrics.CounterUnderflows.WithLabelValues(string(ref.Kind)).Inc()
	logger.Log.WithField("target", ref.String()).
		WithField("delta", delta.Columns()).
		Error("冗余计数将被减为负数，计数已经和真实数据不一致")
	// 对账要读到截断之后的值，等事务提交再通知
	data.AfterCommit(ctx, func() {
		m.notifier.RequestReconcile(ref, "counter underflow")
	})

	return repos.Counters.ClampDelta(ctx, ref, delta)
}
