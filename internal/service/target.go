package service

import (
	"context"
	"errors"

	"Tubely/internal/apperr"
	"Tubely/internal/model"
	"Tubely/internal/repository"
	"Tubely/pkg/logger"

	"gorm.io/gorm"
)

// TargetResolver 把一个不透明的ID落到具体的目标类型上
type TargetResolver interface {
	// Resolve 调用方没给类型：先查缓存，再按固定顺序 视频→评论→动态 逐表探测
	Resolve(ctx context.Context, id uint64) (model.TargetKind, error)
	// Ensure 调用方给了类型：只检查是否存在
	Ensure(ctx context.Context, ref model.TargetRef) error
	// Locate kind为空走Resolve，否则解析后走Ensure
	Locate(ctx context.Context, id uint64, kind string) (model.TargetRef, error)
	Owner(ctx context.Context, ref model.TargetRef) (uint64, error)

	// Remember 新建目标之后写入类型缓存
	Remember(ctx context.Context, ref model.TargetRef)
	// Forget 删除目标之后清掉类型缓存
	Forget(ctx context.Context, ids ...uint64)
}

type targetResolver struct {
	targets repository.TargetRepository
}

func NewTargetResolver(targets repository.TargetRepository) TargetResolver {
	return &targetResolver{targets: targets}
}

func (r *targetResolver) Resolve(ctx context.Context, id uint64) (model.TargetKind, error) {
	if id == 0 {
		return "", apperr.InvalidArgument("无效的目标ID")
	}
	if kind, ok := r.targets.GetKindCache(ctx, id); ok {
		return kind, nil
	}
	for _, kind := range model.ProbeOrder {
		ref := model.TargetRef{Kind: kind, ID: id}
		ok, err := r.targets.Exists(ctx, ref)
		if err != nil {
			return "", apperr.Internal("查询目标失败", err)
		}
		if ok {
			r.Remember(ctx, ref)
			return kind, nil
		}
	}
	return "", apperr.NotFound("目标不存在")
}

func (r *targetResolver) Ensure(ctx context.Context, ref model.TargetRef) error {
	if ref.ID == 0 {
		return apperr.InvalidArgument("无效的目标ID")
	}
	if !ref.Kind.Valid() {
		return apperr.InvalidArgument("不支持的目标类型")
	}
	ok, err := r.targets.Exists(ctx, ref)
	if err != nil {
		return apperr.Internal("查询目标失败", err)
	}
	if !ok {
		return apperr.NotFound(string(ref.Kind) + "不存在")
	}
	return nil
}

func (r *targetResolver) Locate(ctx context.Context, id uint64, kind string) (model.TargetRef, error) {
	if kind == "" {
		k, err := r.Resolve(ctx, id)
		if err != nil {
			return model.TargetRef{}, err
		}
		return model.TargetRef{Kind: k, ID: id}, nil
	}
	k, err := model.ParseTargetKind(kind)
	if err != nil {
		return model.TargetRef{}, apperr.InvalidArgument("不支持的目标类型")
	}
	ref := model.TargetRef{Kind: k, ID: id}
	if err := r.Ensure(ctx, ref); err != nil {
		return model.TargetRef{}, err
	}
	return ref, nil
}

func (r *targetResolver) Owner(ctx context.Context, ref model.TargetRef) (uint64, error) {
	if !ref.Kind.Valid() {
		return 0, apperr.InvalidArgument("不支持的目标类型")
	}
	owner, err := r.targets.Owner(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound(string(ref.Kind) + "不存在")
	}
	if err != nil {
		return 0, apperr.Internal("查询目标失败", err)
	}
	return owner, nil
}

func (r *targetResolver) Remember(ctx context.Context, ref model.TargetRef) {
	if err := r.targets.SetKindCache(ctx, ref); err != nil {
		logger.Log.WithError(err).WithField("target", ref.String()).Warn("写入目标类型缓存失败")
	}
}

func (r *targetResolver) Forget(ctx context.Context, ids ...uint64) {
	if err := r.targets.DelKindCache(ctx, ids...); err != nil {
		logger.Log.WithError(err).WithField("count", len(ids)).Warn("清理目标类型缓存失败")
	}
}
