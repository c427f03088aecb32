package service

import (
	"context"
	"errors"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/dto"
	"Tubely/internal/model"

	"gorm.io/gorm"
)

type WatchLaterService interface {
	// Toggle 返回操作后是否在稍后再看里
	Toggle(ctx context.Context, userID, videoID uint64) (bool, error)
	List(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.WatchLaterItem], error)
	Remove(ctx context.Context, userID, videoID uint64) error
}

type watchLaterService struct {
	repos   *data.Repositories
	targets TargetResolver
}

func NewWatchLaterService(repos *data.Repositories, targets TargetResolver) WatchLaterService {
	return &watchLaterService{repos: repos, targets: targets}
}

func (s *watchLaterService) Toggle(ctx context.Context, userID, videoID uint64) (bool, error) {
	if userID == 0 {
		return false, apperr.Unauthenticated("用户未认证")
	}
	_, err := s.repos.WatchLater.Find(ctx, userID, videoID)
	if err == nil {
		if _, err := s.repos.WatchLater.Delete(ctx, userID, videoID); err != nil {
			return false, apperr.Internal("移出稍后再看失败", err)
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.Internal("查询稍后再看失败", err)
	}
	if err := s.targets.Ensure(ctx, model.TargetRef{Kind: model.KindVideo, ID: videoID}); err != nil {
		return false, err
	}
	if err := s.repos.WatchLater.Create(ctx, &model.WatchLater{UserID: userID, VideoID: videoID}); err != nil && !data.IsDuplicateKey(err) {
		return false, apperr.Internal("加入稍后再看失败", err)
	}
	return true, nil
}

func (s *watchLaterService) List(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.WatchLaterItem], error) {
	items, total, err := s.repos.WatchLater.List(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询稍后再看失败", err)
	}
	return dto.MapPage(items, total, page, dto.ToWatchLaterItem), nil
}

func (s *watchLaterService) Remove(ctx context.Context, userID, videoID uint64) error {
	n, err := s.repos.WatchLater.Delete(ctx, userID, videoID)
	if err != nil {
		return apperr.Internal("移出稍后再看失败", err)
	}
	if n == 0 {
		return apperr.NotFound("稍后再看里没有这个视频")
	}
	return nil
}
