package service

import (
	"context"
	"time"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/dto"
	"Tubely/internal/model"
)

type HistoryService interface {
	// RecordView 记一次观看：播放量+1，并刷新观看历史
	RecordView(ctx context.Context, userID, videoID uint64) error
	List(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.HistoryItem], error)
	Remove(ctx context.Context, userID, videoID uint64) error
}

type historyService struct {
	uow     data.UnitOfWork
	repos   *data.Repositories
	targets TargetResolver
}

func NewHistoryService(uow data.UnitOfWork, repos *data.Repositories, targets TargetResolver) HistoryService {
	return &historyService{uow: uow, repos: repos, targets: targets}
}

func (s *historyService) RecordView(ctx context.Context, userID, videoID uint64) error {
	if userID == 0 {
		return apperr.Unauthenticated("用户未认证")
	}
	if err := s.targets.Ensure(ctx, model.TargetRef{Kind: model.KindVideo, ID: videoID}); err != nil {
		return err
	}
	now := time.Now()
	err := s.uow.Execute(ctx, func(ctx context.Context, repos *data.Repositories) error {
		if err := repos.Videos.IncrementViews(ctx, videoID); err != nil {
			return err
		}
		return repos.Histories.Touch(ctx, userID, videoID, now)
	})
	if err != nil {
		return apperr.Internal("记录观看历史失败", err)
	}
	_ = s.repos.Videos.DelVideoCache(ctx, videoID)
	return nil
}

func (s *historyService) List(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.HistoryItem], error) {
	items, total, err := s.repos.Histories.List(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询观看历史失败", err)
	}
	return dto.MapPage(items, total, page, dto.ToHistoryItem), nil
}

func (s *historyService) Remove(ctx context.Context, userID, videoID uint64) error {
	n, err := s.repos.Histories.Delete(ctx, userID, videoID)
	if err != nil {
		return apperr.Internal("删除观看历史失败", err)
	}
	if n == 0 {
		return apperr.NotFound("观看历史中没有这个视频")
	}
	return nil
}
