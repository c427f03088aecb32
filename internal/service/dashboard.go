package service

import (
	"context"
	"errors"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/dto"
	"Tubely/internal/repository"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type DashboardService interface {
	// ChannelStats 总播放量、视频数、获赞数、粉丝数
	ChannelStats(ctx context.Context, channelID uint64) (*dto.ChannelStats, error)
}

type dashboardService struct {
	repos *data.Repositories
}

func NewDashboardService(repos *data.Repositories) DashboardService {
	return &dashboardService{repos: repos}
}

// ChannelStats 视频聚合和粉丝统计互不依赖，并发查询
func (s *dashboardService) ChannelStats(ctx context.Context, channelID uint64) (*dto.ChannelStats, error) {
	if _, err := s.repos.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("频道不存在")
		}
		return nil, apperr.Internal("查询频道失败", err)
	}

	var (
		videoStats  *repository.VideoStats
		subscribers map[uint64]uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		videoStats, err = s.repos.Videos.ChannelStats(gctx, channelID)
		return err
	})
	g.Go(func() error {
		var err error
		subscribers, err = s.repos.Subscriptions.CountSubscribers(gctx, []uint64{channelID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("统计频道数据失败", err)
	}
	return &dto.ChannelStats{
		ChannelID:        channelID,
		TotalVideos:      videoStats.TotalVideos,
		TotalViews:       videoStats.TotalViews,
		TotalLikes:       videoStats.TotalLikes,
		TotalSubscribers: subscribers[channelID],
	}, nil
}
