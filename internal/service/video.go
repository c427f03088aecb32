package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/pkg/logger"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// VideoInput 媒体文件已经由外部存储上传完毕，这里只拿URL
type VideoInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	IsPublished  *bool
}

// VideoPatch nil表示不修改
type VideoPatch struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
}

type VideoService interface {
	CreateVideo(ctx context.Context, ownerID uint64, in VideoInput) (*model.Video, error)
	// GetVideo 未发布的视频只有作者自己能看到
	GetVideo(ctx context.Context, viewerID, videoID uint64) (*model.Video, error)
	UpdateVideo(ctx context.Context, requesterID, videoID uint64, patch VideoPatch) (*model.Video, error)
	TogglePublish(ctx context.Context, requesterID, videoID uint64) (bool, error)
}

type videoService struct {
	sf singleflight.Group

	repos   *data.Repositories
	targets TargetResolver
}

func NewVideoService(repos *data.Repositories, targets TargetResolver) VideoService {
	return &videoService{repos: repos, targets: targets}
}

func (s *videoService) CreateVideo(ctx context.Context, ownerID uint64, in VideoInput) (*model.Video, error) {
	if ownerID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.InvalidArgument("标题不能为空")
	}
	if in.VideoURL == "" || in.ThumbnailURL == "" {
		return nil, apperr.InvalidArgument("视频和封面地址不能为空")
	}
	if in.Duration < 0 {
		return nil, apperr.InvalidArgument("时长不能为负数")
	}
	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}
	video := &model.Video{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		VideoURL:     in.VideoURL,
		ThumbnailURL: in.ThumbnailURL,
		Duration:     in.Duration,
		IsPublished:  published,
	}
	if err := s.repos.Videos.Create(ctx, video); err != nil {
		return nil, apperr.Internal("创建视频失败", err)
	}
	s.targets.Remember(ctx, video.Ref())
	return s.load(ctx, video.ID)
}

// 根据videoID查找视频：1、查找Redis缓存 2、通过SingleFlight进行数据库查找并回填缓存
func (s *videoService) load(ctx context.Context, videoID uint64) (*model.Video, error) {
	video, err := s.repos.Videos.GetVideoCache(ctx, videoID)
	if err == nil && video != nil {
		return video, nil
	}
	if err != nil {
		// Redis本身出错了，记录日志后直接查库
		logger.Log.WithError(err).WithField("video_id", videoID).Warn("读取视频缓存失败")
	}
	// 缓存未命中，通过SingleFlight查找，同一时间执行的相同查询只打一次数据库
	key := fmt.Sprintf("get_video_%d", videoID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		dbVideo, dbErr := s.repos.Videos.FindByID(ctx, videoID)
		if dbErr != nil {
			return nil, dbErr
		}
		_ = s.repos.Videos.SetVideoCache(ctx, dbVideo)
		return dbVideo, nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("视频不存在")
	}
	if err != nil {
		return nil, apperr.Internal("查询视频失败", err)
	}
	// 返回值是interface{}结构，需要断言；复制一份，避免调用方之间互相修改
	v := *result.(*model.Video)
	return &v, nil
}

func (s *videoService) GetVideo(ctx context.Context, viewerID, videoID uint64) (*model.Video, error) {
	video, err := s.load(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, apperr.NotFound("视频不存在")
	}
	return video, nil
}

func (s *videoService) owned(ctx context.Context, requesterID, videoID uint64) (*model.Video, error) {
	video, err := s.repos.Videos.FindByID(ctx, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("视频不存在")
	}
	if err != nil {
		return nil, apperr.Internal("查询视频失败", err)
	}
	if video.OwnerID != requesterID {
		return nil, apperr.Forbidden("只能修改自己的视频")
	}
	return video, nil
}

func (s *videoService) UpdateVideo(ctx context.Context, requesterID, videoID uint64, patch VideoPatch) (*model.Video, error) {
	fields := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.InvalidArgument("标题不能为空")
		}
		fields["title"] = title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ThumbnailURL != nil {
		if *patch.ThumbnailURL == "" {
			return nil, apperr.InvalidArgument("封面地址不能为空")
		}
		fields["thumbnail_url"] = *patch.ThumbnailURL
	}
	if _, err := s.owned(ctx, requesterID, videoID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.repos.Videos.Update(ctx, videoID, fields); err != nil {
			return nil, apperr.Internal("更新视频失败", err)
		}
		_ = s.repos.Videos.DelVideoCache(ctx, videoID)
	}
	return s.load(ctx, videoID)
}

func (s *videoService) TogglePublish(ctx context.Context, requesterID, videoID uint64) (bool, error) {
	video, err := s.owned(ctx, requesterID, videoID)
	if err != nil {
		return false, err
	}
	published := !video.IsPublished
	if err := s.repos.Videos.Update(ctx, videoID, map[string]interface{}{"is_published": published}); err != nil {
		return false, apperr.Internal("更新发布状态失败", err)
	}
	_ = s.repos.Videos.DelVideoCache(ctx, videoID)
	return published, nil
}
