package service

import (
	"context"
	"errors"
	"strings"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/dto"
	"Tubely/internal/model"

	"gorm.io/gorm"
)

type PlaylistService interface {
	Create(ctx context.Context, ownerID uint64, name, description string) (*model.Playlist, error)
	Get(ctx context.Context, playlistID uint64) (*model.Playlist, error)
	Update(ctx context.Context, requesterID, playlistID uint64, name, description *string) (*model.Playlist, error)
	Delete(ctx context.Context, requesterID, playlistID uint64) error
	ListByOwner(ctx context.Context, ownerID uint64, page dto.PageRequest) (*dto.Page[dto.PlaylistResponse], error)
	AddVideo(ctx context.Context, requesterID, playlistID, videoID uint64) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, requesterID, playlistID, videoID uint64) (*model.Playlist, error)
}

type playlistService struct {
	repos   *data.Repositories
	targets TargetResolver
}

func NewPlaylistService(repos *data.Repositories, targets TargetResolver) PlaylistService {
	return &playlistService{repos: repos, targets: targets}
}

func (s *playlistService) Create(ctx context.Context, ownerID uint64, name, description string) (*model.Playlist, error) {
	if ownerID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgument("播放列表名称不能为空")
	}
	playlist := &model.Playlist{OwnerID: ownerID, Name: name, Description: description}
	if err := s.repos.Playlists.Create(ctx, playlist); err != nil {
		return nil, apperr.Internal("创建播放列表失败", err)
	}
	return s.Get(ctx, playlist.ID)
}

func (s *playlistService) Get(ctx context.Context, playlistID uint64) (*model.Playlist, error) {
	playlist, err := s.repos.Playlists.FindByID(ctx, playlistID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("播放列表不存在")
	}
	if err != nil {
		return nil, apperr.Internal("查询播放列表失败", err)
	}
	return playlist, nil
}

func (s *playlistService) owned(ctx context.Context, requesterID, playlistID uint64) (*model.Playlist, error) {
	playlist, err := s.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.OwnerID != requesterID {
		return nil, apperr.Forbidden("只能修改自己的播放列表")
	}
	return playlist, nil
}

func (s *playlistService) Update(ctx context.Context, requesterID, playlistID uint64, name, description *string) (*model.Playlist, error) {
	if _, err := s.owned(ctx, requesterID, playlistID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperr.InvalidArgument("播放列表名称不能为空")
		}
		fields["name"] = n
	}
	if description != nil {
		fields["description"] = *description
	}
	if len(fields) > 0 {
		if err := s.repos.Playlists.Update(ctx, playlistID, fields); err != nil {
			return nil, apperr.Internal("更新播放列表失败", err)
		}
	}
	return s.Get(ctx, playlistID)
}

func (s *playlistService) Delete(ctx context.Context, requesterID, playlistID uint64) error {
	if _, err := s.owned(ctx, requesterID, playlistID); err != nil {
		return err
	}
	if err := s.repos.Playlists.Delete(ctx, playlistID); err != nil {
		return apperr.Internal("删除播放列表失败", err)
	}
	return nil
}

func (s *playlistService) ListByOwner(ctx context.Context, ownerID uint64, page dto.PageRequest) (*dto.Page[dto.PlaylistResponse], error) {
	playlists, total, err := s.repos.Playlists.ListByOwner(ctx, ownerID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询播放列表失败", err)
	}
	return dto.MapPage(playlists, total, page, dto.ToPlaylistResponse), nil
}

func (s *playlistService) AddVideo(ctx context.Context, requesterID, playlistID, videoID uint64) (*model.Playlist, error) {
	if _, err := s.owned(ctx, requesterID, playlistID); err != nil {
		return nil, err
	}
	if err := s.targets.Ensure(ctx, model.TargetRef{Kind: model.KindVideo, ID: videoID}); err != nil {
		return nil, err
	}
	if err := s.repos.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		return nil, apperr.Internal("添加视频失败", err)
	}
	return s.Get(ctx, playlistID)
}

func (s *playlistService) RemoveVideo(ctx context.Context, requesterID, playlistID, videoID uint64) (*model.Playlist, error) {
	if _, err := s.owned(ctx, requesterID, playlistID); err != nil {
		return nil, err
	}
	if err := s.repos.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return nil, apperr.Internal("移除视频失败", err)
	}
	return s.Get(ctx, playlistID)
}
