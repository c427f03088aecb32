package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	// FindByID 带上列表里的视频及其作者
	FindByID(ctx context.Context, playlistID uint64) (*model.Playlist, error)
	Update(ctx context.Context, playlistID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, playlistID uint64) error
	ListByOwner(ctx context.Context, ownerID uint64, offset, limit int) ([]model.Playlist, int64, error)

	AddVideo(ctx context.Context, playlistID, videoID uint64) error
	RemoveVideo(ctx context.Context, playlistID, videoID uint64) error
	// RemoveVideoEverywhere 视频被删时从所有播放列表里摘掉
	RemoveVideoEverywhere(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) PlaylistRepository
}

type playlistRepository struct {
	db *gorm.DB
}

func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &playlistRepository{db: db}
}

func (r *playlistRepository) WithTx(tx *gorm.DB) PlaylistRepository {
	return &playlistRepository{db: tx}
}

func (r *playlistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	return r.db.WithContext(ctx).Create(playlist).Error
}

func (r *playlistRepository) FindByID(ctx context.Context, playlistID uint64) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Preload("Videos.Owner").First(&playlist, playlistID).Error
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (r *playlistRepository) Update(ctx context.Context, playlistID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Playlist{}).Where("id = ?", playlistID).Updates(fields).Error
}

// Delete 先删关联表再删列表本身
func (r *playlistRepository) Delete(ctx context.Context, playlistID uint64) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM playlist_videos WHERE playlist_id = ?", playlistID).Error; err != nil {
		return err
	}
	return db.Where("id = ?", playlistID).Delete(&model.Playlist{}).Error
}

func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID uint64, offset, limit int) ([]model.Playlist, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Playlist{}).Where("owner_id = ?", ownerID)
	return findPage[model.Playlist](query, offset, limit, newestFirst, "Videos")
}

func (r *playlistRepository) AddVideo(ctx context.Context, playlistID, videoID uint64) error {
	playlist := model.Playlist{BaseModel: model.BaseModel{ID: playlistID}}
	video := model.Video{BaseModel: model.BaseModel{ID: videoID}}
	// 关联表有联合主键，重复添加会被忽略
	return r.db.WithContext(ctx).Model(&playlist).Omit("Videos.*").Association("Videos").Append(&video)
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, playlistID, videoID uint64) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?", playlistID, videoID).Error
}

func (r *playlistRepository) RemoveVideoEverywhere(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM playlist_videos WHERE video_id = ?", videoID).Error
}
