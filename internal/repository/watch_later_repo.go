package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type WatchLaterRepository interface {
	Find(ctx context.Context, userID, videoID uint64) (*model.WatchLater, error)
	Create(ctx context.Context, item *model.WatchLater) error
	Delete(ctx context.Context, userID, videoID uint64) (int64, error)
	List(ctx context.Context, userID uint64, offset, limit int) ([]model.WatchLater, int64, error)
	DeleteByVideo(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) WatchLaterRepository
}

type watchLaterRepository struct {
	db *gorm.DB
}

func NewWatchLaterRepository(db *gorm.DB) WatchLaterRepository {
	return &watchLaterRepository{db: db}
}

func (r *watchLaterRepository) WithTx(tx *gorm.DB) WatchLaterRepository {
	return &watchLaterRepository{db: tx}
}

func (r *watchLaterRepository) Find(ctx context.Context, userID, videoID uint64) (*model.WatchLater, error) {
	var item model.WatchLater
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *watchLaterRepository) Create(ctx context.Context, item *model.WatchLater) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *watchLaterRepository) Delete(ctx context.Context, userID, videoID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&model.WatchLater{})
	return res.RowsAffected, res.Error
}

func (r *watchLaterRepository) List(ctx context.Context, userID uint64, offset, limit int) ([]model.WatchLater, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.WatchLater{}).Where("user_id = ?", userID)
	return findPage[model.WatchLater](query, offset, limit, newestFirst, "Video.Owner")
}

func (r *watchLaterRepository) DeleteByVideo(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&model.WatchLater{}).Error
}
