package repository

import (
	"context"
	"time"

	"Tubely/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository interface {
	// Touch 没看过就插入，看过就刷新最后观看时间
	Touch(ctx context.Context, ownerID, videoID uint64, at time.Time) error
	List(ctx context.Context, ownerID uint64, offset, limit int) ([]model.History, int64, error)
	Delete(ctx context.Context, ownerID, videoID uint64) (int64, error)
	DeleteByVideo(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) HistoryRepository
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) WithTx(tx *gorm.DB) HistoryRepository {
	return &historyRepository{db: tx}
}

func (r *historyRepository) Touch(ctx context.Context, ownerID, videoID uint64, at time.Time) error {
	h := model.History{OwnerID: ownerID, VideoID: videoID, LastViewedAt: at}
	// INSERT ... ON DUPLICATE KEY UPDATE last_viewed_at = VALUES(last_viewed_at)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_viewed_at", "updated_at"}),
	}).Create(&h).Error
}

func (r *historyRepository) List(ctx context.Context, ownerID uint64, offset, limit int) ([]model.History, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.History{}).Where("owner_id = ?", ownerID)
	return findPage[model.History](query, offset, limit, []string{"last_viewed_at desc", "id desc"}, "Video.Owner")
}

func (r *historyRepository) Delete(ctx context.Context, ownerID, videoID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND video_id = ?", ownerID, videoID).Delete(&model.History{})
	return res.RowsAffected, res.Error
}

func (r *historyRepository) DeleteByVideo(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&model.History{}).Error
}
