package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Find(ctx context.Context, subscriberID, channelID uint64) (*model.Subscription, error)
	Create(ctx context.Context, sub *model.Subscription) error
	Delete(ctx context.Context, id uint64) error
	// ListSubscribers 关注了该频道的用户
	ListSubscribers(ctx context.Context, channelID uint64, offset, limit int) ([]model.Subscription, int64, error)
	// ListChannels 该用户关注的频道
	ListChannels(ctx context.Context, subscriberID uint64, offset, limit int) ([]model.Subscription, int64, error)
	// CountSubscribers 批量统计频道的粉丝数
	CountSubscribers(ctx context.Context, channelIDs []uint64) (map[uint64]uint64, error)

	WithTx(tx *gorm.DB) SubscriptionRepository
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) Find(ctx context.Context, subscriberID, channelID uint64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).Take(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Subscription{}).Error
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uint64, offset, limit int) ([]model.Subscription, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("channel_id = ?", channelID)
	return findPage[model.Subscription](query, offset, limit, newestFirst, "Subscriber")
}

func (r *subscriptionRepository) ListChannels(ctx context.Context, subscriberID uint64, offset, limit int) ([]model.Subscription, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("subscriber_id = ?", subscriberID)
	return findPage[model.Subscription](query, offset, limit, newestFirst, "Channel")
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelIDs []uint64) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(channelIDs))
	if len(channelIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ChannelID uint64
		N         uint64
	}
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Select("channel_id, COUNT(*) AS n").
		Where("channel_id IN ?", channelIDs).
		Group("channel_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ChannelID] = row.N
	}
	return out, nil
}
