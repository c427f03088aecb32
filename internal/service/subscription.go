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

type SubscriptionService interface {
	// Toggle 没订阅就订阅，订阅了就取消；返回操作后的状态
	Toggle(ctx context.Context, subscriberID, channelID uint64) (bool, error)
	Subscribers(ctx context.Context, channelID uint64, page dto.PageRequest) (*dto.Page[dto.ChannelInfo], error)
	// Channels 用户订阅的频道，带上每个频道的粉丝数
	Channels(ctx context.Context, subscriberID uint64, page dto.PageRequest) (*dto.Page[dto.ChannelInfo], error)
}

type subscriptionService struct {
	repos *data.Repositories
}

func NewSubscriptionService(repos *data.Repositories) SubscriptionService {
	return &subscriptionService{repos: repos}
}

func (s *subscriptionService) Toggle(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	if subscriberID == 0 {
		return false, apperr.Unauthenticated("用户未认证")
	}
	if subscriberID == channelID {
		return false, apperr.InvalidArgument("不能订阅自己")
	}
	if _, err := s.repos.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.NotFound("频道不存在")
		}
		return false, apperr.Internal("查询频道失败", err)
	}

	existing, err := s.repos.Subscriptions.Find(ctx, subscriberID, channelID)
	switch {
	case err == nil:
		if err := s.repos.Subscriptions.Delete(ctx, existing.ID); err != nil {
			return false, apperr.Internal("取消订阅失败", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub := &model.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
		if err := s.repos.Subscriptions.Create(ctx, sub); err != nil {
			// 并发的另一个请求刚订阅过，结果一样
			if data.IsDuplicateKey(err) {
				return true, nil
			}
			return false, apperr.Internal("订阅失败", err)
		}
		return true, nil
	default:
		return false, apperr.Internal("查询订阅失败", err)
	}
}

func (s *subscriptionService) Subscribers(ctx context.Context, channelID uint64, page dto.PageRequest) (*dto.Page[dto.ChannelInfo], error) {
	subs, total, err := s.repos.Subscriptions.ListSubscribers(ctx, channelID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询粉丝失败", err)
	}
	return dto.MapPage(subs, total, page, func(sub *model.Subscription) dto.ChannelInfo {
		return dto.ChannelInfo{UserInfo: dto.ToUserInfo(&sub.Subscriber), SubscribedAt: sub.CreatedAt}
	}), nil
}

func (s *subscriptionService) Channels(ctx context.Context, subscriberID uint64, page dto.PageRequest) (*dto.Page[dto.ChannelInfo], error) {
	subs, total, err := s.repos.Subscriptions.ListChannels(ctx, subscriberID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询订阅失败", err)
	}
	ids := make([]uint64, 0, len(subs))
	for i := range subs {
		ids = append(ids, subs[i].ChannelID)
	}
	counts, err := s.repos.Subscriptions.CountSubscribers(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("统计粉丝数失败", err)
	}
	return dto.MapPage(subs, total, page, func(sub *model.Subscription) dto.ChannelInfo {
		return dto.ChannelInfo{
			UserInfo:         dto.ToUserInfo(&sub.Channel),
			SubscribersCount: counts[sub.ChannelID],
			SubscribedAt:     sub.CreatedAt,
		}
	}), nil
}
