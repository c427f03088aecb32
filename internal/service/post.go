package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"

	"gorm.io/gorm"
)

// 投票默认有效期
const defaultPollTTL = 7 * 24 * time.Hour

type PollInput struct {
	Question  string
	Options   []string
	ExpiresAt *time.Time
}

type PostInput struct {
	Type    model.PostType
	Content string
	Images  []string
	VideoID *uint64
	Poll    *PollInput
}

// PostPatch 投票只允许改问题和截止时间，选项一旦有人投票就不能再动
type PostPatch struct {
	Content       *string
	PollQuestion  *string
	PollExpiresAt *time.Time
}

type PostService interface {
	CreatePost(ctx context.Context, ownerID uint64, in PostInput) (*model.Post, error)
	GetPost(ctx context.Context, postID uint64) (*model.Post, error)
	UpdatePost(ctx context.Context, requesterID, postID uint64, patch PostPatch) (*model.Post, error)
}

type postService struct {
	repos   *data.Repositories
	targets TargetResolver
	now     func() time.Time
}

func NewPostService(repos *data.Repositories, targets TargetResolver) PostService {
	return &postService{repos: repos, targets: targets, now: time.Now}
}

// CreatePost 按类型校验：投票至少两个选项，图片动态至少一张图，视频动态必须引用存在的视频
func (s *postService) CreatePost(ctx context.Context, ownerID uint64, in PostInput) (*model.Post, error) {
	if ownerID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	if !in.Type.Valid() {
		return nil, apperr.InvalidArgument("动态类型必须是text、image、video或poll")
	}
	post := &model.Post{
		OwnerID: ownerID,
		Type:    in.Type,
		Content: strings.TrimSpace(in.Content),
	}
	switch in.Type {
	case model.PostText:
		if post.Content == "" {
			return nil, apperr.InvalidArgument("动态内容不能为空")
		}
	case model.PostImage:
		images := make([]string, 0, len(in.Images))
		for _, img := range in.Images {
			if img = strings.TrimSpace(img); img != "" {
				images = append(images, img)
			}
		}
		if len(images) == 0 {
			return nil, apperr.InvalidArgument("图片动态至少需要一张图片")
		}
		post.Images = images
	case model.PostVideo:
		if in.VideoID == nil {
			return nil, apperr.InvalidArgument("视频动态必须引用一个视频")
		}
		if err := s.targets.Ensure(ctx, model.TargetRef{Kind: model.KindVideo, ID: *in.VideoID}); err != nil {
			return nil, err
		}
		post.VideoID = in.VideoID
	case model.PostPoll:
		poll, err := s.buildPoll(in.Poll)
		if err != nil {
			return nil, err
		}
		post.Poll = poll
	}

	if err := s.repos.Posts.Create(ctx, post); err != nil {
		return nil, apperr.Internal("创建动态失败", err)
	}
	s.targets.Remember(ctx, post.Ref())
	return s.GetPost(ctx, post.ID)
}

func (s *postService) buildPoll(in *PollInput) (*model.Poll, error) {
	if in == nil || strings.TrimSpace(in.Question) == "" {
		return nil, apperr.InvalidArgument("投票需要一个问题")
	}
	options := make([]model.PollOption, 0, len(in.Options))
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, model.PollOption{Text: o})
		}
	}
	if len(options) < 2 {
		return nil, apperr.InvalidArgument("投票至少需要两个选项")
	}
	expires := s.now().Add(defaultPollTTL)
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(s.now()) {
			return nil, apperr.InvalidArgument("投票截止时间必须在未来")
		}
		expires = *in.ExpiresAt
	}
	return &model.Poll{
		Question:  strings.TrimSpace(in.Question),
		Options:   options,
		ExpiresAt: expires,
	}, nil
}

func (s *postService) GetPost(ctx context.Context, postID uint64) (*model.Post, error) {
	post, err := s.repos.Posts.FindByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("动态不存在")
	}
	if err != nil {
		return nil, apperr.Internal("查询动态失败", err)
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, requesterID, postID uint64, patch PostPatch) (*model.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != requesterID {
		return nil, apperr.Forbidden("只能修改自己的动态")
	}

	fields := map[string]interface{}{}
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" && post.Type == model.PostText {
			return nil, apperr.InvalidArgument("动态内容不能为空")
		}
		fields["content"] = content
	}
	if post.Type == model.PostPoll && post.Poll != nil && (patch.PollQuestion != nil || patch.PollExpiresAt != nil) {
		poll := *post.Poll
		if patch.PollQuestion != nil {
			if q := strings.TrimSpace(*patch.PollQuestion); q != "" {
				poll.Question = q
			}
		}
		if patch.PollExpiresAt != nil {
			poll.ExpiresAt = *patch.PollExpiresAt
		}
		// 用map更新时不走serializer，自己序列化成和serializer:json一样的格式
		raw, err := json.Marshal(&poll)
		if err != nil {
			return nil, apperr.Internal("序列化投票失败", err)
		}
		fields["poll"] = string(raw)
	}
	if len(fields) > 0 {
		if err := s.repos.Posts.Update(ctx, postID, fields); err != nil {
			return nil, apperr.Internal("更新动态失败", err)
		}
	}
	return s.GetPost(ctx, postID)
}
