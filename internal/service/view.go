package service

import (
	"context"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/dto"
	"Tubely/internal/model"
	"Tubely/internal/repository"
)

// ViewAssembler 只读：把目标行、作者公开信息、调用者自己的态度拼成分页结果
// 计数直接用存储的冗余值，从不现算
type ViewAssembler interface {
	ListComments(ctx context.Context, viewerID uint64, target model.TargetRef, page dto.PageRequest) (*dto.Page[dto.CommentResponse], error)
	ListReplies(ctx context.Context, viewerID, commentID uint64, page dto.PageRequest) (*dto.Page[dto.CommentResponse], error)
	ChannelPosts(ctx context.Context, viewerID, ownerID uint64, page dto.PageRequest) (*dto.Page[dto.PostResponse], error)
	SubscriptionFeed(ctx context.Context, viewerID uint64, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error)
	LikedVideos(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error)
	Videos(ctx context.Context, viewerID uint64, filter repository.VideoFilter, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error)
	Video(ctx context.Context, viewerID uint64, video *model.Video) (*dto.VideoResponse, error)
	Post(ctx context.Context, viewerID uint64, post *model.Post) (*dto.PostResponse, error)
	Comment(ctx context.Context, viewerID uint64, comment *model.Comment) (*dto.CommentResponse, error)
}

type viewAssembler struct {
	repos   *data.Repositories
	targets TargetResolver
}

func NewViewAssembler(repos *data.Repositories, targets TargetResolver) ViewAssembler {
	return &viewAssembler{repos: repos, targets: targets}
}

// states 一次查出调用者对这一页所有目标的态度；匿名用户不查
func (v *viewAssembler) states(ctx context.Context, viewerID uint64, ids []uint64) (map[uint64]model.Polarity, error) {
	if viewerID == 0 || len(ids) == 0 {
		return map[uint64]model.Polarity{}, nil
	}
	states, err := v.repos.Reactions.PolaritiesOf(ctx, viewerID, ids)
	if err != nil {
		return nil, apperr.Internal("查询点赞状态失败", err)
	}
	return states, nil
}

func (v *viewAssembler) state(ctx context.Context, viewerID, id uint64) (dto.ViewerState, error) {
	states, err := v.states(ctx, viewerID, []uint64{id})
	if err != nil {
		return dto.ViewerState{}, err
	}
	p, ok := states[id]
	return dto.StateOf(p, ok), nil
}

func (v *viewAssembler) commentPage(ctx context.Context, viewerID uint64, comments []model.Comment, total int64, page dto.PageRequest) (*dto.Page[dto.CommentResponse], error) {
	ids := make([]uint64, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].ID)
	}
	states, err := v.states(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(comments, total, page, func(c *model.Comment) dto.CommentResponse {
		p, ok := states[c.ID]
		return dto.ToCommentResponse(c, dto.StateOf(p, ok))
	}), nil
}

func (v *viewAssembler) videoPage(ctx context.Context, viewerID uint64, videos []model.Video, total int64, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error) {
	ids := make([]uint64, 0, len(videos))
	for i := range videos {
		ids = append(ids, videos[i].ID)
	}
	states, err := v.states(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(videos, total, page, func(video *model.Video) dto.VideoResponse {
		p, ok := states[video.ID]
		return dto.ToVideoResponse(video, dto.StateOf(p, ok))
	}), nil
}

func (v *viewAssembler) ListComments(ctx context.Context, viewerID uint64, target model.TargetRef, page dto.PageRequest) (*dto.Page[dto.CommentResponse], error) {
	if !target.Kind.Commentable() {
		return nil, apperr.InvalidArgument("只有视频和动态有评论列表")
	}
	if err := v.targets.Ensure(ctx, target); err != nil {
		return nil, err
	}
	comments, total, err := v.repos.Comments.ListTopLevel(ctx, target, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询评论失败", err)
	}
	return v.commentPage(ctx, viewerID, comments, total, page)
}

func (v *viewAssembler) ListReplies(ctx context.Context, viewerID, commentID uint64, page dto.PageRequest) (*dto.Page[dto.CommentResponse], error) {
	if err := v.targets.Ensure(ctx, model.TargetRef{Kind: model.KindComment, ID: commentID}); err != nil {
		return nil, err
	}
	replies, total, err := v.repos.Comments.ListReplies(ctx, commentID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询回复失败", err)
	}
	return v.commentPage(ctx, viewerID, replies, total, page)
}

func (v *viewAssembler) ChannelPosts(ctx context.Context, viewerID, ownerID uint64, page dto.PageRequest) (*dto.Page[dto.PostResponse], error) {
	posts, total, err := v.repos.Posts.ListByOwner(ctx, ownerID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询动态失败", err)
	}
	ids := make([]uint64, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
	}
	states, err := v.states(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	return dto.MapPage(posts, total, page, func(p *model.Post) dto.PostResponse {
		pol, ok := states[p.ID]
		return dto.ToPostResponse(p, dto.StateOf(pol, ok))
	}), nil
}

func (v *viewAssembler) SubscriptionFeed(ctx context.Context, viewerID uint64, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error) {
	if viewerID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	videos, total, err := v.repos.Videos.ListFeed(ctx, viewerID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询订阅视频失败", err)
	}
	return v.videoPage(ctx, viewerID, videos, total, page)
}

func (v *viewAssembler) LikedVideos(ctx context.Context, userID uint64, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated("用户未认证")
	}
	videos, total, err := v.repos.Videos.ListLikedBy(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询点赞视频失败", err)
	}
	return v.videoPage(ctx, userID, videos, total, page)
}

func (v *viewAssembler) Videos(ctx context.Context, viewerID uint64, filter repository.VideoFilter, page dto.PageRequest) (*dto.Page[dto.VideoResponse], error) {
	// 别人的频道只能看到已发布的视频
	if filter.OwnerID == 0 || filter.OwnerID != viewerID {
		filter.OnlyPublished = true
	}
	videos, total, err := v.repos.Videos.List(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("查询视频失败", err)
	}
	return v.videoPage(ctx, viewerID, videos, total, page)
}

func (v *viewAssembler) Video(ctx context.Context, viewerID uint64, video *model.Video) (*dto.VideoResponse, error) {
	state, err := v.state(ctx, viewerID, video.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToVideoResponse(video, state)
	return &resp, nil
}

func (v *viewAssembler) Post(ctx context.Context, viewerID uint64, post *model.Post) (*dto.PostResponse, error) {
	state, err := v.state(ctx, viewerID, post.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToPostResponse(post, state)
	return &resp, nil
}

func (v *viewAssembler) Comment(ctx context.Context, viewerID uint64, comment *model.Comment) (*dto.CommentResponse, error) {
	state, err := v.state(ctx, viewerID, comment.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToCommentResponse(comment, state)
	return &resp, nil
}
