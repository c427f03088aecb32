package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"Tubely/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// VideoFilter 视频列表的过滤和排序条件，SortBy只接受白名单里的列
type VideoFilter struct {
	Query         string
	OwnerID       uint64
	SortBy        string
	SortDesc      bool
	OnlyPublished bool
}

var videoSortColumns = map[string]bool{
	"created_at":  true,
	"views":       true,
	"likes_count": true,
	"duration":    true,
}

// VideoStats 频道维度的聚合数据
type VideoStats struct {
	TotalVideos uint64
	TotalViews  uint64
	TotalLikes  uint64
}

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	// FindByID 直接查库，缓存由service层通过singleflight统一回填
	FindByID(ctx context.Context, videoID uint64) (*model.Video, error)
	Update(ctx context.Context, videoID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, videoID uint64) (int64, error)
	IncrementViews(ctx context.Context, videoID uint64) error

	List(ctx context.Context, filter VideoFilter, offset, limit int) ([]model.Video, int64, error)
	// ListLikedBy 用户点过赞的视频，按点赞时间倒序
	ListLikedBy(ctx context.Context, userID uint64, offset, limit int) ([]model.Video, int64, error)
	// ListFeed 订阅的频道发布的视频
	ListFeed(ctx context.Context, subscriberID uint64, offset, limit int) ([]model.Video, int64, error)
	ChannelStats(ctx context.Context, ownerID uint64) (*VideoStats, error)

	GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error)
	SetVideoCache(ctx context.Context, video *model.Video) error
	DelVideoCache(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) VideoRepository
}

type videoRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewVideoRepository(db *gorm.DB, rdb *redis.Client) VideoRepository {
	return &videoRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个新的、使用事务的 videoRepository 实例，缓存客户端照旧
func (r *videoRepository) WithTx(tx *gorm.DB) VideoRepository {
	return &videoRepository{
		db:  tx,
		rdb: r.rdb,
	}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// 利用videoID找视频，preload其中的Owner结构
func (r *videoRepository) FindByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Preload("Owner").First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) Update(ctx context.Context, videoID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).Updates(fields).Error
}

func (r *videoRepository) Delete(ctx context.Context, videoID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", videoID).Delete(&model.Video{})
	return res.RowsAffected, res.Error
}

func (r *videoRepository) IncrementViews(ctx context.Context, videoID uint64) error {
	// UPDATE `videos` SET `views` = views + 1 WHERE id = ?
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *videoRepository) List(ctx context.Context, filter VideoFilter, offset, limit int) ([]model.Video, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Video{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.OnlyPublished {
		query = query.Where("is_published = ?", true)
	}
	orders := newestFirst
	if videoSortColumns[filter.SortBy] {
		dir := "asc"
		if filter.SortDesc {
			dir = "desc"
		}
		orders = []string{filter.SortBy + " " + dir, "id " + dir}
	}
	return findPage[model.Video](query, offset, limit, orders, "Owner")
}

func (r *videoRepository) ListLikedBy(ctx context.Context, userID uint64, offset, limit int) ([]model.Video, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Video{}).
		Joins("JOIN reactions ON reactions.target_id = videos.id").
		Where("reactions.user_id = ? AND reactions.polarity = ?", userID, model.PolarityLike)
	return findPage[model.Video](query, offset, limit, []string{"reactions.created_at desc", "videos.id desc"}, "Owner")
}

func (r *videoRepository) ListFeed(ctx context.Context, subscriberID uint64, offset, limit int) ([]model.Video, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Video{}).
		Joins("JOIN subscriptions ON subscriptions.channel_id = videos.owner_id").
		Where("subscriptions.subscriber_id = ? AND videos.is_published = ?", subscriberID, true)
	return findPage[model.Video](query, offset, limit, []string{"videos.created_at desc", "videos.id desc"}, "Owner")
}

func (r *videoRepository) ChannelStats(ctx context.Context, ownerID uint64) (*VideoStats, error) {
	var stats VideoStats
	err := r.db.WithContext(ctx).Model(&model.Video{}).
		Select("COUNT(*) AS total_videos, COALESCE(SUM(views), 0) AS total_views, COALESCE(SUM(likes_count), 0) AS total_likes").
		Where("owner_id = ?", ownerID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// 返回存储单个视频信息的字符串Key
func (r *videoRepository) keyVideoInfo(videoID uint64) string {
	return fmt.Sprintf("video:info:%d", videoID)
}

// 从Redis缓存中获取单个Video信息：1、利用VideoID组装key 2、拿key去rdb中寻找videoJSON 3、利用json.Unmarshal将拿到的videoJSON反序列化
// 缓存不存在返回(nil, nil)
func (r *videoRepository) GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error) {
	if r.rdb == nil {
		return nil, nil
	}
	videoJSON, err := r.rdb.Get(ctx, r.keyVideoInfo(videoID)).Result()
	if err == redis.Nil {
		return nil, nil // 如果缓存不存在，但是Redis正常工作
	} else if err != nil {
		return nil, err // Redis本身出错了
	}
	var video model.Video
	if err := json.Unmarshal([]byte(videoJSON), &video); err != nil {
		return nil, err // JSON反序列化失败
	}
	return &video, nil
}

// 将单个视频信息存入Redis缓存，过期时间加上随机性防止缓存雪崩
func (r *videoRepository) SetVideoCache(ctx context.Context, video *model.Video) error {
	if r.rdb == nil {
		return nil
	}
	videoJSON, err := json.Marshal(video)
	if err != nil {
		return err
	}
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(ctx, r.keyVideoInfo(video.ID), videoJSON, expiration).Err()
}

// DelVideoCache 计数或内容变化之后删缓存，下次读再回填
func (r *videoRepository) DelVideoCache(ctx context.Context, videoID uint64) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, r.keyVideoInfo(videoID)).Err()
}
