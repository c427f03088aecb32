package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, postID uint64) (*model.Post, error)
	Update(ctx context.Context, postID uint64, fields map[string]interface{}) error
	Delete(ctx context.Context, postID uint64) (int64, error)
	ListByOwner(ctx context.Context, ownerID uint64, offset, limit int) ([]model.Post, int64, error)
	// ClearVideoRef 视频被删掉之后，引用它的动态不再指向它
	ClearVideoRef(ctx context.Context, videoID uint64) error

	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, postID uint64) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Preload("Owner").First(&post, postID).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, postID uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", postID).Updates(fields).Error
}

func (r *postRepository) Delete(ctx context.Context, postID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", postID).Delete(&model.Post{})
	return res.RowsAffected, res.Error
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint64, offset, limit int) ([]model.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Post{}).Where("owner_id = ?", ownerID)
	return findPage[model.Post](query, offset, limit, newestFirst, "Owner")
}

func (r *postRepository) ClearVideoRef(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("video_id = ?", videoID).
		UpdateColumn("video_id", gorm.Expr("NULL")).Error
}
