package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// FindByID 顺便把作者Preload进去
	FindByID(ctx context.Context, commentID uint64) (*model.Comment, error)
	UpdateContent(ctx context.Context, commentID uint64, content string) error

	// ListTopLevel 分页获取目标下的一级评论，最新的在前
	ListTopLevel(ctx context.Context, target model.TargetRef, offset, limit int) ([]model.Comment, int64, error)
	// ListReplies 分页获取某条评论的回复，最新的在前
	ListReplies(ctx context.Context, parentID uint64, offset, limit int) ([]model.Comment, int64, error)

	ReplyIDs(ctx context.Context, parentID uint64) ([]uint64, error)
	// IDsByTarget 目标下所有评论（含回复）的ID
	IDsByTarget(ctx context.Context, target model.TargetRef) ([]uint64, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)

	CountByTarget(ctx context.Context, target model.TargetRef) (uint64, error)
	CountReplies(ctx context.Context, parentID uint64) (uint64, error)

	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// WithTx 返回一个新的、使用事务的 commentRepository 实例
func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, commentID uint64) (*model.Comment, error) {
	var result model.Comment
	err := r.db.WithContext(ctx).Preload("Owner").First(&result, commentID).Error
	if err != nil {
		return nil, err // 如果有错（包括没找到），直接返回
	}
	return &result, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, commentID uint64, content string) error {
	return r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", commentID).Update("content", content).Error
}

func (r *commentRepository) ListTopLevel(ctx context.Context, target model.TargetRef, offset, limit int) ([]model.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("target_kind = ? AND target_id = ? AND parent_id IS NULL", target.Kind, target.ID)
	// 预加载评论的作者信息
	return findPage[model.Comment](query, offset, limit, newestFirst, "Owner")
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint64, offset, limit int) ([]model.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{}).Where("parent_id = ?", parentID)
	return findPage[model.Comment](query, offset, limit, newestFirst, "Owner")
}

func (r *commentRepository) ReplyIDs(ctx context.Context, parentID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("parent_id = ?", parentID).Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) IDsByTarget(ctx context.Context, target model.TargetRef) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}

func (r *commentRepository) CountByTarget(ctx context.Context, target model.TargetRef) (uint64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Count(&n).Error
	return uint64(n), err
}

func (r *commentRepository) CountReplies(ctx context.Context, parentID uint64) (uint64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("parent_id = ?", parentID).Count(&n).Error
	return uint64(n), err
}
