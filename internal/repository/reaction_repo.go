package repository

import (
	"context"

	"Tubely/internal/model"

	"gorm.io/gorm"
)

type ReactionRepository interface {
	// Find 查(user, target)唯一的那条记录，没有返回gorm.ErrRecordNotFound
	Find(ctx context.Context, userID, targetID uint64) (*model.Reaction, error)
	// Create 撞上唯一索引时返回gorm.ErrDuplicatedKey（需要开启TranslateError）
	Create(ctx context.Context, reaction *model.Reaction) error
	// Delete 返回影响行数，0说明已经被并发请求删掉了
	Delete(ctx context.Context, id uint64) (int64, error)
	// SwitchPolarity 条件更新：只有当前极性等于from才会改成to
	SwitchPolarity(ctx context.Context, id uint64, from, to model.Polarity) (int64, error)
	// DeleteByTargets 删除这些目标上的全部点赞，返回删除条数
	DeleteByTargets(ctx context.Context, targetIDs []uint64) (int64, error)

	// PolaritiesOf 批量查询某个用户对一批目标的态度
	PolaritiesOf(ctx context.Context, userID uint64, targetIDs []uint64) (map[uint64]model.Polarity, error)
	CountByTarget(ctx context.Context, targetID uint64) (likes, dislikes uint64, err error)
	CountByTargets(ctx context.Context, targetIDs []uint64) (int64, error)

	WithTx(tx *gorm.DB) ReactionRepository
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) WithTx(tx *gorm.DB) ReactionRepository {
	return &reactionRepository{db: tx}
}

func (r *reactionRepository) Find(ctx context.Context, userID, targetID uint64) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.WithContext(ctx).Where("user_id = ? AND target_id = ?", userID, targetID).Take(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reaction{})
	return res.RowsAffected, res.Error
}

func (r *reactionRepository) SwitchPolarity(ctx context.Context, id uint64, from, to model.Polarity) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Where("id = ? AND polarity = ?", id, from).
		Updates(map[string]interface{}{"polarity": to})
	return res.RowsAffected, res.Error
}

func (r *reactionRepository) DeleteByTargets(ctx context.Context, targetIDs []uint64) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("target_id IN ?", targetIDs).Delete(&model.Reaction{})
	return res.RowsAffected, res.Error
}

func (r *reactionRepository) PolaritiesOf(ctx context.Context, userID uint64, targetIDs []uint64) (map[uint64]model.Polarity, error) {
	out := make(map[uint64]model.Polarity, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	var rows []model.Reaction
	err := r.db.WithContext(ctx).
		Select("target_id", "polarity").
		Where("user_id = ? AND target_id IN ?", userID, targetIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TargetID] = row.Polarity
	}
	return out, nil
}

func (r *reactionRepository) CountByTarget(ctx context.Context, targetID uint64) (uint64, uint64, error) {
	var rows []struct {
		Polarity model.Polarity
		N        uint64
	}
	// SELECT polarity, COUNT(*) AS n FROM reactions WHERE target_id = ? GROUP BY polarity
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Select("polarity, COUNT(*) AS n").
		Where("target_id = ?", targetID).
		Group("polarity").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	var likes, dislikes uint64
	for _, row := range rows {
		switch row.Polarity {
		case model.PolarityLike:
			likes = row.N
		case model.PolarityDislike:
			dislikes = row.N
		}
	}
	return likes, dislikes, nil
}

func (r *reactionRepository) CountByTargets(ctx context.Context, targetIDs []uint64) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).Where("target_id IN ?", targetIDs).Count(&n).Error
	return n, err
}
