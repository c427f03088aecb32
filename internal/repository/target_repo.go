package repository

import (
	"context"
	"fmt"
	"time"

	"Tubely/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kind缓存的TTL，ID不会复用，命中后基本不会失效
const targetKindTTL = 24 * time.Hour

// TargetRepository 不关心具体类型，按注册表里的表名操作任意目标
type TargetRepository interface {
	Exists(ctx context.Context, ref model.TargetRef) (bool, error)
	// Owner 返回目标作者ID，不存在返回gorm.ErrRecordNotFound
	Owner(ctx context.Context, ref model.TargetRef) (uint64, error)
	// LockOwner 同Owner，但对目标行加写锁直到事务结束；级联删除在收集子记录之前先调用它
	LockOwner(ctx context.Context, ref model.TargetRef) (uint64, error)
	// ListIDs 按ID升序分批取出某类目标的ID，对账时遍历用
	ListIDs(ctx context.Context, kind model.TargetKind, afterID uint64, limit int) ([]uint64, error)

	GetKindCache(ctx context.Context, id uint64) (model.TargetKind, bool)
	SetKindCache(ctx context.Context, ref model.TargetRef) error
	DelKindCache(ctx context.Context, ids ...uint64) error

	WithTx(tx *gorm.DB) TargetRepository
}

type targetRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewTargetRepository(db *gorm.DB, rdb *redis.Client) TargetRepository {
	return &targetRepository{db: db, rdb: rdb}
}

func (r *targetRepository) WithTx(tx *gorm.DB) TargetRepository {
	return &targetRepository{db: tx, rdb: r.rdb}
}

func (r *targetRepository) Exists(ctx context.Context, ref model.TargetRef) (bool, error) {
	if !ref.Kind.Valid() {
		return false, model.ErrUnknownTargetKind
	}
	var n int64
	err := r.db.WithContext(ctx).Table(ref.Kind.Table()).Where("id = ?", ref.ID).Count(&n).Error
	return n > 0, err
}

func (r *targetRepository) Owner(ctx context.Context, ref model.TargetRef) (uint64, error) {
	return r.owner(r.db.WithContext(ctx), ref)
}

func (r *targetRepository) LockOwner(ctx context.Context, ref model.TargetRef) (uint64, error) {
	// SELECT `owner_id` FROM `videos` WHERE id = ? LIMIT 1 FOR UPDATE
	return r.owner(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

func (r *targetRepository) owner(db *gorm.DB, ref model.TargetRef) (uint64, error) {
	if !ref.Kind.Valid() {
		return 0, model.ErrUnknownTargetKind
	}
	var row struct {
		OwnerID uint64
	}
	err := db.Table(ref.Kind.Table()).Select("owner_id").Where("id = ?", ref.ID).Take(&row).Error
	if err != nil {
		return 0, err
	}
	return row.OwnerID, nil
}

func (r *targetRepository) ListIDs(ctx context.Context, kind model.TargetKind, afterID uint64, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Table(kind.Table()).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *targetRepository) keyTargetKind(id uint64) string {
	return fmt.Sprintf("target:kind:%d", id)
}

// GetKindCache Redis不可用或者未命中都当作未命中处理，退回到逐表探测
func (r *targetRepository) GetKindCache(ctx context.Context, id uint64) (model.TargetKind, bool) {
	if r.rdb == nil {
		return "", false
	}
	val, err := r.rdb.Get(ctx, r.keyTargetKind(id)).Result()
	if err != nil {
		return "", false
	}
	kind := model.TargetKind(val)
	return kind, kind.Valid()
}

func (r *targetRepository) SetKindCache(ctx context.Context, ref model.TargetRef) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Set(ctx, r.keyTargetKind(ref.ID), string(ref.Kind), targetKindTTL).Err()
}

func (r *targetRepository) DelKindCache(ctx context.Context, ids ...uint64) error {
	if r.rdb == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.keyTargetKind(id))
	}
	return r.rdb.Del(ctx, keys...).Err()
}
