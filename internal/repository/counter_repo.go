package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"Tubely/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrColumnNotOwned = errors.New("counter column not owned by target kind")

// CounterRepository 冗余计数的唯一写入口，所有增减都是相对值
type CounterRepository interface {
	// ApplyDelta 一条UPDATE完成所有列的增减，减法带 col >= n 的保护条件
	// 返回false说明没有行被更新：目标不存在，或者某一列会减到负数
	ApplyDelta(ctx context.Context, ref model.TargetRef, delta model.CounterDelta) (bool, error)
	// ClampDelta 兜底：减法不够减时置0
	ClampDelta(ctx context.Context, ref model.TargetRef, delta model.CounterDelta) error

	Read(ctx context.Context, ref model.TargetRef) (*model.Counters, error)
	// ReadForUpdate 对账时先锁行再比较
	ReadForUpdate(ctx context.Context, ref model.TargetRef) (*model.Counters, error)
	// Overwrite 绝对值写入，只有对账才能用
	Overwrite(ctx context.Context, ref model.TargetRef, counters model.Counters) error

	WithTx(tx *gorm.DB) CounterRepository
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) WithTx(tx *gorm.DB) CounterRepository {
	return &counterRepository{db: tx}
}

type columnDelta struct {
	col string
	n   int64
}

// 校验列属于该类型，并按列名排序保证生成的SQL稳定
func ownedColumns(kind model.TargetKind, delta model.CounterDelta) ([]columnDelta, error) {
	if !kind.Valid() {
		return nil, model.ErrUnknownTargetKind
	}
	cols := delta.Columns()
	out := make([]columnDelta, 0, len(cols))
	for col, n := range cols {
		if !kind.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotOwned, kind, col)
		}
		out = append(out, columnDelta{col: col, n: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].col < out[j].col })
	return out, nil
}

func (r *counterRepository) ApplyDelta(ctx context.Context, ref model.TargetRef, delta model.CounterDelta) (bool, error) {
	cols, err := ownedColumns(ref.Kind, delta)
	if err != nil {
		return false, err
	}
	if len(cols) == 0 {
		return true, nil
	}
	// UPDATE `videos` SET `dislikes_count`=dislikes_count + 1,`likes_count`=likes_count - 1 WHERE id = ? AND likes_count >= 1
	query := r.db.WithContext(ctx).Table(ref.Kind.Table()).Where("id = ?", ref.ID)
	updates := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		if c.n > 0 {
			updates[c.col] = gorm.Expr(c.col+" + ?", c.n)
			continue
		}
		updates[c.col] = gorm.Expr(c.col+" - ?", -c.n)
		query = query.Where(c.col+" >= ?", -c.n)
	}
	res := query.UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *counterRepository) ClampDelta(ctx context.Context, ref model.TargetRef, delta model.CounterDelta) error {
	cols, err := ownedColumns(ref.Kind, delta)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		if c.n > 0 {
			updates[c.col] = gorm.Expr(c.col+" + ?", c.n)
			continue
		}
		// 无符号列不能先减再判断，否则MySQL直接报越界
		updates[c.col] = gorm.Expr(fmt.Sprintf("CASE WHEN %s < ? THEN 0 ELSE %s - ? END", c.col, c.col), -c.n, -c.n)
	}
	return r.db.WithContext(ctx).Table(ref.Kind.Table()).Where("id = ?", ref.ID).UpdateColumns(updates).Error
}

func (r *counterRepository) read(db *gorm.DB, ref model.TargetRef) (*model.Counters, error) {
	if !ref.Kind.Valid() {
		return nil, model.ErrUnknownTargetKind
	}
	var c model.Counters
	err := db.Table(ref.Kind.Table()).Select(ref.Kind.Columns()).Where("id = ?", ref.ID).Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *counterRepository) Read(ctx context.Context, ref model.TargetRef) (*model.Counters, error) {
	return r.read(r.db.WithContext(ctx), ref)
}

func (r *counterRepository) ReadForUpdate(ctx context.Context, ref model.TargetRef) (*model.Counters, error) {
	// SELECT likes_count,... FROM `videos` WHERE id = ? LIMIT 1 FOR UPDATE
	return r.read(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

func (r *counterRepository) Overwrite(ctx context.Context, ref model.TargetRef, c model.Counters) error {
	if !ref.Kind.Valid() {
		return model.ErrUnknownTargetKind
	}
	all := map[string]uint64{
		model.ColLikes:    c.Likes,
		model.ColDislikes: c.Dislikes,
		model.ColComments: c.Comments,
		model.ColReplies:  c.Replies,
	}
	updates := make(map[string]interface{}, 3)
	for _, col := range ref.Kind.Columns() {
		updates[col] = all[col]
	}
	return r.db.WithContext(ctx).Table(ref.Kind.Table()).Where("id = ?", ref.ID).UpdateColumns(updates).Error
}
