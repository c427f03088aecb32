package model

import (
	"time"

	"Tubely/pkg/snowflake"

	"gorm.io/gorm"
)

// 所有表统一用uint64主键，并且由雪花算法生成，而不是数据库自增：
// 视频、动态、评论共用同一个ID空间，点赞只拿一个ID也能反查出是哪种目标
type BaseModel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate gorm钩子，插入前分配ID
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == 0 {
		m.ID = snowflake.NextID()
	}
	return nil
}
