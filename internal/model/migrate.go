package model

import (
	"fmt"

	"gorm.io/gorm"
)

// 按时间倒序分页用的联合索引，CreatedAt在BaseModel里，没法用tag声明
var listingIndexes = []struct {
	model   interface{}
	name    string
	table   string
	columns string
}{
	{&Comment{}, "idx_comments_target_created", "comments", "target_kind, target_id, created_at"},
	{&Post{}, "idx_posts_owner_created", "posts", "owner_id, created_at"},
	{&Video{}, "idx_videos_owner_created", "videos", "owner_id, created_at"},
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Video{},
		&Post{},
		&Comment{},
		&Reaction{},
		&Subscription{},
		&Playlist{},
		&History{},
		&WatchLater{},
	); err != nil {
		return err
	}
	for _, idx := range listingIndexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
