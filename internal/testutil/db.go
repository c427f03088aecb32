// Package testutil 为各层测试提供内存数据库和造数据的帮助函数
package testutil

import (
	"testing"

	"Tubely/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试一份独立的内存SQLite，已经建好表
// 只有一个连接：事务里的代码必须全部走tx，否则会自己等自己
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Password: "x", FullName: username + " full", Avatar: "https://cdn.example.com/" + username + ".png"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateVideo(t testing.TB, db *gorm.DB, ownerID uint64) *model.Video {
	t.Helper()
	v := &model.Video{
		OwnerID:      ownerID,
		Title:        "video",
		VideoURL:     "https://cdn.example.com/v.mp4",
		ThumbnailURL: "https://cdn.example.com/v.jpg",
		Duration:     12.5,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

func CreatePost(t testing.TB, db *gorm.DB, ownerID uint64) *model.Post {
	t.Helper()
	p := &model.Post{OwnerID: ownerID, Type: model.PostText, Content: "hello"}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Counters 重新读出目标的计数
func Counters(t testing.TB, db *gorm.DB, ref model.TargetRef) model.Counters {
	t.Helper()
	var c model.Counters
	require.NoError(t, db.Table(ref.Kind.Table()).Select(ref.Kind.Columns()).Where("id = ?", ref.ID).Take(&c).Error)
	return c
}

// CountRows 统计某张表满足条件的行数
func CountRows(t testing.TB, db *gorm.DB, table string, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Where(where, args...).Count(&n).Error)
	return n
}
