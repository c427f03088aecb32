package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TargetKind 可以被点赞/评论的目标类型
type TargetKind string

const (
	KindVideo   TargetKind = "video"
	KindPost    TargetKind = "post"
	KindComment TargetKind = "comment"
)

// 冗余计数列
const (
	ColLikes    = "likes_count"
	ColDislikes = "dislikes_count"
	ColComments = "comments_count"
	ColReplies  = "replies_count"
)

var ErrUnknownTargetKind = errors.New("unknown target kind")

type targetInfo struct {
	table       string
	columns     []string
	commentable bool
}

// registry 每种目标的表名、它拥有的计数列、能不能挂评论
var registry = map[TargetKind]targetInfo{
	KindVideo:   {table: "videos", columns: []string{ColLikes, ColDislikes, ColComments}, commentable: true},
	KindPost:    {table: "posts", columns: []string{ColLikes, ColDislikes, ColComments}, commentable: true},
	KindComment: {table: "comments", columns: []string{ColLikes, ColDislikes, ColReplies}},
}

// ProbeOrder 调用方没给类型时按这个固定顺序逐表探测
var ProbeOrder = []TargetKind{KindVideo, KindComment, KindPost}

// ParseTargetKind 解析路由/查询参数里的类型，reply是comment的别名
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(strings.ToLower(strings.TrimSpace(s)))
	if k == "reply" {
		k = KindComment
	}
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTargetKind, s)
	}
	return k, nil
}

func (k TargetKind) Valid() bool {
	_, ok := registry[k]
	return ok
}

func (k TargetKind) Table() string {
	return registry[k].table
}

func (k TargetKind) Commentable() bool {
	return registry[k].commentable
}

// Columns 返回该类型拥有的计数列
func (k TargetKind) Columns() []string {
	return registry[k].columns
}

func (k TargetKind) HasColumn(col string) bool {
	for _, c := range registry[k].columns {
		if c == col {
			return true
		}
	}
	return false
}

// TargetRef 带类型标签的目标引用
type TargetRef struct {
	Kind TargetKind
	ID   uint64
}

func (r TargetRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatUint(r.ID, 10)
}

// Counters 目标当前存储的冗余计数，不拥有的列为0
type Counters struct {
	Likes    uint64 `gorm:"column:likes_count"`
	Dislikes uint64 `gorm:"column:dislikes_count"`
	Comments uint64 `gorm:"column:comments_count"`
	Replies  uint64 `gorm:"column:replies_count"`
}
