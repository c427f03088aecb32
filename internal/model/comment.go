package model

// Comment 评论本身也是可以被点赞的目标
// 所属目标用(TargetKind, TargetID)表示，天然保证"要么属于视频，要么属于动态"
type Comment struct {
	BaseModel
	OwnerID    uint64     `gorm:"not null;index"`
	TargetKind TargetKind `gorm:"type:varchar(16);not null"`
	TargetID   uint64     `gorm:"not null"`
	// 指针*uint64的零值是nil，这样就可以区分是一级评论还是二级评论
	ParentID *uint64 `gorm:"index"`
	// TEXT是MySQL中的一种文本类型，最大长度可达65,535个字符
	Content string `gorm:"type:text;not null"`

	LikesCount    uint64 `gorm:"not null;default:0"`
	DislikesCount uint64 `gorm:"not null;default:0"`
	RepliesCount  uint64 `gorm:"not null;default:0"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) Ref() TargetRef {
	return TargetRef{Kind: KindComment, ID: c.ID}
}

// Target 评论挂在哪个视频/动态下面
func (c *Comment) Target() TargetRef {
	return TargetRef{Kind: c.TargetKind, ID: c.TargetID}
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
