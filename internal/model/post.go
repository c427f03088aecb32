package model

import "time"

type PostType string

const (
	PostText  PostType = "text"
	PostImage PostType = "image"
	PostVideo PostType = "video"
	PostPoll  PostType = "poll"
)

func (t PostType) Valid() bool {
	switch t {
	case PostText, PostImage, PostVideo, PostPoll:
		return true
	}
	return false
}

type PollOption struct {
	Text       string `json:"text"`
	VotesCount uint64 `json:"votes_count"`
}

type Poll struct {
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	ExpiresAt  time.Time    `json:"expires_at"`
	TotalVotes uint64       `json:"total_votes"`
}

// Post 社区动态，图片/投票以JSON存在一列里
type Post struct {
	BaseModel
	OwnerID uint64   `gorm:"not null;index"`
	Type    PostType `gorm:"type:varchar(16);not null;index"`
	Content string   `gorm:"type:text"`
	Images  []string `gorm:"serializer:json;type:text"`
	VideoID *uint64  `gorm:"index"`
	Poll    *Poll    `gorm:"serializer:json;type:text"`

	LikesCount    uint64 `gorm:"not null;default:0"`
	DislikesCount uint64 `gorm:"not null;default:0"`
	CommentsCount uint64 `gorm:"not null;default:0"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID"`
}

func (p *Post) Ref() TargetRef {
	return TargetRef{Kind: KindPost, ID: p.ID}
}
