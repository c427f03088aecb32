package model

import (
	"errors"
	"fmt"
	"strings"
)

type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

var ErrInvalidPolarity = errors.New("invalid polarity")

func ParsePolarity(s string) (Polarity, error) {
	p := Polarity(strings.ToLower(strings.TrimSpace(s)))
	if p != PolarityLike && p != PolarityDislike {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolarity, s)
	}
	return p, nil
}

// Column 该极性对应的计数列
func (p Polarity) Column() string {
	if p == PolarityDislike {
		return ColDislikes
	}
	return ColLikes
}

// Reaction 用户对某个目标的态度，(user_id, target_id)唯一
type Reaction struct {
	BaseModel
	UserID     uint64     `gorm:"not null;uniqueIndex:idx_reaction_user_target"`
	TargetID   uint64     `gorm:"not null;uniqueIndex:idx_reaction_user_target;index"`
	TargetKind TargetKind `gorm:"type:varchar(16);not null"`
	Polarity   Polarity   `gorm:"type:varchar(8);not null"`
}

func (r *Reaction) Target() TargetRef {
	return TargetRef{Kind: r.TargetKind, ID: r.TargetID}
}

type TransitionKind string

const (
	TransitionAdded    TransitionKind = "added"
	TransitionRemoved  TransitionKind = "removed"
	TransitionSwitched TransitionKind = "switched"
	// TransitionNone 冲突重试时发现已经是目标状态
	TransitionNone TransitionKind = "none"
)

// Transition 一次点赞操作造成的状态变化
type Transition struct {
	Kind TransitionKind
	From Polarity
	To   Polarity
}

func Added(p Polarity) Transition   { return Transition{Kind: TransitionAdded, To: p} }
func Removed(p Polarity) Transition { return Transition{Kind: TransitionRemoved, From: p} }
func Switched(from, to Polarity) Transition {
	return Transition{Kind: TransitionSwitched, From: from, To: to}
}
func Unchanged(p Polarity) Transition { return Transition{Kind: TransitionNone, From: p, To: p} }

// Delta 状态变化对应的计数增量
func (t Transition) Delta() CounterDelta {
	var d CounterDelta
	switch t.Kind {
	case TransitionAdded:
		d = d.add(t.To, 1)
	case TransitionRemoved:
		d = d.add(t.From, -1)
	case TransitionSwitched:
		d = d.add(t.From, -1).add(t.To, 1)
	}
	return d
}

// Status 操作之后用户当前的态度，取消之后为nil
func (t Transition) Status() *Polarity {
	if t.Kind == TransitionRemoved {
		return nil
	}
	p := t.To
	return &p
}

// CounterDelta 一次写操作对目标冗余计数的影响，由CounterMaintainer统一落库
type CounterDelta struct {
	Likes    int64
	Dislikes int64
	Comments int64
	Replies  int64
}

func (d CounterDelta) add(p Polarity, n int64) CounterDelta {
	if p == PolarityDislike {
		d.Dislikes += n
	} else {
		d.Likes += n
	}
	return d
}

func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

func (d CounterDelta) Plus(o CounterDelta) CounterDelta {
	return CounterDelta{
		Likes:    d.Likes + o.Likes,
		Dislikes: d.Dislikes + o.Dislikes,
		Comments: d.Comments + o.Comments,
		Replies:  d.Replies + o.Replies,
	}
}

// Columns 非零的列及增量
func (d CounterDelta) Columns() map[string]int64 {
	cols := make(map[string]int64, 4)
	for col, n := range map[string]int64{
		ColLikes:    d.Likes,
		ColDislikes: d.Dislikes,
		ColComments: d.Comments,
		ColReplies:  d.Replies,
	} {
		if n != 0 {
			cols[col] = n
		}
	}
	return cols
}
