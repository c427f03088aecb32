// cmd/seeder/main.go

package main

import (
	"context"
	"math/rand"
	"time"

	"Tubely/internal/bootstrap"
	"Tubely/internal/config"
	"Tubely/internal/model"
	"Tubely/internal/service"
	"Tubely/pkg/logger"
	"Tubely/pkg/snowflake"

	"github.com/go-faker/faker/v4"
	"gorm.io/gorm"
)

const (
	userCount     = 50
	videoCount    = 200
	postCount     = 100
	commentCount  = 600
	reactionCount = 1500
	subCount      = 300
)

func main() {
	logger.Log.Info("开始填充测试数据...")

	// --- 1. 连接数据库 ---
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err := snowflake.SetWorker(cfg.WorkerID + 2); err != nil {
		logger.Log.Fatalf("雪花ID节点初始化失败: %v", err)
	}
	db, err := bootstrap.OpenMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}

	// --- 2. 清理旧数据 ---
	// 注意：这将删除所有数据！
	if err := resetSchema(db); err != nil {
		logger.Log.Fatalf("重建表失败: %v", err)
	}
	logger.Log.Info("旧表删除并重新迁移成功")

	// 走service写数据，计数和真实行数天然一致；通知只记日志
	svcs := bootstrap.NewServices(cfg, db, nil, service.LogNotifier{})
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &seeder{svcs: svcs, rng: rng}

	// --- 3. 依次造用户、视频、动态、订阅、评论、点赞 ---
	s.users(ctx)
	s.videos(ctx)
	s.posts(ctx)
	s.subscriptions(ctx)
	s.comments(ctx)
	s.reactions(ctx)

	// --- 4. 最后做一次全量对账，正常情况下不应该有修正 ---
	report, err := svcs.Reconcile.ReconcileAll(ctx)
	if err != nil {
		logger.Log.Fatalf("对账失败: %v", err)
	}
	logger.Log.WithField("checked", report.Checked).
		WithField("repaired", report.Repaired).
		WithField("failed", report.Failed).
		Info("所有测试数据填充完毕")
}

func resetSchema(db *gorm.DB) error {
	if err := db.Migrator().DropTable(
		"playlist_videos",
		&model.WatchLater{},
		&model.History{},
		&model.Playlist{},
		&model.Subscription{},
		&model.Reaction{},
		&model.Comment{},
		&model.Post{},
		&model.Video{},
		&model.User{},
	); err != nil {
		return err
	}
	return model.AutoMigrate(db)
}

type seeder struct {
	svcs *bootstrap.Services
	rng  *rand.Rand

	userIDs    []uint64
	targets    []model.TargetRef
	topLevel   []*model.Comment
	commentIDs []uint64
}

func (s *seeder) pickUser() uint64 {
	return s.userIDs[s.rng.Intn(len(s.userIDs))]
}

func (s *seeder) users(ctx context.Context) {
	for i := 0; i < userCount; i++ {
		// 为所有用户设置一个简单的默认密码 "password"
		u, err := s.svcs.Users.Register(ctx, faker.Username(), "password", faker.Name(), "https://cdn.example.com/avatar.png")
		if err != nil {
			// faker偶尔会生成重复的用户名，跳过即可
			logger.Log.WithError(err).Warn("创建用户失败，跳过")
			continue
		}
		s.userIDs = append(s.userIDs, u.ID)
	}
	if len(s.userIDs) == 0 {
		logger.Log.Fatal("一个用户都没有创建成功")
	}
	logger.Log.WithField("count", len(s.userIDs)).Info("用户创建完成")
}

func (s *seeder) videos(ctx context.Context) {
	n := 0
	for i := 0; i < videoCount; i++ {
		published := s.rng.Intn(10) > 0
		v, err := s.svcs.Videos.CreateVideo(ctx, s.pickUser(), service.VideoInput{
			Title:        faker.Sentence(),
			Description:  faker.Paragraph(),
			VideoURL:     "https://cdn.example.com/video.mp4",
			ThumbnailURL: "https://cdn.example.com/cover.jpg",
			Duration:     float64(30 + s.rng.Intn(1200)),
			IsPublished:  &published,
		})
		if err != nil {
			logger.Log.WithError(err).Warn("创建视频失败，跳过")
			continue
		}
		s.targets = append(s.targets, v.Ref())
		n++
	}
	logger.Log.WithField("count", n).Info("视频创建完成")
}

func (s *seeder) posts(ctx context.Context) {
	n := 0
	for i := 0; i < postCount; i++ {
		in := service.PostInput{Type: model.PostText, Content: faker.Paragraph()}
		if i%5 == 0 {
			in = service.PostInput{
				Type:    model.PostPoll,
				Content: faker.Sentence(),
				Poll:    &service.PollInput{Question: faker.Sentence(), Options: []string{faker.Word(), faker.Word()}},
			}
		}
		p, err := s.svcs.Posts.CreatePost(ctx, s.pickUser(), in)
		if err != nil {
			logger.Log.WithError(err).Warn("创建动态失败，跳过")
			continue
		}
		s.targets = append(s.targets, p.Ref())
		n++
	}
	logger.Log.WithField("count", n).Info("动态创建完成")
}

func (s *seeder) subscriptions(ctx context.Context) {
	n := 0
	for i := 0; i < subCount; i++ {
		subscriber, channel := s.pickUser(), s.pickUser()
		if subscriber == channel {
			continue
		}
		// 重复抽到同一对会变成取消订阅，只统计最终处于订阅状态的次数
		subscribed, err := s.svcs.Subscriptions.Toggle(ctx, subscriber, channel)
		if err != nil {
			logger.Log.WithError(err).Warn("订阅失败，跳过")
			continue
		}
		if subscribed {
			n++
		}
	}
	logger.Log.WithField("count", n).Info("订阅创建完成")
}

func (s *seeder) comments(ctx context.Context) {
	if len(s.targets) == 0 {
		return
	}
	for i := 0; i < commentCount; i++ {
		var (
			target   model.TargetRef
			parentID *uint64
		)
		// 三分之一是回复
		if len(s.topLevel) > 0 && s.rng.Intn(3) == 0 {
			parent := s.topLevel[s.rng.Intn(len(s.topLevel))]
			target = model.TargetRef{Kind: parent.TargetKind, ID: parent.TargetID}
			parentID = &parent.ID
		} else {
			target = s.targets[s.rng.Intn(len(s.targets))]
		}
		c, err := s.svcs.Comments.AddComment(ctx, s.pickUser(), target, faker.Sentence(), parentID)
		if err != nil {
			logger.Log.WithError(err).Warn("创建评论失败，跳过")
			continue
		}
		if parentID == nil {
			s.topLevel = append(s.topLevel, c)
		}
		s.commentIDs = append(s.commentIDs, c.ID)
	}
	logger.Log.WithField("count", len(s.commentIDs)).Info("评论创建完成")
}

func (s *seeder) reactions(ctx context.Context) {
	ids := make([]uint64, 0, len(s.targets)+len(s.commentIDs))
	for _, ref := range s.targets {
		ids = append(ids, ref.ID)
	}
	ids = append(ids, s.commentIDs...)
	if len(ids) == 0 {
		return
	}

	polarities := []string{string(model.PolarityLike), string(model.PolarityLike), string(model.PolarityDislike)}
	n := 0
	for i := 0; i < reactionCount; i++ {
		// kind留空，按ID探测目标类型
		_, err := s.svcs.Reactions.ApplyReaction(ctx, s.pickUser(), ids[s.rng.Intn(len(ids))], "", polarities[s.rng.Intn(len(polarities))])
		if err != nil {
			logger.Log.WithError(err).Warn("点赞失败，跳过")
			continue
		}
		n++
	}
	logger.Log.WithField("count", n).Info("点赞操作完成")
}
