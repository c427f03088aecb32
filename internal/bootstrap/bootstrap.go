// Package bootstrap 组装数据库连接和服务依赖，server、consumer、seeder共用
package bootstrap

import (
	"time"

	"Tubely/internal/config"
	"Tubely/internal/data"
	"Tubely/internal/handler"
	"Tubely/internal/router"
	"Tubely/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenMySQL 数据源名称，用户名:密码@网络协议(地址:端口号)/数据库名?charset=字符集&parseTime=是否解析时间&loc=时区
// TranslateError打开后，唯一索引冲突会被翻译成gorm.ErrDuplicatedKey
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Services 进程里所有的service，只创建一次
type Services struct {
	Repos *data.Repositories
	UoW   data.UnitOfWork

	Targets       service.TargetResolver
	Counters      service.CounterMaintainer
	Reactions     service.ReactionService
	Comments      service.CommentService
	Cascade       service.CascadeService
	Views         service.ViewAssembler
	Reconcile     service.ReconcileService
	Users         service.UserService
	Videos        service.VideoService
	Posts         service.PostService
	Subscriptions service.SubscriptionService
	Playlists     service.PlaylistService
	History       service.HistoryService
	WatchLater    service.WatchLaterService
	Dashboard     service.DashboardService
}

// NewServices rdb可以为nil，此时不走缓存
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notifier service.ReconcileNotifier) *Services {
	repos := data.NewRepositories(db, rdb)
	uow := data.NewUnitOfWork(db, repos, data.Options{
		MaxRetries:     cfg.TxMaxRetries,
		MaxElapsedTime: cfg.TxMaxElapsedTime,
	})

	s := &Services{Repos: repos, UoW: uow}
	s.Targets = service.NewTargetResolver(repos.Targets)
	s.Counters = service.NewCounterMaintainer(notifier)
	s.Reactions = service.NewReactionService(uow, repos, s.Targets, s.Counters, notifier)
	s.Comments = service.NewCommentService(uow, repos, s.Targets, s.Reactions, s.Counters)
	s.Cascade = service.NewCascadeService(uow, repos, s.Targets, s.Reactions, s.Comments)
	s.Views = service.NewViewAssembler(repos, s.Targets)
	s.Reconcile = service.NewReconcileService(uow, repos, cfg.ReconcileBatchSize)
	s.Users = service.NewUserService(repos.Users, cfg.JWTSecret, cfg.JWTTTL)
	s.Videos = service.NewVideoService(repos, s.Targets)
	s.Posts = service.NewPostService(repos, s.Targets)
	s.Subscriptions = service.NewSubscriptionService(repos)
	s.Playlists = service.NewPlaylistService(repos, s.Targets)
	s.History = service.NewHistoryService(uow, repos, s.Targets)
	s.WatchLater = service.NewWatchLaterService(repos, s.Targets)
	s.Dashboard = service.NewDashboardService(repos)
	return s
}

// Handlers 把service包装成路由需要的handler
func (s *Services) Handlers() router.Handlers {
	return router.Handlers{
		User:     handler.NewUserHandler(s.Users),
		Video:    handler.NewVideoHandler(s.Videos, s.Views, s.Cascade),
		Post:     handler.NewPostHandler(s.Posts, s.Views, s.Cascade),
		Reaction: handler.NewReactionHandler(s.Reactions, s.Views),
		Comment:  handler.NewCommentHandler(s.Comments, s.Cascade, s.Views),
		Channel:  handler.NewChannelHandler(s.Subscriptions, s.Dashboard, s.Views),
		Library:  handler.NewLibraryHandler(s.Playlists, s.History, s.WatchLater),
	}
}
