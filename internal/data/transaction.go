package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Tubely/internal/repository"
	"Tubely/pkg/logger"
	"Tubely/pkg/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrRetriesExhausted 临时错误重试到上限仍然失败
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// UnitOfWork 定义了我们事务管理器的接口
type UnitOfWork interface {
	// Execute 将一个函数包裹在数据库事务中执行，并为它提供能在事务中工作的 Repositories。
	// fn拿到的ctx已经和调用方的取消信号脱钩，事务里的查询都要用它
	// 遇到死锁、锁等待超时这类临时错误会整体重试，所以fn必须可以重复执行
	Execute(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// Repositories 持有所有需要在同一个事务中操作的 Repository。
type Repositories struct {
	Users         repository.UserRepository
	Subscriptions repository.SubscriptionRepository
	Targets       repository.TargetRepository
	Counters      repository.CounterRepository
	Reactions     repository.ReactionRepository
	Comments      repository.CommentRepository
	Videos        repository.VideoRepository
	Posts         repository.PostRepository
	Playlists     repository.PlaylistRepository
	Histories     repository.HistoryRepository
	WatchLater    repository.WatchLaterRepository
}

// NewRepositories 创建原始的、非事务的 repositories
func NewRepositories(db *gorm.DB, rdb *redis.Client) *Repositories {
	return &Repositories{
		Users:         repository.NewUserRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Targets:       repository.NewTargetRepository(db, rdb),
		Counters:      repository.NewCounterRepository(db),
		Reactions:     repository.NewReactionRepository(db),
		Comments:      repository.NewCommentRepository(db),
		Videos:        repository.NewVideoRepository(db, rdb),
		Posts:         repository.NewPostRepository(db),
		Playlists:     repository.NewPlaylistRepository(db),
		Histories:     repository.NewHistoryRepository(db),
		WatchLater:    repository.NewWatchLaterRepository(db),
	}
}

// WithTx 临时创建"一次性"的、绑定了特定事务的Repo副本
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Users:         r.Users.WithTx(tx),
		Subscriptions: r.Subscriptions.WithTx(tx),
		Targets:       r.Targets.WithTx(tx),
		Counters:      r.Counters.WithTx(tx),
		Reactions:     r.Reactions.WithTx(tx),
		Comments:      r.Comments.WithTx(tx),
		Videos:        r.Videos.WithTx(tx),
		Posts:         r.Posts.WithTx(tx),
		Playlists:     r.Playlists.WithTx(tx),
		Histories:     r.Histories.WithTx(tx),
		WatchLater:    r.WatchLater.WithTx(tx),
	}
}

type Options struct {
	// MaxRetries 第一次之外最多重试几次
	MaxRetries     uint
	MaxElapsedTime time.Duration
	// Timeout 单次Execute的总时限
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxElapsedTime <= 0 {
		o.MaxElapsedTime = 3 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = o.MaxElapsedTime + 2*time.Second
	}
	return o
}

// db是事务的入口和管理者
type gormUnitOfWork struct {
	db    *gorm.DB
	repos *Repositories
	opts  Options
}

// NewUnitOfWork 创建一个新的、基于GORM的"工作单元"。
// 注意，它接收的是原始的、非事务的 repositories。
func NewUnitOfWork(db *gorm.DB, repos *Repositories, opts Options) UnitOfWork {
	return &gormUnitOfWork{
		db:    db,
		repos: repos,
		opts:  opts.withDefaults(),
	}
}

func (u *gormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	// 行记录一旦开始写，就不能因为客户端断开而取消，只受自己的超时约束
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		// GORM创建了一个事务，并把这个事务的句柄作为参数tx传递给了这个匿名函数
		// 每次尝试一份新的钩子，回滚掉的那次登记的钩子直接丢弃
		hooks := &commitHooks{}
		txCtx := context.WithValue(ctx, commitHooksKey{}, hooks)
		err := u.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
			return fn(txCtx, u.repos.WithTx(tx))
		})
		if err != nil && !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err == nil {
			hooks.run()
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(u.opts.MaxRetries+1),
		backoff.WithMaxElapsedTime(u.opts.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.TxRetries.Inc()
			logger.Log.WithError(err).WithField("retry_in", next).Warn("事务遇到临时错误，准备重试")
		}),
	)
	if err != nil && IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}
	return err
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *commitHooks) add(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// AfterCommit 在Execute的事务提交成功之后执行fn，事务回滚则不执行
// ctx不是Execute给出的事务ctx时立即执行
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.add(fn)
		return
	}
	fn()
}

// IsTransient 死锁、锁等待超时、SQLite忙，这些错误整个事务重来一次通常就能成功
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1213: Deadlock found; 1205: Lock wait timeout exceeded
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// IsDuplicateKey 唯一索引冲突
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
