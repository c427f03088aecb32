package service

import (
	"sync"
	"testing"
	"time"

	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/internal/testutil"

	"gorm.io/gorm"
)

// recordingNotifier 记下所有对账请求
type recordingNotifier struct {
	mu   sync.Mutex
	refs []model.TargetRef
}

func (n *recordingNotifier) RequestReconcile(ref model.TargetRef, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refs = append(n.refs, ref)
}

func (n *recordingNotifier) requested() []model.TargetRef {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.TargetRef(nil), n.refs...)
}

type testEnv struct {
	db       *gorm.DB
	repos    *data.Repositories
	uow      data.UnitOfWork
	notifier *recordingNotifier

	targets   TargetResolver
	counters  CounterMaintainer
	reactions ReactionService
	comments  CommentService
	cascade   CascadeService
	views     ViewAssembler
	reconcile ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil)
}

// newTestEnvWith wrap可以在组装服务之前替换某个repository
func newTestEnvWith(t *testing.T, wrap func(*data.Repositories)) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	repos := data.NewRepositories(db, nil)
	if wrap != nil {
		wrap(repos)
	}
	uow := data.NewUnitOfWork(db, repos, data.Options{MaxRetries: 2, MaxElapsedTime: time.Second})

	env := &testEnv{db: db, repos: repos, uow: uow, notifier: &recordingNotifier{}}
	env.targets = NewTargetResolver(repos.Targets)
	env.counters = NewCounterMaintainer(env.notifier)
	env.reactions = NewReactionService(uow, repos, env.targets, env.counters, env.notifier)
	env.comments = NewCommentService(uow, repos, env.targets, env.reactions, env.counters)
	env.cascade = NewCascadeService(uow, repos, env.targets, env.reactions, env.comments)
	env.views = NewViewAssembler(repos, env.targets)
	env.reconcile = NewReconcileService(uow, repos, 2)
	return env
}

func (e *testEnv) counts(t *testing.T, ref model.TargetRef) model.Counters {
	t.Helper()
	return testutil.Counters(t, e.db, ref)
}
