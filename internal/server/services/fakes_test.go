package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/dmitrijs2005/campushub/internal/server/counters"
	"github.com/dmitrijs2005/campushub/internal/server/idempotency"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/comments"
	counterrepo "github.com/dmitrijs2005/campushub/internal/server/repositories/counters"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/likes"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/posts"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/reports"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/users"
	"github.com/dmitrijs2005/campushub/internal/server/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ---- in-memory storage behind the RepositoryManager interface ----

type likeKeyT struct{ comment, user string }

type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	likes    map[likeKeyT]bool
	reports  []*models.Report
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		posts:    map[string]*models.Post{},
		comments: map[string]*models.Comment{},
		likes:    map[likeKeyT]bool{},
	}
}

type memManager struct{ s *memStore }

func (m memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memManager) Users(dbx.DBTX) users.Repository             { return memUsers{m.s} }
func (m memManager) Posts(dbx.DBTX) posts.Repository             { return memPosts{m.s} }
func (m memManager) Comments(dbx.DBTX) comments.Repository       { return memComments{m.s} }
func (m memManager) Likes(dbx.DBTX) likes.Repository             { return memLikes{m.s} }
func (m memManager) Reports(dbx.DBTX) reports.Repository         { return memReports{m.s} }
func (m memManager) Counters(dbx.DBTX) counterrepo.Repository    { return memCounters{m.s} }

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type memPosts struct{ s *memStore }

func (r memPosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.posts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

type memComments struct{ s *memStore }

func (r memComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[c.PostID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.comments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memComments) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok || c.Deleted() {
		return common.ErrorNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

type memLikes struct{ s *memStore }

func (r memLikes) Add(_ context.Context, commentID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := likeKeyT{commentID, userID}
	if r.s.likes[k] {
		return false, nil
	}
	r.s.likes[k] = true
	return true, nil
}

func (r memLikes) Remove(_ context.Context, commentID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := likeKeyT{commentID, userID}
	if !r.s.likes[k] {
		return false, nil
	}
	delete(r.s.likes, k)
	return true, nil
}

type memReports struct{ s *memStore }

func (r memReports) Create(_ context.Context, rep *models.Report) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rep
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.reports = append(r.s.reports, &cp)
	out := cp
	return &out, nil
}

func (r memReports) List(_ context.Context, limit, offset int) ([]*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := append([]*models.Report(nil), r.s.reports...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type memCounters struct{ s *memStore }

func (r memCounters) SetLockTimeout(context.Context, time.Duration) error { return nil }

func (r memCounters) Lock(_ context.Context, owner models.CounterOwner) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	switch owner.Kind {
	case models.CounterPostComments:
		if p, ok := r.s.posts[owner.ID]; ok {
			return p.CommentCount, nil
		}
	case models.CounterCommentLikes:
		if c, ok := r.s.comments[owner.ID]; ok {
			return c.LikeCount, nil
		}
	}
	return 0, common.ErrorNotFound
}

func (r memCounters) Set(_ context.Context, owner models.CounterOwner, v int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	switch owner.Kind {
	case models.CounterPostComments:
		r.s.posts[owner.ID].CommentCount = v
	case models.CounterCommentLikes:
		r.s.comments[owner.ID].LikeCount = v
	}
	return nil
}

// serialTransactor runs transactions one at a time, which is what row locks
// amount to when every test touches the same few owners.
type serialTransactor struct{ mu sync.Mutex }

func (t *serialTransactor) WithTx(ctx context.Context, _ *sql.TxOptions, fn dbx.TxFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, nil)
}

// ---- wiring ----

const testIdemTTL = 3 * time.Minute

type testEnv struct {
	store     *memStore
	mr        *miniredis.Miniredis
	codec     *auth.Codec
	issuer    *auth.Issuer
	users     *UserService
	community *CommunityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sess := session.NewRedisStore(rdb, "test:")
	codec := auth.NewCodec([]byte("test-secret"))
	issuer := auth.NewIssuer(codec, sess, 15*time.Minute, 24*time.Hour)
	guard := idempotency.NewGuard(sess, testIdemTTL, logging.Nop{})

	store := newMemStore()
	rm := memManager{store}
	mutator := counters.NewMutator(&serialTransactor{}, rm, time.Second, logging.Nop{})

	return &testEnv{
		store:     store,
		mr:        mr,
		codec:     codec,
		issuer:    issuer,
		users:     NewUserService(nil, rm, guard, issuer, logging.Nop{}, WithHashCost(bcrypt.MinCost)),
		community: NewCommunityService(nil, rm, guard, mutator, logging.Nop{}),
	}
}

func student(id string) *auth.Identity {
	return &auth.Identity{Principal: auth.Principal{Subject: id, Role: auth.RoleStudent}}
}

func admin(id string) *auth.Identity {
	return &auth.Identity{Principal: auth.Principal{Subject: id, Role: auth.RoleAdmin}}
}
