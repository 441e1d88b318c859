package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

// sequenceIDs hands out ids in order and repeats the last one when exhausted.
type sequenceIDs struct {
	mu    sync.Mutex
	ids   []string
	calls int
}

func newSequenceIDs(ids ...string) *sequenceIDs {
	return &sequenceIDs{ids: ids}
}

func (g *sequenceIDs) Generate(int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	if i >= len(g.ids) {
		i = len(g.ids) - 1
	}
	g.calls++
	return g.ids[i]
}

func (g *sequenceIDs) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// ==================== MOCKS ====================

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id domain.LinkID) (domain.Link, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, link domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, id domain.LinkID) (domain.Link, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id domain.LinkID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Link, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkRepository) List(ctx context.Context) ([]domain.Link, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Link), args.Error(1)
}

func (m *MockLinkRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// stubTokens issues "token-<user id>" and accepts exactly those.
type stubTokens struct {
	users map[string]ports.Identity
}

func newStubTokens() *stubTokens {
	return &stubTokens{users: make(map[string]ports.Identity)}
}

func (s *stubTokens) Issue(user domain.User) (string, error) {
	token := "token-" + user.ID.String()
	s.users[token] = ports.Identity{UserID: user.ID, Email: user.Email}
	return token, nil
}

func (s *stubTokens) Verify(token string) (ports.Identity, error) {
	id, ok := s.users[token]
	if !ok {
		return ports.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

var (
	_ ports.LinkRepository = (*MockLinkRepository)(nil)
	_ ports.UserRepository = (*MockUserRepository)(nil)
	_ ports.TokenIssuer    = (*stubTokens)(nil)
)
