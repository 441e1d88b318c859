// Package memory keeps links and users in process memory. It backs tests and
// throwaway demo servers; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

type LinkRepository struct {
	mu    sync.RWMutex
	links map[domain.LinkID]domain.Link
}

func NewLinkRepository() *LinkRepository {
	return &LinkRepository{links: make(map[domain.LinkID]domain.Link)}
}

func (r *LinkRepository) Create(_ context.Context, link domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ID]; ok {
		return domain.ErrLinkIDTaken
	}
	r.links[link.ID] = link
	return nil
}

func (r *LinkRepository) GetByID(_ context.Context, id domain.LinkID) (domain.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return domain.Link{}, domain.ErrLinkNotFound
	}
	return link, nil
}

// Update replaces target, clicks and owner. The creation time never changes.
func (r *LinkRepository) Update(_ context.Context, link domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.links[link.ID]
	if !ok {
		return domain.ErrLinkNotFound
	}
	link.CreatedAt = existing.CreatedAt
	r.links[link.ID] = link
	return nil
}

func (r *LinkRepository) IncrementClicks(_ context.Context, id domain.LinkID) (domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return domain.Link{}, domain.ErrLinkNotFound
	}
	link = link.Clicked()
	r.links[id] = link
	return link, nil
}

func (r *LinkRepository) Delete(_ context.Context, id domain.LinkID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[id]; !ok {
		return domain.ErrLinkNotFound
	}
	delete(r.links, id)
	return nil
}

func (r *LinkRepository) ListByUser(_ context.Context, userID domain.UserID) ([]domain.Link, error) {
	return r.collect(func(l domain.Link) bool { return l.OwnedBy(userID) }), nil
}

func (r *LinkRepository) List(_ context.Context) ([]domain.Link, error) {
	return r.collect(func(domain.Link) bool { return true }), nil
}

func (r *LinkRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, link := range r.links {
		if !link.CreatedAt.After(cutoff) {
			delete(r.links, id)
			n++
		}
	}
	return n, nil
}

// collect returns matching links, newest first.
func (r *LinkRepository) collect(keep func(domain.Link) bool) []domain.Link {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Link, 0, len(r.links))
	for _, link := range r.links {
		if keep(link) {
			out = append(out, link)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type UserRepository struct {
	mu      sync.RWMutex
	users   map[domain.UserID]domain.User
	byEmail map[domain.Email]domain.UserID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[domain.UserID]domain.User),
		byEmail: make(map[domain.Email]domain.UserID),
	}
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	if _, ok := r.users[user.ID]; ok {
		return domain.ErrUserIDTaken
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id domain.UserID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email domain.Email) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.users[id], nil
}

// Update replaces the stored user. The email is treated as immutable.
func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Email = current.Email
	r.users[user.ID] = user
	return nil
}

var (
	_ ports.LinkRepository = (*LinkRepository)(nil)
	_ ports.UserRepository = (*UserRepository)(nil)
)
