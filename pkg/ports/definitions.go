package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
)

// LinkRepository defines storage operations for links
type LinkRepository interface {
	// Create inserts the link, or fails with domain.ErrLinkIDTaken when the id
	// is already in use. Existing rows are never overwritten.
	Create(ctx context.Context, link domain.Link) error
	GetByID(ctx context.Context, id domain.LinkID) (domain.Link, error)
	Update(ctx context.Context, link domain.Link) error
	// IncrementClicks adds one click atomically and returns the stored link.
	IncrementClicks(ctx context.Context, id domain.LinkID) (domain.Link, error)
	Delete(ctx context.Context, id domain.LinkID) error
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	// DeleteCreatedBefore removes every link with CreatedAt <= cutoff.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepository defines storage operations for users
type UserRepository interface {
	// Create fails with domain.ErrDuplicateEmail or domain.ErrUserIDTaken.
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetByEmail(ctx context.Context, email domain.Email) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
}

// IDGenerator draws random identifiers of the requested length
type IDGenerator interface {
	Generate(length int) string
}

// Identity is what a verified token says about its bearer
type Identity struct {
	UserID domain.UserID
	Email  domain.Email
}

// TokenIssuer signs and verifies bearer tokens
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
	Verify(token string) (Identity, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// LinkService defines the link operations exposed to transports
type LinkService interface {
	Create(ctx context.Context, target string, owner *domain.UserID) (domain.Link, error)
	Resolve(ctx context.Context, id string, ttlDays int) (string, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Link, error)
	ListAll(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, id string, requester domain.UserID) error
	CleanupExpired(ctx context.Context, ttlDays int) (int64, error)
}

// AuthService defines registration, sign-in and token verification
type AuthService interface {
	Register(ctx context.Context, email, name string) (string, domain.User, error)
	Authenticate(ctx context.Context, email, password string) (string, domain.User, error)
	SignInWithEmail(ctx context.Context, email, name string) (string, domain.User, error)
	Verify(ctx context.Context, token string) (Identity, error)
	Profile(ctx context.Context, id domain.UserID) (domain.User, error)
	UpdateName(ctx context.Context, id domain.UserID, name string) (domain.User, error)
}
