package domain

import "time"

const day = 24 * time.Hour

// Link represents a shortened URL. Values are never mutated in place; the
// transition methods return an updated copy.
type Link struct {
	ID        LinkID    `json:"id"`
	Target    URL       `json:"target"`
	Clicks    int64     `json:"clicks"`
	UserID    *UserID   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLink builds a fresh link with no clicks.
func NewLink(id LinkID, target URL, owner *UserID, now time.Time) Link {
	return Link{
		ID:        id,
		Target:    target,
		Clicks:    0,
		UserID:    owner,
		CreatedAt: Timestamp(now),
	}
}

// Clicked returns the link with one more click recorded.
func (l Link) Clicked() Link {
	l.Clicks++
	return l
}

// ExpiresAt is the last instant at which the link still resolves.
// A non-positive ttlDays means the link never expires.
func (l Link) ExpiresAt(ttlDays int) (time.Time, bool) {
	if ttlDays <= 0 {
		return time.Time{}, false
	}
	return l.CreatedAt.Add(time.Duration(ttlDays) * day), true
}

// IsExpired reports whether now is strictly past CreatedAt + ttlDays.
func (l Link) IsExpired(now time.Time, ttlDays int) bool {
	expiresAt, ok := l.ExpiresAt(ttlDays)
	return ok && now.After(expiresAt)
}

func (l Link) OwnedBy(id UserID) bool {
	return l.UserID != nil && *l.UserID == id
}

// ExpiryCutoff is the newest creation time that the cleanup sweep removes.
func ExpiryCutoff(now time.Time, ttlDays int) time.Time {
	return Timestamp(now).Add(-time.Duration(ttlDays) * day)
}

// Timestamp normalizes a time to the precision the store keeps.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
