package domain

import "time"

// User owns links. Email uniqueness is enforced by the repository.
type User struct {
	ID        UserID    `json:"id"`
	Email     Email     `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(id UserID, email Email, name *string, now time.Time) User {
	return User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: Timestamp(now),
	}
}

// Renamed returns the user with a normalized display name.
func (u User) Renamed(raw string) (User, error) {
	name, err := NormalizeName(raw)
	if err != nil {
		return User{}, err
	}
	u.Name = name
	return u, nil
}
