package domain

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxURLLength   = 2048
	MaxEmailLength = 254
	MaxNameLength  = 100
)

var (
	linkIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

	validate = validator.New()
)

// URL is an absolute http(s) target. It keeps the caller's spelling, minus
// surrounding whitespace.
type URL string

func ParseURL(raw string) (URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > MaxURLLength {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", ErrInvalidURL
	}

	return URL(s), nil
}

func (u URL) String() string { return string(u) }

// Email is trimmed and lower-cased before validation.
type Email string

func ParseEmail(raw string) (Email, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || len(s) > MaxEmailLength {
		return "", ErrInvalidEmail
	}
	if err := validate.Var(s, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	return Email(s), nil
}

func (e Email) String() string { return string(e) }

// LinkID is the public identifier of a short link.
type LinkID string

func ParseLinkID(raw string) (LinkID, error) {
	if !linkIDRe.MatchString(raw) {
		return "", ErrInvalidLinkID
	}
	return LinkID(raw), nil
}

func (id LinkID) String() string { return string(id) }

type UserID string

func ParseUserID(raw string) (UserID, error) {
	if !userIDRe.MatchString(raw) {
		return "", ErrInvalidUserID
	}
	return UserID(raw), nil
}

func (id UserID) String() string { return string(id) }

// NormalizeName trims a display name. A blank name is reported as absent (nil).
func NormalizeName(raw string) (*string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return nil, ErrInvalidName
	}
	return &s, nil
}
