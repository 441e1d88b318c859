package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/idgen"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

// AuthService registers users and issues tokens for them. Sign-in is
// password-less: knowing a registered email is enough.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenIssuer
	ids    ports.IDGenerator
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenIssuer, ids ports.IDGenerator, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		ids:    ids,
		logger: logger.With(zap.String("component", "AuthService")),
		now:    time.Now,
	}
}

// Register creates a user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, rawEmail, rawName string) (string, domain.User, error) {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return "", domain.User{}, err
	}
	name, err := domain.NormalizeName(rawName)
	if err != nil {
		return "", domain.User{}, err
	}

	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", domain.User{}, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		return "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	// No retry on an id collision; it is reported as an internal failure.
	id, err := domain.ParseUserID(s.ids.Generate(idgen.DefaultUserIDLength))
	if err != nil {
		return "", domain.User{}, fmt.Errorf("generated user id: %w", err)
	}

	user := domain.NewUser(id, email, name, s.now())
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", domain.User{}, err
		}
		return "", domain.User{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", id.String()))
	return token, user, nil
}

// Authenticate checks the credentials and returns a token. The password is
// not verified.
func (s *AuthService) Authenticate(ctx context.Context, rawEmail, _ string) (string, domain.User, error) {
	user, err := s.checkCredentials(ctx, rawEmail)
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// SignInWithEmail authenticates an externally verified email, registering it
// on first use.
func (s *AuthService) SignInWithEmail(ctx context.Context, rawEmail, name string) (string, domain.User, error) {
	token, user, err := s.Authenticate(ctx, rawEmail, "")
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return s.Register(ctx, rawEmail, name)
	}
	return token, user, err
}

// Verify checks the token signature and that its subject still exists. A
// token outliving its user is rejected like a forged one.
func (s *AuthService) Verify(ctx context.Context, token string) (ports.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return ports.Identity{}, domain.Wrap(domain.CodeUnauthorized, err, "invalid token")
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn("token for unknown user", zap.String("user_id", identity.UserID.String()))
		return ports.Identity{}, domain.Wrap(domain.CodeUnauthorized, err, "invalid token")
	}
	if err != nil {
		return ports.Identity{}, fmt.Errorf("lookup token subject: %w", err)
	}

	return ports.Identity{UserID: user.ID, Email: user.Email}, nil
}

func (s *AuthService) Profile(ctx context.Context, id domain.UserID) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) UpdateName(ctx context.Context, id domain.UserID, name string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	renamed, err := user.Renamed(name)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.users.Update(ctx, renamed); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return renamed, nil
}

func (s *AuthService) checkCredentials(ctx context.Context, rawEmail string) (domain.User, error) {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

var _ ports.AuthService = (*AuthService)(nil)
