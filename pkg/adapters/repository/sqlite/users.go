package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

const tableUsers = "users"

var userColumns = []string{"id", "email", "name", "created_at"}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	query, args, err := sq.Insert(tableUsers).
		Columns(userColumns...).
		Values(user.ID.String(), user.Email.String(), nullString(user.Name), user.CreatedAt.UnixMilli()).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build create user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: create user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: create user: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Either the email or the id collided; the email is the one callers care about.
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrUserIDTaken
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id.String()})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email.String()})
}

// Update stores the mutable fields of user. The email never changes.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	query, args, err := sq.Update(tableUsers).
		Set("name", nullString(user.Name)).
		Where(sq.Eq{"id": user.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build update user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Eq) (domain.User, error) {
	query, args, err := sq.Select(userColumns...).
		From(tableUsers).
		Where(where).
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("sqlite: build get user: %w", err)
	}

	var (
		user      domain.User
		id, email string
		name      sql.NullString
		createdAt int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id, &email, &name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("sqlite: get user: %w", err)
	}

	user.ID = domain.UserID(id)
	user.Email = domain.Email(email)
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	if name.Valid {
		user.Name = &name.String
	}
	return user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ ports.UserRepository = (*UserRepository)(nil)
