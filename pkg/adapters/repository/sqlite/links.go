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

const tableLinks = "links"

var linkColumns = []string{"id", "target", "clicks", "user_id", "created_at"}

type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(ctx context.Context, link domain.Link) error {
	query, args, err := sq.Insert(tableLinks).
		Columns(linkColumns...).
		Values(link.ID.String(), link.Target.String(), link.Clicks, nullUserID(link.UserID), link.CreatedAt.UnixMilli()).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build create link: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: create link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: create link: %w", err)
	}
	if n == 0 {
		return domain.ErrLinkIDTaken
	}
	return nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id domain.LinkID) (domain.Link, error) {
	query, args, err := sq.Select(linkColumns...).
		From(tableLinks).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return domain.Link{}, fmt.Errorf("sqlite: build get link: %w", err)
	}

	link, err := scanLink(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Link{}, domain.ErrLinkNotFound
	}
	if err != nil {
		return domain.Link{}, fmt.Errorf("sqlite: get link: %w", err)
	}
	return link, nil
}

// Update replaces target, clicks and owner. The creation time never changes.
func (r *LinkRepository) Update(ctx context.Context, link domain.Link) error {
	query, args, err := sq.Update(tableLinks).
		Set("target", link.Target.String()).
		Set("clicks", link.Clicks).
		Set("user_id", nullUserID(link.UserID)).
		Where(sq.Eq{"id": link.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build update link: %w", err)
	}

	return r.execOne(ctx, "update link", query, args)
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, id domain.LinkID) (domain.Link, error) {
	query, args, err := sq.Update(tableLinks).
		Set("clicks", sq.Expr("clicks + 1")).
		Where(sq.Eq{"id": id.String()}).
		Suffix("RETURNING id, target, clicks, user_id, created_at").
		ToSql()
	if err != nil {
		return domain.Link{}, fmt.Errorf("sqlite: build increment clicks: %w", err)
	}

	link, err := scanLink(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Link{}, domain.ErrLinkNotFound
	}
	if err != nil {
		return domain.Link{}, fmt.Errorf("sqlite: increment clicks: %w", err)
	}
	return link, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id domain.LinkID) error {
	query, args, err := sq.Delete(tableLinks).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build delete link: %w", err)
	}

	return r.execOne(ctx, "delete link", query, args)
}

func (r *LinkRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Link, error) {
	return r.list(ctx, sq.Eq{"user_id": userID.String()}, "list user links")
}

func (r *LinkRepository) List(ctx context.Context) ([]domain.Link, error) {
	return r.list(ctx, nil, "list links")
}

func (r *LinkRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete(tableLinks).
		Where(sq.LtOrEq{"created_at": cutoff.UnixMilli()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("sqlite: build delete expired: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired: %w", err)
	}
	return res.RowsAffected()
}

func (r *LinkRepository) list(ctx context.Context, where sq.Sqlizer, op string) ([]domain.Link, error) {
	builder := sq.Select(linkColumns...).
		From(tableLinks).
		OrderBy("created_at DESC", "id ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build %s: %w", op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", op, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return links, nil
}

func (r *LinkRepository) execOne(ctx context.Context, op, query string, args []interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (domain.Link, error) {
	var (
		link      domain.Link
		id        string
		target    string
		userID    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &target, &link.Clicks, &userID, &createdAt); err != nil {
		return domain.Link{}, err
	}

	link.ID = domain.LinkID(id)
	link.Target = domain.URL(target)
	link.CreatedAt = time.UnixMilli(createdAt).UTC()
	if userID.Valid {
		owner := domain.UserID(userID.String)
		link.UserID = &owner
	}
	return link, nil
}

func nullUserID(id *domain.UserID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

var _ ports.LinkRepository = (*LinkRepository)(nil)
