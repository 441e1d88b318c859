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

// MaxIDAttempts bounds the collision retry loop in Create.
const MaxIDAttempts = 10

type LinkService struct {
	repo     ports.LinkRepository
	ids      ports.IDGenerator
	logger   *zap.Logger
	now      func() time.Time
	idLength int
}

func NewLinkService(repo ports.LinkRepository, ids ports.IDGenerator, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:     repo,
		ids:      ids,
		logger:   logger.With(zap.String("component", "LinkService")),
		now:      time.Now,
		idLength: idgen.DefaultLinkIDLength,
	}
}

// Create shortens target. Each attempt inserts a freshly drawn id; a taken id
// counts as a collision and is retried up to MaxIDAttempts times.
func (s *LinkService) Create(ctx context.Context, target string, owner *domain.UserID) (domain.Link, error) {
	u, err := domain.ParseURL(target)
	if err != nil {
		return domain.Link{}, err
	}

	for attempt := 1; attempt <= MaxIDAttempts; attempt++ {
		id, err := domain.ParseLinkID(s.ids.Generate(s.idLength))
		if err != nil {
			return domain.Link{}, fmt.Errorf("generated link id: %w", err)
		}

		link := domain.NewLink(id, u, owner, s.now())
		err = s.repo.Create(ctx, link)
		if err == nil {
			s.logger.Debug("link created", zap.String("id", id.String()), zap.Int("attempt", attempt))
			return link, nil
		}
		if !errors.Is(err, domain.ErrLinkIDTaken) {
			return domain.Link{}, fmt.Errorf("create link: %w", err)
		}
		s.logger.Info("link id collision", zap.String("id", id.String()), zap.Int("attempt", attempt))
	}

	s.logger.Error("link id space exhausted", zap.Int("attempts", MaxIDAttempts))
	return domain.Link{}, domain.ErrIDGenerationExhausted
}

// Resolve returns the target of a live link and records one click.
// Expired links are reported but left in place for the cleanup sweep.
func (s *LinkService) Resolve(ctx context.Context, rawID string, ttlDays int) (string, error) {
	id, err := domain.ParseLinkID(rawID)
	if err != nil {
		return "", err
	}

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if link.IsExpired(s.now(), ttlDays) {
		return "", domain.ErrLinkExpired
	}

	if _, err := s.repo.IncrementClicks(ctx, id); err != nil {
		return "", err
	}

	return link.Target.String(), nil
}

func (s *LinkService) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Link, error) {
	links, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links for %s: %w", userID, err)
	}
	return links, nil
}

func (s *LinkService) ListAll(ctx context.Context) ([]domain.Link, error) {
	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// Delete removes a link owned by requester.
func (s *LinkService) Delete(ctx context.Context, rawID string, requester domain.UserID) error {
	id, err := domain.ParseLinkID(rawID)
	if err != nil {
		return err
	}

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !link.OwnedBy(requester) {
		return domain.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// CleanupExpired deletes every link created at or before now - ttlDays.
func (s *LinkService) CleanupExpired(ctx context.Context, ttlDays int) (int64, error) {
	if ttlDays <= 0 {
		return 0, nil
	}

	cutoff := domain.ExpiryCutoff(s.now(), ttlDays)
	n, err := s.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired links: %w", err)
	}

	s.logger.Info("expired links removed", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	return n, nil
}

var _ ports.LinkService = (*LinkService)(nil)
