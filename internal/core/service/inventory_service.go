package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// InventoryService fronts the inventory repository with validation, id
// assignment and best-effort mirroring of stock counts into the read
// cache. All atomicity guarantees live in the repository.
type InventoryService struct {
	repo  port.InventoryRepository
	cache port.CacheRepository // optional
}

func NewInventoryService(repo port.InventoryRepository, cache port.CacheRepository) *InventoryService {
	return &InventoryService{repo: repo, cache: cache}
}

type CreateItemParams struct {
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

func (s *InventoryService) Create(ctx context.Context, p CreateItemParams) (domain.Item, error) {
	if err := validateName(p.Name); err != nil {
		return domain.Item{}, err
	}
	if p.Quantity < 0 {
		return domain.Item{}, domain.NewValidationError("quantity", "must be zero or greater")
	}
	if p.Price.IsNegative() {
		return domain.Item{}, domain.NewValidationError("price", "must be zero or greater")
	}

	now := time.Now()
	item := domain.Item{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Quantity:    p.Quantity,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return domain.Item{}, fmt.Errorf("create item: %w", err)
	}

	s.mirrorStock(ctx, item.ID, item.Quantity)
	return item, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (domain.Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *InventoryService) List(ctx context.Context) ([]domain.Item, error) {
	return s.repo.List(ctx)
}

// Update applies only the supplied fields; the merged record is guaranteed
// valid because each supplied field is validated here and the rest were
// validated when they were written.
func (s *InventoryService) Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error) {
	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return domain.Item{}, err
		}
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return domain.Item{}, domain.NewValidationError("quantity", "must be zero or greater")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return domain.Item{}, domain.NewValidationError("price", "must be zero or greater")
	}
	if patch.Empty() {
		return s.repo.Get(ctx, id)
	}

	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Item{}, err
	}

	s.mirrorStock(ctx, item.ID, item.Quantity)
	return item, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteStock(ctx, id); err != nil {
			log.Warn().Err(err).Str("item_id", id).Msg("failed to drop stock mirror")
		}
	}
	return nil
}

// Reserve exposes the atomic check-and-decrement primitive directly; the
// order processor is its main caller.
func (s *InventoryService) Reserve(ctx context.Context, id string, amount int) (domain.Item, error) {
	if amount < 1 {
		return domain.Item{}, domain.NewValidationError("amount", "must be at least 1")
	}
	item, err := s.repo.Reserve(ctx, id, amount)
	if err != nil {
		return domain.Item{}, err
	}
	s.mirrorStock(ctx, item.ID, item.Quantity)
	return item, nil
}

func (s *InventoryService) mirrorStock(ctx context.Context, itemID string, quantity int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStock(ctx, itemID, quantity); err != nil {
		log.Warn().Err(err).Str("item_id", itemID).Msg("failed to mirror stock")
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return domain.NewValidationError("name", "must be at most 255 characters")
	}
	return nil
}
