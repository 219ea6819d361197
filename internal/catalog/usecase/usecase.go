package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/storage"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type catalogUseCase struct {
	tx       storage.Transactor
	repo     catalog.Repository
	cache    *cache.RedisClient
	cacheTTL time.Duration
	logger   logger.ZapLogger
}

// NewCatalogUseCase builds the catalog use case. A nil cache disables the
// storefront list cache.
func NewCatalogUseCase(tx storage.Transactor, repo catalog.Repository, cache *cache.RedisClient, cacheTTL time.Duration, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		tx:       tx,
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func (uc *catalogUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error) {
	if err := validateItem(input); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.Item{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		TenantID:  input.TenantID,
	}
	applyInput(item, input)

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	go uc.InvalidateCache(context.Background(), input.TenantID)
	return item, nil
}

func (uc *catalogUseCase) GetItem(ctx context.Context, tenantID, id string) (*model.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.ErrItemNotFound
	}
	item, err := uc.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.ErrItemNotFound
	}
	return item, nil
}

func (uc *catalogUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

type cachedPage struct {
	Items []model.Item `json:"items"`
	Count int          `json:"count"`
}

// ListPublicItems serves the storefront menu, read-through cached per tenant and page.
func (uc *catalogUseCase) ListPublicItems(ctx context.Context, tenantID string, page, pageSize int) ([]model.Item, int, error) {
	filters := &dto.ItemFilters{TenantID: tenantID, Page: page, PageSize: pageSize}

	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		var hit cachedPage
		err := uc.cache.GetJSON(ctx, cacheKey, &hit)
		if err == nil {
			return hit.Items, hit.Count, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.logger.Warn("catalog cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	items, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, cacheKey, cachedPage{Items: items, Count: count}, uc.cacheTTL); err != nil {
			uc.logger.Warn("catalog cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return items, count, nil
}

func (uc *catalogUseCase) generateCacheKey(filters *dto.ItemFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:list:%s:%x", filters.TenantID, md5.Sum(data)), nil
}

// InvalidateCache drops every cached storefront page of the tenant.
func (uc *catalogUseCase) InvalidateCache(ctx context.Context, tenantID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("catalog:list:%s:*", tenantID)
	if _, err := uc.cache.DeletePattern(ctx, pattern); err != nil {
		uc.logger.Warn("catalog cache invalidation failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

func (uc *catalogUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error) {
	if err := validateItem(&input.CreateItemInput); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(input.ID); err != nil {
		return nil, apperror.ErrItemNotFound
	}

	var item *model.Item
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = uc.repo.FindByID(ctx, input.TenantID, input.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.ErrItemNotFound
		}
		// keep option ids stable across edits
		variantIDs := make(map[string]string, len(item.Variants))
		for _, v := range item.Variants {
			variantIDs[v.Name] = v.ID
		}
		extraIDs := make(map[string]string, len(item.Extras))
		for _, e := range item.Extras {
			extraIDs[e.Name] = e.ID
		}

		applyInput(item, &input.CreateItemInput)
		for i := range item.Variants {
			if id, ok := variantIDs[item.Variants[i].Name]; ok {
				item.Variants[i].ID = id
			}
		}
		for i := range item.Extras {
			if id, ok := extraIDs[item.Extras[i].Name]; ok {
				item.Extras[i].ID = id
			}
		}
		item.UpdatedAt = time.Now()
		return uc.repo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	go uc.InvalidateCache(context.Background(), input.TenantID)
	return item, nil
}

func (uc *catalogUseCase) DeleteItem(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.ErrItemNotFound
	}
	deleted, err := uc.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrItemNotFound
	}

	go uc.InvalidateCache(context.Background(), tenantID)
	return nil
}

func (uc *catalogUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	if filters.ItemID != "" {
		if _, err := uuid.Parse(filters.ItemID); err != nil {
			return nil, 0, apperror.ErrItemNotFound
		}
	}
	return uc.repo.ListMovements(ctx, filters)
}

func validateItem(input *dto.CreateItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperror.ErrInvalidInput.WithMessage("item name is required")
	}
	if input.Price.IsNegative() {
		return apperror.ErrInvalidAmount.WithMessage("price must not be negative")
	}
	if input.Stock < 0 {
		return apperror.ErrInvalidQuantity.WithMessage("stock must not be negative")
	}
	if err := validateOptions("variant", input.Variants); err != nil {
		return err
	}
	return validateOptions("extra", input.Extras)
}

func validateOptions(kind string, opts []dto.OptionInput) error {
	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			return apperror.ErrInvalidInput.WithMessage(kind + " name is required")
		}
		if strings.Contains(name, ",") {
			return apperror.ErrInvalidInput.WithMessage(kind + " name must not contain commas")
		}
		if _, dup := seen[name]; dup {
			return apperror.ErrInvalidInput.WithMessage(fmt.Sprintf("duplicate %s %q", kind, name))
		}
		seen[name] = struct{}{}
		if o.Price.IsNegative() || o.Stock < 0 {
			return apperror.ErrInvalidAmount.WithMessage(kind + " price and stock must not be negative")
		}
	}
	return nil
}

func applyInput(item *model.Item, input *dto.CreateItemInput) {
	item.Name = strings.TrimSpace(input.Name)
	item.Price = input.Price.Round(2)
	item.IsService = input.IsService
	item.Stock = input.Stock
	item.Description = optional(input.Description)
	item.ImageURL = optional(input.ImageURL)
	if item.IsService {
		item.Stock = 0
	}

	item.Variants = make([]model.ItemVariant, 0, len(input.Variants))
	for i, v := range input.Variants {
		item.Variants = append(item.Variants, model.ItemVariant{
			ID:        uuid.New().String(),
			ItemID:    item.ID,
			Name:      strings.TrimSpace(v.Name),
			Price:     v.Price.Round(2),
			Stock:     v.Stock,
			SortOrder: i,
		})
	}
	item.Extras = make([]model.ItemExtra, 0, len(input.Extras))
	for i, e := range input.Extras {
		item.Extras = append(item.Extras, model.ItemExtra{
			ID:        uuid.New().String(),
			ItemID:    item.ID,
			Name:      strings.TrimSpace(e.Name),
			Price:     e.Price.Round(2),
			Stock:     e.Stock,
			SortOrder: i,
		})
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
