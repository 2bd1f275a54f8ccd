package service

import (
	"context"
	"strings"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService manages shops and their products
type CatalogService struct {
	repo         repository.Repository
	cache        ProductCache
	cacheTTL     time.Duration
	defaultLimit int
	logger       *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.Repository, cache ProductCache, cacheTTL time.Duration, defaultLimit int) *CatalogService {
	if cache == nil {
		cache = NoopCache()
	}
	return &CatalogService{
		repo:         repo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		defaultLimit: defaultLimit,
		logger:       util.GetLogger(),
	}
}

// CreateShop opens the caller's shop. A user owns at most one shop.
func (s *CatalogService) CreateShop(ctx context.Context, ownerID int64, input models.ShopInput) (*models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateShop")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, err
	}

	shop := &models.Shop{OwnerID: ownerID}
	applyShopInput(shop, input)
	if err := s.repo.CreateShop(ctx, shop); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("you already own a shop")
		}
		return nil, err
	}

	s.logger.Info("Shop created", zap.Int64("shop_id", shop.ID), zap.Int64("owner_id", ownerID))
	return shop, nil
}

func (s *CatalogService) GetShop(ctx context.Context, shopID int64) (*models.Shop, error) {
	return s.repo.GetShopByID(ctx, shopID)
}

func (s *CatalogService) ListShops(ctx context.Context, limit, offset int) ([]models.Shop, error) {
	limit, offset = Page(limit, offset, s.defaultLimit)
	return s.repo.ListShops(ctx, limit, offset)
}

// GetMyShop returns the caller's shop
func (s *CatalogService) GetMyShop(ctx context.Context, ownerID int64) (*models.Shop, error) {
	shop, err := s.repo.GetShopByOwner(ctx, ownerID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("you do not own a shop")
	}
	return shop, err
}

// UpdateMyShop replaces the writable fields of the caller's shop
func (s *CatalogService) UpdateMyShop(ctx context.Context, ownerID int64, input models.ShopInput) (*models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateMyShop")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, err
	}
	shop, err := s.GetMyShop(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	applyShopInput(shop, input)
	if err := s.repo.UpdateShop(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// ListProducts searches the catalog
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	filter.Query = strings.TrimSpace(filter.Query)
	filter.Limit, filter.Offset = Page(filter.Limit, filter.Offset, s.defaultLimit)
	return s.repo.ListProducts(ctx, filter)
}

// GetProduct reads through the product cache
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	cached, err := s.cache.GetProduct(ctx, productID)
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	if cached != nil {
		util.ProductCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	util.ProductCacheTotal.WithLabelValues("miss").Inc()

	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProduct(ctx, product, s.cacheTTL); err != nil {
		s.logger.Warn("Product cache write failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	return product, nil
}

// CreateProduct adds a product to the caller's shop
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID int64, input models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, err
	}
	shop, err := s.GetMyShop(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{ShopID: shop.ID}
	applyProductInput(product, input)
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.Int64("shop_id", shop.ID))
	return product, nil
}

// UpdateProduct edits a product of the caller's shop. Products of other
// shops are reported as not found.
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID, productID int64, input models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, err
	}
	shop, err := s.GetMyShop(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindOwnedProduct(ctx, productID, shop.ID)
	if err != nil {
		return nil, err
	}

	applyProductInput(product, input)
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

// DeleteProduct removes a product of the caller's shop
func (s *CatalogService) DeleteProduct(ctx context.Context, ownerID, productID int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	shop, err := s.GetMyShop(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID, shop.ID); err != nil {
		return err
	}
	s.invalidate(ctx, productID)

	s.logger.Info("Product deleted", zap.Int64("product_id", productID), zap.Int64("shop_id", shop.ID))
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, productID int64) {
	if err := s.cache.InvalidateProducts(ctx, productID); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", productID), zap.Error(err))
	}
}

func applyShopInput(shop *models.Shop, input models.ShopInput) {
	shop.Name = strings.TrimSpace(input.Name)
	shop.Description = input.Description
	shop.Email = input.Email
	shop.Phone = input.Phone
	shop.Address = input.Address
	shop.City = input.City
	shop.Tags = models.StringList(input.Tags)
	shop.ProfileImage = input.ProfileImage
	shop.BannerImage = input.BannerImage
}

func applyProductInput(product *models.Product, input models.ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.Category = input.Category
	product.Tags = models.StringList(input.Tags)
	product.Images = models.StringList(input.Images)
	product.Options = models.OptionMap(input.Options)
}
