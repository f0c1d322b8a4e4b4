package service

import (
	"context"
	"fmt"

	"beestore/internal/domain"
	"beestore/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	FeaturedCount   = 3
)

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// CatalogService defines the interface for storefront browsing
type CatalogService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter, page, pageSize int) (*ProductPage, error)
	Featured(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogService{productRepo: productRepo, categoryRepo: categoryRepo}
}

// ListProducts returns a filtered page of products, newest first. Out of range
// paging parameters are clamped.
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	products, total, err := s.productRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Featured picks a few random products for the front page
func (s *catalogService) Featured(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.Random(ctx, FeaturedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load featured products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single product
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Categories lists the categories that have products
func (s *catalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
