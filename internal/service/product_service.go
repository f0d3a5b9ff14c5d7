package service

import (
	"strings"

	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"
)

// ProductService 商品管理服务
type ProductService struct {
	productRepo    repository.ProductRepository
	collectionRepo repository.CollectionRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, collectionRepo repository.CollectionRepository) *ProductService {
	return &ProductService{
		productRepo:    productRepo,
		collectionRepo: collectionRepo,
	}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Name           string
	Brand          string
	SKU            string
	CollectionSlug string
	Price          models.Money
	Stock          int
	MinStockLevel  int
	Description    string
	Benefits       []string
	Details        []string
	Images         []string
	IsActive       *bool
	SortOrder      int
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.ToUpper(strings.TrimSpace(input.SKU))
	if name == "" || sku == "" || input.Price.IsNegative() || input.Stock < 0 {
		return nil, ErrProductInvalid
	}

	exist, err := s.productRepo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrProductSKUExists
	}

	slug, err := s.resolveCollectionSlug(input.CollectionSlug)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &models.Product{
		Name:           name,
		Brand:          strings.TrimSpace(input.Brand),
		SKU:            sku,
		CollectionSlug: slug,
		Price:          input.Price,
		Stock:          input.Stock,
		MinStockLevel:  input.MinStockLevel,
		Description:    strings.TrimSpace(input.Description),
		Benefits:       models.StringArray(input.Benefits),
		Details:        models.StringArray(input.Details),
		Images:         models.StringArray(input.Images),
		IsActive:       isActive,
		SortOrder:      input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	existing, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrProductNotFound
	}

	sku := strings.ToUpper(strings.TrimSpace(input.SKU))
	if sku != "" && sku != existing.SKU {
		dup, err := s.productRepo.GetBySKU(sku)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrProductSKUExists
		}
		existing.SKU = sku
	}

	slug, err := s.resolveCollectionSlug(input.CollectionSlug)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		existing.Name = name
	}
	existing.Brand = strings.TrimSpace(input.Brand)
	existing.CollectionSlug = slug
	if !input.Price.IsNegative() {
		existing.Price = input.Price
	}
	if input.Stock >= 0 {
		existing.Stock = input.Stock
	}
	existing.MinStockLevel = input.MinStockLevel
	existing.Description = strings.TrimSpace(input.Description)
	existing.Benefits = models.StringArray(input.Benefits)
	existing.Details = models.StringArray(input.Details)
	existing.Images = models.StringArray(input.Images)
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	existing.SortOrder = input.SortOrder

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id uint) error {
	existing, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

// GetByID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// List 获取商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// resolveCollectionSlug 校验集合 slug；空值表示不归属任何集合
func (s *ProductService) resolveCollectionSlug(slug string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(slug))
	if trimmed == "" {
		return "", nil
	}
	collection, err := s.collectionRepo.GetBySlug(trimmed)
	if err != nil {
		return "", err
	}
	if collection == nil {
		return "", ErrCollectionNotFound
	}
	return trimmed, nil
}
