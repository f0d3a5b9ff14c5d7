package repository

import (
	"errors"
	"strings"

	"github.com/aura-harvest/aura-admin/internal/models"

	"gorm.io/gorm"
)

// CollectionRepository 集合数据访问接口
type CollectionRepository interface {
	GetByID(id uint) (*models.Collection, error)
	GetBySlug(slug string) (*models.Collection, error)
	Create(collection *models.Collection) error
	Update(collection *models.Collection) error
	Delete(id uint) error
	List(filter CollectionListFilter) ([]models.Collection, int64, error)
	ListAll() ([]models.Collection, error)
}

// GormCollectionRepository GORM 实现
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建集合仓库
func NewCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

// GetByID 根据ID获取集合
func (r *GormCollectionRepository) GetByID(id uint) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.First(&collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

// GetBySlug 根据 slug 获取集合
func (r *GormCollectionRepository) GetBySlug(slug string) (*models.Collection, error) {
	var collection models.Collection
	if err := r.db.Where("slug = ?", slug).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

// Create 创建集合
func (r *GormCollectionRepository) Create(collection *models.Collection) error {
	return r.db.Create(collection).Error
}

// Update 更新集合
func (r *GormCollectionRepository) Update(collection *models.Collection) error {
	return r.db.Save(collection).Error
}

// Delete 删除集合（软删除）
func (r *GormCollectionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Collection{}, id).Error
}

// List 获取集合列表
func (r *GormCollectionRepository) List(filter CollectionListFilter) ([]models.Collection, int64, error) {
	query := r.db.Model(&models.Collection{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"slug", "title"})
		like := "%" + search + "%"
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var collections []models.Collection
	if err := query.Order("sort_order asc, id asc").Find(&collections).Error; err != nil {
		return nil, 0, err
	}
	return collections, total, nil
}

// ListAll 获取全部集合（用于下拉选择）
func (r *GormCollectionRepository) ListAll() ([]models.Collection, error) {
	collections := make([]models.Collection, 0)
	if err := r.db.Order("sort_order asc, id asc").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}
