package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/aura-harvest/aura-admin/internal/cache"
	"github.com/aura-harvest/aura-admin/internal/logger"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"
)

const collectionListCacheKey = "collections:all"
const collectionListCacheTTL = 5 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CollectionService 集合管理服务
type CollectionService struct {
	repo repository.CollectionRepository
}

// NewCollectionService 创建集合服务
func NewCollectionService(repo repository.CollectionRepository) *CollectionService {
	return &CollectionService{repo: repo}
}

// CollectionInput 创建/更新集合输入
type CollectionInput struct {
	Slug        string
	Title       string
	Description string
	Image       string
	SortOrder   int
}

// Create 创建集合
func (s *CollectionService) Create(input CollectionInput) (*models.Collection, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	title := strings.TrimSpace(input.Title)
	if !slugPattern.MatchString(slug) || title == "" {
		return nil, ErrCollectionInvalid
	}

	exist, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCollectionSlugExists
	}

	collection := &models.Collection{
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Image:       strings.TrimSpace(input.Image),
		SortOrder:   input.SortOrder,
	}
	if err := s.repo.Create(collection); err != nil {
		return nil, err
	}
	s.invalidateListCache()
	return collection, nil
}

// Update 更新集合（slug 固定不变，优惠券与商品按 slug 关联）
func (s *CollectionService) Update(id uint, input CollectionInput) (*models.Collection, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCollectionNotFound
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		existing.Title = title
	}
	existing.Description = strings.TrimSpace(input.Description)
	existing.Image = strings.TrimSpace(input.Image)
	existing.SortOrder = input.SortOrder

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	s.invalidateListCache()
	return existing, nil
}

// Delete 删除集合
func (s *CollectionService) Delete(id uint) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCollectionNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidateListCache()
	return nil
}

// GetBySlug 按 slug 获取集合
func (s *CollectionService) GetBySlug(slug string) (*models.Collection, error) {
	collection, err := s.repo.GetBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrCollectionNotFound
	}
	return collection, nil
}

// List 获取集合列表
func (s *CollectionService) List(filter repository.CollectionListFilter) ([]models.Collection, int64, error) {
	return s.repo.List(filter)
}

// ListAll 获取全部集合，带短缓存（下拉选择等高频读取）
func (s *CollectionService) ListAll(ctx context.Context) ([]models.Collection, error) {
	var cached []models.Collection
	hit, err := cache.GetJSON(ctx, collectionListCacheKey, &cached)
	if err != nil {
		logger.Warnw("collection_cache_read_failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	collections, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, collectionListCacheKey, collections, collectionListCacheTTL); err != nil {
		logger.Warnw("collection_cache_write_failed", "error", err)
	}
	return collections, nil
}

func (s *CollectionService) invalidateListCache() {
	if err := cache.Del(context.Background(), collectionListCacheKey); err != nil {
		logger.Warnw("collection_cache_invalidate_failed", "error", err)
	}
}
