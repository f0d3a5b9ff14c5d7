package service

import (
	"strings"
	"time"

	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	couponRepo     repository.CouponRepository
	collectionRepo repository.CollectionRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(couponRepo repository.CouponRepository, collectionRepo repository.CollectionRepository) *CouponAdminService {
	return &CouponAdminService{
		couponRepo:     couponRepo,
		collectionRepo: collectionRepo,
	}
}

// CouponInput 创建/更新优惠券输入
type CouponInput struct {
	Code           string
	Description    string
	Type           string
	Value          models.Money
	Scope          string
	CollectionSlug string
	MinOrder       models.Money
	MaxDiscount    models.Money
	UsageLimit     int
	PerUserLimit   int
	StartsAt       *time.Time
	EndsAt         *time.Time
	IsActive       *bool
}

// Create 创建优惠券（优惠码统一大写，used_count 从 0 开始）
func (s *CouponAdminService) Create(input CouponInput) (*models.Coupon, error) {
	normalized, err := s.normalizeInput(input)
	if err != nil {
		return nil, err
	}

	exist, err := s.couponRepo.GetByCode(normalized.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:           normalized.Code,
		Description:    normalized.Description,
		Type:           normalized.Type,
		Value:          normalized.Value,
		Scope:          normalized.Scope,
		CollectionSlug: normalized.CollectionSlug,
		MinOrder:       input.MinOrder,
		MaxDiscount:    input.MaxDiscount,
		UsageLimit:     input.UsageLimit,
		UsedCount:      0,
		PerUserLimit:   input.PerUserLimit,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		IsActive:       isActive,
	}

	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券（used_count 只由结算路径改动，这里不触碰）
func (s *CouponAdminService) Update(id uint, input CouponInput) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponInvalid
	}
	existing, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}

	normalized, err := s.normalizeInput(input)
	if err != nil {
		return nil, err
	}

	if normalized.Code != existing.Code {
		dup, err := s.couponRepo.GetByCode(normalized.Code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeExists
		}
	}

	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	existing.Code = normalized.Code
	existing.Description = normalized.Description
	existing.Type = normalized.Type
	existing.Value = normalized.Value
	existing.Scope = normalized.Scope
	existing.CollectionSlug = normalized.CollectionSlug
	existing.MinOrder = input.MinOrder
	existing.MaxDiscount = input.MaxDiscount
	existing.UsageLimit = input.UsageLimit
	existing.PerUserLimit = input.PerUserLimit
	existing.StartsAt = input.StartsAt
	existing.EndsAt = input.EndsAt

	if err := s.couponRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete 删除优惠券（软删除，优先用停用而非删除）
func (s *CouponAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrCouponInvalid
	}
	existing, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCouponNotFound
	}
	return s.couponRepo.Delete(id)
}

// GetByID 获取优惠券
func (s *CouponAdminService) GetByID(id uint) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// normalizeInput 规范化并校验输入，畸形数据在入库前拦下
func (s *CouponAdminService) normalizeInput(input CouponInput) (CouponInput, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Code == "" {
		return input, ErrCouponInvalid
	}
	input.Description = strings.TrimSpace(input.Description)

	input.Type = strings.ToUpper(strings.TrimSpace(input.Type))
	switch input.Type {
	case constants.CouponTypePercent:
		if input.Value.Decimal.LessThanOrEqual(decimal.Zero) || input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return input, ErrCouponInvalid
		}
	case constants.CouponTypeFlat:
		if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
			return input, ErrCouponInvalid
		}
	case constants.CouponTypeB1G1:
		// 买一赠一不携带面值
		input.Value = models.NewMoneyFromDecimal(decimal.Zero)
	default:
		return input, ErrCouponInvalid
	}

	input.Scope = strings.ToUpper(strings.TrimSpace(input.Scope))
	if input.Scope == "" {
		input.Scope = constants.CouponScopeAll
	}
	switch input.Scope {
	case constants.CouponScopeAll:
		input.CollectionSlug = ""
	case constants.CouponScopeCollection:
		input.CollectionSlug = strings.TrimSpace(input.CollectionSlug)
		if input.CollectionSlug == "" {
			return input, ErrCouponInvalid
		}
		collection, err := s.collectionRepo.GetBySlug(input.CollectionSlug)
		if err != nil {
			return input, err
		}
		if collection == nil {
			return input, ErrCollectionNotFound
		}
	default:
		return input, ErrCouponInvalid
	}

	if input.MinOrder.IsNegative() || input.MaxDiscount.IsNegative() {
		return input, ErrCouponInvalid
	}
	if input.UsageLimit < 0 || input.PerUserLimit < 0 {
		return input, ErrCouponInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return input, ErrCouponInvalid
	}
	return input, nil
}
