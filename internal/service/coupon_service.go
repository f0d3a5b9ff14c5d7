package service

import (
	"strings"
	"time"

	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"gorm.io/gorm"
)

// CouponService 结算侧优惠券服务：在引擎的纯计算外补齐数据读取与额度占用
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// CouponPreview 预检结果，供结算页展示
type CouponPreview struct {
	Coupon      *models.Coupon    `json:"coupon"`
	Eligibility CouponEligibility `json:"eligibility"`
	Discount    *CouponDiscount   `json:"discount,omitempty"`
}

// Preview 预检优惠券：查券、补齐用户已用次数、跑引擎判定与折扣计算。
// 不占用额度，不产生副作用；不可用不是错误，调用方按 Eligibility 分支。
func (s *CouponService) Preview(code string, subtotal models.Money, items []CouponOrderItem, userID uint) (*CouponPreview, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrCouponNotFound
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	order := CouponOrderContext{
		Subtotal: subtotal,
		Items:    items,
		UserID:   userID,
		Now:      time.Now(),
	}
	if coupon.PerUserLimit > 0 && userID != 0 {
		count, err := s.usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return nil, err
		}
		order.PriorRedemptions = count
	}

	preview := &CouponPreview{
		Coupon:      coupon,
		Eligibility: CouponAppliesToOrder(coupon, order),
	}
	if preview.Eligibility.Eligible {
		discount, err := ComputeCouponDiscount(coupon, order)
		if err != nil {
			return nil, err
		}
		preview.Discount = &discount
	}
	return preview, nil
}

// Redeem 占用一次使用额度并记账，必须在订单创建事务内调用。
// 条件更新抵御并发：最后一个名额被抢走时返回 ErrCouponLimitReached。
func (s *CouponService) Redeem(tx *gorm.DB, coupon *models.Coupon, userID, orderID uint, discountAmount models.Money) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	consumed, err := s.couponRepo.WithTx(tx).ConsumeUsage(coupon.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrCouponLimitReached
	}
	return s.usageRepo.WithTx(tx).Create(&models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discountAmount,
	})
}

// Release 回滚订单占用的额度与使用记录（订单取消时调用）
func (s *CouponService) Release(tx *gorm.DB, couponID, orderID uint) error {
	if couponID == 0 {
		return nil
	}
	if err := s.couponRepo.WithTx(tx).ReleaseUsage(couponID); err != nil {
		return err
	}
	return s.usageRepo.WithTx(tx).DeleteByOrderID(orderID)
}
