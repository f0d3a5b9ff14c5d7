package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponServiceTest(t *testing.T) (*CouponService, *repository.GormCouponRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}, &models.CouponUsage{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	couponRepo := repository.NewCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)
	return NewCouponService(couponRepo, usageRepo), couponRepo, db
}

func seedCoupon(t *testing.T, repo *repository.GormCouponRepository, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}
	return coupon
}

func TestPreviewUnknownCode(t *testing.T) {
	svc, _, _ := setupCouponServiceTest(t)
	if _, err := svc.Preview("NO-SUCH-CODE", money(100), nil, 1); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound got %v", err)
	}
	if _, err := svc.Preview("   ", money(100), nil, 1); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("blank code want ErrCouponNotFound got %v", err)
	}
}

func TestPreviewEligibleComputesDiscount(t *testing.T) {
	svc, repo, _ := setupCouponServiceTest(t)
	seedCoupon(t, repo, &models.Coupon{
		Code:        "PREVIEW10",
		Type:        constants.CouponTypePercent,
		Value:       money(10),
		Scope:       constants.CouponScopeAll,
		MaxDiscount: money(50),
		IsActive:    true,
	})

	preview, err := svc.Preview("preview10", money(1000), nil, 1)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Eligibility.Eligible {
		t.Fatalf("want eligible got %+v", preview.Eligibility)
	}
	if preview.Discount == nil || preview.Discount.Amount.String() != "50.00" {
		t.Fatalf("want capped discount 50.00 got %+v", preview.Discount)
	}
}

func TestPreviewIneligibleIsNotAnError(t *testing.T) {
	svc, repo, _ := setupCouponServiceTest(t)
	seedCoupon(t, repo, &models.Coupon{
		Code:     "MIN500",
		Type:     constants.CouponTypeFlat,
		Value:    money(50),
		Scope:    constants.CouponScopeAll,
		MinOrder: money(500),
		IsActive: true,
	})

	preview, err := svc.Preview("MIN500", money(100), nil, 1)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Eligibility.Eligible || preview.Eligibility.Reason != IneligibleBelowMinOrder {
		t.Fatalf("want BELOW_MIN_ORDER got %+v", preview.Eligibility)
	}
	if preview.Discount != nil {
		t.Fatalf("ineligible preview must not carry a discount")
	}
}

func TestPreviewCountsPriorRedemptionsFromLedger(t *testing.T) {
	svc, repo, db := setupCouponServiceTest(t)
	coupon := seedCoupon(t, repo, &models.Coupon{
		Code:         "ONCE-PER-USER",
		Type:         constants.CouponTypeFlat,
		Value:        money(50),
		Scope:        constants.CouponScopeAll,
		PerUserLimit: 1,
		IsActive:     true,
	})
	if err := db.Create(&models.CouponUsage{CouponID: coupon.ID, UserID: 7, OrderID: 100}).Error; err != nil {
		t.Fatalf("seed usage failed: %v", err)
	}

	preview, err := svc.Preview("ONCE-PER-USER", money(300), nil, 7)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Eligibility.Reason != IneligibleUserLimitReached {
		t.Fatalf("want USER_LIMIT_REACHED got %+v", preview.Eligibility)
	}

	other, err := svc.Preview("ONCE-PER-USER", money(300), nil, 8)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !other.Eligibility.Eligible {
		t.Fatalf("other user should be eligible, got %+v", other.Eligibility)
	}
}

func TestRedeemConsumesAndRecords(t *testing.T) {
	svc, repo, db := setupCouponServiceTest(t)
	coupon := seedCoupon(t, repo, &models.Coupon{
		Code:       "REDEEM-ONE",
		Type:       constants.CouponTypeFlat,
		Value:      money(50),
		Scope:      constants.CouponScopeAll,
		UsageLimit: 1,
		IsActive:   true,
	})

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(tx, coupon, 7, 42, money(50))
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("used_count want 1 got %d", got.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("order_id = ?", 42).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 1 {
		t.Fatalf("usage ledger rows want 1 got %d", usageCount)
	}

	// 名额已满，第二次占用必须被拒绝并回滚整个事务
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(tx, coupon, 8, 43, money(50))
	})
	if !errors.Is(err, ErrCouponLimitReached) {
		t.Fatalf("want ErrCouponLimitReached got %v", err)
	}
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("used_count must stay 1 after rejected redeem, got %d", got.UsedCount)
	}
}

func TestReleaseRollsBackUsage(t *testing.T) {
	svc, repo, db := setupCouponServiceTest(t)
	coupon := seedCoupon(t, repo, &models.Coupon{
		Code:       "RELEASE-IT",
		Type:       constants.CouponTypeFlat,
		Value:      money(50),
		Scope:      constants.CouponScopeAll,
		UsageLimit: 5,
		IsActive:   true,
	})

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(tx, coupon, 7, 55, money(50))
	}); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(tx, coupon.ID, 55)
	}); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("used_count want 0 after release got %d", got.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("order_id = ?", 55).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("usage ledger rows want 0 after release got %d", usageCount)
	}

	noCouponErr := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(tx, 0, 55)
	})
	if noCouponErr != nil {
		t.Fatalf("release without coupon should be a no-op, got %v", noCouponErr)
	}
}

func TestPreviewTimeWindowAgainstWallClock(t *testing.T) {
	svc, repo, _ := setupCouponServiceTest(t)
	past := time.Now().Add(-24 * time.Hour)
	seedCoupon(t, repo, &models.Coupon{
		Code:     "EXPIRED-YESTERDAY",
		Type:     constants.CouponTypeFlat,
		Value:    money(50),
		Scope:    constants.CouponScopeAll,
		EndsAt:   &past,
		IsActive: true,
	})

	preview, err := svc.Preview("EXPIRED-YESTERDAY", money(300), nil, 1)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Eligibility.Reason != IneligibleNotActive {
		t.Fatalf("expired coupon want NOT_ACTIVE got %+v", preview.Eligibility)
	}
}
