package repository

import (
	"testing"

	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCouponRepositoryTest(t *testing.T) (*GormCouponRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("migrate coupon failed: %v", err)
	}
	return NewCouponRepository(db), db
}

func createTestCoupon(t *testing.T, repo *GormCouponRepository, code string, usageLimit, usedCount int) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Code:       code,
		Type:       constants.CouponTypeFlat,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Scope:      constants.CouponScopeAll,
		UsageLimit: usageLimit,
		UsedCount:  usedCount,
		IsActive:   true,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestGetByCodeNormalizesCase(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	created := createTestCoupon(t, repo, "SAVE20-CASE", 0, 0)

	got, err := repo.GetByCode("  save20-case ")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected coupon id %d, got %+v", created.ID, got)
	}

	got, err = repo.GetByCode("")
	if err != nil {
		t.Fatalf("get by empty code failed: %v", err)
	}
	if got != nil {
		t.Fatalf("empty code should return nil, got %+v", got)
	}
}

func TestConsumeUsageRespectsLimit(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, "CONSUME-LIMIT", 2, 1)

	ok, err := repo.ConsumeUsage(coupon.ID)
	if err != nil {
		t.Fatalf("consume usage failed: %v", err)
	}
	if !ok {
		t.Fatalf("consume below limit should succeed")
	}

	ok, err = repo.ConsumeUsage(coupon.ID)
	if err != nil {
		t.Fatalf("consume at limit failed: %v", err)
	}
	if ok {
		t.Fatalf("consume at limit should be rejected")
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 2 {
		t.Fatalf("used_count want 2 got %d", got.UsedCount)
	}
}

func TestConsumeUsageUnlimited(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, "CONSUME-UNLIMITED", 0, 99)

	ok, err := repo.ConsumeUsage(coupon.ID)
	if err != nil {
		t.Fatalf("consume usage failed: %v", err)
	}
	if !ok {
		t.Fatalf("unlimited coupon should always consume")
	}
}

func TestReleaseUsageStopsAtZero(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, "RELEASE-FLOOR", 5, 1)

	if err := repo.ReleaseUsage(coupon.ID); err != nil {
		t.Fatalf("release usage failed: %v", err)
	}
	if err := repo.ReleaseUsage(coupon.ID); err != nil {
		t.Fatalf("release at zero failed: %v", err)
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("used_count want 0 got %d", got.UsedCount)
	}
}

func TestCouponListFilters(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	createTestCoupon(t, repo, "LIST-A", 0, 0)
	inactive := createTestCoupon(t, repo, "LIST-B", 0, 0)
	inactive.IsActive = false
	if err := repo.Update(inactive); err != nil {
		t.Fatalf("update coupon failed: %v", err)
	}
	percent := createTestCoupon(t, repo, "LIST-PCT", 0, 0)
	percent.Type = constants.CouponTypePercent
	percent.Description = "festival promo"
	if err := repo.Update(percent); err != nil {
		t.Fatalf("update coupon failed: %v", err)
	}

	active := true
	coupons, total, err := repo.List(CouponListFilter{Page: 1, PageSize: 10, Search: "LIST-", IsActive: &active})
	if err != nil {
		t.Fatalf("list coupons failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("active total want 2 got %d", total)
	}
	for _, c := range coupons {
		if !c.IsActive {
			t.Fatalf("inactive coupon leaked into active filter: %s", c.Code)
		}
	}

	_, total, err = repo.List(CouponListFilter{Page: 1, PageSize: 10, Type: constants.CouponTypePercent, Search: "LIST-"})
	if err != nil {
		t.Fatalf("list by type failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("percent total want 1 got %d", total)
	}

	_, total, err = repo.List(CouponListFilter{Page: 1, PageSize: 10, Search: "festival"})
	if err != nil {
		t.Fatalf("list by description failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("description search total want 1 got %d", total)
	}
}
