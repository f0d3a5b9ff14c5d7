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

func setupCouponAdminServiceTest(t *testing.T) (*CouponAdminService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}, &models.Collection{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewCouponAdminService(repository.NewCouponRepository(db), repository.NewCollectionRepository(db))
	return svc, db
}

func seedCollection(t *testing.T, db *gorm.DB, slug string) {
	t.Helper()
	if err := db.Create(&models.Collection{Slug: slug, Title: slug}).Error; err != nil {
		t.Fatalf("seed collection failed: %v", err)
	}
}

func TestAdminCreateUppercasesCodeAndDefaults(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	coupon, err := svc.Create(CouponInput{
		Code:  "  welcome20 ",
		Type:  "percent",
		Value: money(20),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if coupon.Code != "WELCOME20" {
		t.Fatalf("code want WELCOME20 got %s", coupon.Code)
	}
	if !coupon.IsActive {
		t.Fatalf("new coupon defaults to active")
	}
	if coupon.UsedCount != 0 {
		t.Fatalf("new coupon used_count want 0 got %d", coupon.UsedCount)
	}
	if coupon.Scope != constants.CouponScopeAll {
		t.Fatalf("scope defaults to ALL, got %s", coupon.Scope)
	}
}

func TestAdminCreateDuplicateCode(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	if _, err := svc.Create(CouponInput{Code: "DUP-ADMIN", Type: constants.CouponTypeFlat, Value: money(10)}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	// 重复判定忽略大小写
	if _, err := svc.Create(CouponInput{Code: "dup-admin", Type: constants.CouponTypeFlat, Value: money(10)}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("want ErrCouponCodeExists got %v", err)
	}
}

func TestAdminCreateValidation(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	seedCollection(t, db, "car-accessories")

	cases := []struct {
		name  string
		input CouponInput
		want  error
	}{
		{"empty code", CouponInput{Type: constants.CouponTypeFlat, Value: money(10)}, ErrCouponInvalid},
		{"unknown type", CouponInput{Code: "V1", Type: "BOGOF", Value: money(10)}, ErrCouponInvalid},
		{"percent above 100", CouponInput{Code: "V2", Type: constants.CouponTypePercent, Value: money(150)}, ErrCouponInvalid},
		{"zero flat value", CouponInput{Code: "V3", Type: constants.CouponTypeFlat, Value: money(0)}, ErrCouponInvalid},
		{"collection scope without slug", CouponInput{Code: "V4", Type: constants.CouponTypeFlat, Value: money(10), Scope: constants.CouponScopeCollection}, ErrCouponInvalid},
		{"collection scope unknown slug", CouponInput{Code: "V5", Type: constants.CouponTypeFlat, Value: money(10), Scope: constants.CouponScopeCollection, CollectionSlug: "nope"}, ErrCollectionNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.Create(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}

	// 合法的集合范围券可以创建
	coupon, err := svc.Create(CouponInput{
		Code:           "CAR-B1G1",
		Type:           constants.CouponTypeB1G1,
		Scope:          constants.CouponScopeCollection,
		CollectionSlug: "car-accessories",
	})
	if err != nil {
		t.Fatalf("b1g1 create failed: %v", err)
	}
	if !coupon.Value.IsZero() {
		t.Fatalf("b1g1 value must be forced to 0, got %s", coupon.Value.String())
	}
}

func TestAdminCreateScopeAllDropsCollectionSlug(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	coupon, err := svc.Create(CouponInput{
		Code:           "ALL-SCOPE",
		Type:           constants.CouponTypeFlat,
		Value:          money(10),
		Scope:          constants.CouponScopeAll,
		CollectionSlug: "ignored",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if coupon.CollectionSlug != "" {
		t.Fatalf("ALL scope must not carry a collection slug, got %q", coupon.CollectionSlug)
	}
}

func TestAdminUpdatePreservesUsedCount(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	created, err := svc.Create(CouponInput{Code: "KEEP-COUNT", Type: constants.CouponTypeFlat, Value: money(10)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := db.Model(&models.Coupon{}).Where("id = ?", created.ID).Update("used_count", 3).Error; err != nil {
		t.Fatalf("bump used_count failed: %v", err)
	}

	updated, err := svc.Update(created.ID, CouponInput{Code: "KEEP-COUNT", Type: constants.CouponTypeFlat, Value: money(25)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.UsedCount != 3 {
		t.Fatalf("update must not reset used_count, want 3 got %d", updated.UsedCount)
	}
	if updated.Value.String() != "25.00" {
		t.Fatalf("value want 25.00 got %s", updated.Value.String())
	}
}

func TestAdminUpdateRejectsInvalidWindow(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	created, err := svc.Create(CouponInput{Code: "WINDOW", Type: constants.CouponTypeFlat, Value: money(10)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	starts := engineNow
	ends := engineNow.Add(-time.Hour)
	_, err = svc.Update(created.ID, CouponInput{
		Code:     "WINDOW",
		Type:     constants.CouponTypeFlat,
		Value:    money(10),
		StartsAt: &starts,
		EndsAt:   &ends,
	})
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("ends before starts want ErrCouponInvalid got %v", err)
	}
}

func TestAdminDeleteMissing(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	if err := svc.Delete(9999); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound got %v", err)
	}
	if err := svc.Delete(0); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("want ErrCouponInvalid got %v", err)
	}
}
