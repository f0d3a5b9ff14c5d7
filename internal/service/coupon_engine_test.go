package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"

	"github.com/shopspring/decimal"
)

var engineNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func money(v float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
}

func activeCoupon(couponType string, value float64) *models.Coupon {
	return &models.Coupon{
		Code:     "TEST",
		Type:     couponType,
		Value:    money(value),
		Scope:    constants.CouponScopeAll,
		IsActive: true,
	}
}

func orderContext(subtotal float64, items ...CouponOrderItem) CouponOrderContext {
	return CouponOrderContext{
		Subtotal: money(subtotal),
		Items:    items,
		UserID:   1,
		Now:      engineNow,
	}
}

func TestIsCurrentlyActiveDisabledWinsOverEverything(t *testing.T) {
	starts := engineNow.Add(-time.Hour)
	ends := engineNow.Add(time.Hour)
	coupon := activeCoupon(constants.CouponTypeFlat, 100)
	coupon.IsActive = false
	coupon.StartsAt = &starts
	coupon.EndsAt = &ends

	if IsCouponCurrentlyActive(coupon, engineNow) {
		t.Fatalf("disabled coupon must not be active")
	}
}

func TestIsCurrentlyActiveTimeWindow(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 100)

	future := engineNow.Add(time.Hour)
	coupon.StartsAt = &future
	if IsCouponCurrentlyActive(coupon, engineNow) {
		t.Fatalf("coupon before starts_at must not be active")
	}
	coupon.StartsAt = &engineNow
	if !IsCouponCurrentlyActive(coupon, engineNow) {
		t.Fatalf("starts_at is inclusive")
	}

	past := engineNow.Add(-time.Hour)
	coupon.StartsAt = nil
	coupon.EndsAt = &past
	if IsCouponCurrentlyActive(coupon, engineNow) {
		t.Fatalf("expired coupon must not be active even when is_active=true")
	}
}

func TestIsCurrentlyActiveEndsAtDateOnlyCoversWholeDay(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 100)
	endOfToday := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	coupon.EndsAt = &endOfToday

	lateEvening := time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)
	if !IsCouponCurrentlyActive(coupon, lateEvening) {
		t.Fatalf("date-only ends_at should cover the whole day")
	}
	nextDay := time.Date(2026, 3, 16, 0, 0, 1, 0, time.UTC)
	if IsCouponCurrentlyActive(coupon, nextDay) {
		t.Fatalf("coupon must expire after end of day")
	}
}

func TestIsCurrentlyActiveUsageExhausted(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 100)
	coupon.UsageLimit = 5
	coupon.UsedCount = 5

	if IsCouponCurrentlyActive(coupon, engineNow) {
		t.Fatalf("exhausted coupon must not be active")
	}

	eligibility := CouponAppliesToOrder(coupon, orderContext(1000))
	if eligibility.Eligible || eligibility.Reason != IneligibleNotActive {
		t.Fatalf("exhausted coupon want NOT_ACTIVE got %+v", eligibility)
	}
}

func TestIsCurrentlyActiveIdempotent(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypePercent, 10)
	first := IsCouponCurrentlyActive(coupon, engineNow)
	second := IsCouponCurrentlyActive(coupon, engineNow)
	if first != second {
		t.Fatalf("repeated calls with same inputs must agree: %v vs %v", first, second)
	}
}

func TestAppliesToOrderReasonOrdering(t *testing.T) {
	// 同时命中门槛与范围失败时，门槛在前
	coupon := activeCoupon(constants.CouponTypePercent, 10)
	coupon.MinOrder = money(500)
	coupon.Scope = constants.CouponScopeCollection
	coupon.CollectionSlug = "car-accessories"

	eligibility := CouponAppliesToOrder(coupon, orderContext(100, CouponOrderItem{CollectionSlug: "home-decor"}))
	if eligibility.Reason != IneligibleBelowMinOrder {
		t.Fatalf("want BELOW_MIN_ORDER got %+v", eligibility)
	}

	eligibility = CouponAppliesToOrder(coupon, orderContext(1000, CouponOrderItem{CollectionSlug: "home-decor"}))
	if eligibility.Reason != IneligibleScopeMismatch {
		t.Fatalf("want SCOPE_MISMATCH got %+v", eligibility)
	}
}

func TestAppliesToOrderScopeMatching(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 50)
	coupon.Scope = constants.CouponScopeCollection
	coupon.CollectionSlug = "car-accessories"

	miss := CouponAppliesToOrder(coupon, orderContext(300, CouponOrderItem{CollectionSlug: "kitchen"}))
	if miss.Eligible || miss.Reason != IneligibleScopeMismatch {
		t.Fatalf("no matching item want SCOPE_MISMATCH got %+v", miss)
	}

	hit := CouponAppliesToOrder(coupon, orderContext(300,
		CouponOrderItem{CollectionSlug: "kitchen"},
		CouponOrderItem{CollectionSlug: "car-accessories"},
	))
	if !hit.Eligible {
		t.Fatalf("one matching item should be eligible, got %+v", hit)
	}
}

func TestAppliesToOrderLegacyScopeDefaultsToAll(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 50)
	coupon.Scope = "" // 旧数据没有 scope 字段
	eligibility := CouponAppliesToOrder(coupon, orderContext(300, CouponOrderItem{CollectionSlug: "kitchen"}))
	if !eligibility.Eligible {
		t.Fatalf("legacy coupon without scope should apply to all, got %+v", eligibility)
	}
}

func TestAppliesToOrderPerUserLimit(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 50)
	coupon.PerUserLimit = 1

	order := orderContext(300)
	order.PriorRedemptions = 1
	eligibility := CouponAppliesToOrder(coupon, order)
	if eligibility.Eligible || eligibility.Reason != IneligibleUserLimitReached {
		t.Fatalf("want USER_LIMIT_REACHED got %+v", eligibility)
	}

	order.PriorRedemptions = 0
	if got := CouponAppliesToOrder(coupon, order); !got.Eligible {
		t.Fatalf("under per-user limit should be eligible, got %+v", got)
	}
}

func TestComputeDiscountPercentCappedByMaxDiscount(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypePercent, 10)
	coupon.MaxDiscount = money(50)
	coupon.MinOrder = money(100)

	discount, err := ComputeCouponDiscount(coupon, orderContext(1000))
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	if discount.Kind != DiscountKindAmount {
		t.Fatalf("want amount kind got %s", discount.Kind)
	}
	// 原始 10% 折扣为 100，封顶到 50
	if discount.Amount.String() != "50.00" {
		t.Fatalf("want 50.00 got %s", discount.Amount.String())
	}
}

func TestComputeDiscountPercentRoundsHalfUp(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypePercent, 15)

	discount, err := ComputeCouponDiscount(coupon, orderContext(99.99))
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	// 99.99 * 15% = 14.9985，四舍五入到 15.00
	if discount.Amount.String() != "15.00" {
		t.Fatalf("want 15.00 got %s", discount.Amount.String())
	}
}

func TestComputeDiscountFlatNeverExceedsSubtotal(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 200)

	discount, err := ComputeCouponDiscount(coupon, orderContext(150))
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	if discount.Amount.String() != "150.00" {
		t.Fatalf("flat discount must cap at subtotal, want 150.00 got %s", discount.Amount.String())
	}
}

func TestComputeDiscountFlatMaxDiscountOnlyTightens(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeFlat, 100)
	coupon.MaxDiscount = money(500) // 大于面值时不生效

	discount, err := ComputeCouponDiscount(coupon, orderContext(1000))
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	if discount.Amount.String() != "100.00" {
		t.Fatalf("max_discount above face value is a no-op, want 100.00 got %s", discount.Amount.String())
	}

	coupon.MaxDiscount = money(60)
	discount, err = ComputeCouponDiscount(coupon, orderContext(1000))
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	if discount.Amount.String() != "60.00" {
		t.Fatalf("smaller max_discount tightens flat value, want 60.00 got %s", discount.Amount.String())
	}
}

func TestComputeDiscountB1G1ReturnsFreeItemDirective(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypeB1G1, 0)
	coupon.Scope = constants.CouponScopeCollection
	coupon.CollectionSlug = "car-accessories"

	order := orderContext(300, CouponOrderItem{CollectionSlug: "car-accessories", UnitPrice: money(150), Quantity: 2})
	eligibility := CouponAppliesToOrder(coupon, order)
	if !eligibility.Eligible {
		t.Fatalf("want eligible got %+v", eligibility)
	}

	discount, err := ComputeCouponDiscount(coupon, order)
	if err != nil {
		t.Fatalf("compute discount failed: %v", err)
	}
	if discount.Kind != DiscountKindFreeItem {
		t.Fatalf("want free_item kind got %s", discount.Kind)
	}
	if discount.CollectionConstraint != "car-accessories" {
		t.Fatalf("want collection constraint car-accessories got %q", discount.CollectionConstraint)
	}
}

func TestComputeDiscountIneligibleFailsLoudly(t *testing.T) {
	coupon := activeCoupon(constants.CouponTypePercent, 10)
	coupon.IsActive = false

	_, err := ComputeCouponDiscount(coupon, orderContext(1000))
	if !errors.Is(err, ErrCouponStateInvalid) {
		t.Fatalf("want ErrCouponStateInvalid got %v", err)
	}
}

func TestComputeDiscountRejectsMalformedCoupon(t *testing.T) {
	negative := activeCoupon(constants.CouponTypeFlat, 0)
	negative.Value = models.NewMoneyFromDecimal(decimal.NewFromInt(-10))
	if _, err := ComputeCouponDiscount(negative, orderContext(100)); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("negative value want ErrCouponInvalid got %v", err)
	}

	overPercent := activeCoupon(constants.CouponTypePercent, 150)
	if _, err := ComputeCouponDiscount(overPercent, orderContext(100)); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("percent above 100 want ErrCouponInvalid got %v", err)
	}

	orphanScope := activeCoupon(constants.CouponTypeFlat, 10)
	orphanScope.Scope = constants.CouponScopeCollection
	orphanScope.CollectionSlug = ""
	if _, err := ComputeCouponDiscount(orphanScope, orderContext(100)); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("collection scope without slug want ErrCouponInvalid got %v", err)
	}
}

func TestFormatCouponValue(t *testing.T) {
	percent := activeCoupon(constants.CouponTypePercent, 12.5)
	if got := FormatCouponValue(percent); got != "12.5%" {
		t.Fatalf("percent display want 12.5%% got %q", got)
	}

	flat := activeCoupon(constants.CouponTypeFlat, 250)
	if got := FormatCouponValue(flat); got != "₹250.00" {
		t.Fatalf("flat display want ₹250.00 got %q", got)
	}

	b1g1 := activeCoupon(constants.CouponTypeB1G1, 0)
	if got := FormatCouponValue(b1g1); got != "Buy 1 Get 1" {
		t.Fatalf("b1g1 display want Buy 1 Get 1 got %q", got)
	}
}

func TestFormatCouponUsage(t *testing.T) {
	unlimited := activeCoupon(constants.CouponTypeFlat, 10)
	unlimited.UsedCount = 3
	if got := FormatCouponUsage(unlimited); got != "3/∞" {
		t.Fatalf("unlimited usage want 3/∞ got %q", got)
	}

	limited := activeCoupon(constants.CouponTypeFlat, 10)
	limited.UsageLimit = 5
	limited.UsedCount = 2
	if got := FormatCouponUsage(limited); got != "2/5" {
		t.Fatalf("limited usage want 2/5 got %q", got)
	}
}
