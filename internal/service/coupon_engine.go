package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"

	"github.com/shopspring/decimal"
)

// 不可用原因，按判定顺序固定取第一个命中的
const (
	IneligibleNotActive        = "NOT_ACTIVE"
	IneligibleBelowMinOrder    = "BELOW_MIN_ORDER"
	IneligibleScopeMismatch    = "SCOPE_MISMATCH"
	IneligibleUserLimitReached = "USER_LIMIT_REACHED"
)

// 折扣结果类别
const (
	DiscountKindAmount   = "amount"
	DiscountKindFreeItem = "free_item"
)

// CouponOrderItem 参与优惠判定的订单行
type CouponOrderItem struct {
	ProductID      uint
	CollectionSlug string
	UnitPrice      models.Money
	Quantity       int
}

// CouponOrderContext 优惠判定所需的订单上下文。
// 所有数据由调用方提前取好，引擎本身不做任何 I/O。
type CouponOrderContext struct {
	Subtotal         models.Money
	Items            []CouponOrderItem
	UserID           uint
	PriorRedemptions int64 // 该用户此前使用该券的次数
	Now              time.Time
}

// CouponEligibility 可用性判定结果。Reason 仅在不可用时有值。
type CouponEligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// CouponDiscount 折扣计算结果。
// Kind=amount 时 Amount 有效；Kind=free_item 时由结算方挑选
// 符合 CollectionConstraint 的最低价商品免单，金额不在此处决定。
type CouponDiscount struct {
	Kind                 string       `json:"kind"`
	Amount               models.Money `json:"amount,omitempty"`
	CollectionConstraint string       `json:"collection_constraint,omitempty"`
}

// IsCouponCurrentlyActive 判断优惠券当前是否可用：
// 管理开关打开、处于有效期内、总次数未耗尽。
// 过期与耗尽不落库为状态，每次查询时基于 now 现算。
func IsCouponCurrentlyActive(coupon *models.Coupon, now time.Time) bool {
	if coupon == nil || !coupon.IsActive {
		return false
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return false
	}
	if coupon.EndsAt != nil && now.After(couponEffectiveEnd(*coupon.EndsAt)) {
		return false
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return false
	}
	return true
}

// couponEffectiveEnd 计算失效时刻。
// 只给到日期（零点）的截止时间按当天结束计，含当天整天。
func couponEffectiveEnd(endsAt time.Time) time.Time {
	if endsAt.Hour() == 0 && endsAt.Minute() == 0 && endsAt.Second() == 0 && endsAt.Nanosecond() == 0 {
		return endsAt.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return endsAt
}

// CouponAppliesToOrder 判定优惠券能否用于该订单。
// 规则按固定顺序评估，命中第一条失败原因即返回。
func CouponAppliesToOrder(coupon *models.Coupon, order CouponOrderContext) CouponEligibility {
	if !IsCouponCurrentlyActive(coupon, order.Now) {
		return CouponEligibility{Reason: IneligibleNotActive}
	}
	if coupon.MinOrder.IsPositive() && order.Subtotal.LessThan(coupon.MinOrder.Decimal) {
		return CouponEligibility{Reason: IneligibleBelowMinOrder}
	}
	if coupon.EffectiveScope() == constants.CouponScopeCollection && !orderTouchesCollection(order.Items, coupon.CollectionSlug) {
		return CouponEligibility{Reason: IneligibleScopeMismatch}
	}
	if coupon.PerUserLimit > 0 && order.PriorRedemptions >= int64(coupon.PerUserLimit) {
		return CouponEligibility{Reason: IneligibleUserLimitReached}
	}
	return CouponEligibility{Eligible: true}
}

func orderTouchesCollection(items []CouponOrderItem, slug string) bool {
	if slug == "" {
		return false
	}
	for _, item := range items {
		if item.CollectionSlug == slug {
			return true
		}
	}
	return false
}

// ComputeCouponDiscount 计算折扣。
// 调用前必须已确认 CouponAppliesToOrder 返回可用，
// 否则返回 ErrCouponStateInvalid；畸形券数据返回 ErrCouponInvalid。
func ComputeCouponDiscount(coupon *models.Coupon, order CouponOrderContext) (CouponDiscount, error) {
	if err := validateCouponRecord(coupon); err != nil {
		return CouponDiscount{}, err
	}
	if eligibility := CouponAppliesToOrder(coupon, order); !eligibility.Eligible {
		return CouponDiscount{}, fmt.Errorf("%w: %s", ErrCouponStateInvalid, eligibility.Reason)
	}

	switch coupon.Type {
	case constants.CouponTypePercent:
		raw := order.Subtotal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
		if coupon.MaxDiscount.IsPositive() && raw.GreaterThan(coupon.MaxDiscount.Decimal) {
			raw = coupon.MaxDiscount.Decimal
		}
		return CouponDiscount{
			Kind:   DiscountKindAmount,
			Amount: models.NewMoneyFromDecimal(raw),
		}, nil

	case constants.CouponTypeFlat:
		amount := coupon.Value.Decimal
		// 固定金额本身就是绝对值，max_discount 仅在严格小于面值时才收紧
		if coupon.MaxDiscount.IsPositive() && coupon.MaxDiscount.LessThan(amount) {
			amount = coupon.MaxDiscount.Decimal
		}
		// 折扣不得超过小计，订单金额不能为负
		if amount.GreaterThan(order.Subtotal.Decimal) {
			amount = order.Subtotal.Decimal
		}
		return CouponDiscount{
			Kind:   DiscountKindAmount,
			Amount: models.NewMoneyFromDecimal(amount),
		}, nil

	case constants.CouponTypeB1G1:
		// 金额由结算方决定：挑出符合约束的最低价商品免单
		constraint := ""
		if coupon.EffectiveScope() == constants.CouponScopeCollection {
			constraint = coupon.CollectionSlug
		}
		return CouponDiscount{
			Kind:                 DiscountKindFreeItem,
			CollectionConstraint: constraint,
		}, nil

	default:
		return CouponDiscount{}, fmt.Errorf("%w: unknown type %s", ErrCouponInvalid, coupon.Type)
	}
}

// validateCouponRecord 防御性校验，拦截畸形数据而不是算出错误折扣
func validateCouponRecord(coupon *models.Coupon) error {
	if coupon == nil {
		return ErrCouponInvalid
	}
	if coupon.Value.IsNegative() {
		return fmt.Errorf("%w: negative value", ErrCouponInvalid)
	}
	if coupon.Type == constants.CouponTypePercent && coupon.Value.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percent value above 100", ErrCouponInvalid)
	}
	if coupon.EffectiveScope() == constants.CouponScopeCollection && strings.TrimSpace(coupon.CollectionSlug) == "" {
		return fmt.Errorf("%w: collection scope without collection slug", ErrCouponInvalid)
	}
	return nil
}

// FormatCouponValue 渲染折扣面值（管理端列表展示）
func FormatCouponValue(coupon *models.Coupon) string {
	if coupon == nil {
		return ""
	}
	switch coupon.Type {
	case constants.CouponTypePercent:
		return coupon.Value.Decimal.Truncate(2).String() + "%"
	case constants.CouponTypeFlat:
		return constants.CurrencySymbol + coupon.Value.String()
	case constants.CouponTypeB1G1:
		return "Buy 1 Get 1"
	default:
		return coupon.Value.String()
	}
}

// FormatCouponUsage 渲染使用进度，无总上限显示为 N/∞
func FormatCouponUsage(coupon *models.Coupon) string {
	if coupon == nil {
		return ""
	}
	if coupon.UsageLimit <= 0 {
		return fmt.Sprintf("%d/∞", coupon.UsedCount)
	}
	return fmt.Sprintf("%d/%d", coupon.UsedCount, coupon.UsageLimit)
}
