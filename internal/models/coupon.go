package models

import (
	"time"

	"github.com/aura-harvest/aura-admin/internal/constants"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`                          // 优惠码（统一大写存储）
	Description    string         `gorm:"type:varchar(500)" json:"description"`                      // 描述文案
	Type           string         `gorm:"not null" json:"type"`                                      // 类型（PERCENT/FLAT/B1G1）
	Value          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`        // 数值（百分比或固定金额，B1G1 不使用）
	Scope          string         `gorm:"not null;default:'ALL'" json:"scope"`                       // 适用范围（ALL/COLLECTION）
	CollectionSlug string         `gorm:"index" json:"collection_slug"`                              // 限定集合 slug（scope=COLLECTION 时有效）
	MinOrder       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order"`    // 使用门槛（0 表示不限制）
	MaxDiscount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"` // 最大优惠金额（0 表示不封顶）
	UsageLimit     int            `gorm:"not null;default:0" json:"usage_limit"`                     // 总使用上限（0 表示不限制）
	UsedCount      int            `gorm:"not null;default:0" json:"used_count"`                      // 已使用次数
	PerUserLimit   int            `gorm:"not null;default:0" json:"per_user_limit"`                  // 每人使用上限（0 表示不限制）
	StartsAt       *time.Time     `gorm:"index" json:"starts_at"`                                    // 生效时间（空表示立即生效）
	EndsAt         *time.Time     `gorm:"index" json:"ends_at"`                                      // 失效时间（空表示永久有效）
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// EffectiveScope 返回规范化后的适用范围（历史数据 scope 为空视作 ALL）
func (c Coupon) EffectiveScope() string {
	if c.Scope == "" {
		return constants.CouponScopeAll
	}
	return c.Scope
}
