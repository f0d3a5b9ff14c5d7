package repository

import "time"

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Search   string // 按优惠码或描述模糊匹配
	Type     string
	Scope    string
	IsActive *bool
}

// CouponUsageListFilter 查询优惠券使用记录列表的过滤条件
type CouponUsageListFilter struct {
	Page     int
	PageSize int
	CouponID uint
	UserID   uint
}

// CollectionListFilter 查询集合列表的过滤条件
type CollectionListFilter struct {
	Page     int
	PageSize int
	Search   string
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page           int
	PageSize       int
	Search         string // 按名称、品牌或 SKU 模糊匹配
	CollectionSlug string
	OnlyActive     bool
	OnlyLowStock   bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	Email         string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string // 按邮箱或姓名模糊匹配
	Status   string
}
