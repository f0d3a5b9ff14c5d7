package constants

// 优惠券类型常量（与历史数据保持大写存储）
const (
	CouponTypePercent = "PERCENT"
	CouponTypeFlat    = "FLAT"
	CouponTypeB1G1    = "B1G1"
)

// 优惠券适用范围常量
const (
	CouponScopeAll        = "ALL"
	CouponScopeCollection = "COLLECTION"
)

// 订单状态常量
const (
	OrderStatusCreated   = "created"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 支付状态常量（由外部支付回调写入，仅做快照展示）
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// 币种常量
const (
	CurrencyCode   = "INR"
	CurrencySymbol = "₹"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskLowStockScan       = "inventory:low_stock_scan"
)
