package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/aura-harvest/aura-admin/internal/config"
	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/logger"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/queue"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedOrderTransitions 订单状态机。
// created -> confirmed -> shipped -> delivered；created/confirmed 可取消。
var allowedOrderTransitions = map[string][]string{
	constants.OrderStatusCreated:   {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:   {constants.OrderStatusDelivered},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCancelled: {},
}

// canTransition 判断状态迁移是否允许
func canTransition(from, to string) bool {
	for _, next := range allowedOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService 订单服务
type OrderService struct {
	db          *gorm.DB
	cfg         *config.Config
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponSvc   *CouponService
	queueClient *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponSvc *CouponService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		db:          db,
		cfg:         cfg,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponSvc:   couponSvc,
		queueClient: queueClient,
	}
}

// OrderItemInput 下单商品行
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	UserID     uint
	Email      string
	Items      []OrderItemInput
	CouponCode string
	ClientIP   string
}

// Create 创建订单：校验商品与库存、套用优惠券、在一个事务内落库。
// 库存扣减与优惠券占用都是条件更新，并发下超卖与超发会被数据库拒绝。
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderEmpty
	}
	for _, item := range input.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, ErrOrderEmpty
		}
	}

	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uint]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	engineItems := make([]CouponOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := productByID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotFound
		}
		if product.Stock < item.Quantity {
			return nil, ErrProductStockInsufficient
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			CollectionSlug: product.CollectionSlug,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
			TotalPrice:     models.NewMoneyFromDecimal(lineTotal),
		})
		engineItems = append(engineItems, CouponOrderItem{
			ProductID:      product.ID,
			CollectionSlug: product.CollectionSlug,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
		})
	}
	subtotalMoney := models.NewMoneyFromDecimal(subtotal)

	var coupon *models.Coupon
	discountMoney := models.NewMoneyFromDecimal(decimal.Zero)
	couponCode := strings.TrimSpace(input.CouponCode)
	if couponCode != "" {
		preview, err := s.couponSvc.Preview(couponCode, subtotalMoney, engineItems, input.UserID)
		if err != nil {
			return nil, err
		}
		if !preview.Eligibility.Eligible {
			return nil, fmt.Errorf("%w: %s", ErrCouponNotEligible, preview.Eligibility.Reason)
		}
		coupon = preview.Coupon
		discountMoney, err = s.resolveDiscount(preview.Discount, orderItems)
		if err != nil {
			return nil, err
		}
	}

	total := subtotal.Sub(discountMoney.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	expireMinutes := 15
	if s.cfg != nil && s.cfg.Order.PaymentExpireMinutes > 0 {
		expireMinutes = s.cfg.Order.PaymentExpireMinutes
	}
	expiresAt := time.Now().Add(time.Duration(expireMinutes) * time.Minute)

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Status:         constants.OrderStatusCreated,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       constants.CurrencyCode,
		Subtotal:       subtotalMoney,
		DiscountAmount: discountMoney,
		TotalAmount:    models.NewMoneyFromDecimal(total),
		ClientIP:       input.ClientIP,
		ExpiresAt:      &expiresAt,
		Items:          orderItems,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
		order.CouponCode = coupon.Code
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range input.Items {
			ok, err := s.productRepo.WithTx(tx).DecrementStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrProductStockInsufficient
			}
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		if coupon != nil {
			if err := s.couponSvc.Redeem(tx, coupon, input.UserID, order.ID, discountMoney); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if enqueueErr := s.queueClient.EnqueueOrderTimeoutCancel(
		queue.OrderTimeoutCancelPayload{OrderID: order.ID},
		time.Until(expiresAt),
	); enqueueErr != nil {
		// 队列不可用时靠兜底扫描取消，不阻塞下单
		logger.Warnw("order_timeout_enqueue_failed", "order_id", order.ID, "error", enqueueErr)
	}

	return order, nil
}

// resolveDiscount 把引擎结果落成订单级折扣金额。
// 免单指令在这里落地：挑出符合集合约束的最低价单件，按其单价免除。
func (s *OrderService) resolveDiscount(discount *CouponDiscount, items []models.OrderItem) (models.Money, error) {
	if discount == nil {
		return models.NewMoneyFromDecimal(decimal.Zero), nil
	}
	switch discount.Kind {
	case DiscountKindAmount:
		return discount.Amount, nil
	case DiscountKindFreeItem:
		chosen := -1
		for i, item := range items {
			if discount.CollectionConstraint != "" && item.CollectionSlug != discount.CollectionConstraint {
				continue
			}
			if chosen < 0 || item.UnitPrice.LessThan(items[chosen].UnitPrice.Decimal) {
				chosen = i
			}
		}
		if chosen < 0 {
			// 引擎已确认范围匹配，走到这里说明数据不一致
			return models.Money{}, ErrCouponStateInvalid
		}
		items[chosen].IsFreeItem = true
		items[chosen].CouponDiscount = items[chosen].UnitPrice
		return items[chosen].UnitPrice, nil
	default:
		return models.Money{}, fmt.Errorf("%w: unknown discount kind %s", ErrCouponInvalid, discount.Kind)
	}
}

// MarkPaid 标记支付成功并确认订单
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCreated || order.PaymentStatus != constants.PaymentStatusPending {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	err = s.orderRepo.Updates(order.ID, map[string]interface{}{
		"status":         constants.OrderStatusConfirmed,
		"payment_status": constants.PaymentStatusSuccess,
		"paid_at":        now,
	})
	if err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusConfirmed
	order.PaymentStatus = constants.PaymentStatusSuccess
	order.PaidAt = &now
	return order, nil
}

// UpdateStatus 管理端推进订单状态（取消走 Cancel，含库存与优惠券回滚）
func (s *OrderService) UpdateStatus(orderID uint, next string) (*models.Order, error) {
	next = strings.ToLower(strings.TrimSpace(next))
	if next == constants.OrderStatusCancelled {
		return s.Cancel(orderID)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canTransition(order.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrOrderStatusInvalid, order.Status, next)
	}

	if err := s.orderRepo.Updates(order.ID, map[string]interface{}{"status": next}); err != nil {
		return nil, err
	}
	order.Status = next
	return order, nil
}

// Cancel 取消订单：回补库存、释放优惠券额度、记录取消时间
func (s *OrderService) Cancel(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canTransition(order.Status, constants.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrOrderStatusInvalid, order.Status, constants.OrderStatusCancelled)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := s.productRepo.WithTx(tx).IncrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if order.CouponID != nil {
			if err := s.couponSvc.Release(tx, *order.CouponID, order.ID); err != nil {
				return err
			}
		}
		return s.orderRepo.WithTx(tx).Updates(order.ID, map[string]interface{}{
			"status":      constants.OrderStatusCancelled,
			"canceled_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = constants.OrderStatusCancelled
	order.CanceledAt = &now
	return order, nil
}

// HandleTimeout 处理超时取消任务。订单已支付或已取消时静默跳过，任务可安全重试。
func (s *OrderService) HandleTimeout(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusCreated || order.PaymentStatus != constants.PaymentStatusPending {
		return nil
	}
	if order.ExpiresAt == nil || time.Now().Before(*order.ExpiresAt) {
		return nil
	}

	if _, err := s.Cancel(order.ID); err != nil {
		return err
	}
	logger.Infow("order_timeout_cancelled", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// CancelExpired 兜底扫描：取消全部已过期未支付订单，返回处理数量
func (s *OrderService) CancelExpired(limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredUnpaid(time.Now(), limit)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range orders {
		if err := s.HandleTimeout(order.ID); err != nil {
			logger.Warnw("order_expired_cancel_failed", "order_id", order.ID, "error", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// GetByID 获取订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNo 按订单编号获取订单
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 获取订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// generateOrderNo 生成订单编号：时间前缀 + UUID 片段
func generateOrderNo() string {
	return fmt.Sprintf("AUR%s%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)
}
