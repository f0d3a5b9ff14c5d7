package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aura-harvest/aura-admin/internal/config"
	"github.com/aura-harvest/aura-admin/internal/constants"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/queue"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Coupon{},
		&models.CouponUsage{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Order.PaymentExpireMinutes = 15
	couponSvc := NewCouponService(repository.NewCouponRepository(db), repository.NewCouponUsageRepository(db))
	queueClient, err := queue.NewClient(nil) // 测试里队列关闭，入队为 no-op
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	svc := NewOrderService(db, cfg, repository.NewOrderRepository(db), repository.NewProductRepository(db), couponSvc, queueClient)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, sku, collectionSlug string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:           "Product " + sku,
		SKU:            sku,
		CollectionSlug: collectionSlug,
		Price:          money(price),
		Stock:          stock,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p1 := seedProduct(t, db, "ORD-A", "car-accessories", 100, 10)
	p2 := seedProduct(t, db, "ORD-B", "", 50, 10)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Email:  "Buyer@Example.com",
		Items: []OrderItemInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Subtotal.String() != "250.00" {
		t.Fatalf("subtotal want 250.00 got %s", order.Subtotal.String())
	}
	if order.TotalAmount.String() != "250.00" {
		t.Fatalf("total want 250.00 got %s", order.TotalAmount.String())
	}
	if order.Currency != constants.CurrencyCode {
		t.Fatalf("currency want %s got %s", constants.CurrencyCode, order.Currency)
	}
	if order.Email != "buyer@example.com" {
		t.Fatalf("email must be lowercased, got %s", order.Email)
	}
	if !strings.HasPrefix(order.OrderNo, "AUR") {
		t.Fatalf("order_no want AUR prefix got %s", order.OrderNo)
	}
	if order.ExpiresAt == nil {
		t.Fatalf("expires_at must be set for pending payment")
	}

	var got models.Product
	if err := db.First(&got, p1.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if got.Stock != 8 {
		t.Fatalf("stock want 8 got %d", got.Stock)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-LOW", "", 100, 1)

	_, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	if !errors.Is(err, ErrProductStockInsufficient) {
		t.Fatalf("want ErrProductStockInsufficient got %v", err)
	}
}

func TestCreateOrderWithPercentCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-PCT", "", 500, 10)
	if err := db.Create(&models.Coupon{
		Code:        "TEN-OFF",
		Type:        constants.CouponTypePercent,
		Value:       money(10),
		Scope:       constants.CouponScopeAll,
		MaxDiscount: money(40),
		IsActive:    true,
		UsageLimit:  1,
	}).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{
		UserID:     1,
		Items:      []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		CouponCode: "ten-off",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	// 10% of 500 = 50，封顶 40
	if order.DiscountAmount.String() != "40.00" {
		t.Fatalf("discount want 40.00 got %s", order.DiscountAmount.String())
	}
	if order.TotalAmount.String() != "460.00" {
		t.Fatalf("total want 460.00 got %s", order.TotalAmount.String())
	}
	if order.CouponCode != "TEN-OFF" {
		t.Fatalf("coupon code snapshot want TEN-OFF got %s", order.CouponCode)
	}

	var coupon models.Coupon
	if err := db.Where("code = ?", "TEN-OFF").First(&coupon).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if coupon.UsedCount != 1 {
		t.Fatalf("used_count want 1 got %d", coupon.UsedCount)
	}

	// 总额度已耗尽，第二单应被拒绝
	_, err = svc.Create(CreateOrderInput{
		UserID:     2,
		Items:      []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		CouponCode: "TEN-OFF",
	})
	if !errors.Is(err, ErrCouponNotEligible) {
		t.Fatalf("exhausted coupon want ErrCouponNotEligible got %v", err)
	}
}

func TestCreateOrderB1G1ZeroRatesLowestEligibleUnit(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	cheap := seedProduct(t, db, "B1G1-CHEAP", "car-accessories", 80, 10)
	pricey := seedProduct(t, db, "B1G1-PRICEY", "car-accessories", 200, 10)
	outside := seedProduct(t, db, "B1G1-OUTSIDE", "kitchen", 10, 10)
	if err := db.Create(&models.Coupon{
		Code:           "CAR-B1G1",
		Type:           constants.CouponTypeB1G1,
		Scope:          constants.CouponScopeCollection,
		CollectionSlug: "car-accessories",
		IsActive:       true,
	}).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items: []OrderItemInput{
			{ProductID: pricey.ID, Quantity: 1},
			{ProductID: cheap.ID, Quantity: 2},
			{ProductID: outside.ID, Quantity: 1}, // 集合外更便宜的商品不能被免单
		},
		CouponCode: "CAR-B1G1",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.DiscountAmount.String() != "80.00" {
		t.Fatalf("discount want lowest eligible unit 80.00 got %s", order.DiscountAmount.String())
	}

	var freeItems []models.OrderItem
	if err := db.Where("order_id = ? AND is_free_item = ?", order.ID, true).Find(&freeItems).Error; err != nil {
		t.Fatalf("load free items failed: %v", err)
	}
	if len(freeItems) != 1 || freeItems[0].ProductID != cheap.ID {
		t.Fatalf("lowest eligible item must be zero-rated, got %+v", freeItems)
	}
}

func TestCreateOrderIneligibleCouponRejected(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-SCOPE", "kitchen", 100, 10)
	if err := db.Create(&models.Coupon{
		Code:           "CAR-ONLY",
		Type:           constants.CouponTypeFlat,
		Value:          money(50),
		Scope:          constants.CouponScopeCollection,
		CollectionSlug: "car-accessories",
		IsActive:       true,
	}).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	_, err := svc.Create(CreateOrderInput{
		UserID:     1,
		Items:      []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
		CouponCode: "CAR-ONLY",
	})
	if !errors.Is(err, ErrCouponNotEligible) {
		t.Fatalf("want ErrCouponNotEligible got %v", err)
	}
	if !strings.Contains(err.Error(), IneligibleScopeMismatch) {
		t.Fatalf("error should carry reason, got %v", err)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-FLOW", "", 100, 10)
	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// created 不能直接 shipped
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("created->shipped want ErrOrderStatusInvalid got %v", err)
	}

	paid, err := svc.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusConfirmed || paid.PaymentStatus != constants.PaymentStatusSuccess {
		t.Fatalf("paid order want confirmed/success got %s/%s", paid.Status, paid.PaymentStatus)
	}
	if _, err := svc.MarkPaid(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("double pay want ErrOrderStatusInvalid got %v", err)
	}

	shipped, err := svc.UpdateStatus(order.ID, constants.OrderStatusShipped)
	if err != nil {
		t.Fatalf("confirm->ship failed: %v", err)
	}
	delivered, err := svc.UpdateStatus(shipped.ID, constants.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("ship->deliver failed: %v", err)
	}
	if _, err := svc.Cancel(delivered.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("delivered order must not cancel, got %v", err)
	}
}

func TestCancelRestoresStockAndCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-CANCEL", "", 100, 5)
	if err := db.Create(&models.Coupon{
		Code:       "CANCEL-ME",
		Type:       constants.CouponTypeFlat,
		Value:      money(30),
		Scope:      constants.CouponScopeAll,
		UsageLimit: 5,
		IsActive:   true,
	}).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	order, err := svc.Create(CreateOrderInput{
		UserID:     1,
		Items:      []OrderItemInput{{ProductID: p.ID, Quantity: 2}},
		CouponCode: "CANCEL-ME",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := svc.Cancel(order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CanceledAt == nil {
		t.Fatalf("cancel must set status and timestamp, got %+v", cancelled)
	}

	var product models.Product
	if err := db.First(&product, p.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.Stock != 5 {
		t.Fatalf("stock must be restored to 5, got %d", product.Stock)
	}
	var coupon models.Coupon
	if err := db.Where("code = ?", "CANCEL-ME").First(&coupon).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if coupon.UsedCount != 0 {
		t.Fatalf("coupon usage must be released, got used_count %d", coupon.UsedCount)
	}
}

func TestHandleTimeoutOnlyCancelsExpiredPending(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	p := seedProduct(t, db, "ORD-TIMEOUT", "", 100, 5)

	order, err := svc.Create(CreateOrderInput{
		UserID: 1,
		Items:  []OrderItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 未到期：什么都不做
	if err := svc.HandleTimeout(order.ID); err != nil {
		t.Fatalf("handle timeout failed: %v", err)
	}
	reloaded, err := svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCreated {
		t.Fatalf("unexpired order must stay created, got %s", reloaded.Status)
	}

	// 手动把过期时间拨到过去
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}
	if err := svc.HandleTimeout(order.ID); err != nil {
		t.Fatalf("handle timeout failed: %v", err)
	}
	reloaded, err = svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("expired order must cancel, got %s", reloaded.Status)
	}

	// 重复投递幂等
	if err := svc.HandleTimeout(order.ID); err != nil {
		t.Fatalf("repeated timeout must be a no-op, got %v", err)
	}
}
