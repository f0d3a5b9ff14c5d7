package public

import (
	"errors"

	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PreviewCouponRequest 优惠券预检请求
type PreviewCouponRequest struct {
	Code   string             `json:"code" binding:"required"`
	UserID uint               `json:"user_id"`
	Items  []OrderItemRequest `json:"items" binding:"required"`
}

// PreviewCoupon 结算前预检优惠券，不占用额度
func (h *Handler) PreviewCoupon(c *gin.Context) {
	var req PreviewCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	subtotal, items, err := h.buildCouponContext(req.Items)
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	preview, err := h.CouponService.Preview(req.Code, subtotal, items, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "coupon not found", nil)
			return
		}
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, preview)
}

// buildCouponContext 根据结算行构造引擎输入
func (h *Handler) buildCouponContext(items []OrderItemRequest) (models.Money, []service.CouponOrderItem, error) {
	if len(items) == 0 {
		return models.Money{}, nil, service.ErrOrderEmpty
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return models.Money{}, nil, service.ErrOrderEmpty
		}
		ids = append(ids, item.ProductID)
	}
	products, err := h.ProductRepo.ListByIDs(ids)
	if err != nil {
		return models.Money{}, nil, err
	}
	productByID := make(map[uint]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	engineItems := make([]service.CouponOrderItem, 0, len(items))
	for _, item := range items {
		product, ok := productByID[item.ProductID]
		if !ok || !product.IsActive {
			return models.Money{}, nil, service.ErrProductNotFound
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		engineItems = append(engineItems, service.CouponOrderItem{
			ProductID:      product.ID,
			CollectionSlug: product.CollectionSlug,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
		})
	}
	return models.NewMoneyFromDecimal(subtotal), engineItems, nil
}
