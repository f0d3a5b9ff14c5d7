package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code           string  `json:"code" binding:"required"`
	Description    string  `json:"description"`
	Type           string  `json:"type" binding:"required"`
	Value          float64 `json:"value"`
	Scope          string  `json:"scope"`
	CollectionSlug string  `json:"collection_slug"`
	MinOrder       float64 `json:"min_order"`
	MaxDiscount    float64 `json:"max_discount"`
	UsageLimit     int     `json:"usage_limit"`
	PerUserLimit   int     `json:"per_user_limit"`
	StartsAt       string  `json:"starts_at"`
	EndsAt         string  `json:"ends_at"`
	IsActive       *bool   `json:"is_active"`
}

// CouponView 优惠券视图，附带派生状态
type CouponView struct {
	*models.Coupon
	IsCurrentlyActive bool   `json:"is_currently_active"`
	ValueDisplay      string `json:"value_display"`
	UsageDisplay      string `json:"usage_display"`
}

func newCouponView(coupon *models.Coupon, now time.Time) CouponView {
	return CouponView{
		Coupon:            coupon,
		IsCurrentlyActive: service.IsCouponCurrentlyActive(coupon, now),
		ValueDisplay:      service.FormatCouponValue(coupon),
		UsageDisplay:      service.FormatCouponUsage(coupon),
	}
}

func (r CouponRequest) toInput() (service.CouponInput, error) {
	startsAt, err := parseTimeNullable(r.StartsAt)
	if err != nil {
		return service.CouponInput{}, err
	}
	endsAt, err := parseTimeNullable(r.EndsAt)
	if err != nil {
		return service.CouponInput{}, err
	}
	return service.CouponInput{
		Code:           r.Code,
		Description:    r.Description,
		Type:           r.Type,
		Value:          models.NewMoneyFromDecimal(decimal.NewFromFloat(r.Value)),
		Scope:          r.Scope,
		CollectionSlug: r.CollectionSlug,
		MinOrder:       models.NewMoneyFromDecimal(decimal.NewFromFloat(r.MinOrder)),
		MaxDiscount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(r.MaxDiscount)),
		UsageLimit:     r.UsageLimit,
		PerUserLimit:   r.PerUserLimit,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		IsActive:       r.IsActive,
	}, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "coupon code already exists", nil)
		case errors.Is(err, service.ErrCollectionNotFound):
			respondError(c, response.CodeBadRequest, "collection not found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		default:
			respondError(c, response.CodeInternal, "coupon create failed", err)
		}
		return
	}

	response.Success(c, newCouponView(coupon, time.Now()))
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(uint(couponID), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "coupon code already exists", nil)
		case errors.Is(err, service.ErrCollectionNotFound):
			respondError(c, response.CodeBadRequest, "collection not found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		default:
			respondError(c, response.CodeInternal, "coupon update failed", err)
		}
		return
	}

	response.Success(c, newCouponView(coupon, time.Now()))
}

// DeleteCoupon 删除优惠券（软删除，优先用停用）
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CouponAdminService.Delete(uint(couponID)); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminCoupon 获取优惠券详情
func (h *Handler) GetAdminCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CouponAdminService.GetByID(uint(couponID))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "coupon not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "coupon fetch failed", err)
		return
	}
	response.Success(c, newCouponView(coupon, time.Now()))
}

// GetAdminCoupons 获取优惠券列表
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		isActive = &parsed
	}

	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("q"),
		Type:     c.Query("type"),
		Scope:    c.Query("scope"),
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "coupon fetch failed", err)
		return
	}

	now := time.Now()
	views := make([]CouponView, 0, len(coupons))
	for i := range coupons {
		views = append(views, newCouponView(&coupons[i], now))
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, views, pagination)
}

// GetAdminCouponUsages 获取优惠券核销记录
func (h *Handler) GetAdminCouponUsages(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	usages, total, err := h.CouponUsageRepo.List(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: uint(couponID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "coupon usage fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// 仅有日期的时间窗口按零点解析，有效期在引擎里扩展到当天结束
		parsed, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
	}
	return &parsed, nil
}
