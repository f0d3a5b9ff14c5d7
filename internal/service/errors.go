package service

import "errors"

// 业务错误哨兵，handler 层据此映射响应码
var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponCodeExists   = errors.New("coupon code already exists")
	ErrCouponInvalid      = errors.New("coupon record invalid")
	ErrCouponStateInvalid = errors.New("coupon discount requested without eligibility check")
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
	ErrCouponNotEligible  = errors.New("coupon not eligible for this order")

	ErrCollectionNotFound   = errors.New("collection not found")
	ErrCollectionInvalid    = errors.New("collection record invalid")
	ErrCollectionSlugExists = errors.New("collection slug already exists")

	ErrProductNotFound          = errors.New("product not found")
	ErrProductInvalid           = errors.New("product record invalid")
	ErrProductSKUExists         = errors.New("product sku already exists")
	ErrProductStockInsufficient = errors.New("product stock insufficient")

	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderStatusInvalid       = errors.New("order status transition not allowed")
	ErrOrderEmpty               = errors.New("order has no items")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserInvalid     = errors.New("user record invalid")
	ErrUserEmailExists = errors.New("user email already exists")

	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooWeak    = errors.New("password does not meet policy")
	ErrTokenInvalid       = errors.New("token invalid or expired")
)
