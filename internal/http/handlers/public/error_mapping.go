package public

import (
	"errors"

	handlershared "github.com/aura-harvest/aura-admin/internal/http/handlers/shared"
	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, msg: "order items invalid"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrProductStockInsufficient, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponNotEligible, code: response.CodeBadRequest, msg: "coupon not eligible for this order"},
	{target: service.ErrCouponLimitReached, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon invalid"},
	{target: service.ErrCouponStateInvalid, code: response.CodeInternal, msg: "coupon state invalid"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
}
