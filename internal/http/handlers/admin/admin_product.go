package admin

import (
	"errors"
	"strconv"

	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	Name           string   `json:"name" binding:"required"`
	Brand          string   `json:"brand"`
	SKU            string   `json:"sku" binding:"required"`
	CollectionSlug string   `json:"collection_slug"`
	Price          float64  `json:"price"`
	Stock          int      `json:"stock"`
	MinStockLevel  int      `json:"min_stock_level"`
	Description    string   `json:"description"`
	Benefits       []string `json:"benefits"`
	Details        []string `json:"details"`
	Images         []string `json:"images"`
	IsActive       *bool    `json:"is_active"`
	SortOrder      int      `json:"sort_order"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:           r.Name,
		Brand:          r.Brand,
		SKU:            r.SKU,
		CollectionSlug: r.CollectionSlug,
		Price:          models.NewMoneyFromDecimal(decimal.NewFromFloat(r.Price)),
		Stock:          r.Stock,
		MinStockLevel:  r.MinStockLevel,
		Description:    r.Description,
		Benefits:       r.Benefits,
		Details:        r.Details,
		Images:         r.Images,
		IsActive:       r.IsActive,
		SortOrder:      r.SortOrder,
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductSKUExists):
			respondError(c, response.CodeConflict, "sku already exists", nil)
		case errors.Is(err, service.ErrCollectionNotFound):
			respondError(c, response.CodeBadRequest, "collection not found", nil)
		case errors.Is(err, service.ErrProductInvalid):
			respondError(c, response.CodeBadRequest, "product invalid", nil)
		default:
			respondError(c, response.CodeInternal, "product create failed", err)
		}
		return
	}

	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Update(uint(productID), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "product not found", nil)
		case errors.Is(err, service.ErrProductSKUExists):
			respondError(c, response.CodeConflict, "sku already exists", nil)
		case errors.Is(err, service.ErrCollectionNotFound):
			respondError(c, response.CodeBadRequest, "collection not found", nil)
		case errors.Is(err, service.ErrProductInvalid):
			respondError(c, response.CodeBadRequest, "product invalid", nil)
		default:
			respondError(c, response.CodeInternal, "product update failed", err)
		}
		return
	}

	response.Success(c, product)
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.ProductService.Delete(uint(productID)); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminProduct 获取商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.GetByID(uint(productID))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// GetAdminProducts 获取商品列表
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	onlyLowStock := false
	if raw := c.Query("low_stock"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		onlyLowStock = parsed
	}

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:           page,
		PageSize:       pageSize,
		Search:         c.Query("q"),
		CollectionSlug: c.Query("collection_slug"),
		OnlyLowStock:   onlyLowStock,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}
