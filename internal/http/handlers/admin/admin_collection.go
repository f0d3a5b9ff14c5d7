package admin

import (
	"errors"
	"strconv"

	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/repository"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// CollectionRequest 创建/更新集合请求
type CollectionRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SortOrder   int    `json:"sort_order"`
}

func (r CollectionRequest) toInput() service.CollectionInput {
	return service.CollectionInput{
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		SortOrder:   r.SortOrder,
	}
}

// CreateCollection 创建集合
func (h *Handler) CreateCollection(c *gin.Context) {
	var req CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	collection, err := h.CollectionService.Create(req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollectionSlugExists):
			respondError(c, response.CodeConflict, "collection slug already exists", nil)
		case errors.Is(err, service.ErrCollectionInvalid):
			respondError(c, response.CodeBadRequest, "collection invalid", nil)
		default:
			respondError(c, response.CodeInternal, "collection create failed", err)
		}
		return
	}

	response.Success(c, collection)
}

// UpdateCollection 更新集合（slug 不可变）
func (h *Handler) UpdateCollection(c *gin.Context) {
	collectionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || collectionID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	collection, err := h.CollectionService.Update(uint(collectionID), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollectionNotFound):
			respondError(c, response.CodeNotFound, "collection not found", nil)
		case errors.Is(err, service.ErrCollectionInvalid):
			respondError(c, response.CodeBadRequest, "collection invalid", nil)
		default:
			respondError(c, response.CodeInternal, "collection update failed", err)
		}
		return
	}

	response.Success(c, collection)
}

// DeleteCollection 删除集合（软删除）
func (h *Handler) DeleteCollection(c *gin.Context) {
	collectionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || collectionID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CollectionService.Delete(uint(collectionID)); err != nil {
		if errors.Is(err, service.ErrCollectionNotFound) {
			respondError(c, response.CodeNotFound, "collection not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "collection delete failed", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminCollections 获取集合列表
func (h *Handler) GetAdminCollections(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	collections, total, err := h.CollectionService.List(repository.CollectionListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("q"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "collection fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, collections, pagination)
}
