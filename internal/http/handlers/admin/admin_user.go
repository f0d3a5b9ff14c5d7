package admin

import (
	"errors"
	"strconv"

	"github.com/aura-harvest/aura-admin/internal/http/response"
	"github.com/aura-harvest/aura-admin/internal/repository"
	"github.com/aura-harvest/aura-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRequest 创建/更新用户请求
type UserRequest struct {
	Email  string `json:"email" binding:"required"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

func (r UserRequest) toInput() service.UserInput {
	return service.UserInput{
		Email:  r.Email,
		Name:   r.Name,
		Phone:  r.Phone,
		Status: r.Status,
	}
}

// CreateUser 创建用户
func (h *Handler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.UserService.Create(req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserEmailExists):
			respondError(c, response.CodeConflict, "email already exists", nil)
		case errors.Is(err, service.ErrUserInvalid):
			respondError(c, response.CodeBadRequest, "user invalid", nil)
		default:
			respondError(c, response.CodeInternal, "user create failed", err)
		}
		return
	}

	response.Success(c, user)
}

// UpdateUser 更新用户
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.UserService.Update(uint(userID), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		case errors.Is(err, service.ErrUserEmailExists):
			respondError(c, response.CodeConflict, "email already exists", nil)
		case errors.Is(err, service.ErrUserInvalid):
			respondError(c, response.CodeBadRequest, "user invalid", nil)
		default:
			respondError(c, response.CodeInternal, "user update failed", err)
		}
		return
	}

	response.Success(c, user)
}

// DeleteUser 删除用户（软删除）
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserService.Delete(uint(userID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user delete failed", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserService.GetByID(uint(userID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	response.Success(c, user)
}

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("q"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}
