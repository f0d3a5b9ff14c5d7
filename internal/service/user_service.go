package service

import (
	"strings"

	"github.com/aura-harvest/aura-admin/internal/models"
	"github.com/aura-harvest/aura-admin/internal/repository"
)

// UserService 用户管理服务
type UserService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// UserInput 创建/更新用户输入
type UserInput struct {
	Email  string
	Name   string
	Phone  string
	Status string
}

// Create 创建用户（邮箱统一小写存储）
func (s *UserService) Create(input UserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrUserInvalid
	}

	exist, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrUserEmailExists
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "active"
	}
	user := &models.User{
		Email:  email,
		Name:   strings.TrimSpace(input.Name),
		Phone:  strings.TrimSpace(input.Phone),
		Status: status,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update 更新用户
func (s *UserService) Update(id uint, input UserInput) (*models.User, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != "" && email != existing.Email {
		dup, err := s.repo.GetByEmail(email)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrUserEmailExists
		}
		existing.Email = email
	}
	existing.Name = strings.TrimSpace(input.Name)
	existing.Phone = strings.TrimSpace(input.Phone)
	if status := strings.TrimSpace(input.Status); status != "" {
		existing.Status = status
	}

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete 删除用户（软删除）
func (s *UserService) Delete(id uint) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrUserNotFound
	}
	return s.repo.Delete(id)
}

// GetByID 获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List 获取用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.repo.List(filter)
}
