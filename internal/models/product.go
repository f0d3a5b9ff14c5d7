package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	Name           string         `gorm:"not null;index" json:"name"`                          // 商品名称
	Brand          string         `gorm:"index" json:"brand"`                                  // 品牌
	SKU            string         `gorm:"uniqueIndex;not null" json:"sku"`                     // 商品编码
	CollectionSlug string         `gorm:"index" json:"collection_slug"`                        // 所属集合 slug
	Price          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 售价
	Stock          int            `gorm:"not null;default:0" json:"stock"`                     // 库存数量
	MinStockLevel  int            `gorm:"not null;default:0" json:"min_stock_level"`           // 低库存预警阈值
	Description    string         `gorm:"type:text" json:"description"`                        // 商品描述
	Benefits       StringArray    `gorm:"type:json" json:"benefits"`                           // 卖点列表
	Details        StringArray    `gorm:"type:json" json:"details"`                            // 详情要点
	Images         StringArray    `gorm:"type:json" json:"images"`                             // 图片数组
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`                 // 是否上架
	SortOrder      int            `gorm:"default:0;index" json:"sort_order"`                   // 排序权重
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                          // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	// 关联
	Collection *Collection `gorm:"foreignKey:CollectionSlug;references:Slug" json:"collection,omitempty"` // 集合信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// IsLowStock 是否触发低库存预警
func (p Product) IsLowStock() bool {
	return p.MinStockLevel > 0 && p.Stock <= p.MinStockLevel
}
