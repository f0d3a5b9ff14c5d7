package worker

import (
	"context"
	"encoding/json"

	"github.com/aura-harvest/aura-admin/internal/logger"
	"github.com/aura-harvest/aura-admin/internal/provider"
	"github.com/aura-harvest/aura-admin/internal/queue"
	"github.com/aura-harvest/aura-admin/internal/repository"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskLowStockScan, c.handleLowStockScan)
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	// 已支付、已取消或尚未到期的单在服务内静默跳过，任务可安全重试
	if err := c.OrderService.HandleTimeout(payload.OrderID); err != nil {
		logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleLowStockScan(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_low_stock_scan_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.ProductRepo == nil {
		logger.Warnw("worker_low_stock_scan_skip_product_repo_nil")
		return nil
	}
	products, total, err := c.ProductRepo.List(repository.ProductListFilter{
		OnlyActive:   true,
		OnlyLowStock: true,
		PageSize:     200,
	})
	if err != nil {
		logger.Warnw("worker_low_stock_scan_failed", "error", err)
		return err
	}
	for _, product := range products {
		logger.Warnw("worker_low_stock_product",
			"product_id", product.ID,
			"sku", product.SKU,
			"stock", product.Stock,
			"min_stock_level", product.MinStockLevel,
		)
	}
	logger.Infow("worker_low_stock_scan_done", "low_stock_total", total)
	return nil
}
