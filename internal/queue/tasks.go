package queue

import (
	"encoding/json"

	"github.com/aura-harvest/aura-admin/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskLowStockScan 低库存巡检任务
	TaskLowStockScan = constants.TaskLowStockScan
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// LowStockScanPayload 低库存巡检任务载荷（无参数，保留结构便于扩展）
type LowStockScanPayload struct{}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewLowStockScanTask 创建低库存巡检任务
func NewLowStockScanTask() (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body), nil
}
