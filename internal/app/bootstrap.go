package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"time"

	"github.com/aura-harvest/aura-admin/internal/provider"
	"github.com/aura-harvest/aura-admin/internal/router"
	"github.com/aura-harvest/aura-admin/internal/worker"
)

// BuildRunner 按运行模式装配服务列表
func BuildRunner(opts Options) (*Runner, error) {
	opts = normalizeOptions(opts)
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	container := provider.NewContainer(cfg)
	services := make([]Service, 0, 2)

	if opts.Mode == ModeAll || opts.Mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}
		services = append(services, NewHTTPService("http", server))
	}

	if opts.Mode == ModeAll || opts.Mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerSvc, err := worker.NewService(&cfg.Queue, consumer)
		switch {
		case err != nil && opts.Mode == ModeWorker:
			return nil, err
		case err != nil:
			opts.Logger.Warnw("后台任务服务未启用", "error", err)
		default:
			services = append(services, workerSvc)
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no services for mode %q", opts.Mode)
	}

	return NewRunner(opts.Logger, opts.ShutdownTimeout, services...), nil
}

// Run 构建并阻塞运行，直至出错或收到退出信号
func Run(opts Options) error {
	opts = normalizeOptions(opts)

	runner, err := BuildRunner(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), opts.Signals...)
	defer stop()

	return runner.Run(ctx)
}
