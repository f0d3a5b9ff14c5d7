package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可被统一编排的运行单元
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 负责启动一组服务并在退出信号到来时优雅关闭
type Runner struct {
	services        []Service
	logger          *zap.SugaredLogger
	shutdownTimeout time.Duration
}

func NewRunner(logger *zap.SugaredLogger, shutdownTimeout time.Duration, services ...Service) *Runner {
	return &Runner{
		services:        services,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// RunWithOptions 按选项构建 Runner 并阻塞运行
func RunWithOptions(opts Options, services ...Service) error {
	opts = normalizeOptions(opts)

	ctx, stop := signal.NotifyContext(context.Background(), opts.Signals...)
	defer stop()

	runner := NewRunner(opts.Logger, opts.ShutdownTimeout, services...)
	return runner.Run(ctx)
}

// Run 启动所有服务，任一服务出错或收到退出信号后统一停止
func (r *Runner) Run(ctx context.Context) error {
	if len(r.services) == 0 {
		return errors.New("no services to run")
	}

	errCh := make(chan error, len(r.services))
	for _, svc := range r.services {
		svc := svc
		go func() {
			r.logger.Infow("服务启动", "service", svc.Name())
			if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", svc.Name(), err)
				return
			}
			errCh <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = err
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	for _, svc := range r.services {
		if err := svc.Stop(stopCtx); err != nil {
			r.logger.Errorw("服务停止失败", "service", svc.Name(), "error", err)
			if runErr == nil {
				runErr = err
			}
			continue
		}
		r.logger.Infow("服务已停止", "service", svc.Name())
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
