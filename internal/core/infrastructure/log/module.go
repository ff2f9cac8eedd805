package log

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	logconfig "github.com/weisyn/albatross-rpc/internal/config/log"
)

// ModuleParams 定义日志模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *logconfig.Config `optional:"true"`
}

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    *Logger
	ZapLogger *zap.Logger
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 根据配置创建日志记录器，应用停止时刷新并关闭文件
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(params.Config)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("create logger: %w", err)
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return logger.Close()
		},
	})

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.Zap(),
	}, nil
}
