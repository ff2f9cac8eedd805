package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
// 命令行工具默认只输出警告以上的日志到 stderr，数据输出走 stdout
const (
	defaultLogLevel  = "warn"
	defaultToConsole = true

	// 日志轮转，单位 MB / 个 / 天
	defaultMaxSize    = 20
	defaultMaxBackups = 5
	defaultMaxAge     = 14
	defaultCompress   = true

	defaultEnableCaller     = false
	defaultEnableStacktrace = true
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
