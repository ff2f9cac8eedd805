// Package log builds the zap logger used by the command line tools, with optional lumberjack file rotation.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/weisyn/albatross-rpc/internal/config/log"
)

// Logger zap 日志记录器及其持有的文件句柄
type Logger struct {
	zapLogger *zap.Logger
	closers   []io.Closer
}

// New 根据配置创建日志记录器，控制台输出写到 stderr
func New(config *logconfig.Config) (*Logger, error) {
	return newLogger(config, zapcore.Lock(os.Stderr))
}

func newLogger(config *logconfig.Config, console zapcore.WriteSyncer) (*Logger, error) {
	if config == nil {
		config = logconfig.New(nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(config.GetZapLevel())
	l := &Logger{}

	var cores []zapcore.Core
	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), console, level))
	}
	if path := config.GetFilePath(); path != "" {
		writer, closer, err := createFileWriter(path, config.GetOptions())
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, closer)
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), writer, level))
	}

	var zapOptions []zap.Option
	if config.GetOptions().EnableCaller {
		zapOptions = append(zapOptions, zap.AddCaller())
	}
	if config.GetOptions().EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l.zapLogger = zap.New(zapcore.NewTee(cores...), zapOptions...)
	return l, nil
}

// createFileWriter 创建带轮转的文件输出
func createFileWriter(logPath string, opts *logconfig.LogOptions) (zapcore.WriteSyncer, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
	return zapcore.AddSync(rotator), rotator, nil
}

// Zap 底层 zap.Logger
func (l *Logger) Zap() *zap.Logger {
	return l.zapLogger
}

// Sync 刷新缓冲
// stderr 不支持 fsync 时的错误被忽略
func (l *Logger) Sync() error {
	err := l.zapLogger.Sync()
	if err != nil && (errors.Is(err, os.ErrInvalid) || isUnsupportedSync(err)) {
		return nil
	}
	return err
}

// Close 刷新并关闭日志文件
func (l *Logger) Close() error {
	errs := []error{l.Sync()}
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
