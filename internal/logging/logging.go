// Package logging 构建 zap 日志记录器
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 语言服务器的日志开关与日志文件
const (
	EnvDebug   = "PCODE_LSP_DEBUG"
	EnvLogFile = "PCODE_LSP_LOG"
)

// New 按级别构建日志记录器；file 为空时写到 stderr
//
// 控制台格式，时间为 "2006-01-02 15:04:05"。
func New(level, file string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Development = false
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = []string{file}
	}
	return cfg.Build()
}

// FromEnv 语言服务器使用的日志记录器
//
// PCODE_LSP_DEBUG 为 1/true/on 时输出 Debug 级别；PCODE_LSP_LOG 指定日志文件。
// 未指定文件时返回 Nop，stdout 留给协议消息。
func FromEnv(level, file string) (*zap.Logger, error) {
	if env := os.Getenv(EnvLogFile); env != "" {
		file = env
	}
	if file == "" {
		return zap.NewNop(), nil
	}
	if Enabled(os.Getenv(EnvDebug)) {
		level = "debug"
	}
	return New(level, file)
}

// Enabled 解析开关型环境变量
func Enabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
