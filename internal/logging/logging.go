// Package logging 基于 log/slog 的结构化日志
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// RunIDKey 单个文档处理的运行 ID
	RunIDKey ContextKey = "run_id"
	// DocumentKey 正在处理的文档路径
	DocumentKey ContextKey = "document"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatText, os.Stderr)
}

// Level 日志级别
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format 日志输出格式
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseLevel 解析日志级别名称
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("未知的日志级别: %s", s)
	}
}

// ParseFormat 解析日志格式名称
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("未知的日志格式: %s", s)
	}
}

// InitLogger 初始化全局日志
func InitLogger(level Level, format Format, w io.Writer) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// GetLogger 返回全局日志实例
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithDocument 在上下文中记录文档与运行 ID
func WithDocument(ctx context.Context, document, runID string) context.Context {
	ctx = context.WithValue(ctx, DocumentKey, document)
	return context.WithValue(ctx, RunIDKey, runID)
}

// LoggerFromContext 返回附带上下文字段的日志实例
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if document, ok := ctx.Value(DocumentKey).(string); ok && document != "" {
		logger = logger.With("document", document)
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

// Debug 记录调试日志
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info 记录信息日志
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn 记录警告日志
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error 记录错误日志
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// DebugContext 带上下文字段的调试日志
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext 带上下文字段的信息日志
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext 带上下文字段的警告日志
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext 带上下文字段的错误日志
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// Stage 记录流水线阶段完成及耗时
func Stage(ctx context.Context, stage string, started time.Time, args ...any) {
	all := append([]any{"stage", stage, "duration_ms", time.Since(started).Milliseconds()}, args...)
	LoggerFromContext(ctx).Debug("stage_done", all...)
}
