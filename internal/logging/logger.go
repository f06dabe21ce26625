// Package logging 提供基于 zerolog 的全局结构化日志。
//
// 启动时调用 Init 设置级别与输出格式，业务代码通过 Logger() 或 Ctx(ctx)
// 获取日志实例；一次草稿生成任务的 run_id 会随 context 传递到每一行日志。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config 描述日志初始化参数。
type Config struct {
	// Level 可选 debug、info、warn、error，默认 info。
	Level string
	// Format 可选 json 或 console，默认 console。
	Format string
	// Output 默认 os.Stderr。
	Output io.Writer
}

type contextKey string

const runIDKey contextKey = "run_id"

var (
	mu     sync.RWMutex
	logger = newLogger(Config{})
)

// Init 按配置替换全局日志实例。
func Init(cfg Config) {
	l := newLogger(cfg)
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger 返回当前的全局日志实例。
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// Ctx 返回附带 context 中 run_id 的日志实例。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		child := l.With().Str("run_id", id).Logger()
		return &child
	}
	return l
}

// ContextWithNewRunID 为一次任务生成短 run_id 并写入 context。
func ContextWithNewRunID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()[:8]
	return context.WithValue(ctx, runIDKey, id), id
}

// RunIDFromContext 读取 context 中的 run_id，不存在时返回空字符串。
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
