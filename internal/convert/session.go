// Package convert 把 xlsx 转换为 pdf
//
// 转换服务不支持并发：同一时刻只有一个会话、一次转换。
// 会话由调用方显式获取与释放，并以参数形式传给需要转换的代码。
package convert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable 转换服务无法启动
	ErrUnavailable = errors.New("convert: converter unavailable")
	// ErrSessionBusy 会话正在执行另一次转换
	ErrSessionBusy = errors.New("convert: session busy")
	// ErrSessionClosed 会话已释放
	ErrSessionClosed = errors.New("convert: session closed")
	// ErrEmptyOutput 转换结束但没有得到有效的 pdf
	ErrEmptyOutput = errors.New("convert: empty output")
)

// Converter 外部转换服务
type Converter interface {
	Start(ctx context.Context) error
	Convert(ctx context.Context, inPath, outPath string) error
	Stop() error
}

// noCopy 配合 go vet copylocks 检查
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Session 一次运行独占的转换会话
type Session struct {
	_ noCopy

	conv Converter
	log  *zap.Logger

	mu      sync.Mutex
	closed  atomic.Bool
	once    sync.Once
	stopErr error
}

// Acquire 启动转换服务并返回会话；启动失败时返回 ErrUnavailable
func Acquire(ctx context.Context, c Converter, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no converter configured", ErrUnavailable)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	log.Debug("转换会话已启动")
	return &Session{conv: c, log: log}, nil
}

// Convert 执行一次转换；并发调用返回 ErrSessionBusy
func (s *Session) Convert(ctx context.Context, inPath, outPath string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.mu.TryLock() {
		return ErrSessionBusy
	}
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conv.Convert(ctx, inPath, outPath)
}

// Release 停止转换服务；可重复调用，只生效一次
func (s *Session) Release() error {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed.Store(true)
		s.stopErr = s.conv.Stop()
		if s.stopErr != nil {
			s.log.Warn("转换服务停止失败", zap.Error(s.stopErr))
		} else {
			s.log.Debug("转换会话已释放")
		}
	})
	return s.stopErr
}
