package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/convert"
)

// RetryPolicy pdf 转换的重试策略
type RetryPolicy struct {
	Attempts int
	// PrepareBackoff 第 n 次尝试前等待 n 倍
	PrepareBackoff time.Duration
	// Settle 转换返回后读取结果前的等待
	Settle time.Duration
	// FailureBackoff 第 n 次失败后等待 n 倍（最后一次失败不等待）
	FailureBackoff time.Duration
}

// DefaultRetryPolicy 3 次尝试，0.5s·n / 1s / 2s·n
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       3,
		PrepareBackoff: 500 * time.Millisecond,
		Settle:         time.Second,
		FailureBackoff: 2 * time.Second,
	}
}

// convertWithRetry 返回 pdf 字节与实际尝试次数
func (o *Orchestrator) convertWithRetry(ctx context.Context, s *convert.Session, course string, xlsx []byte) ([]byte, int, error) {
	attempts := max(o.retry.Attempts, 1)
	var lastErr error
	for n := 1; n <= attempts; n++ {
		o.sleep(time.Duration(n) * o.retry.PrepareBackoff)

		pdf, err := o.convertOnce(ctx, s, xlsx)
		if err == nil {
			o.log.Debug("pdf 转换成功", zap.String("course", course), zap.Int("attempt", n), zap.Int("bytes", len(pdf)))
			return pdf, n, nil
		}
		lastErr = err
		o.log.Warn("pdf 转换失败",
			zap.String("course", course),
			zap.Int("attempt", n),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if n < attempts {
			o.sleep(time.Duration(n) * o.retry.FailureBackoff)
		}
	}
	return nil, attempts, lastErr
}

// convertOnce 一次尝试；临时目录在任何返回路径上都会被删除
func (o *Orchestrator) convertOnce(ctx context.Context, s *convert.Session, xlsx []byte) ([]byte, error) {
	dir, err := os.MkdirTemp(o.tempDir, "capacitacion-pdf-")
	if err != nil {
		return nil, fmt.Errorf("crear directorio temporal: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			o.log.Warn("临时文件删除失败", zap.String("dir", dir), zap.Error(err))
		}
	}()

	in := filepath.Join(dir, "formato.xlsx")
	out := filepath.Join(dir, "formato.pdf")
	if err := os.WriteFile(in, xlsx, 0o600); err != nil {
		return nil, fmt.Errorf("escribir xlsx temporal: %w", err)
	}

	if err := s.Convert(ctx, in, out); err != nil {
		return nil, err
	}
	o.sleep(o.retry.Settle)

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", convert.ErrEmptyOutput, err)
	}
	if len(data) == 0 {
		return nil, convert.ErrEmptyOutput
	}
	return data, nil
}
