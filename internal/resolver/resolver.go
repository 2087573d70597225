// Package resolver 把被截断的工作表名称解析为目录中的规范课程名称
package resolver

import (
	"sync"

	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// Resolver 按顺序尝试各策略，首个命中即返回
// 结果只取决于标签与目录，同一标签的结果会被缓存
type Resolver struct {
	catalog      *catalog.Catalog
	strategies   []Strategy
	partTwoSheet int
	log          *zap.Logger

	mu    sync.Mutex
	cache map[string]model.ResolvedCourse
}

// Option 解析器选项
type Option func(*Resolver)

// WithStrategies 替换策略列表
func WithStrategies(s ...Strategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

// WithPartTwoSheet 设置“第二部分”工作表序号阈值，0 表示不按序号判断
func WithPartTwoSheet(n int) Option {
	return func(r *Resolver) { r.partTwoSheet = n }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New 基于目录快照创建解析器
func New(c *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:      c,
		partTwoSheet: DefaultPartTwoSheet,
		log:          zap.NewNop(),
		cache:        make(map[string]model.ResolvedCourse),
	}
	r.strategies = DefaultStrategies(c.Aliases())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog 解析所用的目录
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// Resolve 解析标签，从不失败；未命中时以原标签作为名称并使用默认条目
func (r *Resolver) Resolve(raw string) model.ResolvedCourse {
	r.mu.Lock()
	if cached, ok := r.cache[raw]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	res := r.resolve(raw)

	r.mu.Lock()
	r.cache[raw] = res
	r.mu.Unlock()
	return res
}

func (r *Resolver) resolve(raw string) model.ResolvedCourse {
	q := ParseLabel(raw, r.partTwoSheet)
	out := model.ResolvedCourse{
		RawLabel:         raw,
		SheetOrderPrefix: q.Prefix,
		SheetOrder:       q.SheetOrder,
	}

	for _, s := range r.strategies {
		name, ok := s.Attempt(q, r.catalog)
		if !ok {
			continue
		}
		out.CanonicalName = name
		out.Method = s.Method()
		out.Entry, _ = r.catalog.LookupOrDefault(name)
		r.log.Debug("课程名称已解析",
			zap.String("label", raw),
			zap.String("canonical", name),
			zap.String("method", string(out.Method)))
		return out
	}

	out.CanonicalName = raw
	out.Method = model.MatchUnmatched
	out.Entry = r.catalog.Default(raw)
	r.log.Debug("课程名称未命中目录", zap.String("label", raw))
	return out
}
