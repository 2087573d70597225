// Package catalog 课程目录：规范名称到课程元数据的只读映射
package catalog

import (
	"errors"
	"fmt"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// ErrInvalid 目录内容不合法
var ErrInvalid = errors.New("catalog: invalid")

// Alias 已知的截断别名，Pattern 以小写、去重音后比较
type Alias struct {
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
	Target  string `yaml:"target" json:"target" validate:"required"`
}

// Catalog 课程目录，创建后不可修改，可被多个 goroutine 共享
type Catalog struct {
	entries []model.CatalogEntry
	index   map[string]int
	def     model.CatalogEntry
	aliases []Alias
}

// DefaultEntry 未命中课程时使用的默认条目
func DefaultEntry() model.CatalogEntry {
	return model.CatalogEntry{
		Duration: "00:00:00",
		Topic:    "Curso no encontrado",
		Content:  "Contenido no disponible",
		Trainer:  "Desconocido",
	}
}

// Option 目录构造选项
type Option func(*Catalog)

// WithDefault 覆盖默认条目
func WithDefault(e model.CatalogEntry) Option {
	return func(c *Catalog) { c.def = e.WithName("") }
}

// WithAliases 追加别名
func WithAliases(aliases ...Alias) Option {
	return func(c *Catalog) { c.aliases = append(c.aliases, aliases...) }
}

// New 按给定顺序构建目录，名称必须唯一
func New(entries []model.CatalogEntry, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		entries: make([]model.CatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
		def:     DefaultEntry(),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry without name", ErrInvalid)
		}
		if _, dup := c.index[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate course %q", ErrInvalid, e.Name)
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e.WithName(e.Name))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew 同 New，出错时 panic（用于测试与内置目录）
func MustNew(entries []model.CatalogEntry, opts ...Option) *Catalog {
	c, err := New(entries, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len 条目数
func (c *Catalog) Len() int { return len(c.entries) }

// Entries 按插入顺序返回条目副本
func (c *Catalog) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.WithName(e.Name)
	}
	return out
}

// Names 按插入顺序返回规范名称
func (c *Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name
	}
	return out
}

// Contains 名称是否在目录中
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Lookup 按规范名称查找
func (c *Catalog) Lookup(name string) (model.CatalogEntry, bool) {
	i, ok := c.index[name]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return c.entries[i].WithName(name), true
}

// Default 以给定名称返回默认条目
func (c *Catalog) Default(name string) model.CatalogEntry {
	return c.def.WithName(name)
}

// LookupOrDefault 找不到时回落到默认条目
func (c *Catalog) LookupOrDefault(name string) (model.CatalogEntry, bool) {
	if e, ok := c.Lookup(name); ok {
		return e, true
	}
	return c.Default(name), false
}

// Aliases 目录文件中声明的别名
func (c *Catalog) Aliases() []Alias {
	return append([]Alias(nil), c.aliases...)
}

// Source 目录快照来源；Watcher 与 Static 都实现它
type Source interface {
	Current() *Catalog
}

// Static 不会重载的目录
type Static struct {
	Catalog *Catalog
}

func (s Static) Current() *Catalog { return s.Catalog }
