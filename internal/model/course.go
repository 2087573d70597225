package model

// MatchMethod 课程名称解析命中的策略
type MatchMethod string

const (
	MatchAlias       MatchMethod = "alias"        // 别名表
	MatchExactPrefix MatchMethod = "exact_prefix" // 精确前缀
	MatchKeyword     MatchMethod = "keyword"      // 关键词顺序匹配
	MatchFuzzy       MatchMethod = "fuzzy"        // 相似度
	MatchUnmatched   MatchMethod = "unmatched"    // 未命中
)

// CatalogEntry 课程目录条目（只读）
type CatalogEntry struct {
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Topic        string   `json:"topic" yaml:"topic"`
	Trainer      string   `json:"trainer" yaml:"trainer"`
	Duration     string   `json:"duration" yaml:"duration" validate:"omitempty,clock"`
	Content      string   `json:"content" yaml:"content"`
	Material     string   `json:"material" yaml:"material"`
	SignatureIDs []string `json:"signatures" yaml:"signatures" validate:"max=2,dive,required"`
}

// WithName 返回改名后的副本
func (e CatalogEntry) WithName(name string) CatalogEntry {
	e.Name = name
	if e.SignatureIDs != nil {
		e.SignatureIDs = append([]string(nil), e.SignatureIDs...)
	}
	return e
}

// ResolvedCourse 课程标签的解析结果
type ResolvedCourse struct {
	RawLabel         string       `json:"rawLabel"`
	CanonicalName    string       `json:"canonicalName"`
	Entry            CatalogEntry `json:"entry"`
	Method           MatchMethod  `json:"method"`
	SheetOrderPrefix string       `json:"sheetOrderPrefix"`
	SheetOrder       int          `json:"sheetOrder"` // 无前缀时为 -1
}

// Matched 是否在目录中找到
func (r ResolvedCourse) Matched() bool {
	return r.Method != MatchUnmatched
}
