package resolver

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/catalog"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// Strategy 一种解析策略，命中时返回规范名称
type Strategy interface {
	Method() model.MatchMethod
	Attempt(q Query, c *catalog.Catalog) (string, bool)
}

// DefaultStrategies 默认策略顺序：别名、精确前缀、关键词、相似度
func DefaultStrategies(extraAliases []catalog.Alias) []Strategy {
	aliases := append(append([]catalog.Alias(nil), extraAliases...), builtinAliases...)
	return []Strategy{
		NewAliasStrategy(aliases),
		ExactPrefixStrategy{},
		KeywordStrategy{MinWords: 3, MinRatio: 0.8},
		FuzzyStrategy{Threshold: 0.90},
	}
}

// builtinAliases 已知的截断冲突，无法通过前缀可靠匹配
var builtinAliases = []catalog.Alias{
	{Pattern: "eventos indeseables y disturb", Target: "Eventos indeseables, perturbadores y lugares hostiles"},
	{Pattern: "eventos indeseables y disturbar", Target: "Eventos indeseables, perturbadores y lugares hostiles"},
	{Pattern: "eventos indeseables, disturb", Target: "Eventos indeseables, perturbadores y lugares hostiles"},
	{Pattern: "protocolos y procedimientos de", Target: "Protocolos y procedimientos de agente parking o valet parking"},
	{Pattern: "gestion de residuos solidos imp", Target: "Gestión de residuos sólidos, impactos ambientales y responsabilidad social empresarial"},
	{Pattern: "gestion de residuos solidos, imp", Target: "Gestión de residuos sólidos, impactos ambientales y responsabilidad social empresarial"},
	{Pattern: "armas: conocimiento y manipulac", Target: "Armas: conocimiento y manipulación"},
	{Pattern: "armas: conocimiento y manipula", Target: "Armas: conocimiento y manipulación"},
	{Pattern: "armas_ conocimiento y manipu", Target: "Armas: conocimiento y manipulación"},
	{Pattern: "armas_ conocimiento y manipul", Target: "Armas: conocimiento y manipulación"},
}

// fold 小写并去掉重音符号
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AliasStrategy 别名表，前缀或子串匹配，不区分大小写与重音
type AliasStrategy struct {
	aliases []catalog.Alias
	folded  []string
}

// NewAliasStrategy 创建别名策略
func NewAliasStrategy(aliases []catalog.Alias) *AliasStrategy {
	s := &AliasStrategy{aliases: aliases, folded: make([]string, len(aliases))}
	for i, a := range aliases {
		s.folded[i] = fold(a.Pattern)
	}
	return s
}

func (s *AliasStrategy) Method() model.MatchMethod { return model.MatchAlias }

func (s *AliasStrategy) Attempt(q Query, c *catalog.Catalog) (string, bool) {
	label := fold(q.Cleaned)
	if label == "" {
		return "", false
	}
	for i, pattern := range s.folded {
		if pattern == "" || !strings.Contains(label, pattern) {
			continue
		}
		// 目标不在目录中时继续尝试其它别名
		if c.Contains(s.aliases[i].Target) {
			return s.aliases[i].Target, true
		}
	}
	return "", false
}

// candidate 候选条目
type candidate struct {
	name  string
	pos   int // 目录中的插入顺序
	words int
	ratio float64
}

// pickVariant 按变体信号在候选中选择
// 第二部分 > 年份 > 无变体请求时的基础版本 > 全部候选
// rank 用于变体组与兜底，baseRank 用于基础版本组
func pickVariant(q Query, cands []candidate, rank, baseRank func(a, b candidate) bool) candidate {
	best := func(filter func(candidate) bool, less func(a, b candidate) bool) (candidate, bool) {
		var out candidate
		found := false
		for _, cd := range cands {
			if !filter(cd) {
				continue
			}
			if !found || less(cd, out) {
				out, found = cd, true
			}
		}
		return out, found
	}

	if q.WantsPartTwo {
		if cd, ok := best(func(cd candidate) bool { return isPartTwo(cd.name) }, rank); ok {
			return cd
		}
	}
	if q.Year != "" {
		if cd, ok := best(func(cd candidate) bool { return strings.Contains(cd.name, q.Year) }, rank); ok {
			return cd
		}
	}
	if !q.VariantRequested() {
		if cd, ok := best(func(cd candidate) bool { return !isVariant(cd.name) }, baseRank); ok {
			return cd
		}
	}
	cd, _ := best(func(candidate) bool { return true }, rank)
	return cd
}

func byPosition(a, b candidate) bool { return a.pos < b.pos }

func byLength(a, b candidate) bool {
	if la, lb := runeLen(a.name), runeLen(b.name); la != lb {
		return la < lb
	}
	return a.pos < b.pos
}

// ExactPrefixStrategy 规范名称以标签开头（区分大小写）
type ExactPrefixStrategy struct{}

func (ExactPrefixStrategy) Method() model.MatchMethod { return model.MatchExactPrefix }

func (ExactPrefixStrategy) Attempt(q Query, c *catalog.Catalog) (string, bool) {
	if q.Cleaned == "" {
		return "", false
	}
	var cands []candidate
	for i, name := range c.Names() {
		if strings.HasPrefix(name, q.Cleaned) {
			cands = append(cands, candidate{name: name, pos: i})
		}
	}
	if len(cands) == 0 {
		return "", false
	}
	return pickVariant(q, cands, byPosition, byLength).name, true
}

// KeywordStrategy 关键词按顺序出现在条目词中
type KeywordStrategy struct {
	MinWords int
	MinRatio float64
}

func (KeywordStrategy) Method() model.MatchMethod { return model.MatchKeyword }

func keywords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if runeLen(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// orderedHits 统计查询词按非递减位置出现在条目词中的个数
func orderedHits(query, tokens []string) int {
	hits, last := 0, -1
	for _, w := range query {
		for idx := last + 1; idx < len(tokens); idx++ {
			if strings.Contains(tokens[idx], w) {
				hits++
				last = idx
				break
			}
		}
	}
	return hits
}

func byWordsThenLength(a, b candidate) bool {
	if a.words != b.words {
		return a.words > b.words
	}
	if la, lb := runeLen(a.name), runeLen(b.name); la != lb {
		return la < lb
	}
	return a.pos < b.pos
}

func (s KeywordStrategy) Attempt(q Query, c *catalog.Catalog) (string, bool) {
	query := keywords(q.Cleaned)
	if len(query) == 0 {
		return "", false
	}
	var cands []candidate
	for i, name := range c.Names() {
		hits := orderedHits(query, keywords(name))
		ratio := float64(hits) / float64(len(query))
		if (hits >= s.MinWords && hits > 0) || ratio >= s.MinRatio {
			cands = append(cands, candidate{name: name, pos: i, words: hits, ratio: ratio})
		}
	}
	if len(cands) == 0 {
		return "", false
	}
	return pickVariant(q, cands, byWordsThenLength, byWordsThenLength).name, true
}

// FuzzyStrategy 与同样长度的名称前缀做相似度比较
type FuzzyStrategy struct {
	Threshold float64
}

func (FuzzyStrategy) Method() model.MatchMethod { return model.MatchFuzzy }

// Ratio 与 difflib.SequenceMatcher.ratio 一致的相似度，按 rune 比较
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func (s FuzzyStrategy) Attempt(q Query, c *catalog.Catalog) (string, bool) {
	if q.Cleaned == "" {
		return "", false
	}
	label := []rune(q.Lower)
	var (
		best  candidate
		found bool
	)
	for i, name := range c.Names() {
		nameRunes := []rune(strings.ToLower(name))
		n := min(len(label), len(nameRunes))
		ratio := Ratio(q.Lower, string(nameRunes[:n]))
		if ratio < s.Threshold {
			continue
		}
		cd := candidate{name: name, pos: i, ratio: ratio}
		if !found || byRatioThenLength(cd, best) {
			best, found = cd, true
		}
	}
	if !found {
		return "", false
	}
	return best.name, true
}

func byRatioThenLength(a, b candidate) bool {
	if a.ratio != b.ratio {
		return a.ratio > b.ratio
	}
	if la, lb := runeLen(a.name), runeLen(b.name); la != lb {
		return la < lb
	}
	return a.pos < b.pos
}
