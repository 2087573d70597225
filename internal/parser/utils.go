package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名：去重音、转大写、压缩空白
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return whitespaceRe.ReplaceAllString(b.String(), " ")
}

// EqualsAny 规范化后与任意候选相等
func EqualsAny(header string, candidates []string) bool {
	h := NormalizeColumnName(header)
	if h == "" {
		return false
	}
	for _, c := range candidates {
		if h == NormalizeColumnName(c) {
			return true
		}
	}
	return false
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CleanCell 去掉首尾空白，pandas 风格的空值标记视为空
func CleanCell(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "nan", "none", "null", "nat":
		return ""
	}
	return v
}

// cellAt 行可能比表头短
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return CleanCell(row[idx])
}

// parseNumber 解析原始数值单元格
func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formatNumber 整数不带小数，其余去掉多余的零
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
