package resolver

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPartTwoSheet 从该序号起的工作表优先匹配“第二部分”课程
const DefaultPartTwoSheet = 14

var (
	partTwoRe = regexp.MustCompile(`(?i)\bparte\s*0?2\b`)
	yearRe    = regexp.MustCompile(`\b20\d{2}\b`)
)

// Query 一次解析的输入及其派生信号
type Query struct {
	Raw        string
	Prefix     string // 开头的数字与下划线，如 "14_"
	SheetOrder int    // 前缀中的数字，无前缀时为 -1
	Cleaned    string // 去掉前缀后的标签
	Lower      string

	WantsPartTwo bool
	Year         string
}

// VariantRequested 标签是否要求某个变体（第二部分或年份）
func (q Query) VariantRequested() bool {
	return q.WantsPartTwo || q.Year != ""
}

// ParseLabel 拆分工作表标签的序号前缀并识别变体信号
func ParseLabel(raw string, partTwoSheet int) Query {
	q := Query{Raw: raw, SheetOrder: -1}

	i := 0
	for i < len(raw) && (isASCIIDigit(raw[i]) || raw[i] == '_') {
		i++
	}
	q.Prefix = raw[:i]

	digits := strings.TrimLeft(q.Prefix, "_")
	if end := strings.IndexByte(digits, '_'); end >= 0 {
		digits = digits[:end]
	}
	if q.Prefix != "" && isASCIIDigit(raw[0]) && digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			q.SheetOrder = n
		}
	}

	q.Cleaned = strings.TrimFunc(raw[i:], unicode.IsSpace)
	q.Lower = strings.ToLower(q.Cleaned)

	highSheet := q.SheetOrder >= 0 && partTwoSheet > 0 && q.SheetOrder >= partTwoSheet
	q.WantsPartTwo = highSheet || partTwoRe.MatchString(q.Cleaned)
	q.Year = yearRe.FindString(q.Cleaned)
	return q
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// isPartTwo 名称带“第二部分”标记
func isPartTwo(name string) bool { return partTwoRe.MatchString(name) }

// isVariant 名称带任意变体标记
func isVariant(name string) bool {
	return isPartTwo(name) || yearRe.MatchString(name)
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
