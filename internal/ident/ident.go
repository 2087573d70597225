// Package ident 规范化 DNI 等证件号，用于跨表比对
package ident

import (
	"strings"
	"unicode"
)

// Width 证件号补零宽度
const Width = 8

// Clean 去除首尾空白及千分位符号（. ,），保留其余字符
func Clean(id string) string {
	id = strings.TrimSpace(id)
	// excel 数值单元格常见的 "12345678.0"
	if strings.HasSuffix(id, ".0") && isDigits(strings.TrimSuffix(id, ".0")) {
		id = strings.TrimSuffix(id, ".0")
	}
	id = strings.ReplaceAll(id, ".", "")
	id = strings.ReplaceAll(id, ",", "")
	return strings.TrimSpace(id)
}

// Forms 返回用于相等比较的全部等价形式：原值、去前导零、补零到 8 位
func Forms(id string) []string {
	literal := strings.TrimSpace(id)
	if literal == "" {
		return nil
	}

	out := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(literal)

	cleaned := Clean(literal)
	add(cleaned)
	if !isDigits(cleaned) {
		return out
	}

	stripped := strings.TrimLeft(cleaned, "0")
	if stripped == "" {
		stripped = "0"
	}
	add(stripped)
	if len(stripped) < Width {
		add(strings.Repeat("0", Width-len(stripped)) + stripped)
	}
	return out
}

// Equivalent 两个证件号的等价形式是否有交集
func Equivalent(a, b string) bool {
	fa := Forms(a)
	if len(fa) == 0 {
		return false
	}
	for _, y := range Forms(b) {
		for _, x := range fa {
			if x == y {
				return true
			}
		}
	}
	return false
}

// ParseList 解析用户输入的证件号列表（换行、逗号分号、空白分隔），去重并保持顺序
// 输入中的千分位点号会被去掉，因此逗号只作为分隔符使用时需要跟空白或换行
func ParseList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ';'
	})

	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		for _, part := range splitListComma(f) {
			id := Clean(part)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// splitListComma 逗号两侧都是完整证件号时视为分隔符，"12,345,678" 这种千分位保持原样
func splitListComma(field string) []string {
	if !strings.Contains(field, ",") {
		return []string{field}
	}
	parts := strings.Split(field, ",")
	for _, p := range parts[1:] {
		if len(p) == 3 && isDigits(p) {
			return []string{field}
		}
	}
	return parts
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
