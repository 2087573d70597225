package parser

import (
	"errors"
	"time"
)

// ErrColumnNotFound 表头中找不到必需的列
var ErrColumnNotFound = errors.New("parser: required column not found")

// ErrSheetNotFound 工作簿中没有指定的工作表
var ErrSheetNotFound = errors.New("parser: sheet not found")

// ColumnRole 列在业务上的角色
type ColumnRole string

const (
	RoleID       ColumnRole = "id"       // 证件号
	RoleName     ColumnRole = "name"     // 姓名
	RoleUnit     ColumnRole = "unit"     // 单位/客户
	RoleScore    ColumnRole = "score"    // 成绩
	RoleExamDate ColumnRole = "examDate" // 考试日期
	RoleDuration ColumnRole = "duration" // 在线时长
)

// HeaderLayout 表头识别结果
type HeaderLayout struct {
	Row     int                `json:"row"` // 0 起始的表头行号
	Columns map[ColumnRole]int `json:"columns"`
	Missing []ColumnRole       `json:"missing,omitempty"`
}

// Has 是否识别到该角色的列
func (l HeaderLayout) Has(role ColumnRole) bool {
	_, ok := l.Columns[role]
	return ok
}

// ParseResult 单个工作表的解析结果
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	Status       string        `json:"status"` // imported/skipped/error
	ImportedRows int           `json:"importedRows"`
	SkippedRows  int           `json:"skippedRows"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}
