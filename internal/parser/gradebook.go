package parser

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/duration"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/ident"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// GradeHeaderScan 成绩表表头查找范围
const GradeHeaderScan = 5

// Gradebook 成绩总表，每个工作表对应一门课程
// 工作表按需读取，excelize.File 不支持并发访问，因此加锁
type Gradebook struct {
	mu     sync.Mutex
	file   *excelize.File
	sheets []string
}

// OpenGradebook 打开成绩总表
func OpenGradebook(r io.Reader) (*Gradebook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gradebook workbook: %w", err)
	}
	return &Gradebook{file: f, sheets: f.GetSheetList()}, nil
}

// Courses 工作表名称即课程标签，保持工作簿顺序
func (g *Gradebook) Courses() []string {
	return append([]string(nil), g.sheets...)
}

// HasSheet 是否存在该工作表
func (g *Gradebook) HasSheet(name string) bool {
	for _, s := range g.sheets {
		if s == name {
			return true
		}
	}
	return false
}

// LoadGrades 读取一门课程的成绩
// 日期与时长单元格按原始数值读取后再格式化，避免受单元格显示格式影响
func (g *Gradebook) LoadGrades(sheet string) ([]model.GradeRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.HasSheet(sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := g.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	layout, err := detectHeader(rows, gradeRules(), GradeHeaderScan)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	get := func(row []string, role ColumnRole) string {
		idx, ok := layout.Columns[role]
		if !ok {
			return ""
		}
		return cellAt(row, idx)
	}

	out := make([]model.GradeRecord, 0, len(rows)-layout.Row-1)
	for _, row := range rows[layout.Row+1:] {
		id := ident.Clean(get(row, RoleID))
		if id == "" {
			continue
		}
		out = append(out, model.GradeRecord{
			ID:                 id,
			Score:              formatScore(get(row, RoleScore)),
			ExamDate:           formatExamDate(get(row, RoleExamDate)),
			ConnectionDuration: formatClock(get(row, RoleDuration)),
		})
	}
	return out, nil
}

// Close 释放工作簿
func (g *Gradebook) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.file.Close()
}

func formatScore(v string) string {
	if f, ok := parseNumber(v); ok {
		return formatNumber(f)
	}
	return v
}

// formatExamDate excel 日期序列号转换为 dd/mm/yyyy，文本日期原样保留
func formatExamDate(v string) string {
	f, ok := parseNumber(v)
	if !ok || f <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return v
	}
	return t.Format("02/01/2006")
}

// formatClock 时长若以“天”的小数存储则转换为 HH:MM:SS
// 超过 10 天的数值不是时间格式，原样交给调用方报告
func formatClock(v string) string {
	f, ok := parseNumber(v)
	if !ok || f < 0 || f >= 10 {
		return v
	}
	seconds := int64(math.Round(f * 86400))
	return duration.FromSeconds(seconds)
}
