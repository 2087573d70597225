package exporter

import "github.com/xuri/excelize/v2"

type styles struct {
	title      int
	label      int
	labelLeft  int
	value      int
	valueLeft  int
	center     int
	header     int
	headerLeft int
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

var greyFill = excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	centered := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}
	bold := &excelize.Font{Bold: true, Size: 10}
	normal := &excelize.Font{Size: 10}

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Border: thinBorder, Font: &excelize.Font{Bold: true, Size: 14}, Alignment: centered}},
		{&s.label, &excelize.Style{Border: thinBorder, Font: bold, Alignment: centered}},
		{&s.labelLeft, &excelize.Style{Border: thinBorder, Font: bold, Alignment: left}},
		{&s.value, &excelize.Style{Border: thinBorder, Font: normal, Alignment: centered}},
		{&s.valueLeft, &excelize.Style{Border: thinBorder, Font: normal, Alignment: left}},
		{&s.center, &excelize.Style{Border: thinBorder, Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"}}},
		{&s.header, &excelize.Style{Border: thinBorder, Font: bold, Alignment: centered, Fill: greyFill}},
		{&s.headerLeft, &excelize.Style{Border: thinBorder, Font: bold, Alignment: left, Fill: greyFill}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, err
		}
		*d.dst = id
	}
	return s, nil
}

// sheetWriter 记录第一个错误，之后的写入全部跳过
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) cell(axis string, value any, style int) {
	if w.err != nil {
		return
	}
	if value != nil {
		if w.err = w.f.SetCellValue(w.sheet, axis, value); w.err != nil {
			return
		}
	}
	w.err = w.f.SetCellStyle(w.sheet, axis, axis, style)
}

// block 合并区域并写入左上角
func (w *sheetWriter) block(from, to string, value any, style int) {
	if w.err != nil {
		return
	}
	if from != to {
		if w.err = w.f.MergeCell(w.sheet, from, to); w.err != nil {
			return
		}
	}
	if value != nil {
		if w.err = w.f.SetCellValue(w.sheet, from, value); w.err != nil {
			return
		}
	}
	w.err = w.f.SetCellStyle(w.sheet, from, to, style)
}

// richText 加粗的标签后接普通文本
func (w *sheetWriter) richText(axis, label, text string) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellRichText(w.sheet, axis, []excelize.RichTextRun{
		{Text: label, Font: &excelize.Font{Bold: true, Size: 10}},
		{Text: text, Font: &excelize.Font{Size: 10}},
	})
}

func (w *sheetWriter) colWidth(col string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, col, col, width)
}

func (w *sheetWriter) rowHeight(row int, height float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetRowHeight(w.sheet, row, height)
}

func (w *sheetWriter) picture(axis string, img placed, offsetX, offsetY int) {
	if w.err != nil {
		return
	}
	w.err = addPicture(w.f, w.sheet, axis, img, offsetX, offsetY)
}
