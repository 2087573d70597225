// Package exporter 生成单门课程的考勤记录表（固定版式 xlsx）
package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/archive"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// 版式常量
const (
	dataHeaderRow = 16
	maxSheetTitle = 31
	lastCol       = "I"
)

var colWidths = []float64{8, 52, 20, 57, 19, 19, 19, 12, 12}

var (
	logoBox      = box{W: 290, H: 70}
	signatureBox = box{W: 143, H: 127}
	halfSigBox   = box{W: 70, H: 127}
	registrarBox = box{W: 228, H: 106}
)

// Renderer 考勤表渲染器
type Renderer struct {
	doc Document
	now func() time.Time
	log *zap.Logger
}

// Option 渲染器选项
type Option func(*Renderer)

// WithClock 替换“今天”的来源
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRenderer 创建渲染器
func NewRenderer(doc Document, opts ...Option) *Renderer {
	r := &Renderer{doc: doc, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SheetTitle 工作表标题：清理非法字符后截断到 31 个字符
func SheetTitle(name string) string {
	title := archive.Sanitize(name)
	if utf8.RuneCountInString(title) > maxSheetTitle {
		title = string([]rune(title)[:maxSheetTitle])
	}
	title = strings.Trim(title, " '")
	if title == "" {
		return "Curso"
	}
	return title
}

// ContentRowHeight 内容行高度随文本行数增长，限制在 50 到 400 之间
func ContentRowHeight(content string) float64 {
	const charsPerLine = (20 + 57 + 19 + 19 + 19 + 12 + 12) * 1.2
	lines := float64(strings.Count(content, "\n") + 1)
	if wrapped := float64(utf8.RuneCountInString(content)) / charsPerLine; wrapped > lines {
		lines = wrapped
	}
	return max(50, min(400, lines*15+10))
}

// Render 渲染一门课程；返回完整的 xlsx 字节
func (r *Renderer) Render(rows []model.CourseRow, detail model.CatalogEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := SheetTitle(detail.Name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("设置工作表名称失败: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("创建样式失败: %w", err)
	}
	w := &sheetWriter{f: f, sheet: sheet}

	r.writeHeader(w, st)
	r.writeCourseBlock(w, st, detail, len(rows))
	footer := r.writeRows(w, st, rows)
	r.writeFooter(w, st, footer)
	r.writePageSetup(w, footer+2)
	if w.err != nil {
		return nil, fmt.Errorf("写入 %s 失败: %w", sheet, w.err)
	}

	r.placeImages(w, detail, footer)
	if w.err != nil {
		return nil, fmt.Errorf("插入图片失败: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("序列化工作簿失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeHeader(w *sheetWriter, st styles) {
	for i, width := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w.colWidth(col, width)
	}
	for row := 1; row <= 4; row++ {
		w.rowHeight(row, 22)
	}

	w.block("A1", "B4", nil, st.center)
	w.block("C1", "G4", r.doc.Title, st.title)

	w.cell("H1", "Código:", st.labelLeft)
	w.cell("I1", r.doc.FormCode, st.valueLeft)
	w.cell("H2", "Versión:", st.labelLeft)
	if v, err := strconv.Atoi(r.doc.Version); err == nil {
		w.cell("I2", v, st.value)
	} else {
		w.cell("I2", r.doc.Version, st.value)
	}
	w.cell("H3", "Fecha:", st.labelLeft)
	w.cell("I3", r.doc.FormDate, st.valueLeft)
	w.cell("H4", r.doc.PageText, st.valueLeft)
	w.cell("I4", "", st.valueLeft)

	w.block("A5", "I5", "Datos del empleador:", st.labelLeft)

	w.cell("A6", "MARCAR", st.label)
	w.cell("B6", "RAZÓN SOCIAL", st.label)
	w.cell("C6", "RUC", st.label)
	w.block("D6", "G6", "DOMICILIO", st.label)
	w.block("H6", "I6", "ACTIVIDAD ECONOMICA", st.label)

	for i := 0; i < EmployerSlots; i++ {
		row := 7 + i
		var e Employer
		if i < len(r.doc.Employers) {
			e = r.doc.Employers[i]
		}
		mark := ""
		if e.Marked {
			mark = "X"
		}
		w.cell(cellName("A", row), mark, st.value)
		w.cell(cellName("B", row), e.Name, st.value)
		w.cell(cellName("C", row), e.RUC, st.value)
		w.block(cellName("D", row), cellName("G", row), e.Address, st.value)
		w.block(cellName("H", row), cellName("I", row), e.Activity, st.value)
	}
}

func (r *Renderer) writeCourseBlock(w *sheetWriter, st styles, detail model.CatalogEntry, workers int) {
	w.rowHeight(11, 39.6)
	w.block("A11", "B11", "Tema/Motivo:", st.label)
	w.block("C11", "E11", detail.Topic, st.label)
	w.block("F11", "G11", "Grabación/ Material:", st.label)
	w.block("H11", "I11", detail.Material, st.value)

	w.rowHeight(12, ContentRowHeight(detail.Content))
	w.block("A12", "B12", "Contenido/ Sub Temas:", st.label)
	w.block("C12", "I12", detail.Content, st.valueLeft)

	w.rowHeight(13, 95)
	w.block("A13", "B13", "Capacitador/Entrenador:", st.label)
	w.block("C13", "D13", detail.Trainer, st.value)
	w.cell("E13", "Firma:", st.label)
	w.cell("F13", nil, st.center)
	w.cell("G13", "Duración:", st.label)
	w.block("H13", "I13", detail.Duration, st.value)

	w.block("A14", "I14", "Motivo:", st.labelLeft)

	w.block("A15", "F15", r.doc.ActivityLine, st.valueLeft)
	w.cell("G15", "N° de Trabajadores:", st.label)
	w.block("H15", "I15", workers, st.value)

	headers := []string{"N°", "Apellidos y Nombres", "DNI", "Unidad (Cliente)", "Nota", "Fecha Examen", "Hora Conexión"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w.cell(cellName(col, dataHeaderRow), h, st.header)
	}
	w.block(cellName("H", dataHeaderRow), cellName("I", dataHeaderRow), "Observación", st.header)
}

// writeRows 写入数据行，返回页脚起始行
func (r *Renderer) writeRows(w *sheetWriter, st styles, rows []model.CourseRow) int {
	for i, row := range rows {
		n := dataHeaderRow + 1 + i
		w.cell(cellName("A", n), row.SequenceNo, st.value)
		w.cell(cellName("B", n), row.Name, st.value)
		w.cell(cellName("C", n), row.ID, st.value)
		w.cell(cellName("D", n), row.Unit, st.value)
		w.cell(cellName("E", n), scoreValue(row.Score), st.value)
		w.cell(cellName("F", n), row.ExamDate, st.value)
		w.cell(cellName("G", n), row.TotalDuration, st.value)
		w.block(cellName("H", n), cellName("I", n), nil, st.value)
	}
	return dataHeaderRow + len(rows) + 1
}

// scoreValue 数值成绩写为数字，其余原样写入
func scoreValue(s string) any {
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func (r *Renderer) writeFooter(w *sheetWriter, st styles, footer int) {
	w.block(cellName("A", footer), cellName(lastCol, footer), "Responsable del Registro:", st.headerLeft)

	nameRow := footer + 1
	w.rowHeight(nameRow, 100)
	w.block(cellName("A", nameRow), cellName("E", nameRow), nil, st.valueLeft)
	w.richText(cellName("A", nameRow), "Apellidos y Nombres: ", r.doc.RegistrarName)
	w.cell(cellName("F", nameRow), "Firma:", st.label)
	w.block(cellName("G", nameRow), cellName("I", nameRow), nil, st.center)

	roleRow := footer + 2
	w.block(cellName("A", roleRow), cellName("E", roleRow), nil, st.valueLeft)
	w.richText(cellName("A", roleRow), "Cargo: ", r.doc.RegistrarRole)
	w.cell(cellName("F", roleRow), "Fecha:", st.label)
	w.block(cellName("G", roleRow), cellName("I", roleRow), r.now().Format("02/01/2006"), st.value)
}

func (r *Renderer) writePageSetup(w *sheetWriter, lastRow int) {
	if w.err != nil {
		return
	}
	size, orientation := 9, "portrait"
	fitW, fitH := 1, 0
	w.err = w.f.SetPageLayout(w.sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitW,
		FitToHeight: &fitH,
	})
	if w.err != nil {
		return
	}
	fit := true
	if w.err = w.f.SetSheetProps(w.sheet, &excelize.SheetPropsOptions{FitToPage: &fit}); w.err != nil {
		return
	}
	margin, hf := 0.25, 0.1
	w.err = w.f.SetPageMargins(w.sheet, &excelize.PageLayoutMarginsOptions{
		Left: &margin, Right: &margin, Top: &margin, Bottom: &margin,
		Header: &hf, Footer: &hf,
	})
	if w.err != nil {
		return
	}
	w.err = w.f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: fmt.Sprintf("'%s'!$A$1:$%s$%d", strings.ReplaceAll(w.sheet, "'", "''"), lastCol, lastRow),
		Scope:    w.sheet,
	})
}

// placeImages 插入 logo 与签名；缺失的图片被跳过
func (r *Renderer) placeImages(w *sheetWriter, detail model.CatalogEntry, footer int) {
	if logo, ok := r.loadLogo(); ok {
		w.picture("A1", logo, 95+(logoBox.W-logo.w)/2, 3+(logoBox.H-logo.h)/2)
	}

	var sigs []placed
	switch len(detail.SignatureIDs) {
	case 1:
		if img, ok := r.loadSignature(detail.SignatureIDs[0], signatureBox, 0.85); ok {
			sigs = append(sigs, img)
		}
	case 2:
		for _, id := range detail.SignatureIDs {
			if img, ok := r.loadSignature(id, halfSigBox, 0.90); ok {
				sigs = append(sigs, img)
			}
		}
		// 只剩一张时按单签名放大
		if len(sigs) == 1 {
			for _, id := range detail.SignatureIDs {
				if img, ok := r.loadSignature(id, signatureBox, 0.85); ok {
					sigs = []placed{img}
					break
				}
			}
		}
	}

	switch len(sigs) {
	case 1:
		s := sigs[0]
		w.picture("F13", s, (signatureBox.W-s.w)/2, (signatureBox.H-s.h)/2)
	case 2:
		gap := max(5, (signatureBox.W-sigs[0].w-sigs[1].w)/3)
		top := (signatureBox.H - max(sigs[0].h, sigs[1].h)) / 2
		w.picture("F13", sigs[0], gap, top)
		w.picture("F13", sigs[1], gap*2+sigs[0].w, top)
	}

	if r.doc.RegistrarSignature != "" {
		if img, ok := r.loadSignature(r.doc.RegistrarSignature, registrarBox, 1); ok {
			w.picture(cellName("G", footer+1), img, 48, 14)
		}
	}
}

func cellName(col string, row int) string {
	return col + strconv.Itoa(row)
}
