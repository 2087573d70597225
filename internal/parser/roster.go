package parser

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/ident"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// RosterHeaderScan 查找名单表头的最大行数（原始模板表头在第 4 行）
const RosterHeaderScan = 10

// Directory 人员名单，按证件号的全部等价形式建立索引
type Directory struct {
	records []model.RosterRecord
	index   map[string]int
	Layout  HeaderLayout
	Result  ParseResult
}

// RosterOptions 名单解析选项
type RosterOptions struct {
	Sheet string // 为空时取第一个工作表
}

// ParseRoster 解析人员名单工作簿
func ParseRoster(r io.Reader, opts RosterOptions) (*Directory, error) {
	start := time.Now()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open roster workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("roster workbook: %w", ErrSheetNotFound)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read roster sheet %q: %w", sheet, err)
	}

	layout, err := detectHeader(rows, rosterRules(), RosterHeaderScan)
	if err != nil {
		return nil, fmt.Errorf("roster sheet %q: %w", sheet, err)
	}

	d := NewDirectory(nil)
	d.Layout = layout
	d.Result = ParseResult{SheetName: sheet, Status: "imported"}

	idCol := layout.Columns[RoleID]
	nameCol, hasName := layout.Columns[RoleName]
	unitCol, hasUnit := layout.Columns[RoleUnit]

	for _, row := range rows[layout.Row+1:] {
		id := ident.Clean(cellAt(row, idCol))
		if id == "" {
			d.Result.SkippedRows++
			continue
		}
		rec := model.RosterRecord{ID: id}
		if hasName {
			if v := cellAt(row, nameCol); v != "" {
				rec.Name = &v
			}
		}
		if hasUnit {
			if v := cellAt(row, unitCol); v != "" {
				rec.Unit = &v
			}
		}
		if !d.add(rec) {
			d.Result.SkippedRows++
			d.Result.Errors = append(d.Result.Errors, fmt.Sprintf("documento duplicado: %s", id))
			continue
		}
		d.Result.ImportedRows++
	}

	d.Result.Duration = time.Since(start)
	return d, nil
}

// NewDirectory 由记录构建名单，重复证件号只保留第一条
func NewDirectory(records []model.RosterRecord) *Directory {
	d := &Directory{index: make(map[string]int)}
	for _, rec := range records {
		d.add(rec)
	}
	return d
}

func (d *Directory) add(rec model.RosterRecord) bool {
	forms := ident.Forms(rec.ID)
	if len(forms) == 0 {
		return false
	}
	for _, f := range forms {
		if _, dup := d.index[f]; dup {
			return false
		}
	}
	pos := len(d.records)
	d.records = append(d.records, rec)
	for _, f := range forms {
		d.index[f] = pos
	}
	return true
}

// Len 记录数
func (d *Directory) Len() int { return len(d.records) }

// Records 名单原始顺序
func (d *Directory) Records() []model.RosterRecord {
	return append([]model.RosterRecord(nil), d.records...)
}

// Find 按证件号查找，兼容前导零差异
func (d *Directory) Find(id string) (model.RosterRecord, bool) {
	for _, f := range ident.Forms(id) {
		if pos, ok := d.index[f]; ok {
			return d.records[pos], true
		}
	}
	return model.RosterRecord{}, false
}

// Select 按输入顺序返回人员；名单中没有的人员姓名与单位为空，等待人工补全
func (d *Directory) Select(ids []string) []model.RosterRecord {
	out := make([]model.RosterRecord, 0, len(ids))
	for _, id := range ids {
		rec := model.RosterRecord{ID: id}
		if found, ok := d.Find(id); ok {
			rec.Name = found.Name
			rec.Unit = found.Unit
		}
		out = append(out, rec)
	}
	return out
}

// Override 人工补全的姓名或单位
type Override struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ApplyOverrides 用人工输入补全记录，空值不覆盖
func ApplyOverrides(records []model.RosterRecord, overrides []Override) []model.RosterRecord {
	out := append([]model.RosterRecord(nil), records...)
	for _, ov := range overrides {
		for i := range out {
			if !ident.Equivalent(out[i].ID, ov.ID) {
				continue
			}
			if ov.Name != "" {
				name := ov.Name
				out[i].Name = &name
			}
			if ov.Unit != "" {
				unit := ov.Unit
				out[i].Unit = &unit
			}
		}
	}
	return out
}

// Complete 按输入顺序选出人员并应用人工补全
func (d *Directory) Complete(ids []string, overrides []Override) []model.RosterRecord {
	return ApplyOverrides(d.Select(ids), overrides)
}

// Incomplete 缺少姓名或单位的记录
func Incomplete(records []model.RosterRecord) []model.RosterRecord {
	var out []model.RosterRecord
	for _, r := range records {
		if !r.Complete() {
			out = append(out, r)
		}
	}
	return out
}
