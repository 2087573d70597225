// Package reconcile 以人员名单为左表关联课程成绩
package reconcile

import (
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/ident"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// Joined 关联后的一行，保留原始在线时长供时长合计使用
type Joined struct {
	Roster model.RosterRecord
	Grade  *model.GradeRecord
}

// Index 成绩按证件号等价形式建立的索引，值为成绩表中首次出现的位置
type Index map[string]int

// NewIndex 为成绩表建立索引
func NewIndex(grades []model.GradeRecord) Index {
	idx := make(Index, len(grades)*2)
	for i, g := range grades {
		for _, f := range ident.Forms(g.ID) {
			if _, ok := idx[f]; !ok {
				idx[f] = i
			}
		}
	}
	return idx
}

// lookup 在全部等价形式中取成绩表中最靠前的一条
func (idx Index) lookup(id string) (int, bool) {
	best, found := -1, false
	for _, f := range ident.Forms(id) {
		if i, ok := idx[f]; ok && (!found || i < best) {
			best, found = i, true
		}
	}
	return best, found
}

// Join 名单顺序不变，每人恰好一行；grades 为 nil 表示成绩表缺失
func Join(roster []model.RosterRecord, grades []model.GradeRecord) []Joined {
	out := make([]Joined, len(roster))
	idx := NewIndex(grades)
	for i, r := range roster {
		out[i].Roster = r
		if pos, ok := idx.lookup(r.ID); ok {
			g := grades[pos]
			out[i].Grade = &g
		}
	}
	return out
}

// Reconcile 生成课程行；TotalDuration 此时仅为在线时长，由组装阶段加上课程时长
func Reconcile(roster []model.RosterRecord, grades []model.GradeRecord) []model.CourseRow {
	joined := Join(roster, grades)
	rows := make([]model.CourseRow, len(joined))
	for i, j := range joined {
		rows[i] = ToRow(i+1, j)
	}
	return rows
}

// ToRow 转换为输出行，未找到成绩时各字段为空串
func ToRow(seq int, j Joined) model.CourseRow {
	row := model.CourseRow{
		SequenceNo: seq,
		Name:       j.Roster.NameOrEmpty(),
		ID:         j.Roster.ID,
		Unit:       j.Roster.UnitOrEmpty(),
	}
	if j.Grade != nil {
		row.Score = j.Grade.Score
		row.ExamDate = j.Grade.ExamDate
		row.TotalDuration = j.Grade.ConnectionDuration
	}
	return row
}
