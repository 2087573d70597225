package model

// RosterRecord 人员名单中的一条记录，姓名与单位可能待补全
type RosterRecord struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Unit *string `json:"unit"`
}

// NameOrEmpty 姓名，缺失时为空串
func (r RosterRecord) NameOrEmpty() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// UnitOrEmpty 单位，缺失时为空串
func (r RosterRecord) UnitOrEmpty() string {
	if r.Unit == nil {
		return ""
	}
	return *r.Unit
}

// Complete 姓名与单位是否齐全
func (r RosterRecord) Complete() bool {
	return r.Name != nil && *r.Name != "" && r.Unit != nil && *r.Unit != ""
}

// GradeRecord 成绩表中的一条记录
type GradeRecord struct {
	ID                 string `json:"id"`
	Score              string `json:"score"`
	ExamDate           string `json:"examDate"`
	ConnectionDuration string `json:"connectionDuration"`
}

// CourseRow 输出文档中的一行
type CourseRow struct {
	SequenceNo    int    `json:"sequenceNo"`
	Name          string `json:"name"`
	ID            string `json:"id"`
	Unit          string `json:"unit"`
	Score         string `json:"score"`
	ExamDate      string `json:"examDate"`
	TotalDuration string `json:"totalDuration"`
}
