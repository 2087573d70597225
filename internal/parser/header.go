package parser

import "fmt"

// columnRule 某个角色可接受的表头写法
type columnRule struct {
	Role     ColumnRole
	Required bool
	Match    func(header string) bool
}

func exact(candidates ...string) func(string) bool {
	return func(h string) bool { return EqualsAny(h, candidates) }
}

// rosterRules 人员名单表头
func rosterRules() []columnRule {
	return []columnRule{
		{Role: RoleID, Required: true, Match: exact("DOCUMENTO", "DNI", "DOC", "N° DOCUMENTO", "NRO DOCUMENTO", "NUMERO DE DOCUMENTO")},
		{Role: RoleName, Match: exact("APELLIDOS Y NOMBRES", "NOMBRES Y APELLIDOS", "NOMBRE", "NOMBRES", "NOMBRE COMPLETO")},
		{Role: RoleUnit, Match: exact("UNIDAD", "UNID", "CLIENTE", "UNIDAD (CLIENTE)")},
	}
}

// gradeRules 成绩表表头
func gradeRules() []columnRule {
	return []columnRule{
		{Role: RoleID, Required: true, Match: exact("DNI", "DOCUMENTO")},
		{Role: RoleScore, Match: exact("NOTA", "CALIFICACION")},
		{Role: RoleExamDate, Match: exact("FECHA DEL EXAMEN", "FECHA EXAMEN", "FECHA")},
		{Role: RoleDuration, Match: exact("DURACIÓN", "TIEMPO DE CONEXION", "HORA CONEXION")},
	}
}

// detectHeader 在前 maxScan 行中查找首个包含全部必需列的表头行
// 同一角色出现多次时取最左侧的列
func detectHeader(rows [][]string, rules []columnRule, maxScan int) (HeaderLayout, error) {
	if maxScan <= 0 || maxScan > len(rows) {
		maxScan = len(rows)
	}

	for r := 0; r < maxScan; r++ {
		layout := HeaderLayout{Row: r, Columns: make(map[ColumnRole]int)}
		for c, header := range rows[r] {
			for _, rule := range rules {
				if _, seen := layout.Columns[rule.Role]; seen {
					continue
				}
				if rule.Match(header) {
					layout.Columns[rule.Role] = c
					break
				}
			}
		}

		complete := true
		for _, rule := range rules {
			if _, ok := layout.Columns[rule.Role]; ok {
				continue
			}
			if rule.Required {
				complete = false
				break
			}
			layout.Missing = append(layout.Missing, rule.Role)
		}
		if complete {
			return layout, nil
		}
	}

	var required []ColumnRole
	for _, rule := range rules {
		if rule.Required {
			required = append(required, rule.Role)
		}
	}
	return HeaderLayout{}, fmt.Errorf("%w: %v in first %d rows", ErrColumnNotFound, required, maxScan)
}
