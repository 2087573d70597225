// Package assembler 组装单门课程的数据：目录信息 + 名单成绩关联 + 时长合计
package assembler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/duration"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/reconcile"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
)

// GradeSource 按工作表名称读取成绩
type GradeSource interface {
	LoadGrades(sheet string) ([]model.GradeRecord, error)
}

// CourseData 单门课程的完整数据
type CourseData struct {
	Resolved     model.ResolvedCourse
	Detail       model.CatalogEntry
	Rows         []model.CourseRow
	GradesLoaded bool
	Warnings     []model.Warning
}

// Unit 文件名使用的单位：取第一行的单位
func (d CourseData) Unit() string {
	if len(d.Rows) == 0 || d.Rows[0].Unit == "" {
		return "Sin_Unidad"
	}
	return d.Rows[0].Unit
}

// Assembler 课程数据组装器
type Assembler struct {
	resolver *resolver.Resolver
	source   GradeSource
	log      *zap.Logger
}

// New 创建组装器
func New(r *resolver.Resolver, source GradeSource, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{resolver: r, source: source, log: log}
}

// Resolve 解析课程标签
func (a *Assembler) Resolve(label string) model.ResolvedCourse {
	return a.resolver.Resolve(label)
}

// Assemble 读取成绩并与名单关联；成绩表读取失败时记录告警并以空成绩继续
func (a *Assembler) Assemble(rc model.ResolvedCourse, roster []model.RosterRecord) CourseData {
	data := CourseData{Resolved: rc, Detail: rc.Entry}
	if !rc.Matched() {
		data.Warnings = append(data.Warnings, model.Warning{
			Kind:    model.WarnResolutionMiss,
			Course:  rc.RawLabel,
			Message: "el curso no está en el catálogo; se usan valores por defecto",
		})
	}

	var grades []model.GradeRecord
	if a.source == nil {
		data.Warnings = append(data.Warnings, model.Warning{
			Kind:    model.WarnDataLoadError,
			Course:  rc.RawLabel,
			Message: "no se cargó el maestro de notas; se generan filas sin nota",
		})
	} else {
		loaded, err := a.source.LoadGrades(rc.RawLabel)
		if err != nil {
			a.log.Warn("成绩表读取失败，使用空成绩", zap.String("course", rc.RawLabel), zap.Error(err))
			data.Warnings = append(data.Warnings, model.Warning{
				Kind:    model.WarnDataLoadError,
				Course:  rc.RawLabel,
				Message: fmt.Sprintf("no se pudo cargar la hoja de notas: %v", err),
			})
		} else {
			grades = loaded
			data.GradesLoaded = true
		}
	}

	data.Rows = reconcile.Reconcile(roster, grades)

	if _, _, err := duration.Parse(rc.Entry.Duration); err != nil {
		data.Warnings = append(data.Warnings, model.Warning{
			Kind:    model.WarnDurationFormat,
			Course:  rc.RawLabel,
			Message: fmt.Sprintf("duración del catálogo inválida %q; se usa 00:00:00", rc.Entry.Duration),
		})
	}

	var malformed []string
	for i := range data.Rows {
		total, err := duration.Add(data.Rows[i].TotalDuration, rc.Entry.Duration)
		if errors.Is(err, duration.ErrMalformed) && data.Rows[i].TotalDuration != "" {
			if _, _, connErr := duration.Parse(data.Rows[i].TotalDuration); connErr != nil {
				malformed = append(malformed, data.Rows[i].ID)
			}
		}
		data.Rows[i].TotalDuration = total
	}
	if len(malformed) > 0 {
		data.Warnings = append(data.Warnings, model.Warning{
			Kind:    model.WarnDurationFormat,
			Course:  rc.RawLabel,
			Message: fmt.Sprintf("%d fila(s) con tiempo de conexión inválido (DNI %v); se usó solo la duración del curso", len(malformed), malformed),
		})
	}

	a.log.Debug("课程数据已组装",
		zap.String("course", rc.RawLabel),
		zap.String("canonical", rc.CanonicalName),
		zap.Int("rows", len(data.Rows)),
		zap.Bool("grades", data.GradesLoaded))
	return data
}
