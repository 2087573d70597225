// Package pipeline 按选择顺序逐门生成考勤表并打包
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/archive"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/assembler"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/convert"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/resolver"
)

// ErrNothingPackaged 没有任何课程进入压缩包
var ErrNothingPackaged = errors.New("pipeline: no course was packaged")

// Renderer 文档渲染器
type Renderer interface {
	Render(rows []model.CourseRow, detail model.CatalogEntry) ([]byte, error)
}

// Recorder 运行记录；写入失败只记录日志
type Recorder interface {
	CreateRun(ctx context.Context, run model.RunSummary) error
	RecordCourse(ctx context.Context, runID string, seq int, outcome model.CourseOutcome) error
	FinishRun(ctx context.Context, run model.RunSummary) error
}

// Group 按分类单独打包的一组课程
type Group struct {
	Category string   `json:"category"`
	Courses  []string `json:"courses"`
}

// Request 一次批量生成的输入
type Request struct {
	// Courses 选中的工作表标签，按此顺序生成；设置 Groups 时忽略
	Courses  []string
	Groups   []Group
	Roster   []model.RosterRecord
	Grades   assembler.GradeSource
	Format   model.OutputFormat
	Progress func(ProgressEvent)
}

// Archive 一个生成的压缩包
type Archive struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Entries  []string `json:"entries"`
	Data     []byte   `json:"-"`
}

// Result 一次运行的结果与清单
type Result struct {
	Summary  model.RunSummary      `json:"summary"`
	Archives []Archive             `json:"archives"`
	Courses  []model.CourseOutcome `json:"courses"`
	Warnings []model.Warning       `json:"warnings"`
}

// Orchestrator 生成协调器
type Orchestrator struct {
	resolver  *resolver.Resolver
	renderer  Renderer
	converter convert.Converter
	recorder  Recorder
	log       *zap.Logger

	retry   RetryPolicy
	sleep   func(time.Duration)
	now     func() time.Time
	tempDir string
}

// Option 协调器选项
type Option func(*Orchestrator)

// WithConverter 设置 pdf 转换服务；未设置时请求 pdf 按服务不可用处理
func WithConverter(c convert.Converter) Option {
	return func(o *Orchestrator) { o.converter = c }
}

// WithRecorder 设置运行记录
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRetryPolicy 替换重试策略
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// WithSleep 替换等待函数
func WithSleep(fn func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithClock 替换时钟
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) { o.now = fn }
}

// WithTempDir 转换临时文件所在目录
func WithTempDir(dir string) Option {
	return func(o *Orchestrator) { o.tempDir = dir }
}

// New 创建协调器
func New(r *resolver.Resolver, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: r,
		renderer: renderer,
		log:      zap.NewNop(),
		retry:    DefaultRetryPolicy(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type planItem struct {
	label    string
	category string
}

func plan(req Request) ([]planItem, []string) {
	if len(req.Groups) == 0 {
		items := make([]planItem, 0, len(req.Courses))
		for _, c := range req.Courses {
			items = append(items, planItem{label: c})
		}
		return items, []string{""}
	}
	var items []planItem
	var categories []string
	for _, g := range req.Groups {
		categories = append(categories, g.Category)
		for _, c := range g.Courses {
			items = append(items, planItem{label: c, category: g.Category})
		}
	}
	return items, categories
}

// runState 一次运行内共享的状态
type runState struct {
	req      Request
	asm      *assembler.Assembler
	session  *convert.Session
	writers  map[string]*archive.Writer
	degraded bool
}

// Run 逐门生成并打包；单门课程的失败只产生告警
// ctx 只在课程之间检查，取消时返回已完成部分的压缩包
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.Format.Valid() {
		return nil, fmt.Errorf("pipeline: formato de salida desconocido %q", req.Format)
	}
	items, categories := plan(req)
	if len(items) == 0 {
		return nil, fmt.Errorf("pipeline: no se seleccionó ningún curso")
	}

	started := o.now()
	res := &Result{Summary: model.RunSummary{
		ID:        uuid.NewString(),
		Format:    req.Format,
		StartedAt: started,
		Courses:   len(items),
	}}
	log := o.log.With(zap.String("run", res.Summary.ID))
	o.recordStart(ctx, res.Summary)

	st := &runState{
		req:     req,
		asm:     assembler.New(o.resolver, req.Grades, log),
		writers: make(map[string]*archive.Writer, len(categories)),
	}
	for _, c := range categories {
		st.writers[c] = archive.NewWriter(started)
	}

	if req.Format.WantsPDF() {
		session, err := convert.Acquire(ctx, o.converter, log)
		if err != nil {
			st.degraded = true
			w := model.Warning{
				Kind:    model.WarnConverterUnavailable,
				Message: fmt.Sprintf("no se pudo iniciar el conversor a PDF; se generan archivos Excel: %v", err),
			}
			res.Warnings = append(res.Warnings, w)
			o.report(req.Progress, EventWarning, w.Message, w)
			log.Warn("转换服务不可用，降级为 xlsx", zap.Error(err))
		} else {
			st.session = session
			defer func() { _ = session.Release() }()
		}
	}

	o.report(req.Progress, EventStart, fmt.Sprintf("Generando %d curso(s)", len(items)), map[string]interface{}{
		"run":   res.Summary.ID,
		"total": len(items),
	})

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			res.Summary.Cancelled = true
			log.Info("运行已取消", zap.Int("done", i), zap.Int("total", len(items)))
			break
		}
		o.report(req.Progress, EventCourseStart, fmt.Sprintf("Procesando %s", item.label), CourseProgress{
			Index: i + 1, Total: len(items), Course: item.label, Percent: percentOf(i, len(items)),
		})

		outcome := o.runCourse(context.WithoutCancel(ctx), st, item)
		res.Courses = append(res.Courses, outcome)
		res.Warnings = append(res.Warnings, outcome.Warnings...)
		if outcome.State == model.StatePackaged {
			res.Summary.Packaged++
		} else {
			res.Summary.Failed++
		}
		o.recordCourse(ctx, res.Summary.ID, i+1, outcome)

		o.report(req.Progress, EventCourseDone, fmt.Sprintf("%s: %s", item.label, outcome.Status), CourseProgress{
			Index: i + 1, Total: len(items), Course: item.label, Percent: percentOf(i+1, len(items)), Status: string(outcome.Status),
		})
	}

	for _, c := range categories {
		w := st.writers[c]
		if w.Len() == 0 {
			continue
		}
		data, err := w.Close()
		if err != nil {
			return nil, fmt.Errorf("pipeline: cerrar %s: %w", archive.ArchiveName(req.Format, c), err)
		}
		a := Archive{Name: archive.ArchiveName(req.Format, c), Category: c, Entries: w.Entries(), Data: data}
		res.Archives = append(res.Archives, a)
		res.Summary.Archives = append(res.Summary.Archives, a.Name)
	}

	res.Summary.Warnings = len(res.Warnings)
	res.Summary.FinishedAt = o.now()
	o.recordFinish(ctx, res.Summary)

	log.Info("生成完成",
		zap.Int("courses", len(items)),
		zap.Int("packaged", res.Summary.Packaged),
		zap.Int("failed", res.Summary.Failed),
		zap.Int("warnings", len(res.Warnings)),
		zap.Bool("cancelled", res.Summary.Cancelled))
	o.report(req.Progress, EventDone, "Generación completada", res.Summary)

	if res.Summary.Packaged == 0 {
		if res.Summary.Cancelled {
			return res, fmt.Errorf("%w: %w", ErrNothingPackaged, ctx.Err())
		}
		return res, ErrNothingPackaged
	}
	return res, nil
}

// artifact 待写入压缩包的文件
type artifact struct {
	ext  string
	data []byte
}

// runCourse 处理一门课程；panic 在此处恢复并记为渲染错误
func (o *Orchestrator) runCourse(ctx context.Context, st *runState, item planItem) (out model.CourseOutcome) {
	out = model.CourseOutcome{Label: item.label, Category: item.category, State: model.StatePending}
	log := o.log.With(zap.String("course", item.label))

	defer func() {
		if r := recover(); r != nil {
			log.Error("课程处理 panic", zap.Any("panic", r), zap.String("state", string(out.State)))
			out.Warnings = append(out.Warnings, model.Warning{
				Kind:    model.WarnRenderError,
				Course:  item.label,
				Message: fmt.Sprintf("error inesperado: %v", r),
			})
			out.Status = model.StatusFailed
		}
	}()

	rc := st.asm.Resolve(item.label)
	out.State = model.StateResolved
	out.CanonicalName = rc.CanonicalName
	out.Method = rc.Method

	data := st.asm.Assemble(rc, st.req.Roster)
	out.State = model.StateAssembled
	out.Rows = len(data.Rows)
	out.Warnings = append(out.Warnings, data.Warnings...)

	xlsx, err := o.renderer.Render(data.Rows, data.Detail)
	if err == nil && len(xlsx) == 0 {
		err = errors.New("el renderizador no devolvió contenido")
	}
	if err != nil {
		log.Error("渲染失败", zap.Error(err))
		out.Warnings = append(out.Warnings, model.Warning{
			Kind:    model.WarnRenderError,
			Course:  item.label,
			Message: fmt.Sprintf("no se pudo generar el formato: %v", err),
		})
		out.Status = model.StatusFailed
		return out
	}
	out.State = model.StateRendered

	format := st.req.Format
	var files []artifact
	if format.WantsExcel() || st.degraded {
		files = append(files, artifact{ext: "xlsx", data: xlsx})
	}
	if format.WantsPDF() && st.session != nil {
		pdf, attempts, err := o.convertWithRetry(ctx, st.session, item.label, xlsx)
		out.ConversionAttempts = attempts
		if err != nil {
			msg := fmt.Sprintf("no se generó el PDF tras %d intentos: %v", attempts, err)
			if !format.WantsExcel() {
				msg += "; se incluye el Excel como respaldo"
				files = append(files, artifact{ext: "xlsx", data: xlsx})
			}
			out.Warnings = append(out.Warnings, model.Warning{
				Kind:    model.WarnConversionFailure,
				Course:  item.label,
				Message: msg,
			})
		} else {
			out.State = model.StateConverted
			files = append(files, artifact{ext: "pdf", data: pdf})
		}
	}

	w := st.writers[item.category]
	for _, f := range files {
		entry, err := w.Add(archive.ArtifactName(rc.CanonicalName, data.Unit(), f.ext), f.data)
		if err != nil {
			log.Error("写入压缩包失败", zap.Error(err))
			out.Warnings = append(out.Warnings, model.Warning{
				Kind:    model.WarnRenderError,
				Course:  item.label,
				Message: fmt.Sprintf("no se pudo agregar al ZIP: %v", err),
			})
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	if len(out.Entries) == 0 {
		out.Status = model.StatusFailed
		return out
	}

	out.State = model.StatePackaged
	if len(out.Warnings) > 0 {
		out.Status = model.StatusSucceededWithWarning
	} else {
		out.Status = model.StatusSucceeded
	}
	return out
}

func (o *Orchestrator) recordStart(ctx context.Context, run model.RunSummary) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		o.log.Warn("运行记录写入失败", zap.String("run", run.ID), zap.Error(err))
	}
}

func (o *Orchestrator) recordCourse(ctx context.Context, runID string, seq int, outcome model.CourseOutcome) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordCourse(context.WithoutCancel(ctx), runID, seq, outcome); err != nil {
		o.log.Warn("课程记录写入失败", zap.String("run", runID), zap.Error(err))
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, run model.RunSummary) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		o.log.Warn("运行记录写入失败", zap.String("run", run.ID), zap.Error(err))
	}
}
