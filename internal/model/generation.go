package model

// OutputFormat 输出格式
type OutputFormat string

const (
	OutputExcel OutputFormat = "excel"
	OutputPDF   OutputFormat = "pdf"
	OutputBoth  OutputFormat = "both"
)

// WantsExcel 是否需要打包 xlsx
func (f OutputFormat) WantsExcel() bool {
	return f == OutputExcel || f == OutputBoth
}

// WantsPDF 是否需要转换 pdf
func (f OutputFormat) WantsPDF() bool {
	return f == OutputPDF || f == OutputBoth
}

// Valid 是否为已知格式
func (f OutputFormat) Valid() bool {
	switch f {
	case OutputExcel, OutputPDF, OutputBoth:
		return true
	}
	return false
}

// WarningKind 告警类型
type WarningKind string

const (
	WarnResolutionMiss       WarningKind = "ResolutionMiss"
	WarnDataLoadError        WarningKind = "DataLoadError"
	WarnDurationFormat       WarningKind = "DurationFormat"
	WarnRenderError          WarningKind = "RenderError"
	WarnConversionFailure    WarningKind = "ConversionFailure"
	WarnConverterUnavailable WarningKind = "ConverterUnavailable"
)

// Warning 非致命告警，随压缩包一起返回给用户
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Course  string      `json:"course,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Course == "" {
		return string(w.Kind) + ": " + w.Message
	}
	return string(w.Kind) + " [" + w.Course + "]: " + w.Message
}

// GenerationResult 单门课程的生成产物
type GenerationResult struct {
	CanonicalName     string    `json:"canonicalName"`
	SanitizedFilename string    `json:"sanitizedFilename"`
	RenderedBytes     []byte    `json:"-"`
	ConvertedBytes    []byte    `json:"-"`
	Warnings          []Warning `json:"warnings"`
}
