package model

import "time"

// CourseState 单门课程的处理阶段
type CourseState string

const (
	StatePending   CourseState = "pending"
	StateResolved  CourseState = "resolved"
	StateAssembled CourseState = "assembled"
	StateRendered  CourseState = "rendered"
	StateConverted CourseState = "converted"
	StatePackaged  CourseState = "packaged"
)

// CourseStatus 单门课程的最终结果
type CourseStatus string

const (
	StatusSucceeded            CourseStatus = "succeeded"
	StatusSucceededWithWarning CourseStatus = "succeeded_with_warning"
	StatusFailed               CourseStatus = "failed"
)

// CourseOutcome 清单中的一门课程
type CourseOutcome struct {
	Label              string       `json:"label"`
	Category           string       `json:"category,omitempty"`
	CanonicalName      string       `json:"canonicalName"`
	Method             MatchMethod  `json:"method"`
	State              CourseState  `json:"state"`
	Status             CourseStatus `json:"status"`
	Rows               int          `json:"rows"`
	ConversionAttempts int          `json:"conversionAttempts,omitempty"`
	Entries            []string     `json:"entries"`
	Warnings           []Warning    `json:"warnings"`
}

// RunSummary 一次批量生成的概要
type RunSummary struct {
	ID         string       `json:"id"`
	Format     OutputFormat `json:"format"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt,omitempty"`
	Courses    int          `json:"courses"`
	Packaged   int          `json:"packaged"`
	Failed     int          `json:"failed"`
	Warnings   int          `json:"warnings"`
	Cancelled  bool         `json:"cancelled"`
	Archives   []string     `json:"archives"`
}
