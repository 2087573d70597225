package pipeline

import "time"

// 进度事件类型
const (
	EventStart       = "start"
	EventCourseStart = "course_start"
	EventCourseDone  = "course_done"
	EventWarning     = "warning"
	EventDone        = "done"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// CourseProgress course_start / course_done 事件的附加数据
type CourseProgress struct {
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Course  string `json:"course"`
	Percent int    `json:"percent"`
	Status  string `json:"status,omitempty"`
}

func percentOf(done, total int) int {
	if total <= 0 {
		return 100
	}
	p := done * 100 / total
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

func (o *Orchestrator) report(fn func(ProgressEvent), typ, msg string, data interface{}) {
	if fn == nil {
		return
	}
	fn(ProgressEvent{
		Type:      typ,
		Message:   msg,
		Data:      data,
		Timestamp: o.now(),
	})
}
