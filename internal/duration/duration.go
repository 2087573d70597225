// Package duration 处理 HH:MM:SS 形式的时长字符串
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Zero 空时长
const Zero = "00:00:00"

// ErrMalformed 非空但无法解析的时长
var ErrMalformed = errors.New("duration: malformed clock string")

// Parse 解析 H:MM:SS / HH:MM:SS / MM:SS，空字符串返回 ok=false 且 err=nil
func Parse(s string) (d time.Duration, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return 0, false, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	nums := make([]int64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		// 秒可能带小数（excel 时间格式导出）
		if i == len(parts)-1 {
			if dot := strings.IndexByte(p, '.'); dot >= 0 {
				p = p[:dot]
			}
		}
		n, convErr := strconv.ParseInt(p, 10, 64)
		if convErr != nil || n < 0 {
			return 0, false, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		nums[i] = n
	}

	var h, m, sec int64
	if len(nums) == 3 {
		h, m, sec = nums[0], nums[1], nums[2]
	} else {
		m, sec = nums[0], nums[1]
	}

	d = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
	return d, true, nil
}

// Format 输出补零的 HH:MM:SS，小时可以超过 24
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FromSeconds 秒数转 HH:MM:SS
func FromSeconds(sec int64) string {
	return Format(time.Duration(sec) * time.Second)
}

// Add 两个时长相加
// 缺失的一方按 0 处理；两方都缺失或都无法解析时返回 00:00:00。
// 非空且格式错误的一方被忽略，结果等于另一方，同时返回 ErrMalformed 供调用方记录告警。
func Add(a, b string) (string, error) {
	da, okA, errA := Parse(a)
	db, okB, errB := Parse(b)

	err := errors.Join(errA, errB)
	if !okA && !okB {
		return Zero, err
	}
	return Format(da + db), err
}
