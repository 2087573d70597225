// Package archive 负责文件命名与 zip 打包
package archive

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

// NoUnit 单位为空时文件名使用的占位
const NoUnit = "Sin_Unidad"

var (
	forbiddenChars = strings.NewReplacer(
		"<", "-", ">", "-", ":", "-", `"`, "-", "/", "-", `\`, "-",
		"|", "-", "?", "-", "*", "-", "[", "-", "]", "-",
	)
	spaceRun  = regexp.MustCompile(`\s+`)
	dashGroup = regexp.MustCompile(`\s*(?:-\s*)+`)
)

// Sanitize 生成可用作文件名与工作表名的字符串；对结果再次调用不会改变它
func Sanitize(name string) string {
	s := forbiddenChars.Replace(name)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = spaceRun.ReplaceAllString(s, " ")
	s = dashGroup.ReplaceAllString(s, " - ")
	return strings.Trim(s, " -")
}

// ArtifactName 单门课程的产物文件名："{课程} - {单位}.{扩展名}"
func ArtifactName(course, unit, ext string) string {
	u := Sanitize(unit)
	if u == "" {
		u = NoUnit
	}
	return fmt.Sprintf("%s - %s.%s", Sanitize(course), u, strings.TrimPrefix(ext, "."))
}

// modeSuffix 压缩包名称中的格式部分
func modeSuffix(f model.OutputFormat) string {
	switch f {
	case model.OutputPDF:
		return "PDF"
	case model.OutputBoth:
		return "Excel_PDF"
	default:
		return "Excel"
	}
}

// ArchiveName 压缩包名称；category 非空时按分类命名
func ArchiveName(f model.OutputFormat, category string) string {
	if c := strings.ReplaceAll(Sanitize(category), " ", "_"); c != "" {
		return fmt.Sprintf("Formatos_Capacitacion_%s_%s.zip", c, modeSuffix(f))
	}
	return fmt.Sprintf("Formatos_Capacitacion_%s.zip", modeSuffix(f))
}

// Writer 内存中的 zip 写入器；重名条目自动追加 " (n)"
type Writer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	zw       *zip.Writer
	names    map[string]int
	entries  []string
	modified time.Time
	closed   bool
}

// NewWriter 创建写入器，条目修改时间取 modified
func NewWriter(modified time.Time) *Writer {
	w := &Writer{names: make(map[string]int), modified: modified}
	w.zw = zip.NewWriter(&w.buf)
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return w
}

// Add 写入一个条目，返回实际使用的名称
func (w *Writer) Add(name string, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", fmt.Errorf("archive: write after close")
	}

	entry := w.uniqueName(name)
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return "", fmt.Errorf("archive: create %s: %w", entry, err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", entry, err)
	}
	w.entries = append(w.entries, entry)
	return entry, nil
}

func (w *Writer) uniqueName(name string) string {
	n := w.names[name]
	w.names[name] = n + 1
	if n == 0 {
		return name
	}
	ext := ""
	base := name
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		base, ext = name[:dot], name[dot:]
	}
	for i := n + 1; ; i++ {
		candidate := base + " (" + strconv.Itoa(i) + ")" + ext
		if _, taken := w.names[candidate]; !taken {
			w.names[candidate] = 1
			return candidate
		}
	}
}

// Len 已写入的条目数
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Entries 已写入的条目名称，按写入顺序
func (w *Writer) Entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.entries...)
}

// Close 完成压缩包并返回字节；只能调用一次
func (w *Writer) Close() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, fmt.Errorf("archive: already closed")
	}
	w.closed = true
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}
	return w.buf.Bytes(), nil
}
