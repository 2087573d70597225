package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"rsc.io/pdf"
)

// DefaultTimeout 单次转换的超时
const DefaultTimeout = 2 * time.Minute

// LibreOffice 通过 soffice --headless 转换
type LibreOffice struct {
	// Binary 为空时在 PATH 中查找 soffice / libreoffice
	Binary  string
	Timeout time.Duration
	Log     *zap.Logger

	bin     string
	profile string
}

// NewLibreOffice 创建 LibreOffice 转换器
func NewLibreOffice(binary string, timeout time.Duration, log *zap.Logger) *LibreOffice {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LibreOffice{Binary: binary, Timeout: timeout, Log: log}
}

func (l *LibreOffice) lookup() (string, error) {
	candidates := []string{"soffice", "libreoffice"}
	if b := strings.TrimSpace(l.Binary); b != "" {
		candidates = []string{b}
	}
	var errs []error
	for _, c := range candidates {
		p, err := exec.LookPath(c)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// Available 能否找到可执行文件
func (l *LibreOffice) Available() bool {
	_, err := l.lookup()
	return err == nil
}

// Start 查找可执行文件并准备独立的用户配置目录
func (l *LibreOffice) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bin, err := l.lookup()
	if err != nil {
		return fmt.Errorf("libreoffice not found: %w", err)
	}
	profile, err := os.MkdirTemp("", "capacitacion-lo-profile-")
	if err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	l.bin, l.profile = bin, profile
	l.Log.Info("LibreOffice 已就绪", zap.String("binary", bin))
	return nil
}

// Convert 转换 inPath 并把结果放到 outPath
func (l *LibreOffice) Convert(ctx context.Context, inPath, outPath string) error {
	if l.bin == "" {
		return errors.New("libreoffice not started")
	}
	outDir, err := os.MkdirTemp("", "capacitacion-lo-out-")
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	profileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(l.profile)}).String()
	cmd := exec.CommandContext(ctx, l.bin,
		"--headless", "--norestore", "--nolockcheck",
		"-env:UserInstallation="+profileURL,
		"--convert-to", "pdf",
		"--outdir", outDir,
		inPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(string(out)))
	}

	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	produced := filepath.Join(outDir, base+".pdf")
	if _, err := VerifyPDF(produced); err != nil {
		return err
	}
	return moveFile(produced, outPath)
}

// Stop 删除用户配置目录
func (l *LibreOffice) Stop() error {
	if l.profile == "" {
		return nil
	}
	err := os.RemoveAll(l.profile)
	l.profile, l.bin = "", ""
	return err
}

// VerifyPDF 确认文件是可解析且至少有一页的 pdf，返回页数
func VerifyPDF(path string) (pages int, err error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEmptyOutput, err)
	}
	if st.Size() == 0 {
		return 0, fmt.Errorf("%w: %s has 0 bytes", ErrEmptyOutput, path)
	}
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: malformed pdf: %v", ErrEmptyOutput, r)
		}
	}()
	doc, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEmptyOutput, err)
	}
	if n := doc.NumPage(); n > 0 {
		return n, nil
	}
	return 0, fmt.Errorf("%w: no pages", ErrEmptyOutput)
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
