package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// box 图片可用区域（像素）
type box struct {
	W, H int
}

// fitSize 保持宽高比缩放到 fill 比例的区域内
func fitSize(w, h int, b box, fill float64) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	tw := float64(b.W) * fill
	th := float64(b.H) * fill
	aspect := float64(w) / float64(h)
	if tw/aspect <= th {
		return int(tw), int(tw / aspect)
	}
	return int(th * aspect), int(th)
}

// placed 已缩放、可直接插入的图片
type placed struct {
	data []byte
	w, h int
}

// prepareImage 读取并缩放图片，编码为 PNG
func prepareImage(path string, b box, fill float64) (placed, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return placed{}, err
	}
	w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), b, fill)
	if w == 0 || h == 0 {
		return placed{}, fmt.Errorf("imagen vacía: %s", path)
	}
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return placed{}, fmt.Errorf("codificar %s: %w", path, err)
	}
	return placed{data: buf.Bytes(), w: w, h: h}, nil
}

// signaturePath 在签名目录中查找文件，没有扩展名时依次尝试 .png/.jpg，找不到时尝试默认签名
func (r *Renderer) signaturePath(name string) (string, bool) {
	dir := strings.TrimSpace(r.doc.SignaturesDir)
	if dir == "" {
		return "", false
	}
	for _, candidate := range []string{name, r.doc.DefaultSignature} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		base := filepath.Base(candidate)
		names := []string{base}
		if filepath.Ext(base) == "" {
			names = append(names, base+".png", base+".jpg")
		}
		for _, n := range names {
			p := filepath.Join(dir, n)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	return "", false
}

// loadSignature 找不到或无法读取的签名被跳过
func (r *Renderer) loadSignature(name string, b box, fill float64) (placed, bool) {
	p, ok := r.signaturePath(name)
	if !ok {
		r.log.Debug("未找到签名图片，跳过", zap.String("signature", name))
		return placed{}, false
	}
	img, err := prepareImage(p, b, fill)
	if err != nil {
		r.log.Warn("签名图片读取失败，跳过", zap.String("path", p), zap.Error(err))
		return placed{}, false
	}
	return img, true
}

func (r *Renderer) loadLogo() (placed, bool) {
	p := strings.TrimSpace(r.doc.LogoPath)
	if p == "" {
		return placed{}, false
	}
	img, err := prepareImage(p, logoBox, 1)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("logo 读取失败，跳过", zap.String("path", p), zap.Error(err))
		}
		return placed{}, false
	}
	return img, true
}

func addPicture(f *excelize.File, sheet, cell string, img placed, offsetX, offsetY int) error {
	return f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      img.data,
		Format: &excelize.GraphicOptions{
			OffsetX:         offsetX,
			OffsetY:         offsetY,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
}
