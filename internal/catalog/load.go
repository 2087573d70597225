package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
)

//go:embed default_catalog.yaml
var embeddedCatalog []byte

var clockRe = regexp.MustCompile(`^\d{1,3}:[0-5]\d(:[0-5]\d)?$`)

// fileFormat 目录文件结构（YAML，JSON 同样可解析）
type fileFormat struct {
	Default *model.CatalogEntry  `yaml:"default" validate:"-"`
	Courses []model.CatalogEntry `yaml:"courses" validate:"dive"`
	Aliases []Alias              `yaml:"aliases" validate:"dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRe.MatchString(fl.Field().String())
	})
	return v
}

// Parse 解析目录文件内容
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := newValidator().Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed on %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	opts := []Option{WithAliases(f.Aliases...)}
	if f.Default != nil {
		opts = append(opts, WithDefault(*f.Default))
	}
	return New(f.Courses, opts...)
}

// Load 从文件加载目录
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Embedded 内置目录
func Embedded() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadOrEmbedded 路径为空时使用内置目录
func LoadOrEmbedded(path string) (*Catalog, error) {
	if path == "" {
		return Embedded(), nil
	}
	return Load(path)
}
