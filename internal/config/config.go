package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/exporter"
)

// 环境变量
const (
	EnvCatalogPath   = "CAPACITACION_CATALOG_PATH"
	EnvSofficePath   = "CAPACITACION_SOFFICE_PATH"
	EnvSignaturesDir = "CAPACITACION_SIGNATURES_DIR"
	EnvPort          = "CAPACITACION_PORT"
)

// FileName 配置文件名
const FileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig      `toml:"server"`
	Data       DataConfig        `toml:"data"`
	Catalog    CatalogConfig     `toml:"catalog"`
	Conversion ConversionConfig  `toml:"conversion"`
	Document   exporter.Document `toml:"document"`

	// BaseDir 相对路径的基准目录（配置文件所在目录）
	BaseDir string `toml:"-"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port               int  `toml:"port"`
	DevMode            bool `toml:"dev_mode"`
	MaxUploadMB        int  `toml:"max_upload_mb"`
	UploadTTLMinutes   int  `toml:"upload_ttl_minutes"`
	DownloadTTLMinutes int  `toml:"download_ttl_minutes"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	// History 为 false 时不写运行历史
	History bool `toml:"history"`
}

// CatalogConfig 课程目录配置
type CatalogConfig struct {
	// Path 为空时使用内置目录
	Path         string `toml:"path"`
	Watch        bool   `toml:"watch"`
	PartTwoSheet int    `toml:"part_two_sheet"`
}

// ConversionConfig pdf 转换配置
type ConversionConfig struct {
	Enabled        bool   `toml:"enabled"`
	SofficePath    string `toml:"soffice_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Attempts       int    `toml:"attempts"`
}

// Timeout 单次转换超时
func (c ConversionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
	EnvFile       bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:               8501,
			MaxUploadMB:        50,
			UploadTTLMinutes:   60,
			DownloadTTLMinutes: 10,
		},
		Data: DataConfig{
			DataDir: "data",
			History: true,
		},
		Catalog: CatalogConfig{
			Watch:        true,
			PartTwoSheet: 14,
		},
		Conversion: ConversionConfig{
			Enabled:        true,
			TimeoutSeconds: 120,
			Attempts:       3,
		},
		Document: exporter.DefaultDocument(),
		BaseDir:  ".",
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFile(filepath.Join(exeDir, FileName))
}

// LoadFile 加载指定配置文件；文件不存在时使用默认配置
// 同目录的 .env 先被加载（不覆盖已有环境变量），随后应用环境变量覆盖
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()
	config.BaseDir = filepath.Dir(path)

	envPath := filepath.Join(config.BaseDir, ".env")
	if err := godotenv.Load(envPath); err == nil {
		info.EnvFile = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, info, fmt.Errorf("load %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, info, err
	default:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 环境变量覆盖
	if v := os.Getenv(EnvCatalogPath); v != "" {
		config.Catalog.Path = v
	}
	if v := os.Getenv(EnvSofficePath); v != "" {
		config.Conversion.SofficePath = v
	}
	if v := os.Getenv(EnvSignaturesDir); v != "" {
		config.Document.SignaturesDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, info, fmt.Errorf("%s: %w", EnvPort, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// Validate 检查取值范围
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port fuera de rango: %d", c.Server.Port))
	}
	if c.Conversion.Attempts < 1 {
		errs = append(errs, errors.New("conversion.attempts debe ser >= 1"))
	}
	if len(c.Document.Employers) > exporter.EmployerSlots {
		errs = append(errs, fmt.Errorf("document.employers admite como máximo %d filas", exporter.EmployerSlots))
	}
	return errors.Join(errs...)
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(config.BaseDir, FileName), data, 0644)
}

// Path 相对路径按 BaseDir 解析
func (c *AppConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// EnsureDataDir 确保数据目录存在，并为未配置的签名目录填入默认值
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Path(config.Data.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	for _, subdir := range []string{"uploads", "exports", "signatures"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	if config.Document.SignaturesDir == "" {
		config.Document.SignaturesDir = filepath.Join(dataDir, "signatures")
	} else {
		config.Document.SignaturesDir = config.Path(config.Document.SignaturesDir)
	}
	config.Document.LogoPath = config.Path(config.Document.LogoPath)
	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(config.Path(config.Data.DataDir), subdir, filename)
}
