// Package config 读取项目的 pcode.toml
package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/pcode/internal/catalog"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/inference"
	"github.com/tangzhangming/pcode/internal/source"
)

// 常量定义
const (
	ConfigFileName = "pcode.toml" // 配置文件名

	DefaultTimeout = 5 * time.Second
)

// Config 项目配置
type Config struct {
	Inference InferenceConfig `toml:"inference"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Source    SourceConfig    `toml:"source"`
	Log       LogConfig       `toml:"log"`

	// 相对路径的基准目录，即配置文件所在目录
	dir string
}

// InferenceConfig [inference]
type InferenceConfig struct {
	Mode              inference.Mode `toml:"mode"`
	Timeout           Duration       `toml:"timeout"`
	TreatUnknownAsAny bool           `toml:"treat_unknown_as_any"`
	Incremental       bool           `toml:"incremental"`
}

// CatalogConfig [catalog]
type CatalogConfig struct {
	// Path 二进制目录或 YAML 定义文件，为空时使用内置目录
	Path string `toml:"path"`
}

// SourceConfig [source]
type SourceConfig struct {
	Dir    string `toml:"dir"`    // 按包路径组织的源码目录
	SQLite string `toml:"sqlite"` // 源码数据库
}

// LogConfig [log]
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration 以 "5s"、"250ms" 形式书写的时长
type Duration time.Duration

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText 实现 encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Inference: InferenceConfig{
			Mode:    inference.Quick,
			Timeout: Duration(DefaultTimeout),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 从文件加载配置，缺省的字段取默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.dir = abs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover 从 startPath 向上查找配置文件；找不到时返回以 startPath 为基准的默认配置
func Discover(startPath string) (*Config, error) {
	if path := FindConfigFile(startPath); path != "" {
		return Load(path)
	}
	cfg := Default()
	cfg.dir = baseDir(startPath)
	return cfg, nil
}

// Validate 检查全部字段，返回合并后的错误
func (c *Config) Validate() error {
	var err error
	if c.Inference.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("inference.timeout must not be negative, got %s", time.Duration(c.Inference.Timeout)))
	}
	if c.Log.Level != "" {
		var lvl zapcore.Level
		if e := lvl.UnmarshalText([]byte(c.Log.Level)); e != nil {
			err = multierr.Append(err, fmt.Errorf("log.level: %w", e))
		}
	}
	if c.Catalog.Path != "" {
		if _, e := os.Stat(c.Resolve(c.Catalog.Path)); e != nil {
			err = multierr.Append(err, fmt.Errorf("catalog.path: %w", e))
		}
	}
	if c.Source.Dir != "" {
		info, e := os.Stat(c.Resolve(c.Source.Dir))
		switch {
		case e != nil:
			err = multierr.Append(err, fmt.Errorf("source.dir: %w", e))
		case !info.IsDir():
			err = multierr.Append(err, fmt.Errorf("source.dir: %s is not a directory", c.Source.Dir))
		}
	}
	return err
}

// Dir 相对路径的基准目录
func (c *Config) Dir() string { return c.dir }

// Resolve 把配置中的相对路径转换为基于配置文件目录的路径
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Options 推断参数；Classes、Catalog 等依赖由调用方填入
func (c *Config) Options() inference.Options {
	return inference.Options{
		Mode:              c.Inference.Mode,
		Timeout:           time.Duration(c.Inference.Timeout),
		TreatUnknownAsAny: c.Inference.TreatUnknownAsAny,
		Incremental:       c.Inference.Incremental,
	}
}

// OpenCatalog 打开配置的签名目录，未配置时使用内置目录
func (c *Config) OpenCatalog() (*catalog.Catalog, error) {
	if c.Catalog.Path == "" {
		return catalog.Default()
	}
	return catalog.Load(c.Resolve(c.Catalog.Path))
}

// SourceDir 源码目录；未配置时使用配置文件所在目录，两者都没有时为 nil
func (c *Config) SourceDir() *source.Dir {
	switch {
	case c.Source.Dir != "":
		return source.NewDir(c.Resolve(c.Source.Dir))
	case c.dir != "":
		return source.NewDir(c.dir)
	}
	return nil
}

// Sources 按配置组装源码提供者：目录优先，其次是数据库
//
// 返回的 close 函数释放数据库连接；都未配置时提供者为 nil。
func (c *Config) Sources(ctx context.Context) (classinfo.SourceProvider, func() error, error) {
	var chain source.Chain
	var closers []func() error

	if d := c.SourceDir(); d != nil {
		chain = append(chain, d)
	}
	if c.Source.SQLite != "" {
		db, err := source.OpenSQLite(ctx, c.Resolve(c.Source.SQLite))
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, db)
		closers = append(closers, db.Close)
	}

	closeAll := func() error {
		var err error
		for _, fn := range closers {
			err = multierr.Append(err, fn())
		}
		return err
	}
	if len(chain) == 0 {
		return nil, closeAll, nil
	}
	return chain, closeAll, nil
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[inference]\n")
	sb.WriteString("# disabled | quick | thorough\n")
	fmt.Fprintf(&sb, "mode = %q\n", c.Inference.Mode)
	sb.WriteString("# 单个文件的推断时限\n")
	fmt.Fprintf(&sb, "timeout = %q\n", time.Duration(c.Inference.Timeout))
	sb.WriteString("# 涉及 Unknown 的错误降级为警告\n")
	fmt.Fprintf(&sb, "treat_unknown_as_any = %t\n", c.Inference.TreatUnknownAsAny)
	fmt.Fprintf(&sb, "incremental = %t\n\n", c.Inference.Incremental)

	sb.WriteString("[catalog]\n")
	sb.WriteString("# 二进制目录或 YAML 定义文件，留空使用内置目录\n")
	fmt.Fprintf(&sb, "path = %q\n\n", c.Catalog.Path)

	sb.WriteString("[source]\n")
	sb.WriteString("# 应用类源码目录（PKG/SUB/Class.pcode）\n")
	fmt.Fprintf(&sb, "dir = %q\n", c.Source.Dir)
	sb.WriteString("# 源码数据库，可用 pcode source import 生成\n")
	fmt.Fprintf(&sb, "sqlite = %q\n\n", c.Source.SQLite)

	sb.WriteString("[log]\n")
	fmt.Fprintf(&sb, "level = %q\n", c.Log.Level)
	fmt.Fprintf(&sb, "file = %q\n", c.Log.File)

	return sb.String()
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	dir := baseDir(startPath)
	if dir == "" {
		return ""
	}

	// 向上查找
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// 已到达根目录
			return ""
		}
		dir = parent
	}
}

// ProjectRoot 获取项目根目录（配置文件所在目录）
func ProjectRoot(startPath string) string {
	configPath := FindConfigFile(startPath)
	if configPath == "" {
		return ""
	}
	return filepath.Dir(configPath)
}

// baseDir 文件取其所在目录，并转换为绝对路径
func baseDir(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}
	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	return abs
}
