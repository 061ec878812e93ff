package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tangzhangming/pcode/internal/signature"
)

// Hash 不区分大小写的 32 位 FNV-1a，目录的键哈希
func Hash(name string) uint32 {
	return signature.Hash(name)
}

// Catalog 内置签名目录：函数、系统变量与内置对象
type Catalog struct {
	r *Reader
}

// New 包装一个读取器
func New(r *Reader) *Catalog {
	return &Catalog{r: r}
}

// FromDefinitions 把 YAML 定义编译为带名称表的二进制目录并加载
func FromDefinitions(defs *Definitions) (*Catalog, error) {
	w, err := defs.Writer(WithNameTable())
	if err != nil {
		return nil, err
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	r, err := NewReader(data)
	if err != nil {
		return nil, err
	}
	return New(r), nil
}

// Load 按后缀加载目录：.yaml/.yml 为定义文件，其余按二进制目录打开
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		defs, err := LoadDefinitions(f)
		if err != nil {
			return nil, err
		}
		return FromDefinitions(defs)
	}
	r, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	return New(r), nil
}

// Reader 底层读取器
func (c *Catalog) Reader() *Reader { return c.r }

// Close 释放底层文件
func (c *Catalog) Close() error { return c.r.Close() }

// Function 查找内置函数
func (c *Catalog) Function(name string) (*signature.FunctionInfo, bool) {
	return c.r.LookupFunction(name)
}

// SystemVariable 查找系统变量，名称可带或不带 '%'
func (c *Catalog) SystemVariable(name string) (*signature.PropertyInfo, bool) {
	if !strings.HasPrefix(name, "%") {
		name = "%" + name
	}
	return c.r.LookupProperty(name)
}

// Object 查找内置对象
func (c *Catalog) Object(name string) (*signature.BuiltinObjectInfo, bool) {
	return c.r.LookupObject(name)
}

//go:embed builtins.yaml
var builtinsYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default 返回由内嵌定义构建的目录，进程内只构建一次
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defs, err := LoadDefinitions(bytes.NewReader(builtinsYAML))
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = FromDefinitions(defs)
	})
	return defaultCatalog, defaultErr
}

// DefaultDefinitions 内嵌的定义源文件
func DefaultDefinitions() []byte {
	return builtinsYAML
}
