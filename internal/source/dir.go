package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir 从目录树读取源码
//
// PKG:SUB:Class 对应 {root}/src/PKG/SUB/Class.pcode 或 {root}/PKG/SUB/Class.pcode，
// 每一段路径都不区分大小写。
type Dir struct {
	Root string
}

// NewDir 创建目录提供者
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// TryGetProgramSource 实现 classinfo.SourceProvider
func (d *Dir) TryGetProgramSource(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path, ok := d.Locate(name)
	if !ok {
		return "", false, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(content), true, nil
}

// Locate 返回限定名对应的文件路径
func (d *Dir) Locate(name string) (string, bool) {
	parts := strings.Split(name, ":")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
			return "", false
		}
	}
	parts[len(parts)-1] += FileExtension

	// 先在 src/ 目录查找，然后在根目录查找
	for _, base := range []string{filepath.Join(d.Root, "src"), d.Root} {
		if path, ok := lookupFold(base, parts); ok {
			return path, true
		}
	}
	return "", false
}

// lookupFold 逐段查找路径，精确匹配失败时按不区分大小写匹配目录项
func lookupFold(base string, parts []string) (string, bool) {
	dir := base
	for i, part := range parts {
		last := i == len(parts)-1
		exact := filepath.Join(dir, part)
		if info, err := os.Stat(exact); err == nil && info.IsDir() != last {
			dir = exact
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", false
		}
		found := false
		for _, e := range entries {
			if e.IsDir() != last && strings.EqualFold(e.Name(), part) {
				dir = filepath.Join(dir, e.Name())
				found = true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	return dir, true
}

// NameOf 把相对于根目录的文件路径转换为限定名
func (d *Dir) NameOf(path string) (string, error) {
	rel, err := filepath.Rel(d.Root, path)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(rel), FileExtension) {
		return "", fmt.Errorf("%s: not a %s file", path, FileExtension)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 && strings.EqualFold(parts[0], "src") {
		parts = parts[1:]
	}
	for _, p := range parts {
		if p == ".." {
			return "", fmt.Errorf("%s is outside %s", path, d.Root)
		}
	}
	return strings.Join(parts, ":"), nil
}

// Walk 遍历目录下所有源码文件
func (d *Dir) Walk(fn func(name, path string) error) error {
	return filepath.WalkDir(d.Root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == d.Root {
				return nil
			}
			return err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(path), FileExtension) {
			return nil
		}
		name, err := d.NameOf(path)
		if err != nil {
			return err
		}
		return fn(name, path)
	})
}
