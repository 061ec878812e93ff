// Package source 提供应用类源码：内存、目录与 SQLite 三种来源
//
// 所有提供者都实现 classinfo.SourceProvider，按限定名 (PKG:SUB:Class)
// 不区分大小写地查找源码。
package source

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/tangzhangming/pcode/internal/classinfo"
)

// FileExtension 源码文件后缀
const FileExtension = ".pcode"

// Fingerprint 源码内容指纹 (BLAKE2b-256，十六进制)
func Fingerprint(src string) string {
	sum := blake2b.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// Chain 依次查询多个提供者，返回第一个找到的源码
//
// 某个提供者出错时立即返回错误。
type Chain []classinfo.SourceProvider

// TryGetProgramSource 实现 classinfo.SourceProvider
func (c Chain) TryGetProgramSource(ctx context.Context, name string) (string, bool, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		src, found, err := p.TryGetProgramSource(ctx, name)
		if err != nil || found {
			return src, found, err
		}
	}
	return "", false, nil
}

// ============================================================================
// Tracker - 源码变化检测
// ============================================================================

// Tracker 记录每个类最近一次看到的源码指纹
type Tracker struct {
	mu     sync.Mutex
	prints map[string]string
}

// NewTracker 创建 Tracker
func NewTracker() *Tracker {
	return &Tracker{prints: make(map[string]string)}
}

// Observe 记录源码，返回内容是否与上次不同（第一次看到也算变化）
func (t *Tracker) Observe(name, src string) bool {
	fp := Fingerprint(src)
	key := strings.ToLower(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prints[key] == fp {
		return false
	}
	t.prints[key] = fp
	return true
}

// Forget 删除记录
func (t *Tracker) Forget(name string) {
	t.mu.Lock()
	delete(t.prints, strings.ToLower(name))
	t.mu.Unlock()
}

// Fingerprint 返回记录的指纹
func (t *Tracker) Fingerprint(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fp, ok := t.prints[strings.ToLower(name)]
	return fp, ok
}
