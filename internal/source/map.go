package source

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Map 内存中的源码表，可并发读写
//
// 语言服务器用它保存编辑器中打开的文档，优先于磁盘内容。
type Map struct {
	mu      sync.RWMutex
	entries map[string]mapEntry
}

type mapEntry struct {
	name   string
	source string
}

// NewMap 创建 Map，可传入初始内容
func NewMap(initial map[string]string) *Map {
	m := &Map{entries: make(map[string]mapEntry, len(initial))}
	for name, src := range initial {
		m.Set(name, src)
	}
	return m
}

// Set 写入源码，返回内容是否变化
func (m *Map) Set(name, src string) bool {
	key := strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.entries[key]
	m.entries[key] = mapEntry{name: name, source: src}
	return !ok || old.source != src
}

// Delete 删除源码，返回条目是否存在
func (m *Map) Delete(name string) bool {
	key := strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok
}

// Names 返回所有限定名（排序）
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Len 条目数
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// TryGetProgramSource 实现 classinfo.SourceProvider
func (m *Map) TryGetProgramSource(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[strings.ToLower(name)]
	return e.source, ok, nil
}
