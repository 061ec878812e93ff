package classinfo

import (
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// ============================================================================
// 元数据缓存
// ============================================================================

// Cache 按限定名缓存已解析的类，可在多个 Resolver 与多次推断间共享
//
// 条目一旦写入不再修改；源码变化时通过 Invalidate 移除后重新解析。
type Cache struct {
	entries sync.Map // 小写限定名 -> *ClassTypeInfo
	size    atomic.Int64
}

// NewCache 创建空缓存
func NewCache() *Cache {
	return &Cache{}
}

func cacheKey(name string) string { return strings.ToLower(name) }

// Get 读取缓存
func (c *Cache) Get(name string) (*ClassTypeInfo, bool) {
	v, ok := c.entries.Load(cacheKey(name))
	if !ok {
		return nil, false
	}
	return v.(*ClassTypeInfo), true
}

// Put 写入或整体替换一个条目
func (c *Cache) Put(info *ClassTypeInfo) {
	if _, loaded := c.entries.Swap(cacheKey(info.QualifiedName), info); !loaded {
		c.size.Inc()
	}
}

// Invalidate 移除一个条目，返回条目是否存在
func (c *Cache) Invalidate(name string) bool {
	if _, loaded := c.entries.LoadAndDelete(cacheKey(name)); loaded {
		c.size.Dec()
		return true
	}
	return false
}

// Clear 清空缓存
func (c *Cache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		if _, loaded := c.entries.LoadAndDelete(k); loaded {
			c.size.Dec()
		}
		return true
	})
}

// Len 条目数
func (c *Cache) Len() int {
	return int(c.size.Load())
}

// Stats 解析计数
type Stats struct {
	CacheHits atomic.Int64 // 命中缓存的解析
	Fetches   atomic.Int64 // 向 SourceProvider 请求源码的次数
	Failures  atomic.Int64 // 源码缺失、读取失败或无法解析
}
