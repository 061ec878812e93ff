package classinfo

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/parser"
	"github.com/tangzhangming/pcode/internal/types"
)

// SourceProvider 按限定名提供应用类源码
//
// found 为 false 表示类不存在；err 表示读取失败。
type SourceProvider interface {
	TryGetProgramSource(ctx context.Context, qualifiedName string) (source string, found bool, err error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(ctx context.Context, qualifiedName string) (string, bool, error)

// TryGetProgramSource 实现 SourceProvider
func (f ProviderFunc) TryGetProgramSource(ctx context.Context, qualifiedName string) (string, bool, error) {
	return f(ctx, qualifiedName)
}

// errCycle 解析链中再次遇到正在解析的类
var errCycle = errors.New("cyclic inheritance")

// ============================================================================
// Resolver
// ============================================================================

// Resolver 按需解析应用类元数据
//
// 继承链上的类在首次访问时才获取源码；解析结果写入共享缓存。
type Resolver struct {
	provider SourceProvider
	cache    *Cache
	logger   *zap.Logger
	stats    *Stats
	run      *Stats // 可选的单次运行计数
}

// Option 配置 Resolver
type Option func(*Resolver)

// WithCache 使用共享缓存
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver 创建 Resolver，provider 可为 nil（只使用缓存）
func NewResolver(provider SourceProvider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider, stats: &Stats{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// WithStats 返回共享提供者与缓存、额外把计数记入 s 的 Resolver
func (r *Resolver) WithStats(s *Stats) *Resolver {
	cp := *r
	cp.run = s
	return &cp
}

// CacheOnly 返回只查缓存、不再获取源码的 Resolver
func (r *Resolver) CacheOnly() *Resolver {
	cp := *r
	cp.provider = nil
	return &cp
}

// Cache 返回使用的缓存
func (r *Resolver) Cache() *Cache { return r.cache }

// Stats 返回累计计数
func (r *Resolver) Stats() *Stats { return r.stats }

// Invalidate 使一个类的缓存失效
func (r *Resolver) Invalidate(name string) bool {
	return r.cache.Invalidate(name)
}

type counter func(*Stats) *atomic.Int64

var (
	hits     counter = func(s *Stats) *atomic.Int64 { return &s.CacheHits }
	fetches  counter = func(s *Stats) *atomic.Int64 { return &s.Fetches }
	failures counter = func(s *Stats) *atomic.Int64 { return &s.Failures }
)

func (r *Resolver) count(field counter) {
	field(r.stats).Inc()
	if r.run != nil {
		field(r.run).Inc()
	}
}

// Resolve 解析限定名对应的类
//
// 类不存在、读取失败或源码中没有类/接口时返回 (nil, nil)；
// 只有 ctx 取消时返回错误。
func (r *Resolver) Resolve(ctx context.Context, name string) (*ClassTypeInfo, error) {
	info, err := r.resolve(ctx, name, make(map[string]bool))
	if errors.Is(err, errCycle) {
		return nil, nil
	}
	return info, err
}

func (r *Resolver) resolve(ctx context.Context, name string, guard map[string]bool) (*ClassTypeInfo, error) {
	if name == "" {
		return nil, nil
	}
	key := cacheKey(name)
	if info, ok := r.cache.Get(key); ok {
		r.count(hits)
		return info, nil
	}
	if guard[key] {
		return nil, errCycle
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.provider == nil {
		return nil, nil
	}

	r.count(fetches)
	src, found, err := r.provider.TryGetProgramSource(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.count(failures)
		r.logger.Warn("failed to fetch class source", zap.String("class", name), zap.Error(err))
		return nil, nil
	}
	if !found {
		r.count(failures)
		r.logger.Debug("class source not found", zap.String("class", name))
		return nil, nil
	}

	prog, perr := parser.ParseSource(src, name)
	if perr != nil {
		r.logger.Warn("class source has syntax errors", zap.String("class", name), zap.Error(perr))
	}
	if prog == nil || (prog.Class == nil && prog.Interface == nil) {
		r.count(failures)
		return nil, nil
	}

	guard[key] = true
	defer delete(guard, key)

	info, err := r.build(ctx, prog, name, guard)
	if err != nil {
		return nil, err
	}
	r.cache.Put(info)
	return info, nil
}

// FromProgram 为正在分析的程序构建元数据，结果不写入缓存
//
// name 为空时使用类名本身。程序中没有类或接口时返回 nil。
func (r *Resolver) FromProgram(ctx context.Context, prog *ast.Program, name string) (*ClassTypeInfo, error) {
	if prog == nil || (prog.Class == nil && prog.Interface == nil) {
		return nil, nil
	}
	if name == "" {
		if prog.Class != nil {
			name = prog.Class.Name.Literal
		} else {
			name = prog.Interface.Name.Literal
		}
	}
	guard := map[string]bool{cacheKey(name): true}
	return r.build(ctx, prog, name, guard)
}

// build 先解析接口与基类，再填充自身成员
func (r *Resolver) build(ctx context.Context, prog *ast.Program, name string, guard map[string]bool) (*ClassTypeInfo, error) {
	scope := NewImportScope(prog.Imports, PackageOf(name))
	info := newClassTypeInfo(name)

	var base ast.TypeNode
	var ifaces []ast.TypeNode
	if prog.Class != nil {
		base, ifaces = prog.Class.Extends, prog.Class.Implements
	} else {
		info.IsInterface = true
		base = prog.Interface.Extends
	}

	for _, ref := range ifaces {
		qn := scope.ClassRef(ref)
		if qn == "" {
			continue
		}
		ok, err := r.link(ctx, qn, guard)
		if err != nil {
			return nil, err
		}
		if !ok {
			info.CyclicLinks = append(info.CyclicLinks, qn)
			r.logger.Warn("cyclic interface link", zap.String("class", name), zap.String("interface", qn))
			continue
		}
		info.ImplementedInterfaces = append(info.ImplementedInterfaces, qn)
	}

	if base != nil {
		if qn := scope.ClassRef(base); qn != "" {
			ok, err := r.link(ctx, qn, guard)
			if err != nil {
				return nil, err
			}
			if ok {
				info.BaseClassName = qn
			} else {
				info.CyclicLinks = append(info.CyclicLinks, qn)
				r.logger.Warn("cyclic base class link", zap.String("class", name), zap.String("base", qn))
			}
		}
	}

	if prog.Class != nil {
		info.addClassMembers(prog.Class, scope)
	} else {
		info.addInterfaceMembers(prog.Interface, scope)
	}
	return info, nil
}

// link 预先解析父类型；返回 false 表示该链接成环
func (r *Resolver) link(ctx context.Context, name string, guard map[string]bool) (bool, error) {
	_, err := r.resolve(ctx, name, guard)
	switch {
	case errors.Is(err, errCycle):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// lookup 解析父类型，失败时返回 nil
func (r *Resolver) lookup(ctx context.Context, name string) *ClassTypeInfo {
	info, _ := r.Resolve(ctx, name)
	return info
}

// ============================================================================
// 继承链遍历
// ============================================================================

// visitFunc 遍历回调；c 为 nil 表示该名称无法解析。返回 false 停止遍历。
type visitFunc func(name string, c *ClassTypeInfo, depth int) bool

// walk 按 自身 → 接口 → 基类 → 基类的接口 ... 的顺序遍历
//
// 每个类型最多访问一次，环状的继承链也能终止。
func (r *Resolver) walk(ctx context.Context, start *ClassTypeInfo, fn visitFunc) {
	visited := make(map[string]bool)
	c := start
	for depth := 0; c != nil; depth++ {
		key := cacheKey(c.QualifiedName)
		if visited[key] {
			return
		}
		visited[key] = true
		if !fn(c.QualifiedName, c, depth) {
			return
		}
		if !r.walkInterfaces(ctx, c.ImplementedInterfaces, visited, depth, fn) {
			return
		}
		if c.BaseClassName == "" || visited[cacheKey(c.BaseClassName)] {
			return
		}
		next := r.lookup(ctx, c.BaseClassName)
		if next == nil {
			fn(c.BaseClassName, nil, depth+1)
			return
		}
		c = next
	}
}

func (r *Resolver) walkInterfaces(ctx context.Context, names []string, visited map[string]bool, depth int, fn visitFunc) bool {
	for _, name := range names {
		key := cacheKey(name)
		if visited[key] {
			continue
		}
		visited[key] = true
		ic := r.lookup(ctx, name)
		if !fn(name, ic, depth) {
			return false
		}
		if ic == nil {
			continue
		}
		parents := ic.ImplementedInterfaces
		// 接口扩展的接口记录在 BaseClassName
		if ic.BaseClassName != "" {
			parents = append(append([]string(nil), parents...), ic.BaseClassName)
		}
		if !r.walkInterfaces(ctx, parents, visited, depth, fn) {
			return false
		}
	}
	return true
}

// FindMethodInfo 沿继承链查找第一个对 access 可见的方法
func (r *Resolver) FindMethodInfo(ctx context.Context, cls *ClassTypeInfo, name string, access AccessContext) *ClassMethodInfo {
	if cls == nil {
		return nil
	}
	key := strings.ToLower(name)
	var found *ClassMethodInfo
	r.walk(ctx, cls, func(_ string, c *ClassTypeInfo, depth int) bool {
		if c == nil {
			return true
		}
		if m, ok := c.Methods[key]; ok && access.visible(m.Visibility, m.DeclaringType, cls.QualifiedName, depth) {
			found = m
			return false
		}
		return true
	})
	return found
}

// FindPropertyInfo 沿继承链查找第一个对 access 可见的属性
func (r *Resolver) FindPropertyInfo(ctx context.Context, cls *ClassTypeInfo, name string, access AccessContext) *ClassPropertyInfo {
	if cls == nil {
		return nil
	}
	key := strings.ToLower(name)
	var found *ClassPropertyInfo
	r.walk(ctx, cls, func(_ string, c *ClassTypeInfo, depth int) bool {
		if c == nil {
			return true
		}
		if p, ok := c.Properties[key]; ok && access.visible(p.Visibility, p.DeclaringType, cls.QualifiedName, depth) {
			found = p
			return false
		}
		return true
	})
	return found
}

// MemberNames 继承链上对 access 可见的方法与属性名，去重后排序
func (r *Resolver) MemberNames(ctx context.Context, cls *ClassTypeInfo, access AccessContext) []string {
	if cls == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if key := strings.ToLower(name); !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}
	r.walk(ctx, cls, func(_ string, c *ClassTypeInfo, depth int) bool {
		if c == nil {
			return true
		}
		for _, m := range c.Methods {
			if access.visible(m.Visibility, m.DeclaringType, cls.QualifiedName, depth) {
				add(m.Name)
			}
		}
		for _, p := range c.Properties {
			if access.visible(p.Visibility, p.DeclaringType, cls.QualifiedName, depth) {
				add(p.Name)
			}
		}
		return true
	})
	sort.Strings(names)
	return names
}

// UnimplementedAbstractMembers 具体类尚未实现的抽象方法与接口方法
//
// 接口和自身声明了抽象方法的类返回 nil。
func (r *Resolver) UnimplementedAbstractMembers(ctx context.Context, cls *ClassTypeInfo) []*ClassMethodInfo {
	if cls == nil || cls.IsAbstract() {
		return nil
	}

	concrete := make(map[string]bool)
	var chain []*ClassTypeInfo
	r.walk(ctx, cls, func(_ string, c *ClassTypeInfo, _ int) bool {
		if c != nil {
			chain = append(chain, c)
			if !c.IsInterface {
				for key, m := range c.Methods {
					if !m.IsAbstract {
						concrete[key] = true
					}
				}
			}
		}
		return true
	})

	var missing []*ClassMethodInfo
	reported := make(map[string]bool)
	for _, c := range chain {
		for _, key := range sortedMethodKeys(c) {
			m := c.Methods[key]
			if !m.IsAbstract || concrete[key] || reported[key] {
				continue
			}
			reported[key] = true
			missing = append(missing, m)
		}
	}
	return missing
}

// Complete 继承链上的每个类型都已解析且没有成环的链接
//
// 链不完整时找不到成员不能断定成员不存在。
func (r *Resolver) Complete(ctx context.Context, cls *ClassTypeInfo) bool {
	if cls == nil {
		return false
	}
	complete := true
	r.walk(ctx, cls, func(_ string, c *ClassTypeInfo, _ int) bool {
		if c == nil || len(c.CyclicLinks) > 0 {
			complete = false
			return false
		}
		return true
	})
	return complete
}

// Ancestors 基类与接口的限定名，按遍历顺序，不含自身
//
// 无法解析的父类型名称仍会出现在结果中。类本身无法解析时 ok 为 false。
func (r *Resolver) Ancestors(ctx context.Context, name string) ([]string, bool) {
	cls := r.lookup(ctx, name)
	if cls == nil {
		return nil, false
	}
	return r.ancestorsOf(ctx, cls), true
}

func (r *Resolver) ancestorsOf(ctx context.Context, cls *ClassTypeInfo) []string {
	var out []string
	r.walk(ctx, cls, func(name string, _ *ClassTypeInfo, depth int) bool {
		if depth > 0 || !strings.EqualFold(name, cls.QualifiedName) {
			out = append(out, name)
		}
		return true
	})
	return out
}

// Hierarchy 供可赋值性判定使用；local 为正在分析的类，优先于缓存
func (r *Resolver) Hierarchy(ctx context.Context, local *ClassTypeInfo) types.Hierarchy {
	return types.HierarchyFunc(func(name string) ([]string, bool) {
		if local != nil && strings.EqualFold(name, local.QualifiedName) {
			return r.ancestorsOf(ctx, local), true
		}
		return r.Ancestors(ctx, name)
	})
}

func sortedMethodKeys(c *ClassTypeInfo) []string {
	keys := make([]string, 0, len(c.Methods))
	for k := range c.Methods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
