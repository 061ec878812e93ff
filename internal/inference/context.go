package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// 作用域
// ============================================================================

// Scope 词法作用域，查找时回退到父作用域
type Scope struct {
	parent *Scope
	vars   map[string]types.TypeInfo
}

// NewScope 创建作用域
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]types.TypeInfo)}
}

// Declare 在当前作用域声明变量，名称不区分大小写
func (s *Scope) Declare(name string, t types.TypeInfo) {
	s.vars[strings.ToLower(name)] = t
}

// Lookup 沿作用域链查找变量
func (s *Scope) Lookup(name string) (types.TypeInfo, bool) {
	key := strings.ToLower(name)
	for scope := s; scope != nil; scope = scope.parent {
		if t, ok := scope.vars[key]; ok {
			return t, true
		}
	}
	return nil, false
}

// Parent 返回父作用域
func (s *Scope) Parent() *Scope { return s.parent }

// ============================================================================
// 计数
// ============================================================================

// Stats 一次推断的计数，可被并发读取
type Stats struct {
	NodesAnalyzed       atomic.Int64
	TypesInferred       atomic.Int64
	Unresolved          atomic.Int64
	CacheHits           atomic.Int64
	ExternalResolutions atomic.Int64
}

// ============================================================================
// Context
// ============================================================================

// frame 正在分析的函数或方法
type frame struct {
	name    string
	returns types.TypeInfo
}

// Context 一次推断的全部可变状态
//
// 由访问者在单次遍历中写入；CreateResult 之后只读，后续的诊断被忽略。
type Context struct {
	ctx    context.Context
	opts   Options
	prog   *ast.Program
	logger *zap.Logger
	runID  uuid.UUID
	start  time.Time
	halted bool

	globals   map[string]types.TypeInfo
	declared  map[string]types.TypeInfo // 全程序变量声明扫描，作为作用域查找的后备
	functions map[string]*ast.FunctionDecl
	scope     *Scope
	frame     *frame

	imports *classinfo.ImportScope
	class   *classinfo.ClassTypeInfo // 当前程序中的类或接口
	classes *classinfo.Resolver
	compat  types.Compat

	// ResolvedPrograms 与 TypeCache 以小写限定名为键
	resolvedPrograms sync.Map // -> *ast.Program（nil 表示找不到）
	typeCache        sync.Map // -> *classinfo.ClassTypeInfo（nil 表示找不到）

	mu       sync.Mutex
	errs     []*errors.TypeError
	warnings []*errors.TypeError
	frozen   bool

	stats      Stats
	classStats classinfo.Stats

	sites sites
}

// NewContext 创建一次推断的上下文
func NewContext(ctx context.Context, prog *ast.Program, opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Context{
		ctx:       ctx,
		opts:      opts,
		prog:      prog,
		runID:     uuid.New(),
		start:     time.Now(),
		globals:   make(map[string]types.TypeInfo),
		declared:  make(map[string]types.TypeInfo),
		functions: make(map[string]*ast.FunctionDecl),
	}
	c.logger = logger.With(zap.String("run", c.runID.String()), zap.String("file", prog.Filename))
	c.scope = NewScope(nil)

	if opts.Classes != nil {
		c.classes = opts.Classes.WithStats(&c.classStats)
		if opts.Mode != Thorough {
			c.classes = c.classes.CacheOnly()
		}
	} else {
		c.classes = classinfo.NewResolver(nil)
	}
	return c
}

// RunID 本次推断的标识
func (c *Context) RunID() uuid.UUID { return c.runID }

// Stats 返回计数
func (c *Context) Stats() *Stats { return &c.stats }

// ----------------------------------------------------------------------------
// 变量
// ----------------------------------------------------------------------------

// SetGlobal 记录程序级变量或常量的类型
func (c *Context) SetGlobal(name string, t types.TypeInfo) {
	c.globals[strings.ToLower(name)] = t
}

// Global 查找程序级变量或常量
func (c *Context) Global(name string) (types.TypeInfo, bool) {
	t, ok := c.globals[strings.ToLower(name)]
	return t, ok
}

// EnterScope 进入新的词法作用域
func (c *Context) EnterScope() {
	c.scope = NewScope(c.scope)
}

// ExitScope 退出当前作用域
func (c *Context) ExitScope() {
	if c.scope.parent != nil {
		c.scope = c.scope.parent
	}
}

// Declare 在当前作用域声明变量
func (c *Context) Declare(name string, t types.TypeInfo) {
	c.scope.Declare(name, t)
}

// Lookup 查找变量：作用域链 → 程序级 → 全程序声明扫描
func (c *Context) Lookup(name string) (types.TypeInfo, bool) {
	if t, ok := c.scope.Lookup(name); ok {
		return t, true
	}
	if t, ok := c.Global(name); ok {
		return t, true
	}
	t, ok := c.declared[strings.ToLower(name)]
	return t, ok
}

// ----------------------------------------------------------------------------
// 诊断
// ----------------------------------------------------------------------------

// AddError 记录诊断；宽松模式下涉及 Unknown 的错误降级为警告
func (c *Context) AddError(err *errors.TypeError) {
	if c.opts.TreatUnknownAsAny && err.Level == errors.LevelError && err.Involves(types.Unknown.String()) {
		err.AsWarning()
	}
	if err.Level != errors.LevelError {
		c.AddWarning(err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozen {
		c.errs = append(c.errs, err)
	}
}

// AddWarning 记录警告
func (c *Context) AddWarning(err *errors.TypeError) {
	if err.Level == errors.LevelError {
		err.AsWarning()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozen {
		c.warnings = append(c.warnings, err)
	}
}

// Errors 返回错误的副本
func (c *Context) Errors() []*errors.TypeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*errors.TypeError(nil), c.errs...)
}

// Warnings 返回警告的副本
func (c *Context) Warnings() []*errors.TypeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*errors.TypeError(nil), c.warnings...)
}

// report 记录诊断并挂到对应的表达式节点上
func (c *Context) report(node ast.Node, err *errors.TypeError) {
	c.AddError(err)
	if e, ok := node.(ast.Expression); ok && e != nil {
		e.Meta().AddDiagnostic(err)
	}
}

// ----------------------------------------------------------------------------
// 取消
// ----------------------------------------------------------------------------

// stopped 超时或取消后返回 true，并让后续遍历尽快返回
func (c *Context) stopped() bool {
	if c.halted {
		return true
	}
	if c.ctx.Err() != nil {
		c.halted = true
		c.logger.Debug("inference interrupted", zap.Error(c.ctx.Err()))
	}
	return c.halted
}

// ----------------------------------------------------------------------------
// 结果
// ----------------------------------------------------------------------------

// CreateResult 冻结上下文并生成结果
func (c *Context) CreateResult(state State) *Result {
	c.mu.Lock()
	c.frozen = true
	errs := append([]*errors.TypeError(nil), c.errs...)
	warnings := append([]*errors.TypeError(nil), c.warnings...)
	c.mu.Unlock()

	errors.SortByPosition(errs)
	errors.SortByPosition(warnings)

	return &Result{
		RunID:               c.runID,
		Success:             state == Done,
		Mode:                c.opts.Mode,
		State:               state,
		NodesAnalyzed:       c.stats.NodesAnalyzed.Load(),
		TypesInferred:       c.stats.TypesInferred.Load(),
		Unresolved:          c.stats.Unresolved.Load(),
		Errors:              errs,
		Warnings:            warnings,
		Elapsed:             time.Since(c.start),
		CacheHits:           c.stats.CacheHits.Load() + c.classStats.CacheHits.Load(),
		ExternalResolutions: c.stats.ExternalResolutions.Load() + c.classStats.Fetches.Load(),
		TimedOut:            state == TimedOut,
		Cancelled:           state == Cancelled,
	}
}

// failed 引擎内部错误：只保留一条合成的错误
func (c *Context) failed(fault interface{}) *Result {
	c.mu.Lock()
	c.errs = []*errors.TypeError{errors.New(errors.T0090, token.Span{}, fmt.Sprint(fault))}
	c.warnings = nil
	c.mu.Unlock()
	return c.CreateResult(Failed)
}
