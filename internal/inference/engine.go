// Package inference 对 PeopleCode 程序做静态类型推断
//
// 一次推断依次经过 CollectingGlobals → Visiting → Validating 三个阶段，
// 推断出的类型与诊断写回语法树节点，汇总结果以 Result 返回。
// 单次推断是单线程的；多个推断可以并发运行并共享 classinfo 缓存与签名目录。
package inference

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/signature"
)

// ============================================================================
// 模式与状态
// ============================================================================

// Mode 推断模式
type Mode int

const (
	Disabled Mode = iota // 不推断，直接返回成功
	Quick                // 只使用已缓存的类元数据
	Thorough             // 允许获取外部类与外部程序
)

var modeNames = [...]string{"disabled", "quick", "thorough"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText 实现 encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	mode, ok := ParseMode(string(text))
	if !ok {
		return fmt.Errorf("unknown inference mode %q", text)
	}
	*m = mode
	return nil
}

// ParseMode 解析模式名，不区分大小写
func ParseMode(s string) (Mode, bool) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), true
		}
	}
	return Disabled, false
}

// State 推断状态机的状态
type State int32

const (
	NotStarted State = iota
	CollectingGlobals
	Visiting
	Validating
	Done
	Failed
	TimedOut
	Cancelled
)

var stateNames = [...]string{
	"not-started", "collecting-globals", "visiting", "validating",
	"done", "failed", "timed-out", "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText 实现 encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s >= Done
}

// ============================================================================
// 外部依赖
// ============================================================================

// SignatureCatalog 内置函数、系统变量与内置对象的签名来源
type SignatureCatalog interface {
	Function(name string) (*signature.FunctionInfo, bool)
	SystemVariable(name string) (*signature.PropertyInfo, bool)
	Object(name string) (*signature.BuiltinObjectInfo, bool)
}

// ProgramResolver 解析不以类名定位的外部程序（Declare Function 的来源）
//
// 只在 Thorough 模式下使用。找不到时返回 (nil, nil)。
type ProgramResolver interface {
	ResolveProgram(ctx context.Context, name string) (*ast.Program, error)
}

// ProgramResolverFunc 函数适配器
type ProgramResolverFunc func(ctx context.Context, name string) (*ast.Program, error)

// ResolveProgram 实现 ProgramResolver
func (f ProgramResolverFunc) ResolveProgram(ctx context.Context, name string) (*ast.Program, error) {
	return f(ctx, name)
}

// Options 一次推断的参数
type Options struct {
	Mode              Mode
	Timeout           time.Duration // 0 表示不限时
	TreatUnknownAsAny bool          // 宽松模式：涉及 Unknown 的错误降级为警告
	Incremental       bool          // 保留上一次推断写在节点上的结果

	Resolver ProgramResolver     // 可为 nil
	Classes  *classinfo.Resolver // 可为 nil，此时只认识当前程序中的类
	Catalog  SignatureCatalog    // 可为 nil，此时所有内置调用为 Unknown
	Logger   *zap.Logger

	// ProgramName 当前程序中类的限定名，为空时使用类名本身
	ProgramName string
}

// ============================================================================
// Engine
// ============================================================================

// Engine 推断引擎，可以顺序复用；State 反映最近一次运行
type Engine struct {
	state atomic.Int32
}

// NewEngine 创建引擎
func NewEngine() *Engine {
	return &Engine{}
}

// State 返回当前状态
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Run 是 NewEngine().Run 的简写
func Run(ctx context.Context, prog *ast.Program, opts Options) *Result {
	return NewEngine().Run(ctx, prog, opts)
}

// Run 对 prog 执行一次推断
//
// 超时与取消不会丢弃已经推断出的类型；引擎内部错误返回 Failed 结果而不是 panic。
func (e *Engine) Run(ctx context.Context, prog *ast.Program, opts Options) (res *Result) {
	e.setState(NotStarted)
	if opts.Mode == Disabled || prog == nil {
		e.setState(Done)
		return emptyResult(opts.Mode)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	c := NewContext(ctx, prog, opts)
	log := c.logger

	defer func() {
		if r := recover(); r != nil {
			log.Error("inference fault", zap.Any("panic", r), zap.Stack("stack"))
			e.setState(Failed)
			res = c.failed(r)
		}
	}()

	if !opts.Incremental {
		ast.ResetMeta(prog)
	}

	phases := []struct {
		state State
		run   func()
	}{
		{CollectingGlobals, c.collectGlobals},
		{Visiting, c.visitProgram},
		{Validating, c.validate},
	}

	completed := true
	for _, ph := range phases {
		if c.stopped() {
			completed = false
			break
		}
		e.setState(ph.state)
		log.Debug("inference phase", zap.Stringer("state", ph.state))
		ph.run()
	}
	if completed && c.halted {
		completed = false
	}

	final := Done
	if !completed {
		final = stopState(ctx.Err())
	}
	e.setState(final)
	log.Debug("inference finished",
		zap.Stringer("state", final),
		zap.Duration("elapsed", time.Since(c.start)))
	return c.CreateResult(final)
}

// stopState 区分超时与主动取消
func stopState(err error) State {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return TimedOut
	}
	return Cancelled
}
