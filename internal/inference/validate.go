package inference

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// Validating
// ============================================================================

// 遍历时记录、遍历后校验的位置
type (
	initSite struct {
		name   token.Token
		target types.TypeInfo
		value  ast.Expression
	}
	callSite struct {
		call     *ast.CallExpr
		name     string
		fn       *signature.FunctionInfo
		receiver types.TypeInfo
		args     []types.TypeInfo
	}
	paramSite struct {
		call   *ast.CallExpr
		name   string
		params []classinfo.ParamInfo
		args   []types.TypeInfo
	}
	returnSite struct {
		stmt     *ast.ReturnStmt
		where    string
		declared types.TypeInfo
		value    types.TypeInfo
	}
	sites struct {
		inits   []initSite
		calls   []callSite
		params  []paramSite
		returns []returnSite
	}
)

func (c *Context) validate() {
	steps := []func(){
		c.validateInits,
		c.validateCalls,
		c.validateParams,
		c.validateReturns,
		c.validateClass,
	}
	for _, step := range steps {
		if c.stopped() {
			return
		}
		step()
	}
}

// validateInits 声明时的初始值
func (c *Context) validateInits() {
	for _, s := range c.sites.inits {
		value := s.value.Meta().InferredType()
		if types.IsVoid(value) {
			c.report(s.value, errors.New(errors.T0200, ast.SpanOf(s.value), calleeName(s.value)))
			continue
		}
		if types.IsUnknown(value) || types.IsUnknown(s.target) || c.assignable(s.target, value) {
			continue
		}
		src, dst := types.Display(value), types.Display(s.target)
		span := token.Span{Start: s.name.Pos, End: s.value.End()}
		c.report(s.value, errors.New(errors.T0100, span, src, dst).WithTypes(dst, src))
	}
}

// validateCalls 内置函数与内置对象方法：先查个数，再按重载查类型
//
// 类型检查中 Unknown 实参不判定为错误。
func (c *Context) validateCalls() {
	compat := types.Compat{Hierarchy: c.compat.Hierarchy, TreatUnknownAsAny: true}
	for _, s := range c.sites.calls {
		n := len(s.args)
		if !s.fn.ArityFits(n) {
			c.report(s.call, errors.New(errors.T0300, ast.SpanOf(s.call), s.name, s.fn.ArityString(), n))
			continue
		}
		if _, ok := s.fn.MatchOverload(s.args, compat); ok {
			continue
		}
		c.reportArgMismatch(s, compat)
	}
}

// reportArgMismatch 在个数匹配的第一个重载上定位出错的实参
//
// 含参数组或位于中间的可变参数的重载无法逐个对应，此时不报告。
func (c *Context) reportArgMismatch(s callSite, compat types.Compat) {
	for _, overload := range s.fn.Overloads {
		lo, hi := signature.ArityWindow(overload)
		if len(s.args) < lo || (hi >= 0 && len(s.args) > hi) {
			continue
		}
		slots, ok := positional(overload, len(s.args))
		if !ok {
			return
		}
		for i, p := range slots {
			if signature.Accepts(p, s.args[i], compat) {
				continue
			}
			node := s.call.Arguments[i]
			want, got := expectedOf(p), types.Display(s.args[i])
			c.report(node, errors.New(errors.T0101, ast.SpanOf(node), i+1, s.name, want, got).WithTypes(want, got))
			return
		}
		return
	}
}

// positional 把参数列表展开成与 n 个实参一一对应的单值参数
func positional(params []signature.Parameter, n int) ([]signature.Parameter, bool) {
	var out []signature.Parameter
	for i, p := range params {
		switch x := p.(type) {
		case *signature.SingleParameter, *signature.UnionParameter, *signature.ReferenceParameter:
			out = append(out, p)
		case *signature.VariableParameter:
			if !singleValued(x.Inner) || (i != len(params)-1 && x.Max != 1) {
				return nil, false
			}
			// 可选参数只占用后续必需参数用剩的实参
			take := n - len(out) - minArgs(params[i+1:])
			if !x.IsUnlimited() && take > int(x.Max) {
				take = int(x.Max)
			}
			if take < int(x.Min) {
				take = int(x.Min)
			}
			for k := 0; k < take; k++ {
				out = append(out, x.Inner)
			}
		default:
			return nil, false
		}
	}
	if len(out) < n {
		return nil, false
	}
	return out[:n], true
}

func minArgs(params []signature.Parameter) int {
	total := 0
	for _, p := range params {
		total += p.MinArgumentCount()
	}
	return total
}

func singleValued(p signature.Parameter) bool {
	switch p.(type) {
	case *signature.SingleParameter, *signature.UnionParameter, *signature.ReferenceParameter:
		return true
	}
	return false
}

// expectedOf 诊断中显示的参数类型
func expectedOf(p signature.Parameter) string {
	switch x := p.(type) {
	case *signature.SingleParameter:
		return x.Type.String()
	case *signature.UnionParameter:
		parts := make([]string, len(x.Types))
		for i, t := range x.Types {
			parts[i] = t.String()
		}
		return strings.Join(parts, " or ")
	case *signature.ReferenceParameter:
		return x.Category.String()
	}
	return p.String()
}

// validateParams 用户函数与应用类方法调用
func (c *Context) validateParams() {
	for _, s := range c.sites.params {
		c.checkParams(s.call, s.name, s.params, s.call.Arguments, s.args)
	}
}

// validateReturns Return 的值与所在函数声明的返回类型
func (c *Context) validateReturns() {
	for _, s := range c.sites.returns {
		if s.stmt.Value == nil {
			continue
		}
		if types.IsVoid(s.value) {
			c.report(s.stmt.Value, errors.New(errors.T0200, ast.SpanOf(s.stmt.Value), calleeName(s.stmt.Value)))
			continue
		}
		if types.IsUnknown(s.value) || types.IsUnknown(s.declared) {
			continue
		}
		if !types.IsVoid(s.declared) && c.assignable(s.declared, s.value) {
			continue
		}
		got, want := types.Display(s.value), types.Display(s.declared)
		c.report(s.stmt.Value, errors.New(errors.T0102, ast.SpanOf(s.stmt.Value), got, s.where, want).WithTypes(want, got))
	}
}

// validateClass 当前程序中的类：成环的继承链接，Thorough 模式下未实现的抽象方法
func (c *Context) validateClass() {
	if c.class == nil {
		return
	}
	var name token.Token
	switch {
	case c.prog.Class != nil:
		name = c.prog.Class.Name
	case c.prog.Interface != nil:
		name = c.prog.Interface.Name
	}
	span := token.SpanFromToken(name)

	for _, link := range c.class.CyclicLinks {
		c.AddError(errors.New(errors.T0503, span, link))
	}

	if c.opts.Mode != Thorough || c.prog.Class == nil || !c.classes.Complete(c.ctx, c.class) {
		return
	}
	for _, m := range c.classes.UnimplementedAbstractMembers(c.ctx, c.class) {
		c.AddError(errors.New(errors.T0002, span, c.class.QualifiedName, m.Name, m.DeclaringType))
	}
}
