package inference

import (
	"strconv"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// Visiting: 表达式
// ============================================================================

// visitExpr 推断表达式类型并写回节点
func (c *Context) visitExpr(e ast.Expression) types.TypeInfo {
	if e == nil {
		return types.Unknown
	}
	c.begin(e)
	return c.record(e, c.inferExpr(e))
}

// begin 清除节点上一次的结果
func (c *Context) begin(e ast.Expression) {
	e.Meta().Reset()
	if m, ok := e.(*ast.MemberAccess); ok {
		m.ResolvedMethod = nil
	}
	c.stats.NodesAnalyzed.Inc()
}

// record 写回类型；nil 记为 Unknown
func (c *Context) record(e ast.Expression, t types.TypeInfo) types.TypeInfo {
	if t == nil {
		t = types.Unknown
	}
	e.Meta().SetInferredType(t)
	if types.IsUnknown(t) {
		c.stats.Unresolved.Inc()
	} else {
		c.stats.TypesInferred.Inc()
	}
	return t
}

// mark 为不经过 inferExpr 的节点（调用的函数名、引用类别名）直接记录类型
func (c *Context) mark(e ast.Expression, t types.TypeInfo) {
	c.begin(e)
	c.record(e, t)
}

func (c *Context) inferExpr(e ast.Expression) types.TypeInfo {
	switch n := e.(type) {
	case *ast.Literal:
		if n.Kind == ast.LitNull {
			return types.Any
		}
		return classinfo.LiteralType(n)

	case *ast.Variable:
		return c.variableType(n.Name)

	case *ast.Identifier:
		return c.identifierType(n.Name)

	case *ast.SystemVariable:
		return c.systemVariableType(n.Name)

	case *ast.ThisExpr:
		if c.class != nil && c.prog.Class != nil {
			return c.class.Type()
		}
		return types.Unknown

	case *ast.SuperExpr:
		return c.superType(n)

	case *ast.BinaryExpr:
		left := c.visitExpr(n.Left)
		right := c.visitExpr(n.Right)
		return binaryResult(n.Operator.Type, left, right)

	case *ast.UnaryExpr:
		operand := c.visitExpr(n.Operand)
		if n.Operator.Type == token.NOT {
			return types.Boolean
		}
		if types.IsNumeric(operand) {
			return operand
		}
		return types.Number

	case *ast.CallExpr:
		return c.callType(n)

	case *ast.MemberAccess:
		if t, ok := c.referenceAccess(n); ok {
			return t
		}
		recv := c.visitExpr(n.Object)
		return c.member(n, recv, nil, nil)

	case *ast.IndexExpr:
		return c.indexType(n)

	case *ast.ObjectCreation:
		return c.creationType(n)

	case *ast.TypeCastExpr:
		c.visitExpr(n.Expr)
		return c.imports.TypeOf(n.Type)

	case *ast.AssignExpr:
		return c.assignType(n)
	}
	return types.Unknown
}

func (c *Context) visitArgs(list []ast.Expression) []types.TypeInfo {
	out := make([]types.TypeInfo, len(list))
	for i, arg := range list {
		out[i] = c.visitExpr(arg)
	}
	return out
}

// ----------------------------------------------------------------------------
// 标识符
// ----------------------------------------------------------------------------

// variableType &name：作用域 → 程序级 → 声明扫描 → 当前类的实例变量与属性
func (c *Context) variableType(name string) types.TypeInfo {
	if t, ok := c.Lookup(name); ok {
		return t
	}
	if p := c.ownProperty(name); p != nil {
		return p.Type
	}
	return types.Unknown
}

// identifierType 不带 & 的名称：当前类的属性 → 内置类型名 → Unknown
func (c *Context) identifierType(name string) types.TypeInfo {
	if p := c.ownProperty(name); p != nil {
		return p.Type
	}
	if t, ok := types.ParseTypeName(name); ok {
		return t
	}
	if cat, ok := types.ParseReferenceCategory(name); ok {
		return types.NewReference(cat, "")
	}
	return types.Unknown
}

// ownProperty 在当前类（含继承链）中查找属性或实例变量
func (c *Context) ownProperty(name string) *classinfo.ClassPropertyInfo {
	if c.class == nil {
		return nil
	}
	access := classinfo.AccessContext{FromClass: c.class.QualifiedName}
	return c.classes.FindPropertyInfo(c.ctx, c.class, name, access)
}

func (c *Context) systemVariableType(name string) types.TypeInfo {
	if c.opts.Catalog == nil {
		return types.Unknown
	}
	if p, ok := c.opts.Catalog.SystemVariable(name); ok {
		return p.TypeInfo()
	}
	return types.Unknown
}

// superType %Super 是当前类的基类
func (c *Context) superType(n *ast.SuperExpr) types.TypeInfo {
	if c.class == nil || c.prog.Class == nil {
		c.report(n, errors.New(errors.T0402, ast.SpanOf(n)))
		return types.Unknown
	}
	if c.class.BaseClassName == "" {
		c.report(n, errors.New(errors.T0401, ast.SpanOf(n), c.class.QualifiedName))
		return types.Unknown
	}
	return types.NewAppClass(c.class.BaseClassName)
}

// ----------------------------------------------------------------------------
// 运算符
// ----------------------------------------------------------------------------

// binaryResult 二元运算的结果类型
func binaryResult(op token.TokenType, left, right types.TypeInfo) types.TypeInfo {
	switch op {
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE, token.AND, token.OR:
		return types.Boolean
	case token.PIPE:
		return types.String
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.POWER:
		if op == token.PLUS && (types.IsPrimitive(left, types.PrimString) || types.IsPrimitive(right, types.PrimString)) {
			return types.String
		}
		if types.IsPrimitive(left, types.PrimInteger) && types.IsPrimitive(right, types.PrimInteger) {
			return types.Integer
		}
		return types.Number
	}
	return types.Any
}

// compoundOperator += -= |= 对应的二元运算
func compoundOperator(op token.TokenType) token.TokenType {
	switch op {
	case token.PLUS_ASSIGN:
		return token.PLUS
	case token.MINUS_ASSIGN:
		return token.MINUS
	case token.PIPE_ASSIGN:
		return token.PIPE
	}
	return op
}

// ----------------------------------------------------------------------------
// 调用
// ----------------------------------------------------------------------------

// callType 先访问被调用者与全部实参，再按签名解析返回类型
//
// 目录中找不到的函数是 Unknown，不是错误。
func (c *Context) callType(n *ast.CallExpr) types.TypeInfo {
	switch fn := n.Function.(type) {
	case *ast.Identifier:
		args := c.visitArgs(n.Arguments)
		t := c.functionCallType(n, fn.Name, args)
		c.mark(fn, t)
		return t

	case *ast.MemberAccess:
		if t, ok := c.referenceAccess(fn); ok {
			c.visitArgs(n.Arguments)
			c.mark(fn, t)
			return types.Unknown
		}
		c.begin(fn)
		recv := c.visitExpr(fn.Object)
		args := c.visitArgs(n.Arguments)
		t := c.member(fn, recv, n, args)
		c.record(fn, t)
		return t

	default:
		callee := c.visitExpr(n.Function)
		args := c.visitArgs(n.Arguments)
		return c.defaultCall(n, callee, args)
	}
}

// functionCallType 用户函数优先于内置函数
func (c *Context) functionCallType(call *ast.CallExpr, name string, args []types.TypeInfo) types.TypeInfo {
	if decl, scope := c.functionDecl(name); decl != nil {
		// 来源未解析的 Declare Function 不知道签名
		if decl.Declared {
			return types.Unknown
		}
		c.sites.params = append(c.sites.params, paramSite{
			call:   call,
			name:   decl.Name.Literal,
			params: paramInfos(decl.Params, scope),
			args:   args,
		})
		if decl.Returns == nil {
			return types.Void
		}
		return scope.TypeOf(decl.Returns)
	}

	if c.opts.Catalog == nil {
		return types.Unknown
	}
	fi, ok := c.opts.Catalog.Function(name)
	if !ok {
		return types.Unknown
	}
	c.sites.calls = append(c.sites.calls, callSite{call: call, name: fi.Name, fn: fi, args: args})
	return catalogReturn(fi, nil, args)
}

func paramInfos(params []*ast.Param, scope *classinfo.ImportScope) []classinfo.ParamInfo {
	out := make([]classinfo.ParamInfo, 0, len(params))
	for _, p := range params {
		out = append(out, classinfo.ParamInfo{Name: p.Name.Literal, Type: scope.TypeOf(p.Type), Out: p.Out})
	}
	return out
}

// catalogReturn 按调用点解析多态返回类型；联合返回取第一个
func catalogReturn(fi *signature.FunctionInfo, recv types.TypeInfo, args []types.TypeInfo) types.TypeInfo {
	return types.First(fi.ResolveReturnTypeInfos(recv, args))
}

// defaultCall 对象被直接调用时使用其默认方法，例如 &rs(1)
func (c *Context) defaultCall(call *ast.CallExpr, callee types.TypeInfo, args []types.TypeInfo) types.TypeInfo {
	if types.IsAny(callee) {
		return types.Any
	}
	obj, ok := c.objectInfo(callee)
	if !ok {
		return types.Unknown
	}
	fi, ok := obj.DefaultMethod()
	if !ok {
		return types.Unknown
	}
	c.sites.calls = append(c.sites.calls, callSite{call: call, name: obj.Name + "." + fi.Name, fn: fi, receiver: callee, args: args})
	return catalogReturn(fi, callee, args)
}

// objectInfo 内置对象或数组对应的目录条目
func (c *Context) objectInfo(t types.TypeInfo) (*signature.BuiltinObjectInfo, bool) {
	if c.opts.Catalog == nil {
		return nil, false
	}
	switch x := t.(type) {
	case *types.BuiltinObjectType:
		return c.opts.Catalog.Object(x.ObjectName)
	case *types.ArrayType:
		return c.opts.Catalog.Object("Array")
	}
	return nil, false
}

// ----------------------------------------------------------------------------
// 索引、创建、赋值
// ----------------------------------------------------------------------------

func (c *Context) indexType(n *ast.IndexExpr) types.TypeInfo {
	obj := c.visitExpr(n.Object)
	c.visitArgs(n.Indexes)
	switch t := obj.(type) {
	case *types.ArrayType:
		if len(n.Indexes) > t.Dims {
			return types.Unknown
		}
		return types.NewArray(t.Elem, t.Dims-len(n.Indexes))
	}
	if types.IsAny(obj) {
		return types.Any
	}
	return types.Unknown
}

// creationType create 的类型；应用类的构造参数在这里立即校验
func (c *Context) creationType(n *ast.ObjectCreation) types.TypeInfo {
	t := c.imports.TypeOf(n.Type)
	args := c.visitArgs(n.Arguments)

	ac, ok := t.(*types.AppClassType)
	if !ok {
		return t
	}
	cls := c.classInfo(ac.QualifiedName)
	if cls == nil {
		if c.opts.Mode == Thorough && c.opts.Classes != nil {
			c.report(n, errors.New(errors.T0400, ast.SpanOf(n.Type), ac.QualifiedName).AsWarning())
		}
		return t
	}
	var params []classinfo.ParamInfo
	if cls.Constructor != nil {
		params = cls.Constructor.Params
	}
	c.checkParams(n, cls.ClassName(), params, n.Arguments, args)
	return t
}

// assignType 赋值表达式的类型是右值的类型；右值不可赋值时为 Unknown
func (c *Context) assignType(n *ast.AssignExpr) types.TypeInfo {
	value := c.visitExpr(n.Value)

	// 未声明就赋值的变量自动声明为 Any
	if v, ok := n.Target.(*ast.Variable); ok {
		if _, found := c.Lookup(v.Name); !found && c.ownProperty(v.Name) == nil {
			c.Declare(v.Name, types.Any)
		}
	}
	target := c.visitExpr(n.Target)

	if types.IsVoid(value) {
		c.report(n.Value, errors.New(errors.T0200, ast.SpanOf(n.Value), calleeName(n.Value)))
		return types.Unknown
	}

	result := value
	if n.Operator.Type != token.EQ {
		result = binaryResult(compoundOperator(n.Operator.Type), target, value)
	}
	if !types.IsUnknown(target) && !types.IsUnknown(result) && !c.assignable(target, result) {
		src, dst := types.Display(result), types.Display(target)
		c.report(n, errors.New(errors.T0100, ast.SpanOf(n), src, dst).WithTypes(dst, src))
	}
	return value
}

// assignable 继承链无法解析的应用类不能断定不兼容
func (c *Context) assignable(target, source types.TypeInfo) bool {
	if c.compat.IsAssignableFrom(target, source) {
		return true
	}
	src, ok := source.(*types.AppClassType)
	if !ok {
		return false
	}
	if _, ok := target.(*types.AppClassType); !ok {
		return false
	}
	if c.compat.Hierarchy == nil {
		return true
	}
	_, resolved := c.compat.Hierarchy.Ancestors(src.QualifiedName)
	return !resolved
}

// checkParams 实参个数必须一致
//
// 形参有类型而实参为 Unknown 时也报告，宽松模式下 AddError 会把它降级为警告。
func (c *Context) checkParams(node ast.Node, name string, params []classinfo.ParamInfo, argNodes []ast.Expression, args []types.TypeInfo) {
	if len(args) != len(params) {
		c.report(node, errors.New(errors.T0300, ast.SpanOf(node), name, strconv.Itoa(len(params)), len(args)))
		return
	}
	for i, p := range params {
		arg := args[i]
		if types.IsUnknown(p.Type) || types.IsAny(p.Type) {
			continue
		}
		if types.IsUnknown(arg) || !c.assignable(p.Type, arg) {
			want, got := types.Display(p.Type), types.Display(arg)
			c.report(argNodes[i], errors.New(errors.T0101, ast.SpanOf(argNodes[i]), i+1, name, want, got).WithTypes(want, got))
		}
	}
}

// calleeName 诊断中使用的调用名称
func calleeName(e ast.Expression) string {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return e.String()
	}
	switch fn := call.Function.(type) {
	case *ast.Identifier:
		return fn.Name
	case *ast.MemberAccess:
		return fn.Name()
	}
	return call.Function.String()
}
