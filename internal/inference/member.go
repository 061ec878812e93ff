package inference

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/classinfo"
	"github.com/tangzhangming/pcode/internal/errors"
	"github.com/tangzhangming/pcode/internal/token"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// 成员访问
// ============================================================================

// referenceAccess RECORD.JOB 这类引用直接得到引用类型，不做成员查找
func (c *Context) referenceAccess(n *ast.MemberAccess) (types.TypeInfo, bool) {
	id, ok := n.Object.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	cat, ok := types.ParseReferenceCategory(id.Name)
	if !ok {
		return nil, false
	}
	c.mark(id, types.NewReference(cat, ""))
	return types.NewReference(cat, n.Name()), true
}

// member 解析 recv 上的成员；call 非 nil 时是方法调用，args 为实参类型
func (c *Context) member(n *ast.MemberAccess, recv types.TypeInfo, call *ast.CallExpr, args []types.TypeInfo) types.TypeInfo {
	switch t := recv.(type) {
	case *types.AppClassType:
		return c.classMember(n, t.QualifiedName, call, args)
	case *types.BuiltinObjectType, *types.ArrayType:
		return c.objectMember(n, recv, call, args)
	}
	if types.IsAny(recv) {
		return types.Any
	}
	return types.Unknown
}

// classMember 先找属性再找方法；通过 %Super 访问时放宽 protected
func (c *Context) classMember(n *ast.MemberAccess, qualifiedName string, call *ast.CallExpr, args []types.TypeInfo) types.TypeInfo {
	cls := c.classInfo(qualifiedName)
	if cls == nil {
		return types.Unknown
	}
	access := classinfo.AccessContext{}
	if _, ok := n.Object.(*ast.SuperExpr); ok {
		access.ViaSuper = true
	}
	if c.class != nil && c.prog.Class != nil {
		access.FromClass = c.class.QualifiedName
	}

	name := n.Name()
	if p := c.classes.FindPropertyInfo(c.ctx, cls, name, access); p != nil {
		if call != nil {
			return c.defaultCall(call, p.Type, args)
		}
		return p.Type
	}
	if m := c.classes.FindMethodInfo(c.ctx, cls, name, access); m != nil {
		n.ResolvedMethod = m
		if call != nil {
			c.sites.params = append(c.sites.params, paramSite{
				call:   call,
				name:   m.Name,
				params: m.Params,
				args:   args,
			})
		}
		return m.Return
	}

	c.memberMissing(n, cls, name, access)
	return types.Unknown
}

// memberMissing 区分不可见与不存在；继承链不完整时不能断定不存在
func (c *Context) memberMissing(n *ast.MemberAccess, cls *classinfo.ClassTypeInfo, name string, access classinfo.AccessContext) {
	span := token.SpanFromToken(n.Member)
	if m := c.classes.FindMethodInfo(c.ctx, cls, name, classinfo.Unrestricted); m != nil {
		c.report(n, errors.New(errors.T0502, span, m.Name, cls.QualifiedName, m.Visibility.String()))
		return
	}
	if p := c.classes.FindPropertyInfo(c.ctx, cls, name, classinfo.Unrestricted); p != nil {
		c.report(n, errors.New(errors.T0502, span, p.Name, cls.QualifiedName, p.Visibility.String()))
		return
	}
	if c.classes.Complete(c.ctx, cls) {
		err := errors.New(errors.T0501, span, cls.QualifiedName, name)
		if hint := errors.DidYouMean(name, c.classes.MemberNames(c.ctx, cls, access)); hint != "" {
			err = err.WithHint(hint)
		}
		c.report(n, err)
	}
}

// objectMember 内置对象的属性与方法；目录不完整，找不到不报错
func (c *Context) objectMember(n *ast.MemberAccess, recv types.TypeInfo, call *ast.CallExpr, args []types.TypeInfo) types.TypeInfo {
	obj, ok := c.objectInfo(recv)
	if !ok {
		return types.Unknown
	}
	name := n.Name()

	if call != nil {
		if fi, ok := obj.Method(name); ok {
			c.sites.calls = append(c.sites.calls, callSite{call: call, name: obj.Name + "." + fi.Name, fn: fi, receiver: recv, args: args})
			return catalogReturn(fi, recv, args)
		}
		if p, ok := obj.Property(name); ok {
			return c.defaultCall(call, p.TypeInfo(), args)
		}
		return types.Unknown
	}

	if p, ok := obj.Property(name); ok {
		return p.TypeInfo()
	}
	if fi, ok := obj.Method(name); ok {
		return catalogReturn(fi, recv, nil)
	}
	// &row.JOB 是记录，&rec.EMPLID 是字段
	switch strings.ToLower(obj.Name) {
	case "row":
		return types.NewBuiltinObject("Record")
	case "record":
		return types.NewBuiltinObject("Field")
	}
	return types.Unknown
}
