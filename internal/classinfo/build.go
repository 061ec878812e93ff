package classinfo

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/ast"
	"github.com/tangzhangming/pcode/internal/signature"
	"github.com/tangzhangming/pcode/internal/types"
)

// ============================================================================
// 从语法树构建成员表
// ============================================================================

func toVisibility(v ast.Visibility) signature.Visibility {
	switch v {
	case ast.VisibilityProtected:
		return signature.Protected
	case ast.VisibilityPrivate:
		return signature.Private
	}
	return signature.Public
}

func methodInfo(m *ast.MethodHeader, scope *ImportScope, declaring string) *ClassMethodInfo {
	info := &ClassMethodInfo{
		Name:          m.Name.Literal,
		Visibility:    toVisibility(m.Visibility),
		Return:        types.Void,
		IsAbstract:    m.Abstract,
		DeclaringType: declaring,
		Pos:           m.Name.Pos,
	}
	if m.Returns != nil {
		info.Return = scope.TypeOf(m.Returns)
	}
	for _, p := range m.Params {
		info.Params = append(info.Params, ParamInfo{
			Name: p.Name.Literal,
			Type: scope.TypeOf(p.Type),
			Out:  p.Out,
		})
	}
	return info
}

func propertyInfo(p *ast.PropertyDecl, scope *ImportScope, declaring string) *ClassPropertyInfo {
	return &ClassPropertyInfo{
		Name:          p.Name.Literal,
		Visibility:    toVisibility(p.Visibility),
		Type:          scope.TypeOf(p.Type),
		IsReadOnly:    p.ReadOnly || (p.HasGet && !p.HasSet),
		IsAbstract:    p.Abstract,
		DeclaringType: declaring,
		Pos:           p.Name.Pos,
	}
}

// LiteralType 常量的类型取自字面量，负号不改变类型
func LiteralType(e ast.Expression) types.TypeInfo {
	lit, ok := e.(*ast.Literal)
	if !ok {
		if u, ok := e.(*ast.UnaryExpr); ok {
			return LiteralType(u.Operand)
		}
		return types.Any
	}
	switch lit.Kind {
	case ast.LitString:
		return types.String
	case ast.LitInteger:
		return types.Integer
	case ast.LitNumber:
		return types.Number
	case ast.LitBoolean:
		return types.Boolean
	}
	return types.Any
}

// addClassMembers 填充类自身声明的成员
func (c *ClassTypeInfo) addClassMembers(cls *ast.ClassDecl, scope *ImportScope) {
	name := c.QualifiedName
	for _, m := range cls.Methods {
		info := methodInfo(m, scope, name)
		if strings.EqualFold(m.Name.Literal, cls.Name.Literal) {
			info.Return = c.Type()
			c.Constructor = info
			continue
		}
		c.Methods[strings.ToLower(info.Name)] = info
	}
	for _, p := range cls.Properties {
		info := propertyInfo(p, scope, name)
		c.Properties[strings.ToLower(info.Name)] = info
	}
	for _, decl := range cls.Instances {
		typ := scope.TypeOf(decl.Type)
		for _, v := range decl.Names {
			c.Properties[strings.ToLower(v.Token.Literal)] = &ClassPropertyInfo{
				Name:          v.Token.Literal,
				Visibility:    signature.Private,
				Type:          typ,
				IsInstance:    true,
				DeclaringType: name,
				Pos:           v.Token.Pos,
			}
		}
	}
	for _, k := range cls.Constants {
		c.Properties[strings.ToLower(k.Name.Literal)] = &ClassPropertyInfo{
			Name:          k.Name.Literal,
			Visibility:    toVisibility(k.Visibility),
			Type:          LiteralType(k.Value),
			IsReadOnly:    true,
			IsConstant:    true,
			DeclaringType: name,
			Pos:           k.Name.Pos,
		}
	}
}

func (c *ClassTypeInfo) addInterfaceMembers(iface *ast.InterfaceDecl, scope *ImportScope) {
	for _, m := range iface.Methods {
		info := methodInfo(m, scope, c.QualifiedName)
		info.IsAbstract = true
		c.Methods[strings.ToLower(info.Name)] = info
	}
	for _, p := range iface.Properties {
		info := propertyInfo(p, scope, c.QualifiedName)
		info.IsAbstract = true
		c.Properties[strings.ToLower(info.Name)] = info
	}
}
