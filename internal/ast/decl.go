package ast

import (
	"strings"

	"github.com/tangzhangming/pcode/internal/token"
)

// ============================================================================
// 声明节点
// ============================================================================

// Visibility 成员可见性
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}

// ImportDecl import PKG:SUB:Class; 或 import PKG:SUB:*;
type ImportDecl struct {
	ImportToken token.Token
	Path        []string
	Wildcard    bool
}

func (d *ImportDecl) Pos() token.Position { return d.ImportToken.Pos }
func (d *ImportDecl) End() token.Position { return d.ImportToken.Pos }
func (d *ImportDecl) String() string {
	s := strings.Join(d.Path, ":")
	if d.Wildcard {
		s += ":*"
	}
	return "import " + s
}
func (d *ImportDecl) declNode() {}

// Package 返回导入的包路径（不含类名或 *）
func (d *ImportDecl) Package() string {
	if d.Wildcard {
		return strings.Join(d.Path, ":")
	}
	return strings.Join(d.Path[:len(d.Path)-1], ":")
}

// Param 方法/函数参数
type Param struct {
	Name token.Token // &name
	Type TypeNode    // 可为 nil（等同 any）
	Out  bool
}

// MethodHeader 类或接口体中的方法声明
type MethodHeader struct {
	MethodToken token.Token
	Name        token.Token
	Params      []*Param
	Returns     TypeNode // 可为 nil
	Visibility  Visibility
	Abstract    bool
}

func (d *MethodHeader) Pos() token.Position { return d.MethodToken.Pos }
func (d *MethodHeader) End() token.Position { return endOf(d.Name) }
func (d *MethodHeader) String() string      { return "method " + d.Name.Literal }
func (d *MethodHeader) declNode()           {}

// PropertyDecl property string Name get set;
type PropertyDecl struct {
	PropertyToken token.Token
	Type          TypeNode
	Name          token.Token
	HasGet        bool
	HasSet        bool
	ReadOnly      bool
	Abstract      bool
	Visibility    Visibility
}

func (d *PropertyDecl) Pos() token.Position { return d.PropertyToken.Pos }
func (d *PropertyDecl) End() token.Position { return endOf(d.Name) }
func (d *PropertyDecl) String() string {
	return "property " + d.Type.String() + " " + d.Name.Literal
}
func (d *PropertyDecl) declNode() {}

// ConstantDecl Constant &NAME = value;
type ConstantDecl struct {
	ConstantToken token.Token
	Name          token.Token
	Value         Expression
	Visibility    Visibility
}

func (d *ConstantDecl) Pos() token.Position { return d.ConstantToken.Pos }
func (d *ConstantDecl) End() token.Position { return d.Value.End() }
func (d *ConstantDecl) String() string      { return "Constant " + d.Name.Literal }
func (d *ConstantDecl) declNode()           {}

// MethodImpl method Name ... end-method; 以及 get/set 访问器实现
type MethodImpl struct {
	MethodToken token.Token
	Name        token.Token
	Accessor    token.TokenType // METHOD / GET / SET
	Body        *BlockStmt
	EndToken    token.Token
}

func (d *MethodImpl) Pos() token.Position { return d.MethodToken.Pos }
func (d *MethodImpl) End() token.Position { return endOf(d.EndToken) }
func (d *MethodImpl) String() string {
	return strings.ToLower(d.Accessor.String()) + " " + d.Name.Literal
}
func (d *MethodImpl) declNode() {}

// ClassDecl 应用类声明
type ClassDecl struct {
	ClassToken token.Token
	Name       token.Token
	Extends    TypeNode   // 可为 nil
	Implements []TypeNode // 可为空
	Methods    []*MethodHeader
	Properties []*PropertyDecl
	Instances  []*VarDeclStmt
	Constants  []*ConstantDecl
	Impls      []*MethodImpl
	EndToken   token.Token
}

func (d *ClassDecl) Pos() token.Position { return d.ClassToken.Pos }
func (d *ClassDecl) End() token.Position { return endOf(d.EndToken) }
func (d *ClassDecl) String() string      { return "class " + d.Name.Literal }
func (d *ClassDecl) declNode()           {}

// Constructor 返回与类同名的方法声明
func (d *ClassDecl) Constructor() *MethodHeader {
	for _, m := range d.Methods {
		if strings.EqualFold(m.Name.Literal, d.Name.Literal) {
			return m
		}
	}
	return nil
}

// Impl 查找方法或访问器的实现
func (d *ClassDecl) Impl(name string, accessor token.TokenType) *MethodImpl {
	for _, impl := range d.Impls {
		if impl.Accessor == accessor && strings.EqualFold(impl.Name.Literal, name) {
			return impl
		}
	}
	return nil
}

// InterfaceDecl 接口声明
type InterfaceDecl struct {
	InterfaceToken token.Token
	Name           token.Token
	Extends        TypeNode // 可为 nil
	Methods        []*MethodHeader
	Properties     []*PropertyDecl
	EndToken       token.Token
}

func (d *InterfaceDecl) Pos() token.Position { return d.InterfaceToken.Pos }
func (d *InterfaceDecl) End() token.Position { return endOf(d.EndToken) }
func (d *InterfaceDecl) String() string      { return "interface " + d.Name.Literal }
func (d *InterfaceDecl) declNode()           {}

// FunctionDecl Function Name(...) Returns T ... End-Function;
//
// Declare Function 只有签名没有函数体，Body 为 nil。
type FunctionDecl struct {
	FunctionToken token.Token
	Name          token.Token
	Params        []*Param
	Returns       TypeNode // 可为 nil
	Body          *BlockStmt
	Declared      bool
	Library       string // Declare Function 的来源，如 "FUNCLIB_X.FIELD FieldFormula"
	EndToken      token.Token
}

func (d *FunctionDecl) Pos() token.Position { return d.FunctionToken.Pos }
func (d *FunctionDecl) End() token.Position {
	if d.EndToken.Type != token.ILLEGAL {
		return endOf(d.EndToken)
	}
	return endOf(d.Name)
}
func (d *FunctionDecl) String() string { return "Function " + d.Name.Literal }
func (d *FunctionDecl) declNode()      {}

// ============================================================================
// Program - 一个 PeopleCode 程序
// ============================================================================

// Program 一个源文件解析后的根节点
type Program struct {
	Filename   string
	Imports    []*ImportDecl
	Class      *ClassDecl     // 可为 nil
	Interface  *InterfaceDecl // 可为 nil
	Functions  []*FunctionDecl
	Constants  []*ConstantDecl
	Statements []Statement // 顶层语句（包括顶层变量声明）
}

func (p *Program) Pos() token.Position {
	return token.Position{Filename: p.Filename, Line: 1, Column: 1}
}

func (p *Program) End() token.Position {
	if n := len(p.Statements); n > 0 {
		return p.Statements[n-1].End()
	}
	if p.Class != nil {
		return p.Class.End()
	}
	if p.Interface != nil {
		return p.Interface.End()
	}
	return p.Pos()
}

func (p *Program) String() string { return "program " + p.Filename }

// Globals 返回顶层的变量声明
func (p *Program) Globals() []*VarDeclStmt {
	var out []*VarDeclStmt
	for _, stmt := range p.Statements {
		if decl, ok := stmt.(*VarDeclStmt); ok {
			out = append(out, decl)
		}
	}
	return out
}
